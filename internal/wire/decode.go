package wire

import (
	"fmt"
	"strings"
)

// DecodeBool converts a decoded result into a bool. Numbers 0 and 1 and the
// strings "true" and "false" are accepted alongside real booleans.
func DecodeBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case float64:
		return numberBool(t)
	case int:
		return numberBool(float64(t))
	case int64:
		return numberBool(float64(t))
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, NewArgumentError("value", "cannot decode %T(%v) as bool", v, v)
}

func numberBool(n float64) (bool, error) {
	switch n {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, NewArgumentError("value", "cannot decode number %v as bool", n)
}

// DecodeBoolArray decodes each element of a []any result on its own.
func DecodeBoolArray(v any) ([]bool, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, NewArgumentError("value", "expected array, got %T", v)
	}
	out := make([]bool, len(items))
	for i, item := range items {
		b, err := DecodeBool(item)
		if err != nil {
			return nil, NewArgumentError(fmt.Sprintf("value[%d]", i), "%v", err)
		}
		out[i] = b
	}
	return out, nil
}
