package command

import (
	"github.com/dhruvsoni1802/wirebridge/internal/wire"
)

// Value is a command parameter. It is one of Scalar, Array, Mapping, Element,
// Pending or Callable.
type Value interface {
	isValue()
}

// Scalar holds a JSON-encodable leaf: string, number, bool or nil.
type Scalar struct {
	V any
}

// Array is an ordered list of values.
type Array []Value

// Mapping is a string-keyed set of values.
type Mapping map[string]Value

// Element wraps an element reference; it is forwarded, never resolved.
type Element struct {
	Ref *wire.ElementRef
}

// Pending is a value that is the outcome of another command.
type Pending struct {
	Future *Future[any]
}

// Callable is client-side code run by the wait and function pseudo-commands.
type Callable struct {
	Fn func(args ...any) (any, error)
}

func (Scalar) isValue()   {}
func (Array) isValue()    {}
func (Mapping) isValue()  {}
func (Element) isValue()  {}
func (Pending) isValue()  {}
func (Callable) isValue() {}

// ValueOf lifts a native value into a Value. Slices and maps are converted
// recursively; futures, element references and functions get their own
// variants.
func ValueOf(v any) Value {
	switch t := v.(type) {
	case Value:
		return t
	case []any:
		out := make(Array, len(t))
		for i, item := range t {
			out[i] = ValueOf(item)
		}
		return out
	case []string:
		out := make(Array, len(t))
		for i, item := range t {
			out[i] = Scalar{V: item}
		}
		return out
	case map[string]any:
		return MappingOf(t)
	case *wire.ElementRef:
		return Element{Ref: t}
	case *Future[any]:
		return Pending{Future: t}
	case func(args ...any) (any, error):
		return Callable{Fn: t}
	default:
		return Scalar{V: v}
	}
}

// MappingOf lifts a native map into a Mapping.
func MappingOf(m map[string]any) Mapping {
	out := make(Mapping, len(m))
	for k, item := range m {
		out[k] = ValueOf(item)
	}
	return out
}

// Native lowers v into plain Go values suitable for JSON encoding. Unresolved
// pending values and callables lower to nil.
func Native(v Value) any {
	switch t := v.(type) {
	case Scalar:
		return t.V
	case Array:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Native(item)
		}
		return out
	case Mapping:
		return t.Native()
	case Element:
		return t.Ref
	case Pending:
		if t.Future == nil {
			return nil
		}
		value, err := t.Future.Value()
		if err != nil {
			return nil
		}
		return value
	default:
		return nil
	}
}

// Native lowers every entry of m.
func (m Mapping) Native() map[string]any {
	out := make(map[string]any, len(m))
	for k, item := range m {
		out[k] = Native(item)
	}
	return out
}

// Resolve replaces pending values inside v with their outcomes. Arrays are
// rebuilt, mappings are updated in place. Element references and callables
// are left untouched. Outcomes are resolved in turn, so a future of a future
// yields its innermost value. An unresolved future fails with *wire.StateError.
func Resolve(v Value) (Value, error) {
	switch t := v.(type) {
	case Pending:
		if t.Future == nil {
			return nil, &wire.StateError{Message: "pending parameter has no future"}
		}
		value, err := t.Future.Value()
		if err != nil {
			return nil, err
		}
		// The outcome may itself hold futures
		return Resolve(ValueOf(value))
	case Array:
		out := make(Array, len(t))
		for i, item := range t {
			resolved, err := Resolve(item)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	case Mapping:
		if err := t.resolveInPlace(); err != nil {
			return nil, err
		}
		return t, nil
	default:
		return v, nil
	}
}

func (m Mapping) resolveInPlace() error {
	for k, item := range m {
		resolved, err := Resolve(item)
		if err != nil {
			return err
		}
		m[k] = resolved
	}
	return nil
}
