package wire

import (
	"encoding/json"
	"fmt"
)

// ElementKey marks a mapping as an element reference on the wire.
const ElementKey = "ELEMENT"

// ElementRef is a server-issued element handle bound to the session it came
// from. The handle is forwarded untouched.
type ElementRef struct {
	Handle    any
	SessionID string
}

// NewElementRef creates a reference to handle within sessionID.
func NewElementRef(handle any, sessionID string) *ElementRef {
	return &ElementRef{Handle: handle, SessionID: sessionID}
}

// ID returns the handle in string form, as used in request paths.
func (e *ElementRef) ID() string {
	if s, ok := e.Handle.(string); ok {
		return s
	}
	return fmt.Sprint(e.Handle)
}

func (e *ElementRef) String() string {
	return fmt.Sprintf("element(%s)", e.ID())
}

// MarshalJSON encodes the reference in its wire shape.
func (e *ElementRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{ElementKey: e.Handle})
}

// Unwrap replaces every mapping carrying ElementKey inside v with an
// *ElementRef bound to sessionID. Slices and mappings are walked recursively
// and copied; other values are returned unchanged.
func Unwrap(v any, sessionID string) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Unwrap(item, sessionID)
		}
		return out
	case map[string]any:
		if handle, ok := t[ElementKey]; ok {
			return NewElementRef(handle, sessionID)
		}
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = Unwrap(item, sessionID)
		}
		return out
	default:
		return v
	}
}
