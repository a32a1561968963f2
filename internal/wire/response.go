package wire

import (
	"fmt"
	"math"
	"strings"
)

// Response is the decoded result of one remote command.
type Response struct {
	Status    ErrorCode `json:"status"`
	SessionID string    `json:"sessionId,omitempty"`
	Value     any       `json:"value"`
}

// NewSuccessResponse wraps value in a successful Response.
func NewSuccessResponse(value any) *Response {
	return &Response{Status: Success, Value: value}
}

// NewErrorResponse builds a failing Response whose payload carries message.
func NewErrorResponse(code ErrorCode, message string) *Response {
	return &Response{
		Status: code,
		Value:  map[string]any{"message": message},
	}
}

// NewFailureResponse builds a failing Response whose payload is cause itself.
func NewFailureResponse(code ErrorCode, cause error) *Response {
	return &Response{Status: code, Value: cause}
}

// IsSuccess reports whether the status is Success.
func (r *Response) IsSuccess() bool {
	return r.Status == Success
}

// ErrorMessage returns "" for a successful response. Otherwise it returns the
// payload message followed by one line per stack frame.
func (r *Response) ErrorMessage() string {
	if r.IsSuccess() {
		return ""
	}
	if r.Value == nil {
		return "Unknown error"
	}

	payload, ok := r.Value.(map[string]any)
	if !ok {
		if err, isErr := r.Value.(error); isErr {
			return err.Error()
		}
		return fmt.Sprint(r.Value)
	}
	message, ok := payload["message"]
	if !ok {
		return fmt.Sprint(r.Value)
	}

	lines := []string{fmt.Sprint(message)}
	switch trace := payload["stackTrace"].(type) {
	case []any:
		for _, frame := range trace {
			if f, ok := frame.(map[string]any); ok {
				lines = append(lines, formatFrame(f))
			}
		}
	case string:
		lines = append(lines, trace)
	default:
		if stack, ok := payload["stack"].(string); ok {
			lines = append(lines, stack)
		}
	}
	return strings.Join(lines, "\n")
}

// Err returns nil on success and a *RemoteError otherwise.
func (r *Response) Err() error {
	if r.IsSuccess() {
		return nil
	}
	return &RemoteError{
		Category: ForCode(r.Status),
		Message:  r.ErrorMessage(),
		Response: r,
	}
}

func formatFrame(frame map[string]any) string {
	method := "<anonymous>"
	if m, ok := frame["methodName"].(string); ok && m != "" {
		method = m
	}
	if class, ok := frame["className"].(string); ok && class != "" {
		method = class + "." + method
	}

	file := "<unknown>"
	if f, ok := frame["fileName"].(string); ok && f != "" {
		file = f
	}

	location := file
	if line, ok := lineNumber(frame["lineNumber"]); ok {
		location = fmt.Sprintf("%s:%d", file, line)
	}
	return fmt.Sprintf("%s() at %s", method, location)
}

func lineNumber(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case interface{ Int64() (int64, error) }:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}
