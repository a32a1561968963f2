package wire

import "fmt"

// StateError reports misuse of a single-assignment value or a command, such
// as reading before resolution or resolving twice.
type StateError struct {
	Message string
}

func (e *StateError) Error() string {
	return "state error: " + e.Message
}

// ArgumentError reports a malformed argument detected before anything is sent.
type ArgumentError struct {
	Argument string
	Message  string
}

func (e *ArgumentError) Error() string {
	if e.Argument == "" {
		return "invalid argument: " + e.Message
	}
	return fmt.Sprintf("invalid argument %q: %s", e.Argument, e.Message)
}

// NewArgumentError creates an ArgumentError for the named argument.
func NewArgumentError(argument, format string, args ...any) *ArgumentError {
	return &ArgumentError{Argument: argument, Message: fmt.Sprintf(format, args...)}
}

// RemoteError is a failed command outcome. It unwraps to its Category so
// callers can match with errors.Is(err, wire.ErrNoSuchElement), and to the
// payload when the failure was raised by client-side code.
type RemoteError struct {
	Category *Category
	Message  string
	Response *Response
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Category.Name, e.Message)
}

func (e *RemoteError) Unwrap() []error {
	errs := []error{e.Category}
	if e.Response != nil {
		if cause, ok := e.Response.Value.(error); ok {
			errs = append(errs, cause)
		}
	}
	return errs
}

// Code returns the status code of the failing response.
func (e *RemoteError) Code() ErrorCode {
	if e.Response == nil {
		return e.Category.Code
	}
	return e.Response.Status
}
