package asyncscript

import (
	"fmt"
	"time"

	"github.com/dhruvsoni1802/wirebridge/internal/wire"
)

// NavigationError reports that the document was replaced while waiting for
// the script's callback.
type NavigationError struct {
	Script string
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("page was unloaded while waiting for async script result; async scripts do not survive navigation\nscript: %s", e.Script)
}

// Unwrap lets callers match wire.ErrNoSuchDocument.
func (e *NavigationError) Unwrap() error {
	return wire.ErrNoSuchDocument
}

// TimeoutError reports that the script did not call back in time. ClientSide
// is set when the local ceiling fired rather than the in-page timer.
type TimeoutError struct {
	Script     string
	Elapsed    time.Duration
	ClientSide bool
}

func (e *TimeoutError) Error() string {
	source := "in-page timer"
	if e.ClientSide {
		source = "client ceiling"
	}
	return fmt.Sprintf("timed out waiting for async script result after %s (%s)\nscript: %s",
		e.Elapsed.Round(time.Millisecond), source, e.Script)
}

// Unwrap lets callers match wire.ErrTimeOut.
func (e *TimeoutError) Unwrap() error {
	return wire.ErrTimeOut
}
