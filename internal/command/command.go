package command

import (
	"context"
	"sync"
	"time"

	"github.com/dhruvsoni1802/wirebridge/internal/wire"
)

// Command is one remote operation bound to a session. It finishes exactly
// once, when its Response is set.
type Command struct {
	sessionID string
	name      wire.CommandName
	createdAt time.Time

	mu         sync.Mutex
	params     Mapping
	future     *Future[any]
	response   *wire.Response
	done       chan struct{}
	onError    []func(error)
	onComplete []func(*wire.Response)
}

// New creates a pending command. params may be nil.
func New(sessionID string, name wire.CommandName, params Mapping) *Command {
	if params == nil {
		params = Mapping{}
	}
	return &Command{
		sessionID: sessionID,
		name:      name,
		createdAt: time.Now(),
		params:    params,
		future:    NewFuture[any](),
		done:      make(chan struct{}),
	}
}

// SessionID returns the session the command targets.
func (c *Command) SessionID() string {
	return c.sessionID
}

// Name returns the wire operation.
func (c *Command) Name() wire.CommandName {
	return c.name
}

// CreatedAt returns when the command was built.
func (c *Command) CreatedAt() time.Time {
	return c.createdAt
}

// Params returns the parameter mapping. After the processor has run it holds
// no pending values.
func (c *Command) Params() Mapping {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// Param returns a single parameter.
func (c *Command) Param(key string) (Value, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.params[key]
	return v, ok
}

// FutureResult returns the handle that resolves with the success value.
func (c *Command) FutureResult() *Future[any] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.future
}

// Response returns the terminal response, nil while pending.
func (c *Command) Response() *wire.Response {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.response
}

// IsFinished reports whether a response has been set.
func (c *Command) IsFinished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.response != nil
}

// OnError registers fn to run when the command fails. If it has already
// failed fn runs immediately.
func (c *Command) OnError(fn func(error)) {
	c.mu.Lock()
	resp := c.response
	if resp == nil {
		c.onError = append(c.onError, fn)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if err := resp.Err(); err != nil {
		fn(err)
	}
}

// OnComplete registers fn to run with the terminal response.
func (c *Command) OnComplete(fn func(*wire.Response)) {
	c.mu.Lock()
	resp := c.response
	if resp == nil {
		c.onComplete = append(c.onComplete, fn)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	fn(resp)
}

// SetResponse finishes the command. Only the first call has any effect; it
// reports whether this call was that one. A success resolves the future,
// a failure leaves it unresolved and fires the error listeners.
func (c *Command) SetResponse(resp *wire.Response) bool {
	if resp == nil {
		resp = wire.NewErrorResponse(wire.Unhandled, "nil response")
	}

	c.mu.Lock()
	if c.response != nil {
		c.mu.Unlock()
		return false
	}
	c.response = resp
	future := c.future
	onError := c.onError
	onComplete := c.onComplete
	c.onError = nil
	c.onComplete = nil
	c.mu.Unlock()

	if err := resp.Err(); err != nil {
		for _, fn := range onError {
			fn(err)
		}
	} else if future != nil {
		// Set cannot fail here: the future is only ever set from this branch.
		_ = future.Set(resp.Value)
	}
	for _, fn := range onComplete {
		fn(resp)
	}
	close(c.done)
	return true
}

// Done is closed once the command has finished.
func (c *Command) Done() <-chan struct{} {
	return c.done
}

// Err returns the failure of a finished command, nil on success or while
// still pending.
func (c *Command) Err() error {
	resp := c.Response()
	if resp == nil {
		return nil
	}
	return resp.Err()
}

// Wait blocks until the command finishes and returns its outcome.
func (c *Command) Wait(ctx context.Context) (any, error) {
	select {
	case <-c.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	resp := c.Response()
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// Dispose drops the future and the parameters. The response stays readable.
func (c *Command) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.future = nil
	c.params = Mapping{}
	c.onError = nil
	c.onComplete = nil
}
