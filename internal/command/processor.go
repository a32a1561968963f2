package command

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/dhruvsoni1802/wirebridge/internal/metrics"
	"github.com/dhruvsoni1802/wirebridge/internal/wire"
)

// Dispatcher sends a resolved command to the remote end. It must eventually
// call cmd.SetResponse. A returned error is turned into a failure response.
type Dispatcher interface {
	DispatchCommand(ctx context.Context, cmd *Command) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, cmd *Command) error

func (f DispatcherFunc) DispatchCommand(ctx context.Context, cmd *Command) error {
	return f(ctx, cmd)
}

type localHandler func(p *Processor, cmd *Command) error

// Processor resolves pending parameters and routes each command either to a
// client-side handler or to the Dispatcher.
type Processor struct {
	dispatcher     Dispatcher
	logger         *slog.Logger
	metrics        *metrics.Collector
	commandTimeout time.Duration
	local          map[wire.CommandName]localHandler
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics records every finished command on m.
func WithMetrics(m *metrics.Collector) Option {
	return func(p *Processor) {
		p.metrics = m
	}
}

// WithCommandTimeout fails dispatched commands that get no response within d.
// Zero disables the limit.
func WithCommandTimeout(d time.Duration) Option {
	return func(p *Processor) {
		p.commandTimeout = d
	}
}

// NewProcessor creates a processor in front of dispatcher.
func NewProcessor(dispatcher Dispatcher, opts ...Option) *Processor {
	p := &Processor{
		dispatcher: dispatcher,
		logger:     slog.Default(),
		local: map[wire.CommandName]localHandler{
			wire.CmdSleep:    (*Processor).sleep,
			wire.CmdWait:     (*Processor).invoke,
			wire.CmdFunction: (*Processor).invoke,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Execute resolves the command's pending parameters and starts it. Failures
// of the command itself are reported only through the command. The returned
// error is reserved for local misuse: an unresolved pending parameter or a
// malformed pseudo-command argument.
func (p *Processor) Execute(ctx context.Context, cmd *Command) error {
	if err := cmd.resolveParams(); err != nil {
		return fmt.Errorf("failed to resolve parameters of %s: %w", cmd.Name(), err)
	}

	started := time.Now()
	cmd.OnComplete(func(resp *wire.Response) {
		outcome := "success"
		if !resp.IsSuccess() {
			outcome = resp.Status.String()
		}
		p.metrics.RecordCommand(cmd.Name().String(), outcome, time.Since(started))
	})

	if handler, ok := p.local[cmd.Name()]; ok {
		return handler(p, cmd)
	}

	p.dispatch(ctx, cmd)
	return nil
}

// Run executes cmd and waits for its outcome.
func (p *Processor) Run(ctx context.Context, cmd *Command) (any, error) {
	if err := p.Execute(ctx, cmd); err != nil {
		return nil, err
	}
	return cmd.Wait(ctx)
}

func (p *Processor) dispatch(ctx context.Context, cmd *Command) {
	if p.dispatcher == nil {
		cmd.SetResponse(wire.NewErrorResponse(wire.Unhandled, "no dispatcher configured"))
		return
	}

	if p.commandTimeout > 0 {
		timeout := p.commandTimeout
		timer := time.AfterFunc(timeout, func() {
			msg := fmt.Sprintf("no response to %s after %s", cmd.Name(), timeout)
			if cmd.SetResponse(wire.NewErrorResponse(wire.ErrTimeOut.Code, msg)) {
				p.logger.Warn("command timed out", "session_id", cmd.SessionID(), "command", cmd.Name().String())
			}
		})
		cmd.OnComplete(func(*wire.Response) { timer.Stop() })
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("dispatcher panicked", "command", cmd.Name().String(), "panic", r)
			cmd.SetResponse(wire.NewFailureResponse(wire.Unhandled, fmt.Errorf("dispatch panic: %v", r)))
		}
	}()

	p.logger.Debug("dispatching command", "session_id", cmd.SessionID(), "command", cmd.Name().String())
	if err := p.dispatcher.DispatchCommand(ctx, cmd); err != nil {
		p.logger.Debug("dispatch failed", "command", cmd.Name().String(), "error", err)
		cmd.SetResponse(wire.NewFailureResponse(wire.Unhandled, err))
	}
}

func (p *Processor) sleep(cmd *Command) error {
	param, _ := cmd.Param("ms")
	scalar, ok := param.(Scalar)
	if !ok {
		return wire.NewArgumentError("ms", "sleep needs a millisecond duration")
	}
	ms, ok := toMillis(scalar.V)
	if !ok || ms < 0 {
		return wire.NewArgumentError("ms", "invalid duration %v", scalar.V)
	}
	if ms > maxSleepMillis {
		return wire.NewArgumentError("ms", "duration %v exceeds %d ms", scalar.V, int64(maxSleepMillis))
	}

	time.AfterFunc(time.Duration(ms)*time.Millisecond, func() {
		cmd.SetResponse(wire.NewSuccessResponse(scalar.V))
	})
	return nil
}

func (p *Processor) invoke(cmd *Command) error {
	param, _ := cmd.Param("function")
	fn, ok := param.(Callable)
	if !ok || fn.Fn == nil {
		return wire.NewArgumentError("function", "%s needs a callable", cmd.Name())
	}

	var args []any
	if raw, ok := cmd.Param("args"); ok {
		array, ok := raw.(Array)
		if !ok {
			return wire.NewArgumentError("args", "expected an array of arguments")
		}
		args = make([]any, len(array))
		for i, item := range array {
			args[i] = Native(item)
		}
	}

	cmd.SetResponse(callSafely(fn.Fn, args))
	return nil
}

func callSafely(fn func(args ...any) (any, error), args []any) (resp *wire.Response) {
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("%v", r)
			}
			resp = wire.NewFailureResponse(wire.Unhandled, err)
		}
	}()

	value, err := fn(args...)
	if err != nil {
		return wire.NewFailureResponse(wire.Unhandled, err)
	}
	return wire.NewSuccessResponse(value)
}

// maxSleepMillis is the longest sleep a time.Duration can hold
const maxSleepMillis = math.MaxInt64 / int64(time.Millisecond)

func toMillis(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		// Outside this range the int64 conversion is undefined
		if math.IsNaN(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case time.Duration:
		return n.Milliseconds(), true
	}
	return 0, false
}

func (c *Command) resolveParams() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.params.resolveInPlace()
}
