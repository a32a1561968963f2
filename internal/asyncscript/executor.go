package asyncscript

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/dhruvsoni1802/wirebridge/internal/metrics"
)

// Default timings.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultPollInterval = 100 * time.Millisecond
	DefaultMaxWaitGrace = 10 * time.Second
)

// Result outcomes recorded on the metrics collector.
const (
	outcomeSuccess       = "success"
	outcomeNavigation    = "navigation"
	outcomeTimeout       = "timeout"
	outcomeClientTimeout = "client_timeout"
	outcomeError         = "error"
)

// SyncExecutor runs a script synchronously in the remote document and
// returns its value.
type SyncExecutor interface {
	ExecuteScript(ctx context.Context, script string, args []any) (any, error)
}

// Config holds executor timings.
type Config struct {
	// Timeout is armed in the page; the script must call back before it fires.
	Timeout time.Duration
	// PollInterval is the pause between two polls.
	PollInterval time.Duration
	// MaxWaitGrace is added to Timeout to form the client-side ceiling.
	// A negative value disables the ceiling.
	MaxWaitGrace time.Duration
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.MaxWaitGrace == 0 {
		c.MaxWaitGrace = DefaultMaxWaitGrace
	}
	return c
}

// Executor emulates asynchronous script completion on top of a synchronous
// execute-script primitive by injecting a callback and polling for its result.
type Executor struct {
	exec    SyncExecutor
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Collector
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics records polls and outcomes on m.
func WithMetrics(m *metrics.Collector) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

// New creates an executor running scripts through exec.
func New(exec SyncExecutor, cfg Config, opts ...Option) *Executor {
	e := &Executor{
		exec:   exec,
		cfg:    cfg.withDefaults(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the effective timings.
func (e *Executor) Config() Config {
	return e.cfg
}

// Execute runs script with args and blocks until the script invokes its
// callback (the last argument it receives). The callback's argument is
// returned. It fails with *NavigationError if the document is replaced,
// *TimeoutError if the in-page timer or the client ceiling fires, or the
// context error if ctx ends first.
func (e *Executor) Execute(ctx context.Context, script string, args ...any) (any, error) {
	pageID := uuid.NewString()
	pendingID := uuid.NewString()
	if args == nil {
		args = []any{}
	}

	started := time.Now()

	// Inject the wrapper; its own return value carries nothing
	injectArgs := []any{script, args, pageID, e.cfg.Timeout.Milliseconds()}
	if _, err := e.exec.ExecuteScript(ctx, wrapperScript, injectArgs); err != nil {
		e.metrics.RecordAsyncResult(outcomeError)
		return nil, fmt.Errorf("failed to start async script: %w", err)
	}

	var ceiling <-chan time.Time
	if e.cfg.MaxWaitGrace > 0 {
		timer := time.NewTimer(e.cfg.Timeout + e.cfg.MaxWaitGrace)
		defer timer.Stop()
		ceiling = timer.C
	}

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	polls := 0
	for {
		select {
		case <-ctx.Done():
			e.metrics.RecordAsyncResult(outcomeError)
			return nil, ctx.Err()
		case <-ceiling:
			e.metrics.RecordAsyncResult(outcomeClientTimeout)
			e.logger.Warn("async script exceeded client ceiling", "polls", polls, "elapsed", time.Since(started))
			return nil, &TimeoutError{Script: script, Elapsed: time.Since(started), ClientSide: true}
		case <-ticker.C:
		}

		result, err := e.exec.ExecuteScript(ctx, pollScript, []any{pendingID, pageID})
		polls++
		e.metrics.RecordAsyncPoll()
		if err != nil {
			e.metrics.RecordAsyncResult(outcomeError)
			return nil, fmt.Errorf("failed to poll async script: %w", err)
		}

		flag, pending := pendingFlag(result, pendingID)
		if !pending {
			e.metrics.RecordAsyncResult(outcomeSuccess)
			e.logger.Debug("async script completed", "polls", polls, "elapsed", time.Since(started))
			return result, nil
		}

		switch {
		case flag < 0:
			e.metrics.RecordAsyncResult(outcomeNavigation)
			return nil, &NavigationError{Script: script}
		case flag > 0:
			e.metrics.RecordAsyncResult(outcomeTimeout)
			return nil, &TimeoutError{Script: script, Elapsed: time.Since(started)}
		}
	}
}

// pendingFlag reports whether result is the [pendingID, flag] marker and
// returns the flag.
func pendingFlag(result any, pendingID string) (int, bool) {
	marker, ok := result.([]any)
	if !ok || len(marker) != 2 {
		return 0, false
	}
	if id, ok := marker[0].(string); !ok || id != pendingID {
		return 0, false
	}

	switch n := marker[1].(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if math.IsNaN(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}
