package command

import (
	"context"
	"sync"

	"github.com/dhruvsoni1802/wirebridge/internal/wire"
)

// Future is a single-assignment container for a value that is not available
// yet. It is safe for concurrent use.
type Future[T any] struct {
	mu       sync.Mutex
	value    T
	resolved bool
	done     chan struct{}
}

// NewFuture returns an unresolved Future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a Future already holding value.
func Resolved[T any](value T) *Future[T] {
	f := NewFuture[T]()
	f.value = value
	f.resolved = true
	close(f.done)
	return f
}

// Set stores value. A second call fails with *wire.StateError.
func (f *Future[T]) Set(value T) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.resolved {
		return &wire.StateError{Message: "value already set"}
	}
	f.value = value
	f.resolved = true
	close(f.done)
	return nil
}

// Value returns the stored value, or *wire.StateError while unresolved.
func (f *Future[T]) Value() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.resolved {
		var zero T
		return zero, &wire.StateError{Message: "value not available yet"}
	}
	return f.value, nil
}

// IsResolved reports whether Set has been called.
func (f *Future[T]) IsResolved() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resolved
}

// Wait blocks until the value is set or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.Value()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
