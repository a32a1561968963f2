package command

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhruvsoni1802/wirebridge/internal/wire"
)

// recordingDispatcher answers every command from a fixed table and keeps
// the parameters it saw.
type recordingDispatcher struct {
	mu      sync.Mutex
	seen    []map[string]any
	answers map[wire.CommandName]*wire.Response
	err     error
	panics  bool
}

func (d *recordingDispatcher) DispatchCommand(ctx context.Context, cmd *Command) error {
	if d.panics {
		panic("transport exploded")
	}
	if d.err != nil {
		return d.err
	}
	d.mu.Lock()
	d.seen = append(d.seen, cmd.Params().Native())
	d.mu.Unlock()

	if resp, ok := d.answers[cmd.Name()]; ok {
		cmd.SetResponse(resp)
	}
	return nil
}

func TestExecuteResolvesFutureParameters(t *testing.T) {
	d := &recordingDispatcher{answers: map[wire.CommandName]*wire.Response{
		wire.CmdExecuteScript: wire.NewSuccessResponse(nil),
	}}
	p := NewProcessor(d)

	params := MappingOf(map[string]any{
		"a": 1,
		"b": []any{Resolved[any](2), 3},
		"c": map[string]any{"nested": Resolved[any]("x")},
	})
	cmd := New("s", wire.CmdExecuteScript, params)

	require.NoError(t, p.Execute(context.Background(), cmd))

	assert.Equal(t, Mapping{
		"a": Scalar{V: 1},
		"b": Array{Scalar{V: 2}, Scalar{V: 3}},
		"c": Mapping{"nested": Scalar{V: "x"}},
	}, cmd.Params())

	require.Len(t, d.seen, 1)
	assert.Equal(t, map[string]any{
		"a": 1,
		"b": []any{2, 3},
		"c": map[string]any{"nested": "x"},
	}, d.seen[0])
}

func TestExecuteChainsOutcomeOfEarlierCommand(t *testing.T) {
	d := &recordingDispatcher{answers: map[wire.CommandName]*wire.Response{
		wire.CmdFindElement:       wire.NewSuccessResponse(wire.NewElementRef("el-1", "s")),
		wire.CmdSendKeysToElement: wire.NewSuccessResponse(nil),
	}}
	p := NewProcessor(d)

	find := New("s", wire.CmdFindElement, MappingOf(map[string]any{"using": "id", "value": "q"}))
	send := New("s", wire.CmdSendKeysToElement, MappingOf(map[string]any{
		"id":    find.FutureResult(),
		"value": []any{"hello"},
	}))

	require.NoError(t, p.Execute(context.Background(), find))
	require.NoError(t, p.Execute(context.Background(), send))

	el, ok := send.Params()["id"].(Element)
	require.True(t, ok)
	assert.Equal(t, "el-1", el.Ref.ID())
}

func TestExecuteRejectsUnresolvedFuture(t *testing.T) {
	d := &recordingDispatcher{}
	p := NewProcessor(d)

	cmd := New("s", wire.CmdClickElement, MappingOf(map[string]any{"id": NewFuture[any]()}))
	err := p.Execute(context.Background(), cmd)

	var stateErr *wire.StateError
	require.True(t, errors.As(err, &stateErr))
	assert.Empty(t, d.seen, "nothing may be dispatched")
	assert.False(t, cmd.IsFinished())
}

func TestDispatchErrorBecomesFailureResponse(t *testing.T) {
	boom := errors.New("connection refused")
	p := NewProcessor(&recordingDispatcher{err: boom})

	cmd := New("s", wire.CmdGetTitle, nil)
	var fired []error
	cmd.OnError(func(err error) { fired = append(fired, err) })

	require.NoError(t, p.Execute(context.Background(), cmd))

	require.True(t, cmd.IsFinished())
	assert.Equal(t, wire.Unhandled, cmd.Response().Status)
	require.Len(t, fired, 1)
	assert.ErrorIs(t, fired[0], boom)
	assert.ErrorIs(t, fired[0], wire.ErrUnknown)
}

func TestDispatchPanicBecomesFailureResponse(t *testing.T) {
	p := NewProcessor(&recordingDispatcher{panics: true})
	cmd := New("s", wire.CmdGetTitle, nil)

	assert.NotPanics(t, func() {
		require.NoError(t, p.Execute(context.Background(), cmd))
	})
	assert.Equal(t, wire.Unhandled, cmd.Response().Status)
	assert.Contains(t, cmd.Response().ErrorMessage(), "transport exploded")
}

func TestSleepResolvesAfterDuration(t *testing.T) {
	p := NewProcessor(nil)
	cmd := New("s", wire.CmdSleep, Mapping{"ms": Scalar{V: 50}})

	start := time.Now()
	require.NoError(t, p.Execute(context.Background(), cmd))
	assert.False(t, cmd.FutureResult().IsResolved(), "sleep must not resolve synchronously")

	v, err := cmd.FutureResult().Wait(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.Equal(t, 50, v)
}

func TestSleepRejectsBadDuration(t *testing.T) {
	p := NewProcessor(nil)
	err := p.Execute(context.Background(), New("s", wire.CmdSleep, Mapping{"ms": Scalar{V: "soon"}}))

	var argErr *wire.ArgumentError
	assert.True(t, errors.As(err, &argErr))
}

func TestSleepRejectsDurationsThatOverflow(t *testing.T) {
	p := NewProcessor(nil)

	for _, ms := range []any{float64(1e13), int64(maxSleepMillis) + 1, float64(1e300), -1} {
		cmd := New("s", wire.CmdSleep, Mapping{"ms": Scalar{V: ms}})
		err := p.Execute(context.Background(), cmd)

		var argErr *wire.ArgumentError
		require.True(t, errors.As(err, &argErr), "ms=%v: %v", ms, err)
		assert.Equal(t, "ms", argErr.Argument)
		assert.False(t, cmd.IsFinished(), "ms=%v must not resolve", ms)
	}

	// The largest representable sleep is accepted and stays pending
	cmd := New("s", wire.CmdSleep, Mapping{"ms": Scalar{V: int64(maxSleepMillis)}})
	require.NoError(t, p.Execute(context.Background(), cmd))
	time.Sleep(10 * time.Millisecond)
	assert.False(t, cmd.FutureResult().IsResolved())
}

func TestFunctionRunsLocally(t *testing.T) {
	d := &recordingDispatcher{}
	p := NewProcessor(d)

	add := func(args ...any) (any, error) {
		return args[0].(int) + args[1].(int), nil
	}
	cmd := New("s", wire.CmdFunction, MappingOf(map[string]any{
		"function": add,
		"args":     []any{2, Resolved[any](3)},
	}))

	v, err := p.Run(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, 5, v)
	assert.Empty(t, d.seen)
}

func TestWaitCallableErrorIsUnhandledFailure(t *testing.T) {
	p := NewProcessor(nil)
	cause := errors.New("condition never met")

	cmd := New("s", wire.CmdWait, Mapping{
		"function": Callable{Fn: func(...any) (any, error) { return nil, cause }},
	})
	_, err := p.Run(context.Background(), cmd)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, wire.ErrUnhandled)
	assert.False(t, cmd.FutureResult().IsResolved())
}

func TestFunctionPanicIsCaptured(t *testing.T) {
	p := NewProcessor(nil)
	cmd := New("s", wire.CmdFunction, Mapping{
		"function": Callable{Fn: func(...any) (any, error) { panic("bad") }},
	})

	_, err := p.Run(context.Background(), cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
}

func TestCommandTimeout(t *testing.T) {
	d := &recordingDispatcher{answers: map[wire.CommandName]*wire.Response{}}
	p := NewProcessor(d, WithCommandTimeout(20*time.Millisecond))

	cmd := New("s", wire.CmdGetTitle, nil)
	_, err := p.Run(context.Background(), cmd)
	assert.True(t, errors.Is(err, wire.ErrTimeOut))
}

func TestNoDispatcher(t *testing.T) {
	p := NewProcessor(nil)
	cmd := New("s", wire.CmdGetTitle, nil)

	require.NoError(t, p.Execute(context.Background(), cmd))
	assert.Equal(t, wire.Unhandled, cmd.Response().Status)
}
