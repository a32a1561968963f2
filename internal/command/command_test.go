package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhruvsoni1802/wirebridge/internal/wire"
)

func TestSetResponseOnlyFirstCallCounts(t *testing.T) {
	cmd := New("s", wire.CmdGetTitle, nil)
	first := wire.NewSuccessResponse("first")
	second := wire.NewSuccessResponse("second")

	assert.True(t, cmd.SetResponse(first))
	assert.False(t, cmd.SetResponse(second))

	assert.Same(t, first, cmd.Response())
	v, err := cmd.FutureResult().Value()
	require.NoError(t, err)
	assert.Equal(t, "first", v)
	assert.True(t, cmd.IsFinished())
}

func TestSuccessResolvesFuture(t *testing.T) {
	cmd := New("s", wire.CmdGetCurrentURL, nil)
	fired := 0
	cmd.OnError(func(error) { fired++ })

	cmd.SetResponse(wire.NewSuccessResponse("http://example.com"))

	v, err := cmd.FutureResult().Value()
	require.NoError(t, err)
	assert.Equal(t, "http://example.com", v)
	assert.Zero(t, fired)
	assert.NoError(t, cmd.Err())
}

func TestFailureFiresErrorEventOnce(t *testing.T) {
	cmd := New("s", wire.CmdFindElement, nil)

	var got []error
	cmd.OnError(func(err error) { got = append(got, err) })

	cmd.SetResponse(wire.NewErrorResponse(7, "not found"))
	cmd.SetResponse(wire.NewErrorResponse(13, "later"))

	require.Len(t, got, 1)
	assert.True(t, errors.Is(got[0], wire.ErrNoSuchElement))
	assert.False(t, cmd.FutureResult().IsResolved())
	assert.True(t, errors.Is(cmd.Err(), wire.ErrNoSuchElement))
}

func TestOnErrorAfterFailureRunsImmediately(t *testing.T) {
	cmd := New("s", wire.CmdFindElement, nil)
	cmd.SetResponse(wire.NewErrorResponse(7, "not found"))

	called := false
	cmd.OnError(func(error) { called = true })
	assert.True(t, called)
}

func TestWaitReturnsOutcome(t *testing.T) {
	ok := New("s", wire.CmdGetTitle, nil)
	ok.SetResponse(wire.NewSuccessResponse("Title"))
	v, err := ok.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Title", v)

	bad := New("s", wire.CmdGetTitle, nil)
	bad.SetResponse(wire.NewErrorResponse(23, "window gone"))
	_, err = bad.Wait(context.Background())
	assert.True(t, errors.Is(err, wire.ErrNoSuchWindow))
}

func TestDispose(t *testing.T) {
	cmd := New("s", wire.CmdGet, Mapping{"url": Scalar{V: "http://a"}})
	cmd.SetResponse(wire.NewSuccessResponse(nil))
	cmd.Dispose()

	assert.Empty(t, cmd.Params())
	assert.Nil(t, cmd.FutureResult())
	assert.NotNil(t, cmd.Response())
}
