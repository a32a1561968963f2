package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepository(t *testing.T, ttl time.Duration) (*SessionRepository, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return NewSessionRepository(client, ttl), mr
}

func sampleState(id string) *SessionState {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &SessionState{
		SessionID:    id,
		Endpoint:     "http://localhost:4444/wd/hub",
		Transport:    "http",
		Capabilities: map[string]any{"browserName": "firefox"},
		CreatedAt:    created,
		LastActivity: created,
		Status:       StatusActive,
	}
}

func TestSaveAndGetSession(t *testing.T) {
	repo, mr := newRepository(t, time.Hour)
	ctx := context.Background()

	state := sampleState("abc")
	require.NoError(t, repo.SaveSession(ctx, state))

	got, err := repo.GetSession(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, state, got)

	assert.Equal(t, time.Hour, mr.TTL("session:abc"))
	isMember, err := mr.IsMember(activeSessionsKey, "abc")
	require.NoError(t, err)
	assert.True(t, isMember)
}

func TestSaveSessionRejectsInvalidState(t *testing.T) {
	repo, mr := newRepository(t, time.Hour)

	err := repo.SaveSession(context.Background(), &SessionState{SessionID: "abc"})
	assert.Error(t, err)
	assert.False(t, mr.Exists("session:abc"))
}

func TestGetMissingSession(t *testing.T) {
	repo, _ := newRepository(t, time.Hour)

	_, err := repo.GetSession(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestListAndDeleteSessions(t *testing.T) {
	repo, mr := newRepository(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, repo.SaveSession(ctx, sampleState("a")))
	require.NoError(t, repo.SaveSession(ctx, sampleState("b")))

	ids, err := repo.ListActiveSessions(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)

	require.NoError(t, repo.DeleteSession(ctx, "a"))
	assert.False(t, mr.Exists("session:a"))

	ids, err = repo.ListActiveSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}

func TestUpdateLastActivityRefreshesTTL(t *testing.T) {
	repo, mr := newRepository(t, time.Hour)
	ctx := context.Background()

	state := sampleState("abc")
	require.NoError(t, repo.SaveSession(ctx, state))
	mr.FastForward(30 * time.Minute)

	before := time.Now().Add(-2 * time.Second)
	require.NoError(t, repo.UpdateLastActivity(ctx, "abc"))

	assert.Equal(t, time.Hour, mr.TTL("session:abc"))
	got, err := repo.GetSession(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, got.LastActivity.After(before), "last activity %v not refreshed", got.LastActivity)
	assert.Equal(t, state.CreatedAt, got.CreatedAt)
}

func TestUpdateLastActivityDoesNotCreateMissingSession(t *testing.T) {
	repo, mr := newRepository(t, time.Hour)

	err := repo.UpdateLastActivity(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrSessionNotFound))
	assert.False(t, mr.Exists("session:missing"), "no stub hash may be written")
}

func TestPruneExpiredDropsOnlyExpiredIDs(t *testing.T) {
	repo, mr := newRepository(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, repo.SaveSession(ctx, sampleState("old")))
	mr.FastForward(45 * time.Minute)
	require.NoError(t, repo.SaveSession(ctx, sampleState("fresh")))
	mr.FastForward(30 * time.Minute)

	// The hash of "old" has expired but its id is still in the active set
	assert.False(t, mr.Exists("session:old"))

	pruned, err := repo.PruneExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	ids, err := repo.ListActiveSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, ids)

	pruned, err = repo.PruneExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, pruned)
}
