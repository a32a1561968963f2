package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const activeSessionsKey = "active:sessions"

// This struct handles session persistence in Redis
type SessionRepository struct {
	redis *RedisClient  // The Redis client to use for persistence
	ttl   time.Duration // Default TTL for sessions
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(redisClient *RedisClient, ttl time.Duration) *SessionRepository {
	return &SessionRepository{
		redis: redisClient,
		ttl:   ttl,
	}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// SaveSession persists session state to Redis using Hash
func (r *SessionRepository) SaveSession(ctx context.Context, state *SessionState) error {
	if err := state.Validate(); err != nil {
		return fmt.Errorf("invalid session state: %w", err)
	}

	key := sessionKey(state.SessionID)

	// Build hash fields
	fields, err := state.toHash()
	if err != nil {
		return err
	}

	// Write hash, TTL and active set in one round trip
	pipe := r.redis.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, r.ttl)
	pipe.SAdd(ctx, activeSessionsKey, state.SessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	slog.Debug("session saved to Redis", "session_id", state.SessionID)
	return nil
}

// GetSession retrieves session state from Redis
func (r *SessionRepository) GetSession(ctx context.Context, sessionID string) (*SessionState, error) {
	// Get all hash fields
	data, err := r.redis.client.HGetAll(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	// Check if session exists (empty map means not found)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	return stateFromHash(data)
}

// ListActiveSessions returns all active session IDs
func (r *SessionRepository) ListActiveSessions(ctx context.Context) ([]string, error) {
	sessions, err := r.redis.client.SMembers(ctx, activeSessionsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}
	return sessions, nil
}

// DeleteSession removes session from Redis
func (r *SessionRepository) DeleteSession(ctx context.Context, sessionID string) error {
	pipe := r.redis.client.TxPipeline()
	pipe.Del(ctx, sessionKey(sessionID))
	pipe.SRem(ctx, activeSessionsKey, sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Debug("session deleted from Redis", "session_id", sessionID)
	return nil
}
