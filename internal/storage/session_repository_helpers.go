package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// UpdateLastActivity updates just the last activity timestamp
func (r *SessionRepository) UpdateLastActivity(ctx context.Context, sessionID string) error {
	key := sessionKey(sessionID)

	// Only touch sessions that still exist, otherwise HSet would create a stub hash
	exists, err := r.redis.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	// Update single field
	err = r.redis.client.HSet(ctx, key, "last_activity", time.Now().Format(time.RFC3339)).Err()
	if err != nil {
		return fmt.Errorf("failed to update last activity: %w", err)
	}

	// Refresh TTL
	if err := r.redis.client.Expire(ctx, key, r.ttl).Err(); err != nil {
		slog.Warn("failed to refresh TTL", "error", err)
	}

	return nil
}

// PruneExpired removes ids from the active set whose hash has expired, and returns how many were removed
func (r *SessionRepository) PruneExpired(ctx context.Context) (int, error) {
	sessionIDs, err := r.ListActiveSessions(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, sessionID := range sessionIDs {
		exists, err := r.redis.client.Exists(ctx, sessionKey(sessionID)).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to check session: %w", err)
		}
		if exists > 0 {
			continue
		}
		if err := r.redis.client.SRem(ctx, activeSessionsKey, sessionID).Err(); err != nil {
			slog.Warn("failed to prune expired session", "session_id", sessionID, "error", err)
			continue
		}
		removed++
	}

	return removed, nil
}
