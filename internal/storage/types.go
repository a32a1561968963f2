package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrSessionNotFound is returned when no state is stored for a session
var ErrSessionNotFound = errors.New("session not found")

// Session statuses
const (
	StatusActive = "active"
	StatusClosed = "closed"
)

// SessionState represents persisted session data
type SessionState struct {
	SessionID    string         `json:"session_id"`
	Endpoint     string         `json:"endpoint"`
	Transport    string         `json:"transport"`
	Capabilities map[string]any `json:"capabilities,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	LastActivity time.Time      `json:"last_activity"`
	Status       string         `json:"status"`
}

// Validate checks the fields needed to resume a session
func (s *SessionState) Validate() error {
	if s.SessionID == "" {
		return fmt.Errorf("session_id is required")
	}
	if s.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	return nil
}

// toHash flattens the state into Redis hash fields
func (s *SessionState) toHash() (map[string]any, error) {
	capabilities := "{}"
	if len(s.Capabilities) > 0 {
		data, err := json.Marshal(s.Capabilities)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal capabilities: %w", err)
		}
		capabilities = string(data)
	}

	return map[string]any{
		"session_id":    s.SessionID,
		"endpoint":      s.Endpoint,
		"transport":     s.Transport,
		"capabilities":  capabilities,
		"created_at":    s.CreatedAt.Format(time.RFC3339),
		"last_activity": s.LastActivity.Format(time.RFC3339),
		"status":        s.Status,
	}, nil
}

// stateFromHash rebuilds a state from Redis hash fields. Unparsable
// timestamps are left zero.
func stateFromHash(data map[string]string) (*SessionState, error) {
	state := &SessionState{
		SessionID: data["session_id"],
		Endpoint:  data["endpoint"],
		Transport: data["transport"],
		Status:    data["status"],
	}

	// Parse timestamps
	if createdAt, err := time.Parse(time.RFC3339, data["created_at"]); err == nil {
		state.CreatedAt = createdAt
	}
	if lastActivity, err := time.Parse(time.RFC3339, data["last_activity"]); err == nil {
		state.LastActivity = lastActivity
	}

	// Parse capabilities
	if raw := data["capabilities"]; raw != "" && raw != "{}" {
		if err := json.Unmarshal([]byte(raw), &state.Capabilities); err != nil {
			return nil, fmt.Errorf("failed to unmarshal capabilities: %w", err)
		}
	}

	return state, nil
}
