package api

import (
	"time"

	"github.com/dhruvsoni1802/wirebridge/internal/session"
	"github.com/dhruvsoni1802/wirebridge/internal/wire"
)

// Request Types

// CreateSessionRequest for POST /sessions
type CreateSessionRequest struct {
	// Desired capabilities forwarded to the remote end
	Capabilities map[string]any `json:"capabilities,omitempty"`
}

// CommandRequest for POST /sessions/{id}/commands
type CommandRequest struct {
	Name       string         `json:"name" validate:"required"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// ExecuteAsyncRequest for POST /sessions/{id}/execute_async
type ExecuteAsyncRequest struct {
	Script string `json:"script" validate:"required"`
	Args   []any  `json:"args,omitempty"`
}

// Response Types

// SessionInfo contains summary information about a session
type SessionInfo struct {
	SessionID    string                `json:"session_id"`
	Endpoint     string                `json:"endpoint"`
	Capabilities map[string]any        `json:"capabilities,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	LastActivity time.Time             `json:"last_activity"`
	Status       session.SessionStatus `json:"status"`
}

// ListSessionsResponse returned with all sessions
type ListSessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
	Count    int           `json:"count"`
}

// CommandResponse mirrors the wire envelope of a finished command
type CommandResponse struct {
	Status    wire.ErrorCode `json:"status"`
	SessionID string         `json:"sessionId,omitempty"`
	Value     any            `json:"value"`
}

// Error Types

// ErrorResponse for all error cases
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string `json:"code"`    // Machine-readable error code
	Message string `json:"message"` // Human-readable message
}

// Common error codes
const (
	ErrCodeSessionNotFound      = "SESSION_NOT_FOUND"
	ErrCodeInvalidRequest       = "INVALID_REQUEST"
	ErrCodeUnknownCommand       = "UNKNOWN_COMMAND"
	ErrCodeSessionCreateFailed  = "SESSION_CREATE_FAILED"
	ErrCodeSessionLimitReached  = "SESSION_LIMIT_REACHED"
	ErrCodeNoEndpointsAvailable = "NO_ENDPOINTS_AVAILABLE"
	ErrCodeInternalError        = "INTERNAL_ERROR"
)

func toSessionInfo(sess *session.Session) SessionInfo {
	return SessionInfo{
		SessionID:    sess.ID,
		Endpoint:     sess.Endpoint,
		Capabilities: sess.Capabilities,
		CreatedAt:    sess.CreatedAt,
		LastActivity: sess.LastActivity(),
		Status:       sess.Status(),
	}
}
