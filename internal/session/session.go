package session

import (
	"context"
	"sync"
	"time"

	"github.com/dhruvsoni1802/wirebridge/internal/asyncscript"
	"github.com/dhruvsoni1802/wirebridge/internal/command"
	"github.com/dhruvsoni1802/wirebridge/internal/wire"
)

// SessionStatus represents the current state of a session
type SessionStatus string

const (
	SessionActive  SessionStatus = "active"  // Session is running
	SessionClosed  SessionStatus = "closed"  // Session was explicitly closed
	SessionExpired SessionStatus = "expired" // Session timed out
)

// Session is one remote automation session. Every call is turned into a
// Command and sent through the processor of the remote end it lives on.
type Session struct {
	ID           string         // Server-issued session identifier
	Endpoint     string         // Remote end the session lives on
	Capabilities map[string]any // Capabilities reported by the remote end
	CreatedAt    time.Time      // When session was created

	mu           sync.RWMutex
	lastActivity time.Time
	status       SessionStatus

	processor *command.Processor
	async     *asyncscript.Executor
}

func newSession(id, endpoint string, capabilities map[string]any, processor *command.Processor, asyncCfg asyncscript.Config, asyncOpts ...asyncscript.Option) *Session {
	now := time.Now()
	s := &Session{
		ID:           id,
		Endpoint:     endpoint,
		Capabilities: capabilities,
		CreatedAt:    now,
		lastActivity: now,
		status:       SessionActive,
		processor:    processor,
	}
	s.async = asyncscript.New(s, asyncCfg, asyncOpts...)
	return s
}

// LastActivity returns the last time the session was used
func (s *Session) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

// Status returns the current session status
func (s *Session) Status() SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Session) setStatus(status SessionStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// IsExpired checks if the session has been inactive too long
func (s *Session) IsExpired(timeout time.Duration) bool {
	return time.Since(s.LastActivity()) > timeout
}

// UpdateActivity updates the last activity timestamp
func (s *Session) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
}

// Schedule builds a command for this session and starts it without waiting.
// Values in params may be futures of earlier commands; they are resolved
// before the command is sent.
func (s *Session) Schedule(ctx context.Context, name wire.CommandName, params map[string]any) (*command.Command, error) {
	if s.Status() != SessionActive {
		return nil, ErrSessionClosed
	}

	cmd := command.New(s.ID, name, command.MappingOf(params))
	if err := s.processor.Execute(ctx, cmd); err != nil {
		return nil, err
	}

	s.UpdateActivity()
	return cmd, nil
}

// Do runs a command and waits for its outcome
func (s *Session) Do(ctx context.Context, name wire.CommandName, params map[string]any) (any, error) {
	cmd, err := s.Schedule(ctx, name, params)
	if err != nil {
		return nil, err
	}
	return cmd.Wait(ctx)
}
