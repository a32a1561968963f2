package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dhruvsoni1802/wirebridge/internal/asyncscript"
	"github.com/dhruvsoni1802/wirebridge/internal/command"
	"github.com/dhruvsoni1802/wirebridge/internal/metrics"
	"github.com/dhruvsoni1802/wirebridge/internal/pool"
	"github.com/dhruvsoni1802/wirebridge/internal/storage"
	"github.com/dhruvsoni1802/wirebridge/internal/wire"
)

// Remote is an open connection to one remote end
type Remote interface {
	command.Dispatcher
	Close() error
}

// Dialer opens a Remote for the endpoint at url
type Dialer func(ctx context.Context, url string) (Remote, error)

// Store persists session state so sessions survive a restart of this process
type Store interface {
	SaveSession(ctx context.Context, state *storage.SessionState) error
	GetSession(ctx context.Context, sessionID string) (*storage.SessionState, error)
	DeleteSession(ctx context.Context, sessionID string) error
	UpdateLastActivity(ctx context.Context, sessionID string) error
}

// Config holds manager settings
type Config struct {
	Transport        string             // Transport name recorded with persisted sessions
	CommandTimeout   time.Duration      // Per-command response limit, zero for none
	Async            asyncscript.Config // Async script timings
	MaxTotalSessions int                // Global session limit
}

// remote pairs a connection with the processor feeding it
type remote struct {
	conn      Remote
	processor *command.Processor
}

// Manager manages all active sessions and remote connections
type Manager struct {
	sessions map[string]*Session
	remotes  map[string]*remote
	mu       sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc

	pool     *pool.EndpointPool
	balancer *pool.LoadBalancer
	dial     Dialer
	store    Store
	metrics  *metrics.Collector
	logger   *slog.Logger
	cfg      Config
}

// NewManager creates a new session manager. store and m may be nil.
func NewManager(endpoints *pool.EndpointPool, dial Dialer, store Store, cfg Config, m *metrics.Collector) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	if cfg.MaxTotalSessions <= 0 {
		cfg.MaxTotalSessions = MaxTotalSessions
	}

	return &Manager{
		sessions: make(map[string]*Session),
		remotes:  make(map[string]*remote),
		ctx:      ctx,
		cancel:   cancel,
		pool:     endpoints,
		balancer: pool.NewLoadBalancer(endpoints),
		dial:     dial,
		store:    store,
		metrics:  m,
		logger:   slog.Default(),
		cfg:      cfg,
	}
}

// getOrDialRemote gets the existing connection to url or opens a new one
func (m *Manager) getOrDialRemote(ctx context.Context, url string) (*remote, error) {
	// Check if the connection already exists for this endpoint
	m.mu.RLock()
	r, exists := m.remotes[url]
	m.mu.RUnlock()
	if exists {
		return r, nil
	}

	// Dial without holding the lock
	conn, err := m.dial(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Another caller may have connected meanwhile; keep theirs
	if existing, ok := m.remotes[url]; ok {
		conn.Close()
		return existing, nil
	}

	r = &remote{
		conn: conn,
		processor: command.NewProcessor(conn,
			command.WithLogger(m.logger.With("endpoint", url)),
			command.WithMetrics(m.metrics),
			command.WithCommandTimeout(m.cfg.CommandTimeout)),
	}
	m.remotes[url] = r
	return r, nil
}

// CreateSession starts a new remote session on the least loaded endpoint
func (m *Manager) CreateSession(ctx context.Context, capabilities map[string]any) (*Session, error) {
	// Check session limits
	if err := m.checkSessionLimits(); err != nil {
		return nil, err
	}

	// Pick an endpoint
	endpoint, err := m.balancer.SelectEndpoint()
	if err != nil {
		return nil, fmt.Errorf("failed to select endpoint: %w", err)
	}

	// Get or create the connection to it
	r, err := m.getOrDialRemote(ctx, endpoint.URL())
	if err != nil {
		return nil, err
	}

	if capabilities == nil {
		capabilities = map[string]any{}
	}

	// Ask the remote end for a session
	cmd := command.New("", wire.CmdNewSession, command.MappingOf(map[string]any{
		"desiredCapabilities": capabilities,
	}))
	value, err := r.processor.Run(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to create remote session: %w", err)
	}

	sessionID, granted := parseNewSession(cmd.Response().SessionID, value)
	if sessionID == "" {
		return nil, ErrNoSessionID
	}

	session := newSession(sessionID, endpoint.URL(), granted, r.processor, m.cfg.Async,
		asyncscript.WithMetrics(m.metrics),
		asyncscript.WithLogger(m.logger.With("session_id", sessionID)))

	// Add the session to the manager
	m.mu.Lock()
	m.sessions[sessionID] = session
	count := len(m.sessions)
	m.mu.Unlock()

	endpoint.IncrementSessions()
	m.metrics.SetActiveSessions(count)

	// Persist to Redis
	m.persist(ctx, session)

	m.logger.Info("session created",
		"session_id", sessionID,
		"endpoint", endpoint.URL())

	return session, nil
}

// parseNewSession extracts the session id and capabilities from a newSession
// reply. Older remote ends put the id on the envelope, newer ones in the value.
func parseNewSession(envelopeID string, value any) (string, map[string]any) {
	sessionID := envelopeID
	capabilities, _ := value.(map[string]any)

	if sessionID == "" && capabilities != nil {
		if id, ok := capabilities["sessionId"].(string); ok {
			sessionID = id
		}
		if nested, ok := capabilities["capabilities"].(map[string]any); ok {
			capabilities = nested
		}
	}
	return sessionID, capabilities
}

// GetSession retrieves a session by ID
func (m *Manager) GetSession(sessionID string) (*Session, error) {
	// Acquire read lock (allows multiple concurrent reads)
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Look up session in map
	session, exists := m.sessions[sessionID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	return session, nil
}

// ListSessions returns all active sessions
func (m *Manager) ListSessions() []*Session {
	// Acquire read lock
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Create slice to hold sessions
	sessions := make([]*Session, 0, len(m.sessions))

	// Loop through sessions and append to slice
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}

	return sessions
}

// GetSessionCount returns the number of active sessions
func (m *Manager) GetSessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// DestroySession ends a session on the remote end and forgets it
func (m *Manager) DestroySession(ctx context.Context, sessionID string) error {
	// Remove from the map first so no new commands reach it
	m.mu.Lock()
	session, exists := m.sessions[sessionID]
	if !exists {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	delete(m.sessions, sessionID)
	count := len(m.sessions)
	m.mu.Unlock()

	m.release(ctx, session, SessionClosed)
	m.metrics.SetActiveSessions(count)

	m.logger.Info("session destroyed",
		"session_id", sessionID,
		"endpoint", session.Endpoint)

	return nil
}

// release quits the remote session (best effort) and frees its bookkeeping
func (m *Manager) release(ctx context.Context, session *Session, status SessionStatus) {
	if err := session.quit(ctx); err != nil {
		// Log error but continue cleanup
		m.logger.Warn("failed to quit remote session", "session_id", session.ID, "error", err)
	}
	session.setStatus(status)

	if endpoint, ok := m.pool.Find(session.Endpoint); ok {
		endpoint.DecrementSessions()
	}

	// Delete from Redis
	if m.store != nil {
		if err := m.store.DeleteSession(ctx, session.ID); err != nil {
			m.logger.Warn("failed to delete session from Redis", "error", err)
		}
	}
}

// ResumeSession returns a live session, rebuilding it from the store if this
// process does not hold it.
func (m *Manager) ResumeSession(ctx context.Context, sessionID string) (*Session, error) {
	// Try to get from memory first
	m.mu.RLock()
	session, exists := m.sessions[sessionID]
	m.mu.RUnlock()

	if exists {
		session.UpdateActivity()
		m.touch(ctx, sessionID)
		return session, nil
	}

	if m.store == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	// Session not in memory - resurrect from Redis
	state, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("failed to load session from Redis: %w", err)
	}

	session, err = m.resurrectSession(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("failed to resurrect session: %w", err)
	}

	m.logger.Info("resurrected session from Redis",
		"session_id", sessionID,
		"endpoint", state.Endpoint)

	return session, nil
}

// resurrectSession rebuilds a session from stored state
func (m *Manager) resurrectSession(ctx context.Context, state *storage.SessionState) (*Session, error) {
	endpoint, ok := m.pool.Find(state.Endpoint)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEndpoint, state.Endpoint)
	}

	// Check session limits
	if err := m.checkSessionLimits(); err != nil {
		return nil, err
	}

	// Get or create the connection for the endpoint
	r, err := m.getOrDialRemote(ctx, state.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to reconnect to remote end: %w", err)
	}

	// Recreate session object
	session := newSession(state.SessionID, state.Endpoint, state.Capabilities, r.processor, m.cfg.Async,
		asyncscript.WithMetrics(m.metrics),
		asyncscript.WithLogger(m.logger.With("session_id", state.SessionID)))
	if !state.CreatedAt.IsZero() {
		session.CreatedAt = state.CreatedAt
	}

	m.mu.Lock()
	if existing, ok := m.sessions[state.SessionID]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.sessions[session.ID] = session
	count := len(m.sessions)
	m.mu.Unlock()

	endpoint.IncrementSessions()
	m.metrics.SetActiveSessions(count)

	// Update last activity in Redis
	m.touch(ctx, session.ID)

	return session, nil
}

// Execute runs a raw command on a session and returns its terminal response.
// Remote failures are part of the response; the error covers lookup and local misuse.
func (m *Manager) Execute(ctx context.Context, sessionID string, name wire.CommandName, params map[string]any) (*wire.Response, error) {
	// Get the session from the manager
	session, err := m.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	cmd, err := session.Schedule(ctx, name, params)
	if err != nil {
		return nil, err
	}

	// Wait for the outcome; a failure still carries a response
	if _, err := cmd.Wait(ctx); err != nil && !cmd.IsFinished() {
		return nil, err
	}

	// Update the last activity time of the session
	m.touch(ctx, sessionID)

	return cmd.Response(), nil
}

// ExecuteAsyncScript runs an async script on a session
func (m *Manager) ExecuteAsyncScript(ctx context.Context, sessionID, script string, args []any) (any, error) {
	// Get the session from the manager
	session, err := m.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	// Execute the script and wait for its callback
	result, err := session.ExecuteAsyncScript(ctx, script, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute async script: %w", err)
	}

	// Update the last activity time of the session
	m.touch(ctx, sessionID)

	return result, nil
}

// Close quits every session, closes all remote connections and stops background workers
func (m *Manager) Close(ctx context.Context) error {
	// Signal cleanup worker to stop
	m.cancel()

	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	// Quit sessions in parallel
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelQuits)
	for _, session := range sessions {
		g.Go(func() error {
			m.release(gctx, session, SessionClosed)
			return nil
		})
	}
	g.Wait()
	m.metrics.SetActiveSessions(0)

	m.mu.Lock()
	defer m.mu.Unlock()

	// Close all remote connections
	var errs []error
	for url, r := range m.remotes {
		if err := r.conn.Close(); err != nil {
			m.logger.Warn("failed to close remote connection", "endpoint", url, "error", err)
			errs = append(errs, err)
		}
	}
	m.remotes = make(map[string]*remote)

	return errors.Join(errs...)
}

// StartCleanupWorker starts a background worker to clean up expired sessions
func (m *Manager) StartCleanupWorker(interval, timeout time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		m.logger.Info("cleanup worker started",
			"check_interval", interval,
			"session_timeout", timeout)

		for {
			select {
			case <-m.ctx.Done():
				m.logger.Info("cleanup worker stopping")
				return

			case <-ticker.C:
				m.cleanupExpiredSessions(timeout)
			}
		}
	}()
}

// cleanupExpiredSessions removes sessions inactive for longer than timeout
func (m *Manager) cleanupExpiredSessions(timeout time.Duration) {
	// Phase 1: Collect expired sessions (write lock, so nothing else picks them up)
	m.mu.Lock()
	expired := make([]*Session, 0)
	for sessionID, session := range m.sessions {
		if session.IsExpired(timeout) {
			expired = append(expired, session)
			delete(m.sessions, sessionID)
		}
	}
	count := len(m.sessions)
	m.mu.Unlock()

	if len(expired) == 0 {
		return
	}

	// Phase 2: Release expired sessions outside the lock
	m.logger.Info("cleaning up expired sessions",
		"count", len(expired),
		"timeout", timeout)

	for _, session := range expired {
		m.release(m.ctx, session, SessionExpired)
		m.logger.Debug("destroyed expired session", "session_id", session.ID)
	}
	m.metrics.SetActiveSessions(count)
}

// Helper: Check the global session limit
func (m *Manager) checkSessionLimits() error {
	m.mu.RLock()
	totalSessions := len(m.sessions)
	m.mu.RUnlock()

	if totalSessions >= m.cfg.MaxTotalSessions {
		return fmt.Errorf("%w: %d sessions (max %d)", ErrSessionLimitReached, totalSessions, m.cfg.MaxTotalSessions)
	}
	return nil
}

// Helper: Convert Session to SessionState for Redis
func (m *Manager) sessionToState(s *Session) *storage.SessionState {
	return &storage.SessionState{
		SessionID:    s.ID,
		Endpoint:     s.Endpoint,
		Transport:    m.cfg.Transport,
		Capabilities: s.Capabilities,
		CreatedAt:    s.CreatedAt,
		LastActivity: s.LastActivity(),
		Status:       string(s.Status()),
	}
}

func (m *Manager) persist(ctx context.Context, s *Session) {
	if m.store == nil {
		return
	}
	if err := m.store.SaveSession(ctx, m.sessionToState(s)); err != nil {
		m.logger.Warn("failed to persist session to Redis", "session_id", s.ID, "error", err)
	}
}

func (m *Manager) touch(ctx context.Context, sessionID string) {
	if m.store == nil {
		return
	}
	if err := m.store.UpdateLastActivity(ctx, sessionID); err != nil {
		m.logger.Warn("failed to update last activity", "session_id", sessionID, "error", err)
	}
}
