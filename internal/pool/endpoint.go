package pool

import (
	"sync"
	"sync/atomic"
	"time"
)

// Circuit breaker defaults
const (
	DefaultFailureThreshold = 3
	DefaultCooldown         = 30 * time.Second
)

// Endpoint is one remote end that sessions can be placed on
type Endpoint struct {
	url          string
	sessionCount atomic.Int64

	mu                  sync.RWMutex
	healthy             bool
	consecutiveFailures int
	openUntil           time.Time
	lastChecked         time.Time
	lastError           string

	failureThreshold int
	cooldown         time.Duration
	now              func() time.Time
}

// EndpointMetrics is a snapshot of one endpoint
type EndpointMetrics struct {
	URL                 string    `json:"url"`
	Healthy             bool      `json:"healthy"`
	SessionCount        int64     `json:"session_count"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	CircuitOpen         bool      `json:"circuit_open"`
	LastChecked         time.Time `json:"last_checked,omitempty"`
	LastError           string    `json:"last_error,omitempty"`
}

// NewEndpoint creates an endpoint that is considered healthy until a probe says otherwise
func NewEndpoint(url string) *Endpoint {
	return &Endpoint{
		url:              url,
		healthy:          true,
		failureThreshold: DefaultFailureThreshold,
		cooldown:         DefaultCooldown,
		now:              time.Now,
	}
}

// URL returns the endpoint address
func (e *Endpoint) URL() string {
	return e.url
}

// SessionCount returns the number of sessions placed on the endpoint
func (e *Endpoint) SessionCount() int64 {
	return e.sessionCount.Load()
}

// IncrementSessions records a new session on the endpoint
func (e *Endpoint) IncrementSessions() {
	e.sessionCount.Add(1)
}

// DecrementSessions records a finished session. The count never goes below zero.
func (e *Endpoint) DecrementSessions() {
	for {
		current := e.sessionCount.Load()
		if current <= 0 {
			return
		}
		if e.sessionCount.CompareAndSwap(current, current-1) {
			return
		}
	}
}

// IsHealthy reports the result of the last probe
func (e *Endpoint) IsHealthy() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.healthy
}

// Available reports whether new sessions may be placed on the endpoint at now
func (e *Endpoint) Available(now time.Time) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.healthy && !now.Before(e.openUntil)
}

// RecordSuccess marks the endpoint healthy. An open circuit stays open until
// its cooldown has passed; the first success after that closes it.
func (e *Endpoint) RecordSuccess() {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	e.healthy = true
	e.lastChecked = now
	e.lastError = ""
	if now.Before(e.openUntil) {
		return
	}
	e.consecutiveFailures = 0
	e.openUntil = time.Time{}
}

// RecordFailure marks the endpoint unhealthy. Once failures reach the threshold
// the circuit opens and the endpoint is skipped for the cooldown period.
func (e *Endpoint) RecordFailure(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	e.healthy = false
	e.consecutiveFailures++
	e.lastChecked = now
	if err != nil {
		e.lastError = err.Error()
	}
	if e.consecutiveFailures >= e.failureThreshold {
		e.openUntil = now.Add(e.cooldown)
	}
}

// GetMetrics returns a snapshot of the endpoint
func (e *Endpoint) GetMetrics() EndpointMetrics {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return EndpointMetrics{
		URL:                 e.url,
		Healthy:             e.healthy,
		SessionCount:        e.sessionCount.Load(),
		ConsecutiveFailures: e.consecutiveFailures,
		CircuitOpen:         e.now().Before(e.openUntil),
		LastChecked:         e.lastChecked,
		LastError:           e.lastError,
	}
}
