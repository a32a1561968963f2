package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dhruvsoni1802/wirebridge/internal/metrics"
)

const defaultProbeTimeout = 5 * time.Second

// Prober checks that the remote end at url is ready to accept commands
type Prober func(ctx context.Context, url string) error

// EndpointPool manages the remote ends sessions can be placed on
type EndpointPool struct {
	endpoints    []*Endpoint        // Remote ends, in configuration order
	prober       Prober             // Readiness check
	probeTimeout time.Duration      // Limit for a single probe
	metrics      *metrics.Collector // Optional instrumentation
	mu           sync.RWMutex       // Protects endpoints slice
}

// PoolMetrics contains metrics about the entire pool
type PoolMetrics struct {
	TotalEndpoints   int               `json:"total_endpoints"`
	HealthyEndpoints int               `json:"healthy_endpoints"`
	TotalSessions    int64             `json:"total_sessions"`
	Endpoints        []EndpointMetrics `json:"endpoints"`
}

// Option configures an EndpointPool
type Option func(*EndpointPool)

// WithMetrics publishes the healthy endpoint count on m
func WithMetrics(m *metrics.Collector) Option {
	return func(p *EndpointPool) {
		p.metrics = m
	}
}

// WithBreaker sets the circuit breaker of every endpoint
func WithBreaker(threshold int, cooldown time.Duration) Option {
	return func(p *EndpointPool) {
		for _, e := range p.endpoints {
			if threshold > 0 {
				e.failureThreshold = threshold
			}
			if cooldown > 0 {
				e.cooldown = cooldown
			}
		}
	}
}

// WithProbeTimeout limits each readiness probe
func WithProbeTimeout(d time.Duration) Option {
	return func(p *EndpointPool) {
		if d > 0 {
			p.probeTimeout = d
		}
	}
}

// NewEndpointPool creates a pool over the given remote end URLs
func NewEndpointPool(urls []string, prober Prober, opts ...Option) (*EndpointPool, error) {
	// Validate the endpoint list
	if len(urls) == 0 {
		return nil, fmt.Errorf("at least one remote endpoint is required")
	}

	pool := &EndpointPool{
		endpoints:    make([]*Endpoint, 0, len(urls)),
		prober:       prober,
		probeTimeout: defaultProbeTimeout,
	}

	seen := make(map[string]bool, len(urls))
	for _, url := range urls {
		if url == "" {
			return nil, fmt.Errorf("empty endpoint url")
		}
		if seen[url] {
			return nil, fmt.Errorf("duplicate endpoint url: %s", url)
		}
		seen[url] = true
		pool.endpoints = append(pool.endpoints, NewEndpoint(url))
	}

	for _, opt := range opts {
		opt(pool)
	}

	slog.Info("endpoint pool initialized", "size", len(pool.endpoints))
	return pool, nil
}

// GetEndpoints returns a copy of all endpoints (for monitoring)
func (p *EndpointPool) GetEndpoints() []*Endpoint {
	p.mu.RLock()
	defer p.mu.RUnlock()

	// Return a copy to prevent external modification
	endpoints := make([]*Endpoint, len(p.endpoints))
	copy(endpoints, p.endpoints)
	return endpoints
}

// GetEndpointCount returns the number of endpoints in the pool
func (p *EndpointPool) GetEndpointCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.endpoints)
}

// Find returns the endpoint with the given url
func (p *EndpointPool) Find(url string) (*Endpoint, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, e := range p.endpoints {
		if e.url == url {
			return e, true
		}
	}
	return nil, false
}

// CheckHealth probes every endpoint concurrently and returns how many are healthy.
// A failed probe only marks its endpoint; the error is not returned.
func (p *EndpointPool) CheckHealth(ctx context.Context) (int, error) {
	if p.prober == nil {
		return p.healthyCount(), nil
	}

	endpoints := p.GetEndpoints()
	g, gctx := errgroup.WithContext(ctx)

	for _, endpoint := range endpoints {
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(gctx, p.probeTimeout)
			defer cancel()

			if err := p.prober(probeCtx, endpoint.URL()); err != nil {
				endpoint.RecordFailure(err)
				slog.Warn("endpoint probe failed", "url", endpoint.URL(), "error", err)
				return nil
			}
			endpoint.RecordSuccess()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("failed to probe endpoints: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	healthy := p.healthyCount()
	p.metrics.SetHealthyEndpoints(healthy)
	return healthy, nil
}

// StartHealthChecks probes the pool every interval until ctx is done
func (p *EndpointPool) StartHealthChecks(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				healthy, err := p.CheckHealth(ctx)
				if err != nil && !errors.Is(err, context.Canceled) {
					slog.Warn("health check failed", "error", err)
					continue
				}
				slog.Debug("health check completed", "healthy", healthy, "total", p.GetEndpointCount())
			}
		}
	}()
}

// GetMetrics returns metrics for the entire pool
func (p *EndpointPool) GetMetrics() PoolMetrics {
	p.mu.RLock()
	defer p.mu.RUnlock()

	// Calculate totals and collect endpoint metrics
	var totalSessions int64
	healthy := 0
	endpointMetrics := make([]EndpointMetrics, len(p.endpoints))

	for i, endpoint := range p.endpoints {
		m := endpoint.GetMetrics()
		endpointMetrics[i] = m
		totalSessions += m.SessionCount
		if m.Healthy {
			healthy++
		}
	}

	return PoolMetrics{
		TotalEndpoints:   len(p.endpoints),
		HealthyEndpoints: healthy,
		TotalSessions:    totalSessions,
		Endpoints:        endpointMetrics,
	}
}

func (p *EndpointPool) healthyCount() int {
	count := 0
	for _, e := range p.GetEndpoints() {
		if e.IsHealthy() {
			count++
		}
	}
	return count
}
