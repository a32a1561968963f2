package pool

import (
	"errors"
	"log/slog"
	"time"
)

var (
	ErrEmptyPool          = errors.New("no endpoints in the pool")
	ErrNoHealthyEndpoints = errors.New("no healthy endpoints in the pool")
)

//The load Balancer struct is responsible for spreading sessions over the remote ends
type LoadBalancer struct {
	pool *EndpointPool
	now  func() time.Time
}

// This function creates a new load balancer
func NewLoadBalancer(pool *EndpointPool) *LoadBalancer {
	return &LoadBalancer{
		pool: pool,
		now:  time.Now,
	}
}

// This function selects the available endpoint with the least number of sessions
func (lb *LoadBalancer) SelectEndpoint() (*Endpoint, error) {
	// 1. Get all the endpoints from the pool
	endpoints := lb.pool.GetEndpoints()

	//2. Edge case to check if the pool is empty
	if len(endpoints) == 0 {
		return nil, ErrEmptyPool
	}

	// 3. Select the endpoint with the least load
	var selected *Endpoint
	var minSessions int64 = -1
	now := lb.now()

	// 3a. Iterate through the endpoints and find the one with the least sessions
	for _, endpoint := range endpoints {

		//We first check if the endpoint is healthy and its circuit is closed
		if !endpoint.Available(now) {
			slog.Debug("skipping unavailable endpoint", "url", endpoint.URL())
			continue
		}

		//Then we check if the endpoint has the least number of sessions
		sessionCount := endpoint.SessionCount()
		if minSessions == -1 || sessionCount < minSessions {
			minSessions = sessionCount
			selected = endpoint
		}
	}

	//If we didn't find any available endpoint, we return an error
	if selected == nil {
		return nil, ErrNoHealthyEndpoints
	}

	//Logging the selected endpoint
	slog.Debug("selected endpoint",
		"url", selected.URL(),
		"current_sessions", selected.SessionCount())

	// 3b. Return the selected endpoint
	return selected, nil
}
