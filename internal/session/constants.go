package session

import "errors"

const (
	// MaxTotalSessions is the default global session limit
	MaxTotalSessions = 100

	// maxParallelQuits bounds concurrent quit commands on shutdown
	maxParallelQuits = 8
)

// Error definitions
var (
	ErrSessionLimitReached = errors.New("session limit reached")
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionClosed       = errors.New("session is closed")
	ErrNoSessionID         = errors.New("remote end returned no session id")
	ErrUnknownEndpoint     = errors.New("endpoint is not part of the pool")
)

// Locator strategies accepted by FindElement and FindElements
const (
	ByClassName       = "class name"
	ByCSSSelector     = "css selector"
	ByID              = "id"
	ByName            = "name"
	ByLinkText        = "link text"
	ByPartialLinkText = "partial link text"
	ByTagName         = "tag name"
	ByXPath           = "xpath"
)

var locatorStrategies = map[string]bool{
	ByClassName:       true,
	ByCSSSelector:     true,
	ByID:              true,
	ByName:            true,
	ByLinkText:        true,
	ByPartialLinkText: true,
	ByTagName:         true,
	ByXPath:           true,
}
