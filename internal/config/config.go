package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Supported transports to the remote ends
const (
	TransportHTTP      = "http"
	TransportWebSocket = "websocket"
)

// Config holds all service configuration
type Config struct {
	//Server configuration
	ServerPort string

	//Remote end configuration
	RemoteEndpoints     []string
	Transport           string
	CommandTimeout      time.Duration
	HealthCheckInterval time.Duration

	//Async script configuration
	AsyncScriptTimeout time.Duration
	AsyncPollInterval  time.Duration
	AsyncMaxWaitGrace  time.Duration

	//Session configuration
	MaxSessions        int
	SessionIdleTimeout time.Duration
	CleanupInterval    time.Duration

	//Redis configuration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),

		RemoteEndpoints:     getEnvAsList("REMOTE_ENDPOINTS", []string{"http://localhost:4444/wd/hub"}),
		Transport:           strings.ToLower(getEnv("TRANSPORT", TransportHTTP)),
		CommandTimeout:      getEnvAsDuration("COMMAND_TIMEOUT", 30*time.Second),
		HealthCheckInterval: getEnvAsDuration("HEALTH_CHECK_INTERVAL", 15*time.Second),

		AsyncScriptTimeout: getEnvAsDuration("ASYNC_SCRIPT_TIMEOUT", 30*time.Second),
		AsyncPollInterval:  getEnvAsDuration("ASYNC_POLL_INTERVAL", 100*time.Millisecond),
		AsyncMaxWaitGrace:  getEnvAsDuration("ASYNC_MAX_WAIT_GRACE", 10*time.Second),

		MaxSessions:        getEnvAsInt("MAX_SESSIONS", 100),
		SessionIdleTimeout: getEnvAsDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		CleanupInterval:    getEnvAsDuration("CLEANUP_INTERVAL", 1*time.Minute),

		// Redis is disabled unless an address is given
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		SessionTTL:    getEnvAsDuration("SESSION_TTL", 1*time.Hour),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RedisEnabled reports whether sessions are persisted to Redis
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func (c *Config) validate() error {
	if c.Transport != TransportHTTP && c.Transport != TransportWebSocket {
		return fmt.Errorf("unsupported transport %q, expected %q or %q", c.Transport, TransportHTTP, TransportWebSocket)
	}

	if len(c.RemoteEndpoints) == 0 {
		return fmt.Errorf("no remote endpoints configured, set REMOTE_ENDPOINTS")
	}

	if c.MaxSessions <= 0 {
		return fmt.Errorf("MAX_SESSIONS must be positive, got %d", c.MaxSessions)
	}

	if c.AsyncPollInterval <= 0 {
		return fmt.Errorf("ASYNC_POLL_INTERVAL must be positive, got %s", c.AsyncPollInterval)
	}

	return nil
}

func getEnv(key string, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return intVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}

	duration, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return duration
}

// getEnvAsList splits a comma-separated variable, dropping blank entries
func getEnvAsList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}

	var items []string
	for _, item := range strings.Split(val, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
