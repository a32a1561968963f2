package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "REMOTE_ENDPOINTS", "TRANSPORT", "REDIS_ADDR", "MAX_SESSIONS", "ASYNC_POLL_INTERVAL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, []string{"http://localhost:4444/wd/hub"}, cfg.RemoteEndpoints)
	assert.Equal(t, TransportHTTP, cfg.Transport)
	assert.Equal(t, 30*time.Second, cfg.CommandTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.AsyncPollInterval)
	assert.Equal(t, 10*time.Second, cfg.AsyncMaxWaitGrace)
	assert.Equal(t, 100, cfg.MaxSessions)
	assert.False(t, cfg.RedisEnabled())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("REMOTE_ENDPOINTS", " http://a:4444 , ,http://b:4444")
	t.Setenv("TRANSPORT", "WebSocket")
	t.Setenv("ASYNC_SCRIPT_TIMEOUT", "5s")
	t.Setenv("MAX_SESSIONS", "12")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("SESSION_IDLE_TIMEOUT", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"http://a:4444", "http://b:4444"}, cfg.RemoteEndpoints)
	assert.Equal(t, TransportWebSocket, cfg.Transport)
	assert.Equal(t, 5*time.Second, cfg.AsyncScriptTimeout)
	assert.Equal(t, 12, cfg.MaxSessions)
	assert.True(t, cfg.RedisEnabled())

	// Unparseable values fall back to the default
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown transport", "TRANSPORT", "carrier-pigeon"},
		{"no endpoints", "REMOTE_ENDPOINTS", " , "},
		{"zero sessions", "MAX_SESSIONS", "0"},
		{"zero poll interval", "ASYNC_POLL_INTERVAL", "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
