package main

import (
	"context"
	"log/slog"  // library for structured logging
	"os"        // library for os related operations
	"os/signal" // library for signal handling such as Ctrl+C and kill signals
	"syscall"   // library for system call constants
	"time"      // library for time formatting

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dhruvsoni1802/wirebridge/internal/api"
	"github.com/dhruvsoni1802/wirebridge/internal/asyncscript"
	"github.com/dhruvsoni1802/wirebridge/internal/config"
	"github.com/dhruvsoni1802/wirebridge/internal/httpwire"
	"github.com/dhruvsoni1802/wirebridge/internal/metrics"
	"github.com/dhruvsoni1802/wirebridge/internal/pool"
	"github.com/dhruvsoni1802/wirebridge/internal/session"
	"github.com/dhruvsoni1802/wirebridge/internal/storage"
	"github.com/dhruvsoni1802/wirebridge/internal/wsbridge"
)

// Function to initialize the logger
func setupLogger() *slog.Logger {
	var handler slog.Handler

	if os.Getenv("ENV") == "production" {

		// Initialize JSON handler for production environment
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {

		// Initialize Text handler for development environment with better formatting
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level:     slog.LevelDebug,
			AddSource: false,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				// Format timestamp to be more readable
				if a.Key == slog.TimeKey {
					t := a.Value.Time()
					return slog.String("time", t.Format(time.DateTime))
				}
				return a
			},
		})
	}

	// Create a new logger with the initialized handler
	return slog.New(handler)
}

// Function to pick the readiness probe for the configured transport
func proberFor(transport string) pool.Prober {
	if transport == config.TransportWebSocket {
		return func(ctx context.Context, url string) error {
			_, err := wsbridge.DiscoverEndpoint(ctx, url)
			return err
		}
	}
	return func(ctx context.Context, url string) error {
		return httpwire.NewClient(url).Status(ctx)
	}
}

// Function to pick how connections to remote ends are opened
func dialerFor(transport string, logger *slog.Logger) session.Dialer {
	if transport == config.TransportWebSocket {
		return func(ctx context.Context, url string) (session.Remote, error) {
			wsURL, err := wsbridge.DiscoverEndpoint(ctx, url)
			if err != nil {
				return nil, err
			}
			client, err := wsbridge.Dial(ctx, wsURL, wsbridge.WithLogger(logger.With("endpoint", url)))
			if err != nil {
				return nil, err
			}
			return client, nil
		}
	}
	return func(ctx context.Context, url string) (session.Remote, error) {
		return httpwire.NewClient(url, httpwire.WithLogger(logger.With("endpoint", url))), nil
	}
}

// Main entry point of the program
func main() {

	// Setup the logger
	logger := setupLogger()
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("wirebridge starting",
		"server_port", cfg.ServerPort,
		"transport", cfg.Transport,
		"endpoints", cfg.RemoteEndpoints)

	// Metrics registry shared by every component
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.New(registry)

	// Build the endpoint pool and run an initial probe
	endpoints, err := pool.NewEndpointPool(cfg.RemoteEndpoints, proberFor(cfg.Transport), pool.WithMetrics(collector))
	if err != nil {
		slog.Error("failed to create endpoint pool", "error", err)
		os.Exit(1)
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 10*time.Second)
	healthy, err := endpoints.CheckHealth(startupCtx)
	cancelStartup()
	if err != nil {
		slog.Warn("initial health check failed", "error", err)
	}
	slog.Info("endpoint pool ready", "healthy", healthy, "total", endpoints.GetEndpointCount())

	// Connect to Redis when configured. store stays a nil interface otherwise.
	var store session.Store
	var redisClient *storage.RedisClient
	if cfg.RedisEnabled() {
		redisCtx, cancelRedis := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err = storage.NewRedisClient(redisCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			cancelRedis()
			slog.Error("failed to connect to Redis", "error", err)
			os.Exit(1)
		}

		repository := storage.NewSessionRepository(redisClient, cfg.SessionTTL)
		if pruned, err := repository.PruneExpired(redisCtx); err != nil {
			slog.Warn("failed to prune expired sessions", "error", err)
		} else if pruned > 0 {
			slog.Info("pruned expired sessions from Redis", "count", pruned)
		}
		cancelRedis()

		store = repository
		slog.Info("session persistence enabled", "redis_addr", cfg.RedisAddr, "ttl", cfg.SessionTTL)
	}

	// Create session manager
	manager := session.NewManager(endpoints, dialerFor(cfg.Transport, logger), store, session.Config{
		Transport:      cfg.Transport,
		CommandTimeout: cfg.CommandTimeout,
		Async: asyncscript.Config{
			Timeout:      cfg.AsyncScriptTimeout,
			PollInterval: cfg.AsyncPollInterval,
			MaxWaitGrace: cfg.AsyncMaxWaitGrace,
		},
		MaxTotalSessions: cfg.MaxSessions,
	}, collector)

	// Start background workers
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	manager.StartCleanupWorker(cfg.CleanupInterval, cfg.SessionIdleTimeout)
	endpoints.StartHealthChecks(workerCtx, cfg.HealthCheckInterval)

	// Start the HTTP API
	server := api.NewServer(cfg.ServerPort, manager, endpoints, registry)
	go func() {
		if err := server.Start(); err != nil {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Create a channel to receive shutdown signals
	quit := make(chan os.Signal, 1)

	// Notify the channel for SIGINT and SIGTERM signals
	// Ctrl+C is SIGINT, kill signal is SIGTERM
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Log the service is ready and awaiting shutdown signal
	slog.Info("Service ready", "status", "awaiting shutdown signal")

	// Wait for a shutdown signal
	sig := <-quit

	// Log the shutdown initiated with the signal
	slog.Info("shutdown initiated", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	stopWorkers()

	if err := manager.Close(shutdownCtx); err != nil {
		slog.Error("failed to close session manager", "error", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			slog.Error("failed to close Redis", "error", err)
		}
	}

	// Log the shutdown complete
	slog.Info("shutdown complete")
}
