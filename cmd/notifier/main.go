// notifier is the HTTP service that manages projects and publishes their
// state changes to the downstream orchestration system.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notifier/internal/api"
	"notifier/internal/config"
	"notifier/internal/health"
	"notifier/internal/observability"
	"notifier/internal/project"
	"notifier/internal/publisher"
	"notifier/internal/transport"
	"notifier/pkg/backoff"
	"notifier/pkg/circuitbreaker"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(); err != nil {
		slog.Error("Service failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load configuration
	svcCfg := config.LoadServiceConfig()
	pubCfg := config.LoadPublisherConfig()

	// Setup metrics
	metrics, metricsHandler, err := observability.NewMetrics(ctx)
	if err != nil {
		return err
	}

	// Select transport: real receiver if configured, no-op otherwise
	eventTransport := newTransport(pubCfg)
	slog.Info("Event transport selected", "kind", eventTransport.Kind())

	// Circuit breakers are registered per transport kind so health reporting
	// covers every breaker in the process
	breakers := circuitbreaker.NewRegistry(circuitbreaker.Config{
		Threshold: pubCfg.BreakerThreshold,
		Cooldown:  pubCfg.BreakerCooldown,
	})

	// Create event publisher
	eventPublisher := publisher.New(eventTransport, breakers.Get(eventTransport.Kind()), metrics, publisher.Config{
		MaxRetries:      pubCfg.MaxRetries,
		AttemptTimeout:  pubCfg.HTTPTimeout,
		Backoff:         backoff.Config{},
		SummaryInterval: pubCfg.SummaryInterval,
		ResetInterval:   pubCfg.ResetInterval,
	})

	// Create health checker
	healthChecker := health.NewChecker(eventPublisher)

	// Create project service
	projectService := project.NewService(eventPublisher, metrics)

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		ProjectService: projectService,
		Publisher:      eventPublisher,
		Metrics:        metrics,
		HealthChecker:  healthChecker,
		APIKey:         svcCfg.APIKey,
	})

	if svcCfg.APIKey != "" {
		slog.Info("API authentication enabled")
	} else {
		slog.Warn("API authentication disabled - no API_KEY configured")
	}

	// Create API server
	apiServer := &http.Server{
		Addr:         ":" + svcCfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Create metrics server
	metricsMux := http.NewServeMux()
	metricsMux.Handle("GET /metrics", metricsHandler)
	metricsServer := &http.Server{
		Addr:         ":" + svcCfg.MetricsPort,
		Handler:      metricsMux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// Channel to capture server errors
	serverErr := make(chan error, 1)

	// Start API server
	go func() {
		slog.Info("Starting API server", "port", svcCfg.Port)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Start metrics server
	go func() {
		slog.Info("Starting metrics server", "port", svcCfg.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// shutdown closes both servers gracefully
	shutdown := func(timeout time.Duration) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("API server shutdown error", "error", err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server shutdown error", "error", err)
		}
	}

	// Wait for interrupt signal or server error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("Received shutdown signal", "signal", sig)
	case err := <-serverErr:
		slog.Error("Server failed to start", "error", err)
		shutdown(5 * time.Second)
		return err
	}

	// Phase 1: Mark service as unhealthy for load balancer draining
	healthChecker.SetShuttingDown()

	// Wait for load balancers to stop sending traffic
	if svcCfg.ShutdownDrainWait > 0 {
		slog.Info("Waiting for traffic to drain", "duration", svcCfg.ShutdownDrainWait)
		time.Sleep(svcCfg.ShutdownDrainWait)
	}

	// Phase 2: Graceful shutdown - stop accepting new connections, finish in-flight requests
	slog.Info("Starting graceful shutdown")
	shutdown(25 * time.Second)

	// Phase 3: Stop the publisher's background tasks and release the transport
	if err := eventPublisher.Close(); err != nil {
		slog.Warn("Publisher shutdown error", "error", err)
	}

	stats := breakers.Stats()
	slog.Info("Shutdown complete",
		"breakers", stats.Total,
		"breakersOpen", stats.Open,
	)
	return nil
}

// newTransport selects the transport from configuration.
func newTransport(cfg *config.PublisherConfig) transport.Transport {
	if cfg.Endpoint == "" {
		return transport.NewNoop()
	}
	return transport.NewHTTP(transport.HTTPConfig{
		Endpoint:   cfg.Endpoint,
		AuthToken:  cfg.AuthToken,
		SigningKey: cfg.SigningKey,
		Timeout:    cfg.HTTPTimeout,
	})
}
