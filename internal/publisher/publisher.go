// Package publisher delivers domain events to the downstream orchestration
// system with retry, circuit breaking, and priority-based failure semantics.
package publisher

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"notifier/internal/event"
	"notifier/internal/metrics"
	"notifier/internal/transport"
	"notifier/pkg/backoff"
	"notifier/pkg/circuitbreaker"
)

// MetricsRecorder is an optional interface for recording exported publish metrics.
type MetricsRecorder interface {
	RecordPublishAttempt(ctx context.Context, eventType string)
	RecordPublishDelivered(ctx context.Context, eventType string, durationSeconds float64)
	RecordPublishRetry(ctx context.Context, eventType string)
	RecordPublishFailed(ctx context.Context, eventType string)
	RecordBreakerRejected(ctx context.Context, eventType string)
	RecordBreakerState(ctx context.Context, state int64)
}

// Config holds configuration for the publisher.
type Config struct {
	MaxRetries      int            // per-call attempt budget; 0 = per-event-type default
	AttemptTimeout  time.Duration  // timeout for one transport attempt (default: 10s)
	Backoff         backoff.Config // delay calculation, zero values use package defaults
	SummaryInterval time.Duration  // periodic counter summary logging (default: 1h)
	ResetInterval   time.Duration  // periodic counter reset to bound memory (default: 6h)
}

func (c Config) withDefaults() Config {
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = 10 * time.Second
	}
	if c.SummaryInterval <= 0 {
		c.SummaryInterval = time.Hour
	}
	if c.ResetInterval <= 0 {
		c.ResetInterval = 6 * time.Hour
	}
	return c
}

// Publisher is the public-facing event publisher. It owns the metrics
// collector and the injected circuit breaker for its process lifetime;
// envelopes are built per call and discarded after the attempt completes.
//
// Separate publisher instances do not share state unless they are
// constructed with the same breaker.
type Publisher struct {
	transport transport.Transport
	breaker   *circuitbreaker.Breaker
	collector *metrics.Collector
	recorder  MetricsRecorder
	config    Config
	logger    *slog.Logger
	startedAt time.Time

	mu      sync.Mutex
	lastErr string

	wg       sync.WaitGroup
	shutdown chan struct{}
	closed   bool
}

// New creates a publisher and starts its background summary and reset tasks.
// The breaker is injected so tests and multi-instance setups control sharing
// explicitly. recorder may be nil.
func New(t transport.Transport, breaker *circuitbreaker.Breaker, recorder MetricsRecorder, cfg Config) *Publisher {
	p := &Publisher{
		transport: t,
		breaker:   breaker,
		collector: metrics.NewCollector(),
		recorder:  recorder,
		config:    cfg.withDefaults(),
		logger:    slog.With("component", "publisher", "transport", t.Kind()),
		startedAt: time.Now(),
		shutdown:  make(chan struct{}),
	}

	p.wg.Add(2)
	go p.summaryLoop()
	go p.resetLoop()

	p.logger.Info("Publisher started",
		"summaryInterval", p.config.SummaryInterval,
		"resetInterval", p.config.ResetInterval,
	)
	return p
}

// PublishProjectCreated publishes a project creation event. Delivery failure
// propagates to the caller.
func (p *Publisher) PublishProjectCreated(ctx context.Context, payload map[string]any, correlationID string) error {
	return p.publish(ctx, event.TypeProjectCreated, payload, correlationID)
}

// PublishProjectUpdated publishes a project metadata update. Delivery failure
// is logged and swallowed.
func (p *Publisher) PublishProjectUpdated(ctx context.Context, payload map[string]any, correlationID string) error {
	return p.publish(ctx, event.TypeProjectUpdated, payload, correlationID)
}

// PublishProjectArchived publishes a project archival event. Delivery failure
// is logged and swallowed.
func (p *Publisher) PublishProjectArchived(ctx context.Context, payload map[string]any, correlationID string) error {
	return p.publish(ctx, event.TypeProjectArchived, payload, correlationID)
}

// PublishProjectDeleted publishes a project deletion event. Delivery failure
// propagates to the caller.
func (p *Publisher) PublishProjectDeleted(ctx context.Context, payload map[string]any, correlationID string) error {
	return p.publish(ctx, event.TypeProjectDeleted, payload, correlationID)
}

// PublishProjectFilesUpdated publishes a generated-file-set update. Delivery
// failure propagates to the caller.
func (p *Publisher) PublishProjectFilesUpdated(ctx context.Context, payload map[string]any, correlationID string) error {
	return p.publish(ctx, event.TypeProjectFilesUpdated, payload, correlationID)
}

// publish builds the envelope, runs the retry loop, and applies the failure
// disposition for the event's priority.
func (p *Publisher) publish(ctx context.Context, t event.Type, payload map[string]any, correlationID string) error {
	env := event.NewEnvelope(t, payload, correlationID)
	meta := event.MetaFor(t)

	err := p.publishWithRetry(ctx, env, meta)
	if err == nil {
		p.collector.Record(t.Kind()+"_success", 1)
		return nil
	}

	p.collector.Record(t.Kind()+"_error", 1)
	p.setLastError(err)

	if meta.Priority == event.PriorityHigh {
		return err
	}

	// Best-effort event: a failed notification must never fail the caller's
	// primary operation.
	p.logger.Warn("Best-effort event delivery failed, continuing",
		"type", t,
		"eventId", env.EventID,
		"priority", meta.Priority.String(),
		"error", err,
	)
	return nil
}

// Metrics returns a snapshot of the in-memory counters.
func (p *Publisher) Metrics() map[string]int64 {
	return p.collector.Snapshot()
}

// ResetMetrics clears the in-memory counters.
func (p *Publisher) ResetMetrics() {
	p.collector.Reset()
	p.logger.Info("Metrics reset")
}

// Breaker returns the circuit breaker guarding the high-priority path.
func (p *Publisher) Breaker() *circuitbreaker.Breaker {
	return p.breaker
}

// Ready reports whether the downstream receiver is reachable. Implements the
// readiness check consumed by the health endpoint.
func (p *Publisher) Ready(ctx context.Context) error {
	if !p.transport.HealthCheck(ctx) {
		return &unreachableError{kind: p.transport.Kind()}
	}
	return nil
}

type unreachableError struct{ kind string }

func (e *unreachableError) Error() string {
	return "transport " + e.kind + " is unreachable"
}

func (p *Publisher) setLastError(err error) {
	p.mu.Lock()
	p.lastErr = err.Error()
	p.mu.Unlock()
}

// summaryLoop periodically logs a counter summary.
func (p *Publisher) summaryLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.SummaryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.logSummary()
		}
	}
}

func (p *Publisher) logSummary() {
	snap := p.collector.Snapshot()

	var attempts, failures int64
	for k, v := range snap {
		switch {
		case strings.HasSuffix(k, "_attempt"):
			attempts += v
		case strings.HasSuffix(k, "_failure"):
			failures += v
		}
	}

	p.logger.Info("Publish counter summary",
		"counters", len(snap),
		"attempts", attempts,
		"failures", failures,
		"uptime", time.Since(p.startedAt).Round(time.Second),
	)
}

// resetLoop periodically clears the counter map to bound memory under long
// uptime.
func (p *Publisher) resetLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.ResetInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.logSummary()
			p.collector.Reset()
			p.logger.Info("Periodic metrics reset")
		}
	}
}

// Close stops the background tasks and releases the transport.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	close(p.shutdown)
	p.wg.Wait()

	p.logSummary()
	p.logger.Info("Publisher stopped")
	return p.transport.Close()
}
