package transport

import (
	"context"
	"log/slog"

	"notifier/internal/event"
)

// NoopTransport logs envelopes instead of sending them. Used in environments
// without a configured receiver so the surrounding service keeps working.
type NoopTransport struct {
	logger *slog.Logger
}

// NewNoop creates a no-op transport.
func NewNoop() *NoopTransport {
	return &NoopTransport{
		logger: slog.With("component", "transport", "kind", "noop"),
	}
}

// Publish logs the envelope and succeeds.
func (t *NoopTransport) Publish(ctx context.Context, env *event.Envelope) error {
	t.logger.InfoContext(ctx, "Event not sent, no receiver configured",
		"type", env.EventType,
		"eventId", env.EventID,
		"priority", env.Priority,
	)
	return nil
}

// HealthCheck always reports reachable.
func (t *NoopTransport) HealthCheck(ctx context.Context) bool { return true }

// Kind returns "noop".
func (t *NoopTransport) Kind() string { return "noop" }

// Close is a no-op.
func (t *NoopTransport) Close() error { return nil }

// Verify NoopTransport implements Transport
var _ Transport = (*NoopTransport)(nil)
