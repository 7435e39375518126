// Package transport performs single publish attempts against the downstream
// orchestration system. Retry and circuit breaking live above it in the
// publisher; a Transport only knows how to deliver one envelope once.
package transport

import (
	"context"

	"notifier/internal/event"
)

// Transport delivers one envelope per Publish call.
type Transport interface {
	// Publish performs a single delivery attempt. Any error is a transient
	// failure from the retry loop's point of view.
	Publish(ctx context.Context, env *event.Envelope) error

	// HealthCheck reports whether the downstream receiver is reachable.
	// It never returns an error; unreachable degrades to false.
	HealthCheck(ctx context.Context) bool

	// Kind identifies the transport implementation ("http", "noop").
	Kind() string

	// Close releases resources. It drains nothing; in-flight attempts are
	// the publisher's concern.
	Close() error
}
