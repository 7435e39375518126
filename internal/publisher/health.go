package publisher

import (
	"context"
	"time"
)

// Status is the publisher's health payload. It never contains secrets:
// endpoints, tokens, and signing keys are deliberately absent.
type Status struct {
	Status              string           `json:"status"` // healthy | unhealthy
	TransportKind       string           `json:"transportKind"`
	CircuitBreakerState string           `json:"circuitBreakerState"`
	UptimeMs            int64            `json:"uptimeMs"`
	Metrics             map[string]int64 `json:"metrics"`
	LastError           string           `json:"lastError,omitempty"`
}

// HealthCheck reports transport reachability, breaker state, uptime, and a
// counter snapshot. It never fails; internal errors degrade to unhealthy.
func (p *Publisher) HealthCheck(ctx context.Context) *Status {
	status := &Status{
		Status:              "unhealthy",
		TransportKind:       p.transport.Kind(),
		CircuitBreakerState: p.breaker.State().String(),
		UptimeMs:            time.Since(p.startedAt).Milliseconds(),
		Metrics:             p.collector.Snapshot(),
	}

	p.mu.Lock()
	status.LastError = p.lastErr
	p.mu.Unlock()

	if p.probe(ctx) {
		status.Status = "healthy"
	}
	return status
}

// probe runs the transport health check, containing panics from transport
// implementations so health queries can never blow up a caller.
func (p *Publisher) probe(ctx context.Context) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Transport health check panic", "panic", r)
			ok = false
		}
	}()
	return p.transport.HealthCheck(ctx)
}
