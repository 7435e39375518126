package publisher

import (
	"context"
	"errors"
	"time"

	"notifier/internal/apperrors"
	"notifier/internal/event"
	"notifier/pkg/backoff"
	"notifier/pkg/circuitbreaker"
)

// publishWithRetry drives up to maxAttempts sequential transport attempts for
// one envelope. High-priority envelopes go through the circuit breaker; best-
// effort envelopes always hit the transport directly so an open circuit never
// blocks them.
//
// A breaker rejection consumes an attempt like any other failure; this keeps
// the loop invariant simple at the cost of slower terminal failure while the
// circuit is open.
func (p *Publisher) publishWithRetry(ctx context.Context, env *event.Envelope, meta event.Meta) error {
	maxAttempts := meta.MaxAttempts
	if p.config.MaxRetries > 0 {
		maxAttempts = p.config.MaxRetries
	}

	eventType := string(env.EventType)
	start := time.Now()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		p.collector.Record(eventType+"_attempt", 1)
		if p.recorder != nil {
			p.recorder.RecordPublishAttempt(ctx, eventType)
		}

		lastErr = p.attempt(ctx, env, meta.Priority)
		if lastErr == nil {
			if attempt > 1 {
				p.collector.Record(eventType+"_retry_success", 1)
			}
			if p.recorder != nil {
				p.recorder.RecordPublishDelivered(ctx, eventType, time.Since(start).Seconds())
			}
			p.logger.Debug("Event delivered",
				"type", env.EventType,
				"eventId", env.EventID,
				"attempt", attempt,
			)
			return nil
		}

		p.collector.Record(eventType+"_retry", 1)
		if p.recorder != nil {
			p.recorder.RecordPublishRetry(ctx, eventType)
			if errors.Is(lastErr, circuitbreaker.ErrOpen) {
				p.recorder.RecordBreakerRejected(ctx, eventType)
			}
		}

		if attempt == maxAttempts {
			p.collector.Record(eventType+"_failure", 1)
			if p.recorder != nil {
				p.recorder.RecordPublishFailed(ctx, eventType)
			}
			p.logger.Error("Event delivery exhausted retries",
				"type", env.EventType,
				"eventId", env.EventID,
				"attempts", attempt,
				"error", lastErr,
			)
			return apperrors.RetriesExhausted(eventType, attempt, lastErr)
		}

		delay := backoff.Delay(meta.Backoff, attempt, &p.config.Backoff)
		p.logger.Warn("Event delivery attempt failed, backing off",
			"type", env.EventType,
			"eventId", env.EventID,
			"attempt", attempt,
			"delay", delay,
			"error", lastErr,
		)

		if err := backoff.Sleep(ctx, delay); err != nil {
			// Caller's deadline hit mid-backoff; treat as terminal.
			p.collector.Record(eventType+"_failure", 1)
			if p.recorder != nil {
				p.recorder.RecordPublishFailed(ctx, eventType)
			}
			return apperrors.RetriesExhausted(eventType, attempt, err)
		}
	}

	return apperrors.RetriesExhausted(eventType, maxAttempts, lastErr)
}

// attempt performs one transport call with a per-attempt timeout. The breaker
// only gates high-priority traffic.
func (p *Publisher) attempt(ctx context.Context, env *event.Envelope, prio event.Priority) error {
	attemptCtx, cancel := context.WithTimeout(ctx, p.config.AttemptTimeout)
	defer cancel()

	var err error
	if prio == event.PriorityHigh {
		err = p.breaker.Do(func() error {
			return p.transport.Publish(attemptCtx, env)
		})
		if p.recorder != nil {
			p.recorder.RecordBreakerState(ctx, int64(p.breaker.State()))
		}
		return err
	}

	return p.transport.Publish(attemptCtx, env)
}
