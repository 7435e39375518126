package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics holds all application metrics implementing the golden 4 signals:
// - Latency: How long requests/deliveries take
// - Traffic: Request/publish throughput
// - Errors: Rate of failures
// - Saturation: Breaker rejections against a known-down receiver
type Metrics struct {
	meter metric.Meter

	// HTTP metrics (Latency, Traffic, Errors)
	HTTPRequestDuration metric.Float64Histogram
	HTTPRequestsTotal   metric.Int64Counter
	HTTPErrorsTotal     metric.Int64Counter

	// Publish metrics (Latency, Traffic, Errors)
	PublishDuration       metric.Float64Histogram
	PublishAttemptsTotal  metric.Int64Counter
	PublishDeliveredTotal metric.Int64Counter
	PublishRetriesTotal   metric.Int64Counter
	PublishFailedTotal    metric.Int64Counter

	// Breaker metrics (Saturation)
	BreakerRejectedTotal metric.Int64Counter
	BreakerState         metric.Int64Gauge

	// Project metrics (Traffic, Errors)
	ProjectOpsTotal metric.Int64Counter
}

// NewMetrics creates and registers all metrics with a Prometheus exporter.
func NewMetrics(ctx context.Context) (*Metrics, http.Handler, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter("notifier")
	m := &Metrics{meter: meter}

	// HTTP metrics
	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, nil, err
	}

	m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.HTTPErrorsTotal, err = meter.Int64Counter(
		"http_errors_total",
		metric.WithDescription("Total number of HTTP errors (4xx and 5xx)"),
	)
	if err != nil {
		return nil, nil, err
	}

	// Publish metrics
	m.PublishDuration, err = meter.Float64Histogram(
		"publish_duration_seconds",
		metric.WithDescription("End-to-end publish latency including retries in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30),
	)
	if err != nil {
		return nil, nil, err
	}

	m.PublishAttemptsTotal, err = meter.Int64Counter(
		"publish_attempts_total",
		metric.WithDescription("Total delivery attempts including retries"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.PublishDeliveredTotal, err = meter.Int64Counter(
		"publish_delivered_total",
		metric.WithDescription("Total events successfully delivered"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.PublishRetriesTotal, err = meter.Int64Counter(
		"publish_retries_total",
		metric.WithDescription("Total failed attempts that were retried or exhausted"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.PublishFailedTotal, err = meter.Int64Counter(
		"publish_failed_total",
		metric.WithDescription("Total events failed after exhausting retries"),
	)
	if err != nil {
		return nil, nil, err
	}

	// Breaker metrics
	m.BreakerRejectedTotal, err = meter.Int64Counter(
		"breaker_rejected_total",
		metric.WithDescription("Total attempts rejected by the open circuit breaker"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.BreakerState, err = meter.Int64Gauge(
		"breaker_state",
		metric.WithDescription("Circuit breaker state (0=closed, 1=open, 2=half-open)"),
	)
	if err != nil {
		return nil, nil, err
	}

	// Project metrics
	m.ProjectOpsTotal, err = meter.Int64Counter(
		"project_operations_total",
		metric.WithDescription("Total project state changes processed"),
	)
	if err != nil {
		return nil, nil, err
	}

	return m, promhttp.Handler(), nil
}

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, durationSeconds float64) {
	attrs := metric.WithAttributes(
		methodAttr(method),
		pathAttr(path),
		statusAttr(statusCode),
	)

	m.HTTPRequestDuration.Record(ctx, durationSeconds, attrs)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)

	if statusCode >= 400 {
		m.HTTPErrorsTotal.Add(ctx, 1, attrs)
	}
}

// RecordPublishAttempt records one delivery attempt.
func (m *Metrics) RecordPublishAttempt(ctx context.Context, eventType string) {
	m.PublishAttemptsTotal.Add(ctx, 1, metric.WithAttributes(eventTypeAttr(eventType)))
}

// RecordPublishDelivered records a successful delivery with its total duration.
func (m *Metrics) RecordPublishDelivered(ctx context.Context, eventType string, durationSeconds float64) {
	attrs := metric.WithAttributes(eventTypeAttr(eventType))
	m.PublishDeliveredTotal.Add(ctx, 1, attrs)
	m.PublishDuration.Record(ctx, durationSeconds, attrs)
}

// RecordPublishRetry records a failed attempt.
func (m *Metrics) RecordPublishRetry(ctx context.Context, eventType string) {
	m.PublishRetriesTotal.Add(ctx, 1, metric.WithAttributes(eventTypeAttr(eventType)))
}

// RecordPublishFailed records an event failed after exhausting retries.
func (m *Metrics) RecordPublishFailed(ctx context.Context, eventType string) {
	m.PublishFailedTotal.Add(ctx, 1, metric.WithAttributes(eventTypeAttr(eventType)))
}

// RecordBreakerRejected records an attempt rejected by the open breaker.
func (m *Metrics) RecordBreakerRejected(ctx context.Context, eventType string) {
	m.BreakerRejectedTotal.Add(ctx, 1, metric.WithAttributes(eventTypeAttr(eventType)))
}

// RecordBreakerState records the current breaker state.
func (m *Metrics) RecordBreakerState(ctx context.Context, state int64) {
	m.BreakerState.Record(ctx, state)
}

// RecordProjectOp records a project state change.
func (m *Metrics) RecordProjectOp(ctx context.Context, op string, success bool) {
	m.ProjectOpsTotal.Add(ctx, 1, metric.WithAttributes(opAttr(op), successAttr(success)))
}
