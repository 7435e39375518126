package transport

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"notifier/internal/event"
)

// HTTPConfig configures the HTTP transport.
type HTTPConfig struct {
	Endpoint   string        // receiver URL, required
	AuthToken  string        // optional bearer token
	SigningKey string        // optional HMAC key for body signing
	Timeout    time.Duration // per-attempt timeout (default: 10s)
}

// HTTPTransport delivers envelopes via HTTP POST.
type HTTPTransport struct {
	config HTTPConfig
	client *http.Client
}

// NewHTTP creates an HTTP transport with standard transport settings.
func NewHTTP(cfg HTTPConfig) *HTTPTransport {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &HTTPTransport{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Publish POSTs the envelope as JSON. Envelope metadata is projected into
// headers so receivers can route without parsing the body. Any non-2xx
// response is an error; classification into retryable/terminal is not this
// layer's job.
func (t *HTTPTransport) Publish(ctx context.Context, env *event.Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", string(env.EventType))
	req.Header.Set("X-Event-Id", env.EventID)
	req.Header.Set("X-Event-Source", env.SourceService)
	req.Header.Set("X-Event-Time", env.EventTimestamp.Format(time.RFC3339Nano))
	if env.CorrelationID != "" {
		req.Header.Set("X-Correlation-Id", env.CorrelationID)
	}

	if t.config.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+t.config.AuthToken)
	}
	if t.config.SigningKey != "" {
		req.Header.Set("X-Signature-256", generateSignature(body, t.config.SigningKey))
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	return &StatusError{StatusCode: resp.StatusCode}
}

// HealthCheck probes the endpoint with a HEAD request. Reachability is
// network-level: any HTTP response counts, since a receiver answering 405 to
// HEAD is still up.
func (t *HTTPTransport) HealthCheck(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, t.config.Endpoint, nil)
	if err != nil {
		return false
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

// Kind returns "http".
func (t *HTTPTransport) Kind() string { return "http" }

// Close releases idle connections.
func (t *HTTPTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

// generateSignature generates an HMAC-SHA256 signature over the body.
func generateSignature(payload []byte, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// StatusError represents a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// Verify HTTPTransport implements Transport
var _ Transport = (*HTTPTransport)(nil)
