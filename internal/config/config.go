// Package config provides configuration loading from environment variables.
package config

import (
	"time"
)

// ServiceConfig holds configuration for the notifier service.
type ServiceConfig struct {
	Port              string
	MetricsPort       string
	APIKey            string
	ShutdownDrainWait time.Duration // Time to wait for load balancer to drain (0 to skip)
}

// LoadServiceConfig loads service configuration from environment variables.
func LoadServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		Port:              GetEnv("PORT", "8080"),
		MetricsPort:       GetEnv("METRICS_PORT", "9090"),
		APIKey:            GetSecretEnv("API_KEY", "API_KEY_FILE"),
		ShutdownDrainWait: GetDurationEnv("SHUTDOWN_DRAIN_WAIT", 5*time.Second),
	}
}

// PublisherConfig holds configuration for the event publisher and its transport.
type PublisherConfig struct {
	Endpoint         string        // downstream receiver URL; empty selects the no-op transport
	AuthToken        string        // optional bearer token for the receiver
	SigningKey       string        // optional HMAC key for body signing
	HTTPTimeout      time.Duration // per-attempt timeout
	MaxRetries       int           // 0 = per-event-type defaults
	BreakerThreshold int
	BreakerCooldown  time.Duration
	SummaryInterval  time.Duration
	ResetInterval    time.Duration
}

// LoadPublisherConfig loads publisher configuration from environment variables.
func LoadPublisherConfig() *PublisherConfig {
	return &PublisherConfig{
		Endpoint:         GetEnv("EVENT_ENDPOINT", ""),
		AuthToken:        GetSecretEnv("EVENT_AUTH_TOKEN", "EVENT_AUTH_TOKEN_FILE"),
		SigningKey:       GetSecretEnv("EVENT_SIGNING_KEY", "EVENT_SIGNING_KEY_FILE"),
		HTTPTimeout:      GetDurationEnv("EVENT_HTTP_TIMEOUT", 10*time.Second),
		MaxRetries:       GetIntEnv("EVENT_MAX_RETRIES", 0),
		BreakerThreshold: GetIntEnv("BREAKER_THRESHOLD", 5),
		BreakerCooldown:  GetDurationEnv("BREAKER_COOLDOWN", 30*time.Second),
		SummaryInterval:  GetDurationEnv("METRICS_SUMMARY_INTERVAL", time.Hour),
		ResetInterval:    GetDurationEnv("METRICS_RESET_INTERVAL", 6*time.Hour),
	}
}
