// Package backoff provides inter-retry delay calculation.
package backoff

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// Policy selects how the delay grows with the attempt number.
type Policy string

const (
	// Linear grows the delay by a fixed increment per attempt.
	Linear Policy = "linear"
	// Exponential doubles the delay on every attempt.
	Exponential Policy = "exponential"
)

// Config for backoff calculation. Zero values use defaults.
type Config struct {
	Base      time.Duration // first exponential delay (default: 100ms)
	Increment time.Duration // linear step per attempt (default: 500ms)
	Max       time.Duration // cap applied before jitter (default: 5s)
	MaxJitter time.Duration // upper bound of the added random jitter (default: 50ms)
}

func (c *Config) withDefaults() Config {
	cfg := Config{
		Base:      100 * time.Millisecond,
		Increment: 500 * time.Millisecond,
		Max:       5 * time.Second,
		MaxJitter: 50 * time.Millisecond,
	}
	if c == nil {
		return cfg
	}
	if c.Base > 0 {
		cfg.Base = c.Base
	}
	if c.Increment > 0 {
		cfg.Increment = c.Increment
	}
	if c.Max > 0 {
		cfg.Max = c.Max
	}
	if c.MaxJitter > 0 {
		cfg.MaxJitter = c.MaxJitter
	}
	return cfg
}

// Delay calculates the delay before the next retry.
// Attempt 1 is the first failed attempt. Linear returns attempt*increment,
// exponential returns base*2^(attempt-1); both are capped at Max, then a
// small random jitter is added so concurrent retriers do not synchronize.
// Unknown policies fall back to linear.
func Delay(policy Policy, attempt int, cfg *Config) time.Duration {
	c := cfg.withDefaults()

	if attempt < 1 {
		attempt = 1
	}

	var delay float64
	switch policy {
	case Exponential:
		delay = float64(c.Base) * math.Pow(2.0, float64(attempt-1))
	default:
		delay = float64(attempt) * float64(c.Increment)
	}

	if delay > float64(c.Max) {
		delay = float64(c.Max)
	}

	return time.Duration(delay) + jitter(c.MaxJitter)
}

// jitter returns a random duration in [0, limit).
func jitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	return rand.N(limit)
}

// Sleep waits for the given duration but returns early if the context is
// cancelled. Returns nil if the full duration elapsed.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
