// Package circuitbreaker implements the circuit breaker pattern.
//
// A circuit breaker stops calling a known-failing dependency for a cooldown
// period so that critical callers fail fast instead of piling up against a
// receiver that is down.
//
// States:
//   - Closed: Normal operation, calls allowed
//   - Open: Too many consecutive failures, calls rejected
//   - HalfOpen: Cooldown elapsed, exactly one probe call allowed
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by Do when the breaker rejects a call.
var ErrOpen = errors.New("circuit breaker is open")

// State represents the state of a circuit breaker.
type State int

const (
	Closed   State = iota // Normal operation, calls allowed
	Open                  // Failing, calls rejected
	HalfOpen              // Testing if recovered
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker implements the circuit breaker pattern for a single dependency.
type Breaker struct {
	mu          sync.Mutex
	state       State
	failures    int           // consecutive failures
	threshold   int           // failures before opening
	lastFailure time.Time     // when the last failure occurred
	cooldown    time.Duration // how long to wait before half-open
	probing     bool          // a half-open probe is in flight
}

// Config holds configuration for a circuit breaker.
type Config struct {
	Threshold int           // Failures before circuit opens (default: 5)
	Cooldown  time.Duration // Time before half-open (default: 30s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Threshold: 5,
		Cooldown:  30 * time.Second,
	}
}

// New creates a new circuit breaker.
func New(cfg Config) *Breaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	return &Breaker{
		state:     Closed,
		threshold: cfg.Threshold,
		cooldown:  cfg.Cooldown,
	}
}

// Do runs the operation through the breaker. When the breaker rejects the
// call, ErrOpen is returned and the operation is not invoked. Otherwise the
// operation's outcome is recorded and its error returned unchanged.
func (b *Breaker) Do(op func() error) error {
	if !b.Allow() {
		return ErrOpen
	}

	if err := op(); err != nil {
		b.RecordFailure()
		return err
	}

	b.RecordSuccess()
	return nil
}

// Allow returns true if a call should be attempted.
// In half-open state only a single probe is let through; concurrent callers
// are rejected until the probe's outcome is recorded.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return true

	case Open:
		// Check if cooldown has elapsed
		if time.Since(b.lastFailure) > b.cooldown {
			b.state = HalfOpen
			b.probing = true
			return true
		}
		return false

	case HalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true

	default:
		return true
	}
}

// RecordSuccess records a successful call and closes the circuit.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.state = Closed
	b.probing = false
}

// RecordFailure records a failed call.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = time.Now()
	b.probing = false

	if b.state == HalfOpen {
		// Probe failed, go back to open
		b.state = Open
		return
	}

	if b.failures >= b.threshold {
		b.state = Open
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures returns the current consecutive failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Reset resets the breaker to closed state.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Closed
	b.failures = 0
	b.probing = false
}
