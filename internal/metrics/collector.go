// Package metrics provides the in-memory counter map behind the publisher's
// health and status queries. Exported telemetry lives in
// internal/observability; this collector exists so status queries can return
// exact per-event-type counts without scraping.
package metrics

import "sync"

// Collector is a map of monotonically increasing counters keyed by
// event-type-qualified strings. Safe for concurrent use.
type Collector struct {
	mu       sync.RWMutex
	counters map[string]int64
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		counters: make(map[string]int64),
	}
}

// Record adds delta to the counter for key, creating it at zero if absent.
func (c *Collector) Record(key string, delta int64) {
	c.mu.Lock()
	c.counters[key] += delta
	c.mu.Unlock()
}

// Snapshot returns a copy of all counters. The copy does not track later
// increments.
func (c *Collector) Snapshot() map[string]int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := make(map[string]int64, len(c.counters))
	for k, v := range c.counters {
		snap[k] = v
	}
	return snap
}

// Reset clears all counters. It is a point-in-time clear: Record calls that
// land after the swap go into the fresh map and are never lost, only
// pre-reset history is discarded.
func (c *Collector) Reset() {
	c.mu.Lock()
	c.counters = make(map[string]int64)
	c.mu.Unlock()
}

// Len returns the number of distinct counters.
func (c *Collector) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.counters)
}
