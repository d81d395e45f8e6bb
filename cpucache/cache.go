// Package cpucache tracks cumulative CPU seconds per PID across refreshes
// so the scan engine can derive an instantaneous CPU percent.
package cpucache

import (
	"sync"
	"time"
)

type entry struct {
	cpuSeconds float64
	at         time.Time
}

// Cache is a PID -> (cumulative CPU seconds, timestamp) map guarded by a
// reader-writer lock whose write critical sections are O(1) per PID.
type Cache struct {
	mu      sync.RWMutex
	entries map[int]entry
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[int]entry)}
}

// Update records the current cumulative CPU seconds for pid at time now
// and returns the instantaneous CPU percent derived from the delta
// against the previous entry, if any.
//
// A negative delta (PID reuse: the new cumulative value is lower than
// the last one seen) clamps the resulting percent to zero; the entry is
// replaced either way.
func (c *Cache) Update(pid int, cpuSeconds float64, now time.Time) float64 {
	c.mu.Lock()
	prev, ok := c.entries[pid]
	c.entries[pid] = entry{cpuSeconds: cpuSeconds, at: now}
	c.mu.Unlock()

	if !ok || !now.After(prev.at) {
		return 0
	}
	dt := now.Sub(prev.at).Seconds()
	if dt <= 0 {
		return 0
	}
	delta := cpuSeconds - prev.cpuSeconds
	if delta < 0 {
		return 0
	}
	pct := (delta / dt) * 100
	if pct < 0 {
		return 0
	}
	return pct
}

// GC retains only the cache entries whose PID is present in live, letting
// the cache shed PIDs for processes that have exited. Optional: the spec
// permits callers to skip GC entirely and let the cache grow to the
// high-water PID count.
func (c *Cache) GC(live map[int]struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for pid := range c.entries {
		if _, ok := live[pid]; !ok {
			delete(c.entries, pid)
		}
	}
}

// Len returns the number of tracked PIDs.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
