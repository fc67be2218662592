package testutil

import (
	"sync"
	"time"
)

// FixedClock is a thread-safe manual clock for deterministic tests.
//
// Unlike time.Now, the clock only moves when Advance is called, so timestamps
// in histories and golden snapshots are reproducible run to run.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a clock frozen at the given instant.
func NewFixedClock(at time.Time) *FixedClock {
	return &FixedClock{now: at}
}

// Now returns the current instant. Pass this method as a time source:
//
//	engine.WithNow(clock.Now)
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
