package testutil

import (
	"sync"
	"time"
)

// TickingClock provides a deterministic wall clock for tests.
//
// Each call to Now returns the current time and advances it by a fixed
// step, so timestamps in committed documents are stable across runs and
// strictly increasing within one test.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type TickingClock struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

// NewTickingClock creates a clock starting at base, advancing by step
// per call.
func NewTickingClock(base time.Time, step time.Duration) *TickingClock {
	return &TickingClock{next: base, step: step}
}

// Now returns the next timestamp and advances the clock.
func (c *TickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.next
	c.next = c.next.Add(c.step)
	return t
}

// Current returns the next timestamp without advancing.
func (c *TickingClock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}

// BaseTime is the conventional start time for deterministic tests.
var BaseTime = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
