package testutil

import (
	"fmt"
	"sync"
)

// ManualClock is a thread-safe millisecond clock for tests and replay.
//
// Time only moves when the test advances it, so watermark-driven behavior
// (bar finalization, lateness windows) is fully scripted.
type ManualClock struct {
	mu  sync.Mutex
	now int64
}

// NewManualClock creates a clock pinned at startMS.
func NewManualClock(startMS int64) *ManualClock {
	return &ManualClock{now: startMS}
}

// NowMS returns the current time in epoch milliseconds.
func (c *ManualClock) NowMS() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by deltaMS and returns the new time.
// Negative deltas panic: scripted time never rewinds.
func (c *ManualClock) Advance(deltaMS int64) int64 {
	if deltaMS < 0 {
		panic("testutil: clock cannot move backwards")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += deltaMS
	return c.now
}

// Set jumps the clock to nowMS. Panics if nowMS is before the current time.
func (c *ManualClock) Set(nowMS int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if nowMS < c.now {
		panic("testutil: clock cannot move backwards")
	}
	c.now = nowMS
}

// SeqIDs returns an ID source producing "<prefix>-0001", "<prefix>-0002", ...
// Used in place of random UUIDs when a test needs reproducible audit IDs.
func SeqIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%04d", prefix, n)
	}
}
