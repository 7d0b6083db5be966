package clock

import (
	"sync"
	"time"

	"go.uber.org/fx"
)

// Clock supplies the logical current time. Every time read in the billing
// engine goes through an injected Clock so that policy windows (trial end,
// refund grace period) are deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock. This is the only Clock production wiring
// ever provides.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// TestClock is a Clock with an explicit set/advance surface for tests. It is
// safe for concurrent use.
type TestClock struct {
	mu  sync.RWMutex
	now time.Time
}

func NewTestClock(now time.Time) *TestClock {
	return &TestClock{now: now.UTC()}
}

func (c *TestClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Set moves the clock to an absolute instant.
func (c *TestClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now.UTC()
}

// Advance moves the clock forward by d. Negative durations move it backwards.
func (c *TestClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var Module = fx.Module("clock",
	fx.Provide(func() Clock {
		return SystemClock{}
	}),
)
