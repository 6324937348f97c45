package testhelpers

import "time"

// FixedClock returns a constant time, making window and grace boundaries
// deterministic in tests
type FixedClock struct {
	Time time.Time
}

// NewFixedClock creates a clock pinned to t
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{Time: t}
}

// Now returns the pinned time
func (c *FixedClock) Now() time.Time {
	return c.Time
}

// Advance moves the pinned time forward by d
func (c *FixedClock) Advance(d time.Duration) {
	c.Time = c.Time.Add(d)
}
