package sim

import "time"

// Clock is the host's frame clock.
type Clock interface {
	// Delta returns seconds elapsed since the previous call.
	Delta() float32
	// Rebase discards time accumulated while no frames were requested.
	Rebase()
}

// FixedClock advances by the same step every frame (headless runs and tests).
type FixedClock struct {
	DT float32
}

// Delta returns the fixed step.
func (c FixedClock) Delta() float32 { return c.DT }

// Rebase is a no-op.
func (FixedClock) Rebase() {}

// ClockFunc adapts a frame-time function, e.g. raylib's GetFrameTime.
type ClockFunc func() float32

// Delta calls f.
func (f ClockFunc) Delta() float32 { return f() }

// Rebase is a no-op; frame-time functions already measure one frame.
func (ClockFunc) Rebase() {}

// WallClock measures real time between frames.
// The first Delta after creation or Rebase returns 0.
type WallClock struct {
	now  func() time.Time
	last time.Time
}

// NewWallClock creates a wall clock.
func NewWallClock() *WallClock {
	return &WallClock{now: time.Now}
}

// Delta returns seconds since the previous call.
func (c *WallClock) Delta() float32 {
	now := c.now()
	if c.last.IsZero() {
		c.last = now
		return 0
	}
	dt := now.Sub(c.last)
	c.last = now
	return float32(dt.Seconds())
}

// Rebase restarts measurement from now.
func (c *WallClock) Rebase() {
	c.last = time.Time{}
}
