package telemetry

import "github.com/pthm-cable/gust/systems"

// Collector accumulates per-step counters and produces WindowStats every
// windowSteps steps.
type Collector struct {
	windowSteps int

	// Current window tracking
	windowStart uint64
	totalSteps  uint64
	simTime     float64

	// Counters for current window
	steps   int
	skipped int
	wrapped int

	speeds []float64 // scratch reused across flushes
}

// NewCollector creates a new stats collector.
func NewCollector(windowSteps int) *Collector {
	if windowSteps < 1 {
		windowSteps = 1
	}
	return &Collector{windowSteps: windowSteps}
}

// RecordStep records one completed step.
func (c *Collector) RecordStep(dt float32, stats systems.AdvectStats, skipped bool) {
	c.steps++
	c.totalSteps++
	c.wrapped += stats.Wrapped
	if skipped {
		c.skipped++
	} else {
		c.simTime += float64(dt)
	}
}

// ShouldFlush reports whether the current window is complete.
func (c *Collector) ShouldFlush() bool {
	return c.steps >= c.windowSteps
}

// Steps returns the number of steps recorded so far.
func (c *Collector) Steps() uint64 {
	return c.totalSteps
}

// Flush computes stats for the current window from the current buffer and
// starts a new window.
func (c *Collector) Flush(buf *systems.StateBuffer, fieldVersion uint64) WindowStats {
	var nonFinite int
	c.speeds, nonFinite = SpeedSamples(buf, c.speeds)
	speed := ComputeSpeedStats(c.speeds)

	particles := len(buf.Texels)
	var wrapRate float64
	if particleSteps := particles * c.steps; particleSteps > 0 {
		wrapRate = float64(c.wrapped) / float64(particleSteps)
	}

	stats := WindowStats{
		WindowStartStep: c.windowStart,
		WindowEndStep:   c.totalSteps,
		SimTimeSec:      c.simTime,
		Particles:       particles,
		Steps:           c.steps,
		SkippedSteps:    c.skipped,
		Wrapped:         c.wrapped,
		WrapRate:        wrapRate,
		SpeedMean:       speed.Mean,
		SpeedStd:        speed.Std,
		SpeedP10:        speed.P10,
		SpeedP50:        speed.P50,
		SpeedP90:        speed.P90,
		SpeedMax:        speed.Max,
		NonFinite:       nonFinite,
		FieldVersion:    fieldVersion,
	}

	c.windowStart = c.totalSteps
	c.steps = 0
	c.skipped = 0
	c.wrapped = 0

	return stats
}
