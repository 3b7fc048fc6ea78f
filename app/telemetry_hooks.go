package app

import "github.com/pthm-cable/gust/sim"

// hookTelemetry subscribes the stats collector to the loop's events.
// Step events are emitted on the stepping goroutine, after the new buffer
// became current, so the flush reads a consistent buffer.
func (a *App) hookTelemetry() {
	bus := a.loop.Events()
	bus.On(sim.EventStepped, func(e sim.Event) { a.recordStep(e, false) })
	bus.On(sim.EventSkipped, func(e sim.Event) { a.recordStep(e, true) })
	bus.On(sim.EventFieldBound, func(e sim.Event) {
		a.logger.Debug("field bound", "version", e.FieldVersion)
	})
	bus.On(sim.EventStopped, func(e sim.Event) {
		if e.Err != nil {
			a.logger.Error("run ended with error", "generation", e.Generation, "error", e.Err)
		}
	})
}

func (a *App) recordStep(e sim.Event, skipped bool) {
	a.collector.RecordStep(e.DeltaTime, e.Stats, skipped)
	a.pendingFieldTime += float64(e.DeltaTime)
	if a.collector.ShouldFlush() {
		a.flushTelemetry()
	}
}

// flushTelemetry closes the current stats window and writes it out.
func (a *App) flushTelemetry() {
	buf := a.loop.Current()
	if buf == nil {
		return
	}

	stats := a.collector.Flush(buf, a.loop.FieldVersion())
	perfStats := a.perf.Stats()
	a.lastStats = stats
	a.hasStats = true

	if a.opts.LogStats {
		a.logger.Info("stats", "window", stats)
		a.logger.Info("perf", "perf", perfStats)
	}

	if a.output != nil {
		if err := a.output.WriteStats(stats); err != nil {
			a.logger.Error("failed to write stats", "error", err)
		}
		if err := a.output.WritePerf(perfStats, stats.WindowEndStep); err != nil {
			a.logger.Error("failed to write perf", "error", err)
		}
	}

	if stats.NonFinite > 0 {
		a.logger.Warn("non-finite particle state", "count", stats.NonFinite, "generation", a.loop.Generation())
	}
}
