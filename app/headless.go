package app

import (
	"context"
	"errors"
)

// Run steps the loop until maxSteps frames have run (0 = unlimited) or ctx
// is canceled. Cancellation ends the run cleanly; loop failures are returned.
// A final snapshot is written when a destination is configured.
func (a *App) Run(ctx context.Context, maxSteps int) error {
	a.logger.Info("starting run", "max_steps", maxSteps)

	for maxSteps <= 0 || a.collector.Steps() < uint64(maxSteps) {
		if err := a.loop.Frame(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				a.logger.Info("run interrupted", "steps", a.collector.Steps())
				break
			}
			return err
		}
		a.animateInline()
	}

	a.logger.Info("run finished",
		"steps", a.collector.Steps(),
		"generation", a.loop.Generation(),
		"field_version", a.loop.FieldVersion(),
	)

	if a.output != nil || a.opts.SnapshotDir != "" {
		path, err := a.SaveSnapshot()
		if err != nil {
			return err
		}
		a.logger.Info("snapshot saved", "path", path)
	}
	return nil
}
