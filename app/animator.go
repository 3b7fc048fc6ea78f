package app

import (
	"context"
	"time"

	"github.com/pthm-cable/gust/field"
)

// Field animation cadence. Only noise fields with a non-zero time speed move.
const (
	inlineAnimateSteps = 15                     // headless: rebind every N steps
	animatorInterval   = 250 * time.Millisecond // hosts with a background animator
)

// fieldAnimator regenerates the noise field as animation time advances.
// It is owned by a single goroutine.
type fieldAnimator struct {
	spec  field.Spec
	speed float64
	t     float64
}

func newFieldAnimator(spec field.Spec, speed float64) *fieldAnimator {
	return &fieldAnimator{spec: spec, speed: speed}
}

// Animated reports whether the field changes over time.
func (f *fieldAnimator) Animated() bool {
	return f.spec.Kind == field.KindNoise && f.speed != 0
}

// Advance moves animation time by dt seconds and builds the field for it.
func (f *fieldAnimator) Advance(dt float64) (*field.Grid, error) {
	f.t += dt * f.speed
	return field.Generate(f.spec, f.t)
}

// StartAnimator regenerates and rebinds the field from a background goroutine
// until Close. Binding is safe while the loop steps; each step samples one
// complete field. It does nothing for static fields.
func (a *App) StartAnimator(ctx context.Context) {
	if !a.animator.Animated() || a.animating {
		return
	}
	a.animating = true
	ctx, a.cancel = context.WithCancel(ctx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ticker := time.NewTicker(animatorInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				g, err := a.animator.Advance(animatorInterval.Seconds())
				if err != nil {
					a.logger.Error("field generation failed", "error", err)
					return
				}
				// A rejected field is logged by the loop and the old one stays bound
				_ = a.loop.Bind(g)
			}
		}
	}()
}

// animateInline rebinds the field from the stepping goroutine. Used by
// headless runs so output does not depend on wall-clock timing.
func (a *App) animateInline() {
	if a.animating || !a.animator.Animated() {
		return
	}
	if a.collector.Steps()%inlineAnimateSteps != 0 {
		return
	}
	g, err := a.animator.Advance(a.pendingFieldTime)
	a.pendingFieldTime = 0
	if err != nil {
		a.logger.Error("field generation failed", "error", err)
		return
	}
	_ = a.loop.Bind(g)
}
