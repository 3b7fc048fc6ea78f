// Package sim drives the particle simulation once per displayed frame.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/gust/field"
	"github.com/pthm-cable/gust/renderer"
	"github.com/pthm-cable/gust/systems"
	"github.com/pthm-cable/gust/telemetry"
)

// State is the loop's lifecycle state.
type State uint8

const (
	StateIdle     State = iota // between frames
	StateStepping              // inside a step
	StateStopped               // terminal
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStepping:
		return "stepping"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

var (
	// ErrStopped is returned by every operation after the loop stopped.
	ErrStopped = errors.New("simulation stopped")
	// ErrNoClock is returned when the host provides no frame clock.
	ErrNoClock = errors.New("host has no frame clock")
)

// Host bundles what the embedding application provides. It is passed
// explicitly at construction; the loop never looks anything up globally.
type Host struct {
	Clock     Clock
	Target    renderer.Target   // nil simulates without drawing
	Allocator systems.Allocator // nil allocates on the heap
}

// Params are the per-frame inputs the host may change between frames.
type Params struct {
	Speed  float32
	Render renderer.RenderParams
}

// Validate checks params before they are applied.
func (p Params) Validate() error {
	return p.Render.Validate()
}

// Options configure a loop at construction.
type Options struct {
	Resolution systems.Resolution

	// Seeds positions the particles; nil generates them with Seeding and Seed.
	Seeds   []mgl32.Vec2
	Seeding string
	Seed    int64

	// Field is bound before the first frame; nil starts in calm air.
	Field *field.Grid

	Params  Params
	Ramp    renderer.ColorRamp // zero value uses the default blue-red ramp
	Workers int                // <= 0 uses GOMAXPROCS

	Perf   *telemetry.PerfCollector // optional
	Logger *slog.Logger             // nil uses slog.Default()
}

// Loop owns the particle state, the field binding and both passes.
// Frame, Step, SetParams, Pause, Resume, Stop and Reinitialize are called from
// the host's frame goroutine; Bind may be called from any goroutine.
type Loop struct {
	host    Host
	store   *systems.StateStore
	binding *field.Binding
	pool    *systems.Pool
	advect  *systems.AdvectionPass
	render  *renderer.RenderPass
	bus     *Bus
	perf    *telemetry.PerfCollector
	logger  *slog.Logger
	rng     *rand.Rand
	seeding string

	params    Params
	vertices  []renderer.Vertex
	state     State
	paused    bool
	lastStats systems.AdvectStats
}

// New builds a loop and initializes its particle buffers.
// Initialization failures are returned as *systems.InitializationError and
// field problems as *field.BindingError; no loop is returned in either case.
func New(host Host, opts Options) (*Loop, error) {
	if host.Clock == nil {
		return nil, ErrNoClock
	}
	if err := opts.Params.Validate(); err != nil {
		return nil, err
	}

	binding, err := field.NewBinding(opts.Field)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ramp := opts.Ramp
	if ramp == (renderer.ColorRamp{}) {
		ramp = renderer.DefaultColorRamp()
	}

	pool := systems.NewPool(opts.Workers)
	l := &Loop{
		host:    host,
		store:   systems.NewStateStore(host.Allocator),
		binding: binding,
		pool:    pool,
		advect:  systems.NewAdvectionPass(pool),
		render:  renderer.NewRenderPass(pool, ramp),
		bus:     NewBus(),
		perf:    opts.Perf,
		logger:  logger,
		rng:     rand.New(rand.NewSource(opts.Seed)),
		seeding: opts.Seeding,
		params:  opts.Params,
	}

	seeds := opts.Seeds
	if seeds == nil {
		seeds, err = systems.Seeds(l.seeding, opts.Resolution, l.rng)
		if err != nil {
			return nil, err
		}
	}
	if err := l.store.Initialize(opts.Resolution, seeds); err != nil {
		return nil, err
	}

	logger.Info("simulation initialized",
		"resolution", opts.Resolution.String(),
		"particles", opts.Resolution.Count(),
		"workers", pool.Slots(),
		"field_bound", opts.Field != nil,
	)
	return l, nil
}

// Frame runs one display frame with the host clock's delta.
// A paused loop does nothing and its state stays frozen.
func (l *Loop) Frame(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.state == StateStopped {
		return ErrStopped
	}
	if l.paused {
		return nil
	}
	return l.step(l.host.Clock.Delta())
}

// Step runs one frame with an explicit delta, bypassing the clock.
func (l *Loop) Step(dt float32) error {
	if l.state == StateStopped {
		return ErrStopped
	}
	if l.paused {
		return nil
	}
	return l.step(dt)
}

// step advects into the write target, commits it, then draws it.
func (l *Loop) step(dt float32) error {
	l.state = StateStepping
	defer func() {
		if l.state == StateStepping {
			l.state = StateIdle
		}
	}()

	// Zero, negative and NaN deltas advect by zero
	skipped := !(dt > 0)
	if skipped {
		dt = 0
	}

	if l.perf != nil {
		l.perf.StartStep()
		l.perf.StartPhase(telemetry.PhaseAdvect)
	}

	// Load the field once so a concurrent Bind cannot split the dispatch
	var s field.Sampler = field.Calm
	if g := l.binding.Current(); g != nil {
		s = g
	}

	next := l.store.Next()
	stats, err := l.advect.Run(s, l.store.Current(), next, systems.AdvectParams{
		DeltaTime: dt,
		Speed:     l.params.Speed,
	})
	if err != nil {
		return l.fail(fmt.Errorf("advect: %w", err))
	}

	if l.perf != nil {
		l.perf.StartPhase(telemetry.PhaseSwap)
	}
	if err := l.store.AdvanceTo(next); err != nil {
		return l.fail(fmt.Errorf("advance: %w", err))
	}
	l.lastStats = stats

	if err := l.draw(l.perf); err != nil {
		return l.fail(fmt.Errorf("render: %w", err))
	}

	if l.perf != nil {
		l.perf.EndStep()
	}

	typ := EventStepped
	if skipped {
		typ = EventSkipped
	}
	l.bus.Emit(Event{
		Type:       typ,
		Generation: l.store.Generation(),
		DeltaTime:  dt,
		Stats:      stats,
	})
	return nil
}

// draw renders the now-current buffer into the host target.
// perf may be nil.
func (l *Loop) draw(perf *telemetry.PerfCollector) error {
	target := l.host.Target
	if target == nil {
		return nil
	}

	if perf != nil {
		perf.StartPhase(telemetry.PhaseRender)
	}
	verts, err := l.render.Emit(l.store.Current(), l.params.Render, l.vertices)
	if err != nil {
		return err
	}
	l.vertices = verts

	if perf != nil {
		perf.StartPhase(telemetry.PhasePresent)
	}
	target.Begin()
	target.Draw(verts)
	target.End()
	return nil
}

// Redraw renders the current buffer again without advancing it. Hosts that
// clear their target every display frame call it while paused.
func (l *Loop) Redraw() error {
	if l.state == StateStopped {
		return ErrStopped
	}
	if err := l.draw(nil); err != nil {
		return l.fail(fmt.Errorf("render: %w", err))
	}
	return nil
}

// fail stops the loop because of err and returns err.
func (l *Loop) fail(err error) error {
	l.stop(err)
	return err
}

// SetParams replaces the per-frame parameters. Invalid params are rejected
// and the previous ones stay in effect.
func (l *Loop) SetParams(p Params) error {
	if l.state == StateStopped {
		return ErrStopped
	}
	if err := p.Validate(); err != nil {
		return err
	}
	l.params = p
	return nil
}

// Params returns the parameters in effect.
func (l *Loop) Params() Params {
	return l.params
}

// Bind validates g and makes it the field sampled from the next step on.
// An incompatible field returns *field.BindingError and the old field stays bound.
func (l *Loop) Bind(g *field.Grid) error {
	if err := l.binding.Bind(g); err != nil {
		l.logger.Warn("field rejected", "err", err)
		return err
	}
	version := l.binding.Version()
	l.bus.Emit(Event{Type: EventFieldBound, FieldVersion: version})
	return nil
}

// Pause stops stepping until Resume. State is frozen, not reset.
func (l *Loop) Pause() {
	l.paused = true
}

// Resume continues stepping. The clock is rebased so the first frame does
// not integrate the time spent paused.
func (l *Loop) Resume() {
	if !l.paused {
		return
	}
	l.paused = false
	l.host.Clock.Rebase()
}

// Paused reports whether the loop is paused.
func (l *Loop) Paused() bool {
	return l.paused
}

// Stop ends the simulation. It is idempotent.
func (l *Loop) Stop() {
	l.stop(nil)
}

func (l *Loop) stop(err error) {
	if l.state == StateStopped {
		return
	}
	l.state = StateStopped
	l.pool.Stop()
	gen := l.store.Generation()
	l.store.Reset()

	if err != nil {
		l.logger.Error("simulation stopped", "generation", gen, "err", err)
	} else {
		l.logger.Info("simulation stopped", "generation", gen)
	}
	l.bus.Emit(Event{Type: EventStopped, Generation: gen, Err: err})
}

// Reinitialize recreates both buffers at res with freshly generated seeds.
func (l *Loop) Reinitialize(res systems.Resolution) error {
	if l.state == StateStopped {
		return ErrStopped
	}
	seeds, err := systems.Seeds(l.seeding, res, l.rng)
	if err != nil {
		return err
	}
	return l.ReinitializeWithSeeds(res, seeds)
}

// ReinitializeWithSeeds recreates both buffers at res from seeds.
// Validation errors leave the current buffers untouched. An allocation
// failure is fatal: the loop stops and publishes EventStopped.
func (l *Loop) ReinitializeWithSeeds(res systems.Resolution, seeds []mgl32.Vec2) error {
	if l.state == StateStopped {
		return ErrStopped
	}
	if err := l.store.Initialize(res, seeds); err != nil {
		if errors.Is(err, systems.ErrAllocation) {
			return l.fail(err)
		}
		return err
	}
	l.vertices = l.vertices[:0]
	l.logger.Info("simulation reinitialized", "resolution", res.String(), "particles", res.Count())
	return nil
}

// State returns the lifecycle state.
func (l *Loop) State() State {
	return l.state
}

// Events returns the loop's event bus.
func (l *Loop) Events() *Bus {
	return l.bus
}

// Current returns the buffer the last frame rendered, or nil after Stop.
// Callers must not modify it.
func (l *Loop) Current() *systems.StateBuffer {
	if !l.store.Initialized() {
		return nil
	}
	return l.store.Current()
}

// Generation returns the number of committed steps.
func (l *Loop) Generation() uint64 {
	return l.store.Generation()
}

// Resolution returns the particle grid size.
func (l *Loop) Resolution() systems.Resolution {
	return l.store.Resolution()
}

// Field returns the bound field, or nil.
func (l *Loop) Field() *field.Grid {
	return l.binding.Current()
}

// FieldVersion returns the number of successful binds.
func (l *Loop) FieldVersion() uint64 {
	return l.binding.Version()
}

// LastStats returns the advection stats of the most recent step.
func (l *Loop) LastStats() systems.AdvectStats {
	return l.lastStats
}
