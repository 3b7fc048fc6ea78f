package sim

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/gust/field"
	"github.com/pthm-cable/gust/renderer"
	"github.com/pthm-cable/gust/systems"
	"github.com/pthm-cable/gust/telemetry"
)

var defaultParams = Params{
	Speed:  1.0,
	Render: renderer.RenderParams{TailLength: 3, TailFade: 0.9, ParticleSize: 2},
}

// recordingTarget counts frames and keeps the last frame's vertices.
type recordingTarget struct {
	begins, ends int
	last         []renderer.Vertex
}

func (r *recordingTarget) Begin() { r.begins++ }
func (r *recordingTarget) Draw(v []renderer.Vertex) {
	r.last = append(r.last[:0], v...)
}
func (r *recordingTarget) End() { r.ends++ }

// countingClock returns a fixed delta and counts rebases.
type countingClock struct {
	dt      float32
	rebases int
}

func (c *countingClock) Delta() float32 { return c.dt }
func (c *countingClock) Rebase()        { c.rebases++ }

func scenarioLoop(t *testing.T, target renderer.Target) *Loop {
	t.Helper()
	wind := field.Uniform(4, 4, mgl32.Vec2{0.5, 0}, field.FilterNearest)
	l, err := New(Host{Clock: FixedClock{DT: 0.5}, Target: target}, Options{
		Resolution: systems.Resolution{Width: 2, Height: 1},
		Seeds:      []mgl32.Vec2{{0.9, 0.5}, {0.1, 0.5}},
		Field:      wind,
		Params:     defaultParams,
		Workers:    1,
	})
	require.NoError(t, err)
	return l
}

func TestScenarioTwoParticles(t *testing.T) {
	l := scenarioLoop(t, nil)

	var got Event
	l.Events().On(EventStepped, func(e Event) { got = e })

	require.NoError(t, l.Frame(context.Background()))

	cur := l.Current().Texels
	assert.Equal(t, float32(0.0), cur[0].Pos[0], "particle 0 wraps to exactly 0")
	assert.InDelta(t, 0.35, cur[1].Pos[0], 1e-6)
	assert.Equal(t, float32(0.5), cur[0].Pos[1])
	assert.Equal(t, mgl32.Vec2{0.5, 0}, cur[0].Vel, "velocity unchanged by wrap")

	assert.Equal(t, EventStepped, got.Type)
	assert.Equal(t, 1, got.Stats.Wrapped)
	assert.Equal(t, uint64(1), got.Generation)
	assert.Equal(t, StateIdle, l.State())
}

func TestNonPositiveDeltaSkips(t *testing.T) {
	for _, dt := range []float32{0, -0.1, float32(math.NaN())} {
		l := scenarioLoop(t, nil)

		skipped := 0
		l.Events().On(EventSkipped, func(e Event) {
			skipped++
			assert.Equal(t, float32(0), e.DeltaTime)
		})

		require.NoError(t, l.Step(dt), "dt=%v is not an error", dt)

		assert.Equal(t, 1, skipped)
		assert.Equal(t, mgl32.Vec2{0.9, 0.5}, l.Current().Texels[0].Pos, "dt=%v must not move particles", dt)
		assert.Equal(t, mgl32.Vec2{0.5, 0}, l.Current().Texels[0].Vel, "velocity is still sampled")
		assert.Equal(t, uint64(1), l.Generation())
	}
}

func TestPauseFreezesState(t *testing.T) {
	clock := &countingClock{dt: 0.1}
	l, err := New(Host{Clock: clock}, Options{
		Resolution: systems.Resolution{Width: 8, Height: 8},
		Seeding:    systems.SeedingGrid,
		Field:      field.Uniform(2, 2, mgl32.Vec2{0.1, 0.1}, field.FilterNearest),
		Params:     defaultParams,
	})
	require.NoError(t, err)

	require.NoError(t, l.Frame(context.Background()))
	before := append([]systems.Texel(nil), l.Current().Texels...)

	l.Pause()
	assert.True(t, l.Paused())
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Frame(context.Background()))
		require.NoError(t, l.Step(0.5))
	}
	assert.Equal(t, uint64(1), l.Generation())
	assert.Equal(t, before, l.Current().Texels)

	l.Resume()
	assert.Equal(t, 1, clock.rebases)
	l.Resume()
	assert.Equal(t, 1, clock.rebases, "resume when running does not rebase")

	require.NoError(t, l.Frame(context.Background()))
	assert.Equal(t, uint64(2), l.Generation())
}

func TestBufferDiscipline(t *testing.T) {
	l, err := New(Host{Clock: FixedClock{DT: 0.016}}, Options{
		Resolution: systems.Resolution{Width: 16, Height: 16},
		Seed:       7,
		Field:      field.Vortex(8, 8, 0.3, field.FilterBilinear),
		Params:     defaultParams,
		Workers:    4,
	})
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		read := l.store.Current()
		write := l.store.Next()
		require.NotSame(t, read, write)

		require.NoError(t, l.Frame(context.Background()))

		// The buffer rendered this frame is the one just written
		require.Same(t, write, l.Current())
		require.Same(t, read, l.store.Next())
	}
	assert.Equal(t, uint64(1000), l.Generation())
}

func TestRenderToTarget(t *testing.T) {
	target := &recordingTarget{}
	l := scenarioLoop(t, target)

	require.NoError(t, l.Frame(context.Background()))

	assert.Equal(t, 1, target.begins)
	assert.Equal(t, 1, target.ends)
	require.Len(t, target.last, 2*3, "tail length instances per particle")

	// Particle 0 wrapped to x=0, so its clip x is -1
	assert.Equal(t, float32(-1), target.last[0].Clip[0])
	assert.InDelta(t, 0.81, target.last[2].Color[3], 1e-6)
}

func TestRedrawWhilePaused(t *testing.T) {
	target := &recordingTarget{}
	l := scenarioLoop(t, target)
	require.NoError(t, l.Frame(context.Background()))
	first := append([]renderer.Vertex(nil), target.last...)

	l.Pause()
	require.NoError(t, l.Redraw())

	assert.Equal(t, 2, target.begins)
	assert.Equal(t, first, target.last)
	assert.Equal(t, uint64(1), l.Generation(), "redraw does not advance")

	l.Stop()
	assert.ErrorIs(t, l.Redraw(), ErrStopped)
}

func TestFrameFramebuffer(t *testing.T) {
	fb := renderer.NewFramebuffer(16, 16)
	l := scenarioLoop(t, fb)

	require.NoError(t, l.Frame(context.Background()))

	drawn := 0
	for _, p := range fb.Pix {
		if p[3] > 0 {
			drawn++
		}
	}
	assert.Positive(t, drawn)
}

func TestNewAllocationFailure(t *testing.T) {
	_, err := New(Host{Clock: FixedClock{DT: 0.1}, Allocator: systems.HeapAllocator{MaxTexels: 4}}, Options{
		Resolution: systems.Resolution{Width: 4, Height: 4},
		Params:     defaultParams,
	})

	var initErr *systems.InitializationError
	require.ErrorAs(t, err, &initErr)
	assert.ErrorIs(t, err, systems.ErrAllocation)
}

func TestNewValidation(t *testing.T) {
	_, err := New(Host{}, Options{Params: defaultParams})
	assert.ErrorIs(t, err, ErrNoClock)

	_, err = New(Host{Clock: FixedClock{}}, Options{
		Resolution: systems.Resolution{Width: 0, Height: 4},
		Params:     defaultParams,
	})
	assert.ErrorIs(t, err, systems.ErrInvalidResolution)

	_, err = New(Host{Clock: FixedClock{}}, Options{
		Resolution: systems.Resolution{Width: 2, Height: 2},
		Seeds:      []mgl32.Vec2{{0, 0}},
		Params:     defaultParams,
	})
	assert.ErrorIs(t, err, systems.ErrSeedMismatch)

	_, err = New(Host{Clock: FixedClock{}}, Options{
		Resolution: systems.Resolution{Width: 2, Height: 2},
		Field:      &field.Grid{Width: 2, Height: 2, Data: make([]float32, 3)},
		Params:     defaultParams,
	})
	var bindErr *field.BindingError
	assert.ErrorAs(t, err, &bindErr)

	_, err = New(Host{Clock: FixedClock{}}, Options{
		Resolution: systems.Resolution{Width: 2, Height: 2},
		Params:     Params{Speed: 1},
	})
	assert.ErrorIs(t, err, renderer.ErrRenderParams)
}

func TestReinitializeAllocationFailureStops(t *testing.T) {
	l, err := New(Host{Clock: FixedClock{DT: 0.1}, Allocator: systems.HeapAllocator{MaxTexels: 16}}, Options{
		Resolution: systems.Resolution{Width: 4, Height: 4},
		Params:     defaultParams,
	})
	require.NoError(t, err)

	var stopped []Event
	l.Events().On(EventStopped, func(e Event) { stopped = append(stopped, e) })

	err = l.Reinitialize(systems.Resolution{Width: 8, Height: 8})
	require.ErrorIs(t, err, systems.ErrAllocation)

	assert.Equal(t, StateStopped, l.State())
	require.Len(t, stopped, 1)
	assert.ErrorIs(t, stopped[0].Err, systems.ErrAllocation)
	assert.Nil(t, l.Current(), "nothing is drawn after a fatal stop")

	assert.ErrorIs(t, l.Frame(context.Background()), ErrStopped)
	assert.ErrorIs(t, l.Step(0.1), ErrStopped)
}

func TestReinitializeValidationKeepsState(t *testing.T) {
	l := scenarioLoop(t, nil)
	require.NoError(t, l.Step(0.5))

	err := l.ReinitializeWithSeeds(systems.Resolution{Width: 2, Height: 2}, []mgl32.Vec2{{0, 0}})
	require.ErrorIs(t, err, systems.ErrSeedMismatch)

	assert.Equal(t, StateIdle, l.State())
	assert.Equal(t, systems.Resolution{Width: 2, Height: 1}, l.Resolution())
	assert.Equal(t, uint64(1), l.Generation())
}

func TestReinitializeResizes(t *testing.T) {
	target := &recordingTarget{}
	l := scenarioLoop(t, target)
	require.NoError(t, l.Step(0.5))

	require.NoError(t, l.Reinitialize(systems.Resolution{Width: 3, Height: 3}))
	assert.Equal(t, uint64(0), l.Generation())

	require.NoError(t, l.Step(0.5))
	assert.Len(t, target.last, 9*3)
}

func TestBindKeepsOldFieldOnError(t *testing.T) {
	l := scenarioLoop(t, nil)
	old := l.Field()

	bound := 0
	l.Events().On(EventFieldBound, func(e Event) { bound++ })

	err := l.Bind(&field.Grid{Width: -1, Height: 2})
	var bindErr *field.BindingError
	require.ErrorAs(t, err, &bindErr)
	assert.ErrorIs(t, err, field.ErrBadDimensions)
	assert.Same(t, old, l.Field())
	assert.Equal(t, 0, bound)

	calm := field.Uniform(1, 1, mgl32.Vec2{}, field.FilterNearest)
	require.NoError(t, l.Bind(calm))
	assert.Same(t, calm, l.Field())
	assert.Equal(t, 1, bound)
	assert.Equal(t, uint64(2), l.FieldVersion())

	// Calm air freezes positions
	require.NoError(t, l.Step(0.5))
	assert.Equal(t, mgl32.Vec2{0.9, 0.5}, l.Current().Texels[0].Pos)
}

func TestNoFieldIsCalm(t *testing.T) {
	l, err := New(Host{Clock: FixedClock{DT: 1}}, Options{
		Resolution: systems.Resolution{Width: 1, Height: 1},
		Seeds:      []mgl32.Vec2{{0.25, 0.75}},
		Params:     defaultParams,
	})
	require.NoError(t, err)

	require.NoError(t, l.Frame(context.Background()))
	assert.Equal(t, mgl32.Vec2{0.25, 0.75}, l.Current().Texels[0].Pos)
}

func TestConcurrentBind(t *testing.T) {
	l, err := New(Host{Clock: FixedClock{DT: 0.016}}, Options{
		Resolution: systems.Resolution{Width: 64, Height: 64},
		Field:      field.Vortex(16, 16, 0.2, field.FilterBilinear),
		Params:     defaultParams,
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			strength := float32(i) * 0.01
			assert.NoError(t, l.Bind(field.Vortex(16, 16, strength, field.FilterBilinear)))
		}
	}()

	for i := 0; i < 100; i++ {
		require.NoError(t, l.Frame(context.Background()))
	}
	wg.Wait()

	assert.Equal(t, uint64(101), l.FieldVersion())
}

func TestSetParams(t *testing.T) {
	l := scenarioLoop(t, nil)

	bad := defaultParams
	bad.Render.TailFade = 1.5
	require.ErrorIs(t, l.SetParams(bad), renderer.ErrRenderParams)
	assert.Equal(t, defaultParams, l.Params())

	faster := defaultParams
	faster.Speed = 2
	require.NoError(t, l.SetParams(faster))

	require.NoError(t, l.Step(0.1))
	assert.Equal(t, mgl32.Vec2{1, 0}, l.Current().Texels[1].Vel)
}

func TestStop(t *testing.T) {
	l := scenarioLoop(t, nil)

	stops := 0
	l.Events().On(EventStopped, func(e Event) {
		stops++
		assert.NoError(t, e.Err)
	})

	l.Stop()
	l.Stop()

	assert.Equal(t, 1, stops)
	assert.Equal(t, StateStopped, l.State())
	assert.ErrorIs(t, l.Frame(context.Background()), ErrStopped)
	assert.ErrorIs(t, l.SetParams(defaultParams), ErrStopped)
	assert.ErrorIs(t, l.Reinitialize(systems.Resolution{Width: 1, Height: 1}), ErrStopped)
}

func TestFrameCanceledContext(t *testing.T) {
	l := scenarioLoop(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Frame(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, uint64(0), l.Generation())
}

func TestPerfPhases(t *testing.T) {
	perf := telemetry.NewPerfCollector(10)
	wind := field.Uniform(1, 1, mgl32.Vec2{0.1, 0}, field.FilterNearest)
	l, err := New(Host{Clock: FixedClock{DT: 0.1}, Target: &recordingTarget{}}, Options{
		Resolution: systems.Resolution{Width: 2, Height: 2},
		Field:      wind,
		Params:     defaultParams,
		Perf:       perf,
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Frame(context.Background()))
	}

	stats := perf.Stats()
	for _, phase := range []string{telemetry.PhaseAdvect, telemetry.PhaseSwap, telemetry.PhaseRender, telemetry.PhasePresent} {
		assert.Contains(t, stats.PhaseAvg, phase)
	}
}
