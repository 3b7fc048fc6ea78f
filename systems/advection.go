package systems

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/gust/field"
)

// AdvectParams holds the per-step integration inputs.
type AdvectParams struct {
	DeltaTime float32 // Seconds; <= 0 or NaN advects by zero
	Speed     float32 // Scale applied to sampled wind
}

// AdvectStats summarizes one advection dispatch.
type AdvectStats struct {
	Particles int
	Wrapped   int // Particles teleported across an edge on at least one axis
}

// Wrap applies the toroidal boundary to one axis.
// Leaving below 0 teleports to exactly 1, leaving above 1 teleports to exactly 0.
// The comparisons are strict: a coordinate sitting on 0 or 1 is left alone.
func Wrap(x float32) float32 {
	if x < 0 {
		return 1
	}
	if x > 1 {
		return 0
	}
	return x
}

// AdvectTexel computes the next state of one particle.
// Explicit Euler with a single sub-step; total over all inputs, so NaN or
// runaway velocities propagate rather than being trapped.
func AdvectTexel(pos mgl32.Vec2, s field.Sampler, p AdvectParams) Texel {
	t, _ := advect(pos, s, p)
	return t
}

// advect is AdvectTexel that also reports whether either axis teleported.
func advect(pos mgl32.Vec2, s field.Sampler, p AdvectParams) (Texel, bool) {
	dt := p.DeltaTime
	if !(dt > 0) {
		dt = 0
	}

	vel := s.Sample(pos).Mul(p.Speed)
	next := pos.Add(vel.Mul(dt))

	wrapped := outside(next[0]) || outside(next[1])
	next[0] = Wrap(next[0])
	next[1] = Wrap(next[1])

	return Texel{Pos: next, Vel: vel}, wrapped
}

func outside(x float32) bool {
	return x < 0 || x > 1
}

// AdvectionPass moves every particle one step through the velocity field.
// Each texel of the destination depends only on the same texel of the source.
type AdvectionPass struct {
	pool    *Pool
	wrapped []int // per-slot teleport counters
}

// NewAdvectionPass creates a pass that dispatches onto pool.
func NewAdvectionPass(pool *Pool) *AdvectionPass {
	return &AdvectionPass{
		pool:    pool,
		wrapped: make([]int, pool.Slots()),
	}
}

// Run reads src and writes dst. Buffers are validated up front because the
// per-particle kernel has no error channel of its own.
func (a *AdvectionPass) Run(s field.Sampler, src, dst *StateBuffer, p AdvectParams) (AdvectStats, error) {
	if s == nil {
		return AdvectStats{}, ErrNoField
	}
	if src == dst {
		return AdvectStats{}, ErrSameBuffer
	}
	if src.Resolution != dst.Resolution || len(src.Texels) != len(dst.Texels) {
		return AdvectStats{}, ErrResolutionMismatch
	}

	for i := range a.wrapped {
		a.wrapped[i] = 0
	}

	in, out := src.Texels, dst.Texels
	a.pool.Dispatch(len(in), func(start, end, slot int) {
		wrapped := 0
		for i := start; i < end; i++ {
			t, w := advect(in[i].Pos, s, p)
			if w {
				wrapped++
			}
			out[i] = t
		}
		a.wrapped[slot] += wrapped
	})

	stats := AdvectStats{Particles: len(in)}
	for _, w := range a.wrapped {
		stats.Wrapped += w
	}
	return stats, nil
}
