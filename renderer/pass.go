package renderer

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/gust/systems"
)

// Vertex is one drawable point: clip-space position, RGBA color and point size in pixels.
type Vertex struct {
	Clip  mgl32.Vec2
	Color mgl32.Vec4
	Size  float32
}

// RenderParams controls how particles are drawn.
type RenderParams struct {
	TailLength   int     // Instances drawn per particle (1 = no trail)
	TailFade     float32 // Alpha of instance k is TailFade^k
	ParticleSize float32 // Point size in pixels, not attenuated
	TrailSpacing float32 // Instance k is offset by -Vel*k*TrailSpacing (0 = stacked)
}

// MaxTailLength bounds the instances drawn per particle.
const MaxTailLength = 256

// ErrRenderParams reports unusable render parameters.
var ErrRenderParams = errors.New("invalid render parameters")

// Validate checks the parameters before any dispatch.
func (p RenderParams) Validate() error {
	if p.TailLength < 1 {
		return fmt.Errorf("%w: tail length %d < 1", ErrRenderParams, p.TailLength)
	}
	if p.TailLength > MaxTailLength {
		return fmt.Errorf("%w: tail length %d > %d", ErrRenderParams, p.TailLength, MaxTailLength)
	}
	if !(p.TailFade > 0 && p.TailFade < 1) {
		return fmt.Errorf("%w: tail fade %f outside (0,1)", ErrRenderParams, p.TailFade)
	}
	if !(p.ParticleSize > 0) {
		return fmt.Errorf("%w: particle size %f", ErrRenderParams, p.ParticleSize)
	}
	return nil
}

// TrailAlpha returns the opacity of trail instance k (0 = newest).
// The fade is recomputed from the index alone; no history is stored.
func TrailAlpha(fade float32, k int) float32 {
	return float32(math.Pow(float64(fade), float64(k)))
}

// ClipPosition maps a normalized [0,1] position to [-1,1] clip space.
func ClipPosition(pos mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{pos[0]*2 - 1, pos[1]*2 - 1}
}

// RenderPass emits TailLength vertices per particle from a state buffer.
type RenderPass struct {
	pool *systems.Pool
	Ramp ColorRamp
}

// NewRenderPass creates a render pass that dispatches onto pool.
func NewRenderPass(pool *systems.Pool, ramp ColorRamp) *RenderPass {
	return &RenderPass{pool: pool, Ramp: ramp}
}

// Emit writes vertices for every particle of src into dst (reusing its capacity)
// and returns it. Layout is particle-major: particle i owns
// dst[i*TailLength : (i+1)*TailLength], instance 0 first.
func (r *RenderPass) Emit(src *systems.StateBuffer, p RenderParams, dst []Vertex) ([]Vertex, error) {
	if err := p.Validate(); err != nil {
		return dst[:0], err
	}

	n := len(src.Texels) * p.TailLength
	if cap(dst) < n {
		dst = make([]Vertex, n)
	}
	dst = dst[:n]

	// Fades are identical for every particle
	alphas := make([]float32, p.TailLength)
	for k := range alphas {
		alphas[k] = TrailAlpha(p.TailFade, k)
	}

	texels := src.Texels
	ramp := r.Ramp
	r.pool.Dispatch(len(texels), func(start, end, _ int) {
		for i := start; i < end; i++ {
			t := texels[i]
			rgb := ramp.Color(t.Vel.Len())
			base := i * p.TailLength
			for k := 0; k < p.TailLength; k++ {
				pos := t.Pos
				if p.TrailSpacing != 0 && k > 0 {
					pos = pos.Sub(t.Vel.Mul(float32(k) * p.TrailSpacing))
				}
				dst[base+k] = Vertex{
					Clip:  ClipPosition(pos),
					Color: rgb.Vec4(alphas[k]),
					Size:  p.ParticleSize,
				}
			}
		}
	})

	return dst, nil
}

// Target receives the vertices of one frame.
type Target interface {
	Begin()
	Draw(vertices []Vertex)
	End()
}
