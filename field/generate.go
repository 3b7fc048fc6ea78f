package field

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/ojrac/opensimplex-go"
)

// Kind names a procedural field generator.
type Kind string

const (
	KindUniform Kind = "uniform"
	KindNoise   Kind = "noise"
	KindVortex  Kind = "vortex"
)

// NoiseParams holds simplex flow parameters.
type NoiseParams struct {
	Seed     int64
	Scale    float64 // Noise frequency over the unit square
	Strength float32 // Max wind magnitude
}

// Spec describes a procedural field.
type Spec struct {
	Kind           Kind
	Width, Height  int
	Filter         Filter
	Uniform        mgl32.Vec2
	Noise          NoiseParams
	VortexStrength float32
}

// Generate builds the field described by spec at animation time t.
// Only noise fields depend on t.
func Generate(spec Spec, t float64) (*Grid, error) {
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, &BindingError{Width: spec.Width, Height: spec.Height, Err: ErrBadDimensions}
	}
	switch spec.Kind {
	case KindUniform:
		return Uniform(spec.Width, spec.Height, spec.Uniform, spec.Filter), nil
	case KindNoise:
		return Noise(spec.Width, spec.Height, spec.Noise, t, spec.Filter), nil
	case KindVortex:
		return Vortex(spec.Width, spec.Height, spec.VortexStrength, spec.Filter), nil
	}
	return nil, fmt.Errorf("unknown field kind %q", spec.Kind)
}

// Uniform creates a field with the same vector everywhere.
func Uniform(width, height int, v mgl32.Vec2, filter Filter) *Grid {
	g := newGrid(width, height, filter)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g.set(x, y, v)
		}
	}
	return g
}

// Vortex creates a solid-body rotation around the domain centre.
func Vortex(width, height int, strength float32, filter Filter) *Grid {
	g := newGrid(width, height, filter)
	for y := 0; y < height; y++ {
		cy := (float32(y)+0.5)/float32(height) - 0.5
		for x := 0; x < width; x++ {
			cx := (float32(x)+0.5)/float32(width) - 0.5
			g.set(x, y, mgl32.Vec2{-cy, cx}.Mul(2*strength))
		}
	}
	return g
}

// Noise creates a seamless simplex flow field.
// The unit square is mapped onto a 4D torus so the field tiles like the
// particle domain; t slides the torus through the noise to animate it.
func Noise(width, height int, p NoiseParams, t float64, filter Filter) *Grid {
	angleNoise := opensimplex.New(p.Seed)
	magNoise := opensimplex.New(p.Seed + 1)

	g := newGrid(width, height, filter)
	r := p.Scale / (2 * math.Pi)

	for y := 0; y < height; y++ {
		v := (float64(y) + 0.5) / float64(height) * 2 * math.Pi
		nz, nw := math.Cos(v)*r, math.Sin(v)*r
		for x := 0; x < width; x++ {
			u := (float64(x) + 0.5) / float64(width) * 2 * math.Pi
			nx, ny := math.Cos(u)*r+t, math.Sin(u)*r

			angle := angleNoise.Eval4(nx, ny, nz, nw) * math.Pi * 2
			magnitude := (magNoise.Eval4(nx, ny, nz, nw) + 1) * 0.5

			g.set(x, y, mgl32.Vec2{
				float32(math.Cos(angle)*magnitude) * p.Strength,
				float32(math.Sin(angle)*magnitude) * p.Strength,
			})
		}
	}
	return g
}
