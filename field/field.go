// Package field provides the velocity field sampled by the particle advection.
//
// A field is a 2-channel float texture over normalized coordinates: each texel
// holds one wind vector (vx, vy). Fields are treated as immutable once bound;
// the host replaces them wholesale through a Binding.
package field

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Filter selects how a field is sampled between texel centres.
type Filter uint8

const (
	FilterNearest Filter = iota
	FilterBilinear
)

// String returns the config name of the filter.
func (f Filter) String() string {
	switch f {
	case FilterNearest:
		return "nearest"
	case FilterBilinear:
		return "bilinear"
	default:
		return fmt.Sprintf("filter(%d)", uint8(f))
	}
}

// ParseFilter converts a config name to a Filter.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(s) {
	case "nearest", "":
		return FilterNearest, nil
	case "bilinear", "linear":
		return FilterBilinear, nil
	}
	return 0, fmt.Errorf("unknown field filter %q", s)
}

// Sampler provides wind vectors at normalized positions.
type Sampler interface {
	Sample(pos mgl32.Vec2) mgl32.Vec2
}

// Calm samples zero wind everywhere. It stands in while no field is bound.
var Calm Sampler = calm{}

type calm struct{}

func (calm) Sample(mgl32.Vec2) mgl32.Vec2 { return mgl32.Vec2{} }

// Binding errors.
var (
	ErrNilField      = errors.New("nil field")
	ErrBadDimensions = errors.New("non-positive field dimensions")
	ErrBadData       = errors.New("field data length does not match dimensions")
	ErrBadFilter     = errors.New("unsupported field filter")
)

// BindingError reports a velocity field that cannot be bound.
// The core never coerces an incompatible field into shape.
type BindingError struct {
	Width, Height int
	Len           int
	Err           error
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("field binding: %dx%d with %d values: %v", e.Width, e.Height, e.Len, e.Err)
}

func (e *BindingError) Unwrap() error { return e.Err }

// Grid is a CPU-resident 2-channel float texture.
// Data is interleaved [vx0, vy0, vx1, vy1, ...] in row-major order.
// Addressing wraps (repeat) in both axes, matching the toroidal particle domain.
type Grid struct {
	Width  int
	Height int
	Data   []float32
	Filter Filter
}

// NewGrid wraps existing texel data after validating it.
func NewGrid(width, height int, data []float32, filter Filter) (*Grid, error) {
	g := &Grid{Width: width, Height: height, Data: data, Filter: filter}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// newGrid allocates a zeroed grid. Callers guarantee positive dimensions.
func newGrid(width, height int, filter Filter) *Grid {
	return &Grid{
		Width:  width,
		Height: height,
		Data:   make([]float32, width*height*2),
		Filter: filter,
	}
}

// Validate checks the grid against the format the sampler assumes.
func (g *Grid) Validate() error {
	if g == nil {
		return &BindingError{Err: ErrNilField}
	}
	if g.Width <= 0 || g.Height <= 0 {
		return &BindingError{Width: g.Width, Height: g.Height, Len: len(g.Data), Err: ErrBadDimensions}
	}
	if len(g.Data) != g.Width*g.Height*2 {
		return &BindingError{Width: g.Width, Height: g.Height, Len: len(g.Data), Err: ErrBadData}
	}
	if g.Filter != FilterNearest && g.Filter != FilterBilinear {
		return &BindingError{Width: g.Width, Height: g.Height, Len: len(g.Data), Err: ErrBadFilter}
	}
	return nil
}

// At returns the texel at integer coordinates, wrapping out-of-range indices.
func (g *Grid) At(x, y int) mgl32.Vec2 {
	x = wrapIndex(x, g.Width)
	y = wrapIndex(y, g.Height)
	idx := (y*g.Width + x) * 2
	return mgl32.Vec2{g.Data[idx], g.Data[idx+1]}
}

// set writes a texel. Only used while a grid is being built.
func (g *Grid) set(x, y int, v mgl32.Vec2) {
	idx := (y*g.Width + x) * 2
	g.Data[idx] = v[0]
	g.Data[idx+1] = v[1]
}

// Sample returns the wind vector at a normalized position.
// Texel centres sit at (i+0.5)/Width like a GPU texture lookup.
func (g *Grid) Sample(pos mgl32.Vec2) mgl32.Vec2 {
	if g.Filter == FilterBilinear {
		return g.sampleBilinear(pos)
	}
	return g.sampleNearest(pos)
}

func (g *Grid) sampleNearest(pos mgl32.Vec2) mgl32.Vec2 {
	x := floorInt(pos[0] * float32(g.Width))
	y := floorInt(pos[1] * float32(g.Height))
	return g.At(x, y)
}

func (g *Grid) sampleBilinear(pos mgl32.Vec2) mgl32.Vec2 {
	fx := pos[0]*float32(g.Width) - 0.5
	fy := pos[1]*float32(g.Height) - 0.5
	x0 := floorInt(fx)
	y0 := floorInt(fy)
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	v00 := g.At(x0, y0)
	v10 := g.At(x0+1, y0)
	v01 := g.At(x0, y0+1)
	v11 := g.At(x0+1, y0+1)

	top := v00.Mul(1 - tx).Add(v10.Mul(tx))
	bottom := v01.Mul(1 - tx).Add(v11.Mul(tx))
	return top.Mul(1 - ty).Add(bottom.Mul(ty))
}

// MaxMagnitude returns the largest wind speed stored in the grid.
func (g *Grid) MaxMagnitude() float32 {
	var maxSq float32
	for i := 0; i+1 < len(g.Data); i += 2 {
		vx, vy := g.Data[i], g.Data[i+1]
		if sq := vx*vx + vy*vy; sq > maxSq {
			maxSq = sq
		}
	}
	return float32(math.Sqrt(float64(maxSq)))
}

// floorInt floors a float32 to int. NaN and Inf map to an arbitrary index,
// which wrapIndex then folds into range.
func floorInt(v float32) int {
	return int(math.Floor(float64(v)))
}

// wrapIndex folds i into [0, n) (Go's % can return negative).
func wrapIndex(i, n int) int {
	return ((i % n) + n) % n
}

// Magnitudes returns the wind speed of every texel in row-major order.
func (g *Grid) Magnitudes() []float64 {
	out := make([]float64, len(g.Data)/2)
	for i := range out {
		vx, vy := float64(g.Data[i*2]), float64(g.Data[i*2+1])
		out[i] = math.Sqrt(vx*vx + vy*vy)
	}
	return out
}
