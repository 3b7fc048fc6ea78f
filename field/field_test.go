package field

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGridValidation(t *testing.T) {
	tests := []struct {
		name   string
		w, h   int
		data   []float32
		filter Filter
		want   error
	}{
		{"ok", 2, 1, make([]float32, 4), FilterNearest, nil},
		{"zero width", 0, 1, nil, FilterNearest, ErrBadDimensions},
		{"negative height", 2, -1, nil, FilterNearest, ErrBadDimensions},
		{"short data", 2, 2, make([]float32, 7), FilterNearest, ErrBadData},
		{"single channel", 2, 2, make([]float32, 4), FilterNearest, ErrBadData},
		{"bad filter", 1, 1, make([]float32, 2), Filter(9), ErrBadFilter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGrid(tt.w, tt.h, tt.data, tt.filter)
			if tt.want == nil {
				require.NoError(t, err)
				assert.NotNil(t, g)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			var be *BindingError
			assert.True(t, errors.As(err, &be))
		})
	}
}

func TestNearestSamplingPicksContainingTexel(t *testing.T) {
	g, err := NewGrid(2, 1, []float32{1, 0, 2, 0}, FilterNearest)
	require.NoError(t, err)

	assert.Equal(t, mgl32.Vec2{1, 0}, g.Sample(mgl32.Vec2{0.1, 0.5}))
	assert.Equal(t, mgl32.Vec2{2, 0}, g.Sample(mgl32.Vec2{0.6, 0.5}))
	// 1.0 addresses texel 2, which repeats to texel 0
	assert.Equal(t, mgl32.Vec2{1, 0}, g.Sample(mgl32.Vec2{1.0, 0.5}))
}

func TestBilinearSamplingInterpolates(t *testing.T) {
	g, err := NewGrid(2, 1, []float32{0, 0, 1, 0}, FilterBilinear)
	require.NoError(t, err)

	// Texel centres reproduce stored values exactly
	assert.InDelta(t, 0.0, g.Sample(mgl32.Vec2{0.25, 0.5})[0], 1e-6)
	assert.InDelta(t, 1.0, g.Sample(mgl32.Vec2{0.75, 0.5})[0], 1e-6)
	// Midway between centres
	assert.InDelta(t, 0.5, g.Sample(mgl32.Vec2{0.5, 0.5})[0], 1e-6)
	// Across the repeat seam: x=0 sits midway between texel 1 and texel 0
	assert.InDelta(t, 0.5, g.Sample(mgl32.Vec2{0, 0.5})[0], 1e-6)
}

func TestSamplingIsTotal(t *testing.T) {
	g := Uniform(4, 4, mgl32.Vec2{0.3, -0.2}, FilterBilinear)
	inputs := []mgl32.Vec2{
		{-5, 7},
		{float32(math.Inf(1)), 0},
		{float32(math.NaN()), 0.5},
	}
	for _, p := range inputs {
		assert.NotPanics(t, func() { g.Sample(p) }, "position %v", p)
	}
}

func TestUniformField(t *testing.T) {
	g := Uniform(8, 4, mgl32.Vec2{0.5, 0}, FilterNearest)
	require.NoError(t, g.Validate())

	for _, p := range []mgl32.Vec2{{0, 0}, {0.33, 0.9}, {0.999, 0.5}} {
		assert.Equal(t, mgl32.Vec2{0.5, 0}, g.Sample(p))
	}
	assert.InDelta(t, 0.5, g.MaxMagnitude(), 1e-6)
}

func TestVortexRotatesAroundCentre(t *testing.T) {
	g := Vortex(64, 64, 1, FilterBilinear)

	// Right of centre flows up (+y), left of centre flows down
	right := g.Sample(mgl32.Vec2{0.8, 0.5})
	left := g.Sample(mgl32.Vec2{0.2, 0.5})
	assert.Greater(t, right[1], float32(0))
	assert.Less(t, left[1], float32(0))
}

func TestNoiseFieldDeterministicAndBounded(t *testing.T) {
	p := NoiseParams{Seed: 42, Scale: 3, Strength: 0.1}
	a := Noise(32, 16, p, 0, FilterNearest)
	b := Noise(32, 16, p, 0, FilterNearest)

	assert.Equal(t, a.Data, b.Data)
	assert.LessOrEqual(t, a.MaxMagnitude(), float32(0.1)*1.05)

	c := Noise(32, 16, p, 10, FilterNearest)
	assert.NotEqual(t, a.Data, c.Data, "time should animate the field")
}

func TestGenerate(t *testing.T) {
	g, err := Generate(Spec{Kind: KindUniform, Width: 2, Height: 2, Uniform: mgl32.Vec2{1, 1}}, 0)
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec2{1, 1}, g.At(1, 1))

	_, err = Generate(Spec{Kind: "tornado", Width: 2, Height: 2}, 0)
	assert.Error(t, err)

	_, err = Generate(Spec{Kind: KindUniform, Width: 0, Height: 2}, 0)
	assert.ErrorIs(t, err, ErrBadDimensions)
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("Bilinear")
	require.NoError(t, err)
	assert.Equal(t, FilterBilinear, f)

	_, err = ParseFilter("cubic")
	assert.Error(t, err)
}

func TestBindingKeepsPreviousOnError(t *testing.T) {
	first := Uniform(2, 2, mgl32.Vec2{1, 0}, FilterNearest)
	b, err := NewBinding(first)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), b.Version())

	err = b.Bind(&Grid{Width: 2, Height: 2, Data: make([]float32, 3)})
	require.Error(t, err)
	assert.Same(t, first, b.Current())
	assert.Equal(t, uint64(1), b.Version())

	second := Uniform(2, 2, mgl32.Vec2{0, 1}, FilterNearest)
	require.NoError(t, b.Bind(second))
	assert.Same(t, second, b.Current())
	assert.Equal(t, mgl32.Vec2{0, 1}, b.Sample(mgl32.Vec2{0.5, 0.5}))
}

func TestUnboundBindingIsCalm(t *testing.T) {
	b, err := NewBinding(nil)
	require.NoError(t, err)
	assert.Nil(t, b.Current())
	assert.Equal(t, mgl32.Vec2{}, b.Sample(mgl32.Vec2{0.5, 0.5}))
	assert.ErrorIs(t, b.Bind(nil), ErrNilField)
}

func TestBindingConcurrentSwap(t *testing.T) {
	a := Uniform(2, 2, mgl32.Vec2{1, 0}, FilterNearest)
	c := Uniform(2, 2, mgl32.Vec2{0, 1}, FilterNearest)
	b, err := NewBinding(a)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if i%2 == 0 {
				_ = b.Bind(c)
			} else {
				_ = b.Bind(a)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			g := b.Current()
			v := g.Sample(mgl32.Vec2{0.5, 0.5})
			// Never a torn mix of the two fields
			if v != (mgl32.Vec2{1, 0}) && v != (mgl32.Vec2{0, 1}) {
				t.Errorf("torn sample %v", v)
				return
			}
		}
	}()
	wg.Wait()
}

func TestMagnitudes(t *testing.T) {
	g := Uniform(2, 3, mgl32.Vec2{3, 4}, FilterNearest)
	mags := g.Magnitudes()
	require.Len(t, mags, 6)
	for _, m := range mags {
		assert.InDelta(t, 5.0, m, 1e-9)
	}
	assert.InDelta(t, 5.0, g.MaxMagnitude(), 1e-6)
}
