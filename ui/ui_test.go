package ui

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/gust/camera"
	"github.com/pthm-cable/gust/field"
	"github.com/pthm-cable/gust/renderer"
)

func TestOverlayDefaults(t *testing.T) {
	r := NewOverlayRegistry()

	assert.True(t, r.IsEnabled(OverlayHUD))
	assert.True(t, r.IsEnabled(OverlayControls))
	assert.False(t, r.IsEnabled(OverlayField))
	assert.Equal(t, []OverlayID{OverlayHUD, OverlayControls}, r.EnabledOverlays())
	assert.Equal(t, []string{"field", "info"}, r.Categories())
	assert.Len(t, r.ByCategory("field"), 2)
}

func TestOverlayToggle(t *testing.T) {
	r := NewOverlayRegistry()

	assert.True(t, r.Toggle(OverlayField))
	assert.True(t, r.IsEnabled(OverlayField))
	assert.False(t, r.Toggle(OverlayField))

	assert.False(t, r.Toggle("missing"))
	r.SetEnabled("missing", true)
	assert.False(t, r.IsEnabled("missing"))

	r.SetEnabled(OverlayPerf, true)
	assert.True(t, r.IsEnabled(OverlayPerf))
}

func TestOverlayHandleKeyPress(t *testing.T) {
	r := NewOverlayRegistry()

	id, state, ok := r.HandleKeyPress(rl.KeyF)
	require.True(t, ok)
	assert.Equal(t, OverlayField, id)
	assert.True(t, state)

	_, _, ok = r.HandleKeyPress(rl.KeyZ)
	assert.False(t, ok)

	desc, ok := r.Get(OverlayControls)
	require.True(t, ok)
	assert.Equal(t, "Tab", desc.KeyLabel)
}

func TestTailLengthFromSlider(t *testing.T) {
	tests := []struct {
		in   float32
		want int
	}{
		{0.2, 1},
		{1.4, 1},
		{1.6, 2},
		{31.7, 32},
		{100, 32},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tailLengthFromSlider(tt.in), "slider %v", tt.in)
	}
}

func TestReadProbe(t *testing.T) {
	cam := camera.New(100, 100)
	g := field.Uniform(4, 4, mgl32.Vec2{0.3, -0.4}, field.FilterNearest)
	ramp := renderer.DefaultColorRamp()

	p := ReadProbe(g, cam, ramp, 2, 50, 50)
	assert.InDelta(t, 0.5, p.Pos[0], 1e-5)
	assert.InDelta(t, 0.5, p.Pos[1], 1e-5)
	assert.Equal(t, mgl32.Vec2{0.3, -0.4}, p.Wind)
	assert.InDelta(t, 0.6, p.Velocity[0], 1e-5)
	assert.InDelta(t, 1.0, p.Speed, 1e-5)
	assert.Equal(t, ramp.High, p.Color)

	calm := ReadProbe(nil, cam, ramp, 2, 10, 10)
	assert.Zero(t, calm.Speed)
	assert.Equal(t, ramp.Low, calm.Color)
}

func TestVec3Color(t *testing.T) {
	c := vec3Color(mgl32.Vec3{1, 0, 2})
	assert.Equal(t, rl.Color{R: 255, G: 0, B: 255, A: 255}, c)
}
