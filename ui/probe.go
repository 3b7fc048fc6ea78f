package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/gust/camera"
	"github.com/pthm-cable/gust/field"
	"github.com/pthm-cable/gust/renderer"
)

// ProbeData is one reading of the wind under the cursor.
type ProbeData struct {
	ScreenX, ScreenY float32
	Pos              mgl32.Vec2 // normalized domain position
	Wind             mgl32.Vec2 // sampled field vector
	Velocity         mgl32.Vec2 // wind scaled by the advection speed
	Speed            float32    // |Velocity|
	Color            mgl32.Vec3 // ramp color a particle here would take
}

// ReadProbe samples s at the domain point under screen position (sx, sy).
func ReadProbe(s field.Sampler, cam *camera.Camera, ramp renderer.ColorRamp, speed, sx, sy float32) ProbeData {
	if s == nil {
		s = field.Calm
	}
	pos := cam.ScreenToNorm(sx, sy)
	wind := s.Sample(pos)
	vel := wind.Mul(speed)
	return ProbeData{
		ScreenX:  sx,
		ScreenY:  sy,
		Pos:      pos,
		Wind:     wind,
		Velocity: vel,
		Speed:    vel.Len(),
		Color:    ramp.Color(vel.Len()),
	}
}

// Probe draws the wind reading next to the cursor.
type Probe struct {
	renderer *Renderer

	// ArrowScale converts a velocity (domain units per second) to pixels.
	ArrowScale float32
}

// NewProbe creates a probe panel.
func NewProbe() *Probe {
	return &Probe{renderer: NewRenderer(), ArrowScale: 400}
}

// Draw renders the velocity arrow and a small readout.
func (p *Probe) Draw(data ProbeData) {
	r := p.renderer
	start := rl.Vector2{X: data.ScreenX, Y: data.ScreenY}
	// Screen y grows downward
	end := rl.Vector2{
		X: data.ScreenX + data.Velocity[0]*p.ArrowScale,
		Y: data.ScreenY - data.Velocity[1]*p.ArrowScale,
	}
	c := vec3Color(data.Color)
	rl.DrawLineEx(start, end, 2, c)
	rl.DrawCircleV(end, 3, c)

	x := int32(data.ScreenX) + 16
	y := int32(data.ScreenY) + 16
	width := int32(190)
	r.DrawPanel(x, y, width, r.Theme.LineHeight*3+r.Theme.Padding)

	x += r.Theme.Padding / 2
	y += r.Theme.Padding / 2
	y = r.DrawLabelValue(x, y, "Position", fmt.Sprintf("%.3f, %.3f", data.Pos[0], data.Pos[1]))
	y = r.DrawLabelValue(x, y, "Wind", fmt.Sprintf("%+.3f, %+.3f", data.Wind[0], data.Wind[1]))
	r.DrawLabelValue(x, y, "Speed", fmt.Sprintf("%.3f", data.Speed))
}
