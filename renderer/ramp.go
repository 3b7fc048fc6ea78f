// Package renderer turns particle state into drawable vertices and draws them.
package renderer

import "github.com/go-gl/mathgl/mgl32"

// Default speed ramp: slow particles are blue, fast ones red.
var (
	DefaultLowSpeedColor  = mgl32.Vec3{0.0, 0.4, 1.0}
	DefaultHighSpeedColor = mgl32.Vec3{1.0, 0.0, 0.0}
)

// DefaultSpeedGain maps the expected wind magnitude range onto the smoothstep.
// It is a calibration constant, not derived from data.
const DefaultSpeedGain = 2.0

// ColorRamp is a fixed two-color ramp indexed by particle speed.
type ColorRamp struct {
	Low  mgl32.Vec3
	High mgl32.Vec3
	Gain float32
}

// DefaultColorRamp returns the blue-to-red ramp.
func DefaultColorRamp() ColorRamp {
	return ColorRamp{
		Low:  DefaultLowSpeedColor,
		High: DefaultHighSpeedColor,
		Gain: DefaultSpeedGain,
	}
}

// Factor returns the interpolation factor for speed, in [0, 1].
func (r ColorRamp) Factor(speed float32) float32 {
	return Smoothstep(0, 1, speed*r.Gain)
}

// Color returns the ramp color for speed.
func (r ColorRamp) Color(speed float32) mgl32.Vec3 {
	t := r.Factor(speed)
	return r.Low.Mul(1 - t).Add(r.High.Mul(t))
}

// Smoothstep is Hermite interpolation between edge0 and edge1, as in GLSL.
func Smoothstep(edge0, edge1, x float32) float32 {
	t := mgl32.Clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}
