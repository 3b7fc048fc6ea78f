// Package camera maps the normalized particle domain onto the viewer window.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera views the unit torus [0,1)x[0,1) through a window.
// Supports pan and zoom; panning wraps like the particles do.
type Camera struct {
	// Center is the viewed point in normalized domain coordinates
	Center mgl32.Vec2

	// Zoom level (1.0 = the whole domain fills the viewport)
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera showing the whole domain.
func New(viewportW, viewportH float32) *Camera {
	return &Camera{
		Center:    mgl32.Vec2{0.5, 0.5},
		Zoom:      1.0,
		ViewportW: viewportW,
		ViewportH: viewportH,
		MinZoom:   1.0, // never show the domain smaller than the window
		MaxZoom:   8.0,
	}
}

// NormToScreen converts a normalized position to screen pixels.
// Domain y grows upward, screen y grows downward.
func (c *Camera) NormToScreen(p mgl32.Vec2) (sx, sy float32) {
	dx := toroidalDelta(p[0], c.Center[0])
	dy := toroidalDelta(p[1], c.Center[1])

	sx = c.ViewportW/2 + dx*c.ViewportW*c.Zoom
	sy = c.ViewportH/2 - dy*c.ViewportH*c.Zoom
	return sx, sy
}

// ClipToScreen converts a clip-space position ([-1,1]) to screen pixels.
func (c *Camera) ClipToScreen(clip mgl32.Vec2) (sx, sy float32) {
	return c.NormToScreen(mgl32.Vec2{(clip[0] + 1) * 0.5, (clip[1] + 1) * 0.5})
}

// ScreenToNorm converts screen pixels to a normalized domain position.
func (c *Camera) ScreenToNorm(sx, sy float32) mgl32.Vec2 {
	dx := (sx - c.ViewportW/2) / (c.ViewportW * c.Zoom)
	dy := -(sy - c.ViewportH/2) / (c.ViewportH * c.Zoom)
	return mgl32.Vec2{mod1(c.Center[0] + dx), mod1(c.Center[1] + dy)}
}

// OnScreen reports whether a screen point (with margin) lies inside the viewport.
func (c *Camera) OnScreen(sx, sy, margin float32) bool {
	return sx >= -margin && sx <= c.ViewportW+margin &&
		sy >= -margin && sy <= c.ViewportH+margin
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Pan moves the camera by the given delta in screen pixels.
// Automatically wraps around the domain edges.
func (c *Camera) Pan(dx, dy float32) {
	c.Center[0] = mod1(c.Center[0] + dx/(c.ViewportW*c.Zoom))
	c.Center[1] = mod1(c.Center[1] - dy/(c.ViewportH*c.Zoom))
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = mgl32.Clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset returns the camera to the default position and zoom.
func (c *Camera) Reset() {
	c.Center = mgl32.Vec2{0.5, 0.5}
	c.Zoom = 1.0
}

// toroidalDelta computes the shortest signed distance from 'from' to 'to'
// on the unit circle.
func toroidalDelta(to, from float32) float32 {
	d := to - from
	if d > 0.5 {
		d -= 1
	} else if d < -0.5 {
		d += 1
	}
	return d
}

// mod1 wraps x into [0, 1) (Go's math.Mod can return negative).
func mod1(x float32) float32 {
	r := float32(math.Mod(float64(x), 1))
	if r < 0 {
		r++
	}
	return r
}
