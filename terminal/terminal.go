// Package terminal draws particles into a tcell screen using half-block cells,
// so each character cell holds two vertically stacked pixels.
package terminal

import (
	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/gust/renderer"
)

// halfBlock paints the top half with the foreground and the bottom half with the background.
const halfBlock = '▀'

// Target is a renderer.Target backed by a tcell screen.
// Rows reserved at the bottom (StatusRows) are left for text.
type Target struct {
	screen     tcell.Screen
	fb         *renderer.Framebuffer
	background mgl32.Vec4

	StatusRows int
}

// NewTarget creates a target sized to the screen.
func NewTarget(screen tcell.Screen, background mgl32.Vec3) *Target {
	t := &Target{
		screen:     screen,
		background: background.Vec4(1),
	}
	t.Resize()
	return t
}

// Resize matches the framebuffer to the current screen size.
func (t *Target) Resize() {
	cols, rows := t.screen.Size()
	rows -= t.StatusRows
	cols, rows = max(cols, 1), max(rows, 1)
	if t.fb != nil && t.fb.Width == cols && t.fb.Height == rows*2 {
		return
	}
	t.fb = renderer.NewFramebuffer(cols, rows*2)
	t.fb.Clear = t.background
}

// Framebuffer exposes the pixel buffer of the last frame.
func (t *Target) Framebuffer() *renderer.Framebuffer {
	return t.fb
}

// Begin clears the pixel buffer to the background.
func (t *Target) Begin() {
	t.Resize()
	t.fb.Begin()
}

// Draw blends vertices into the pixel buffer.
func (t *Target) Draw(vertices []renderer.Vertex) {
	t.fb.Draw(vertices)
}

// End copies the pixel buffer to the screen cells. The caller shows the screen.
func (t *Target) End() {
	rows := t.fb.Height / 2
	for y := 0; y < rows; y++ {
		for x := 0; x < t.fb.Width; x++ {
			top := t.fb.At(x, y*2)
			bottom := t.fb.At(x, y*2+1)
			style := tcell.StyleDefault.Foreground(Color(top)).Background(Color(bottom))
			t.screen.SetContent(x, y, halfBlock, nil, style)
		}
	}
}

// Color converts a framebuffer pixel to a true-color terminal color.
func Color(c mgl32.Vec4) tcell.Color {
	return tcell.NewRGBColor(channel(c[0]), channel(c[1]), channel(c[2]))
}

func channel(v float32) int32 {
	return int32(mgl32.Clamp(v, 0, 1)*255 + 0.5)
}

// DrawText writes s starting at (x, y), clipped to the screen width.
func DrawText(screen tcell.Screen, x, y int, s string, style tcell.Style) {
	w, _ := screen.Size()
	for _, r := range s {
		if x >= w {
			return
		}
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}
