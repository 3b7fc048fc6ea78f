package ui

import (
	"fmt"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/gust/sim"
)

// Slider ranges. Tail fade stays inside the open interval the render pass accepts.
const (
	speedMin, speedMax     = 0, 4
	tailMin, tailMax       = 1, 32
	fadeMin, fadeMax       = 0.05, 0.99
	sizeMin, sizeMax       = 0.5, 8
	spacingMin, spacingMax = 0, 1
)

// ControlState is what the panel shows this frame.
type ControlState struct {
	Params sim.Params
	Paused bool
}

// ControlResult reports what the user changed this frame.
type ControlResult struct {
	Params      sim.Params
	Changed     bool
	TogglePause bool
	Reseed      bool
	ResetCamera bool
}

// ControlsPanel renders the left-side controls: parameter sliders, action
// buttons and the overlay toggles.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// Draw renders the panel and returns the edited parameters.
func (c *ControlsPanel) Draw(state ControlState, overlays *OverlayRegistry) ControlResult {
	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	r.DrawPanel(c.x, c.y, c.width, c.height(overlays))

	y := c.y + padding
	rl.DrawText("Wind", c.x+padding, y, 16, rl.White)
	y += lineHeight + 4

	p := state.Params
	res := ControlResult{Params: p}

	p.Speed = c.slider(&y, "Speed", fmt.Sprintf("%.2f", p.Speed), p.Speed, speedMin, speedMax)
	tail := c.slider(&y, "Tail length", fmt.Sprintf("%d", p.Render.TailLength), float32(p.Render.TailLength), tailMin, tailMax)
	p.Render.TailLength = tailLengthFromSlider(tail)
	p.Render.TailFade = c.slider(&y, "Tail fade", fmt.Sprintf("%.2f", p.Render.TailFade), p.Render.TailFade, fadeMin, fadeMax)
	p.Render.ParticleSize = c.slider(&y, "Size", fmt.Sprintf("%.1f", p.Render.ParticleSize), p.Render.ParticleSize, sizeMin, sizeMax)
	p.Render.TrailSpacing = c.slider(&y, "Spacing", fmt.Sprintf("%.2f", p.Render.TrailSpacing), p.Render.TrailSpacing, spacingMin, spacingMax)

	if p != state.Params {
		res.Params = p
		res.Changed = true
	}

	y += 4
	bw := float32(c.width-padding*3) / 2
	bx := float32(c.x + padding)
	if gui.Button(rl.Rectangle{X: bx, Y: float32(y), Width: bw, Height: 24}, toggleText(state.Paused, "Resume", "Pause")) {
		res.TogglePause = true
	}
	if gui.Button(rl.Rectangle{X: bx + bw + float32(padding), Y: float32(y), Width: bw, Height: 24}, "Reseed") {
		res.Reseed = true
	}
	y += 30
	if gui.Button(rl.Rectangle{X: bx, Y: float32(y), Width: bw*2 + float32(padding), Height: 24}, "Reset Camera") {
		res.ResetCamera = true
	}
	y += 34

	for _, category := range overlays.Categories() {
		y = r.DrawSectionHeader(c.x+padding, y, categoryLabel(category))

		for _, desc := range overlays.ByCategory(category) {
			c.drawToggle(c.x+padding, y, desc, overlays.IsEnabled(desc.ID), c.width-padding*2)
			y += lineHeight
		}
		y += 4
	}

	return res
}

// slider draws a label row and a raygui slider below it, advancing y.
func (c *ControlsPanel) slider(y *int32, label, value string, v, lo, hi float32) float32 {
	r := c.renderer
	padding := r.Theme.Padding

	r.DrawLabelValue(c.x+padding, *y, label, value)
	*y += r.Theme.LineHeight

	bounds := rl.Rectangle{
		X:      float32(c.x + padding),
		Y:      float32(*y),
		Width:  float32(c.width - padding*2),
		Height: r.Theme.SliderHeight,
	}
	out := gui.SliderBar(bounds, "", "", v, lo, hi)
	*y += int32(r.Theme.SliderHeight) + 6
	return out
}

// height returns the panel height for the current overlay set.
func (c *ControlsPanel) height(overlays *OverlayRegistry) int32 {
	r := c.renderer
	rows := int32(0)
	for _, cat := range overlays.Categories() {
		rows += int32(len(overlays.ByCategory(cat))) + 1
	}
	sliders := int32(5) * (r.Theme.LineHeight + int32(r.Theme.SliderHeight) + 6)
	title := r.Theme.LineHeight + 4
	buttons := int32(4 + 30 + 34)
	return r.Theme.Padding*2 + title + sliders + buttons + rows*r.Theme.LineHeight + int32(len(overlays.Categories()))*4
}

// drawToggle draws a single overlay toggle line.
func (c *ControlsPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) {
	r := c.renderer

	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	if enabled {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
	}
	rl.DrawRectangle(x, y+2, 8, 8, statusColor)

	nameColor := r.Theme.LabelColor
	if enabled {
		nameColor = rl.White
	}
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)

	if desc.KeyLabel != "" {
		keyText := "[" + desc.KeyLabel + "]"
		keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
		rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Gray)
	}
}

// tailLengthFromSlider rounds a slider value to a whole instance count.
func tailLengthFromSlider(v float32) int {
	return int(mgl32.Clamp(float32(math.Round(float64(v))), tailMin, tailMax))
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
