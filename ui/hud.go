package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gust/renderer"
	"github.com/pthm-cable/gust/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title        string
	Resolution   string
	Particles    int
	Generation   uint64
	Wrapped      int
	FieldKind    string
	FieldVersion uint64
	Zoom         float32
	FPS          int32
	Paused       bool
	State        string
	Ramp         renderer.ColorRamp
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewHUD creates a HUD anchored at (x, y).
func NewHUD(x, y, width int32) *HUD {
	return &HUD{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the HUD position.
func (h *HUD) SetPosition(x, y int32) {
	h.x = x
	h.y = y
}

// Draw renders the HUD panel.
func (h *HUD) Draw(data HUDData) {
	r := h.renderer
	padding := r.Theme.Padding
	height := padding*2 + 24 + r.Theme.LineHeight*6 + 2

	r.DrawPanel(h.x, h.y, h.width, height)

	x := h.x + padding
	y := h.y + padding
	rl.DrawText(data.Title, x, y, 20, rl.White)
	y += 24

	y = r.DrawLabelValue(x, y, "Particles", fmt.Sprintf("%d (%s)", data.Particles, data.Resolution))
	y = r.DrawLabelValue(x, y, "Generation", fmt.Sprintf("%d", data.Generation))
	y = r.DrawLabelValue(x, y, "Wrapped", fmt.Sprintf("%d", data.Wrapped))
	y = r.DrawLabelValue(x, y, "Field", fmt.Sprintf("%s v%d", data.FieldKind, data.FieldVersion))
	y = r.DrawLabelValue(x, y, "View", fmt.Sprintf("%.1fx | %d FPS", data.Zoom, data.FPS))
	y = r.DrawRampLegend(x, y, h.width-padding*2, data.Ramp)

	status, color := data.State, rl.LightGray
	if data.Paused {
		status, color = "PAUSED", rl.Yellow
	}
	rl.DrawText(status, h.x+h.width-padding-rl.MeasureText(status, 14), h.y+padding+4, 14, color)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the per-phase step timings.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y, width int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	r := p.renderer
	padding := r.Theme.Padding
	phases := telemetry.Phases()
	height := padding*2 + 20 + 16 + int32(len(phases))*(r.Theme.LineHeight+2)

	r.DrawPanel(p.x, p.y, p.width, height)

	x := p.x + padding
	y := p.y + padding
	y = r.DrawSectionHeader(x, y, "Step Performance")
	y += 4

	rl.DrawText(
		fmt.Sprintf("Avg %s | %.0f steps/s", stats.AvgStepDuration.Round(time.Microsecond), stats.StepsPerSecond),
		x, y, 12, rl.Yellow,
	)
	y += 16

	for _, phase := range phases {
		y = r.DrawBar(x, y, phase, float32(stats.PhasePct[phase]/100), p.width-padding*2)
	}
}
