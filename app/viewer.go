package app

import (
	"context"
	"errors"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gust/camera"
	"github.com/pthm-cable/gust/config"
	"github.com/pthm-cable/gust/field"
	"github.com/pthm-cable/gust/renderer"
	"github.com/pthm-cable/gust/sim"
	"github.com/pthm-cable/gust/ui"
)

const controlsLegend = "[Space] Pause  [R] Reseed  [S] Snapshot  [Arrows/RMB] Pan  [Wheel] Zoom  [Home] Reset view  [F11] Fullscreen"

// Viewer runs an App inside a raylib window. The window must already be
// open; NewViewer creates GPU resources.
type Viewer struct {
	app *App

	camera       *camera.Camera
	target       *renderer.RaylibTarget
	fieldOverlay *renderer.FieldOverlay
	fieldVersion uint64
	background   rl.Color

	overlays *ui.OverlayRegistry
	hud      *ui.HUD
	perf     *ui.PerfPanel
	controls *ui.ControlsPanel
	probe    *ui.Probe

	screenWidth, screenHeight float32
}

// NewViewer creates the viewer and its App. The particle clock is raylib's
// frame time.
func NewViewer(ctx context.Context, cfg *config.Config, opts Options) (*Viewer, error) {
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())

	cam := camera.New(w, h)
	target := renderer.NewRaylibTarget(cam)

	a, err := New(cfg, sim.Host{Clock: sim.ClockFunc(rl.GetFrameTime), Target: target}, opts)
	if err != nil {
		return nil, err
	}
	a.StartAnimator(ctx)

	bg := cfg.Derived.Background
	v := &Viewer{
		app:          a,
		camera:       cam,
		target:       target,
		fieldOverlay: renderer.NewFieldOverlay(),
		background: rl.Color{
			R: uint8(bg[0] * 255),
			G: uint8(bg[1] * 255),
			B: uint8(bg[2] * 255),
			A: 255,
		},
		overlays:     ui.NewOverlayRegistry(),
		controls:     ui.NewControlsPanel(10, 10, 230),
		probe:        ui.NewProbe(),
		screenWidth:  w,
		screenHeight: h,
	}
	v.hud = ui.NewHUD(int32(w)-280, 10, 270)
	v.perf = ui.NewPerfPanel(int32(w)-280, 160, 270)
	return v, nil
}

// App returns the viewer's App.
func (v *Viewer) App() *App { return v.app }

// Frame handles input, steps the simulation once and draws one window frame.
func (v *Viewer) Frame(ctx context.Context) error {
	v.handleInput()

	loop := v.app.Loop()
	rl.BeginDrawing()
	defer rl.EndDrawing()

	rl.ClearBackground(v.background)

	if v.overlays.IsEnabled(ui.OverlayField) {
		v.drawField()
	}

	var err error
	if loop.Paused() {
		err = loop.Redraw()
	} else {
		err = loop.Frame(ctx)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	v.drawUI()
	v.app.Perf().RecordFrame()
	return nil
}

// drawField uploads a newly bound field and draws it under the particles.
func (v *Viewer) drawField() {
	loop := v.app.Loop()
	if version := loop.FieldVersion(); version != v.fieldVersion {
		v.fieldOverlay.Update(loop.Field())
		v.fieldVersion = version
	}
	v.fieldOverlay.Draw(v.camera)
}

// drawUI renders the enabled panels.
func (v *Viewer) drawUI() {
	loop := v.app.Loop()

	for _, id := range v.overlays.EnabledOverlays() {
		switch id {
		case ui.OverlayHUD:
			v.hud.Draw(ui.HUDData{
				Title:        "Gust",
				Resolution:   loop.Resolution().String(),
				Particles:    loop.Resolution().Count(),
				Generation:   loop.Generation(),
				Wrapped:      loop.LastStats().Wrapped,
				FieldKind:    string(v.app.FieldKind()),
				FieldVersion: loop.FieldVersion(),
				Zoom:         v.camera.Zoom,
				FPS:          rl.GetFPS(),
				Paused:       loop.Paused(),
				State:        loop.State().String(),
				Ramp:         Ramp(v.app.Config()),
			})
		case ui.OverlayPerf:
			v.perf.Draw(v.app.Perf().Stats())
		case ui.OverlayProbe:
			v.drawProbe()
		case ui.OverlayControls:
			v.drawControls()
		}
	}

	v.hud.DrawControls(int32(v.screenHeight), controlsLegend)
}

func (v *Viewer) drawProbe() {
	loop := v.app.Loop()
	var s field.Sampler
	if g := loop.Field(); g != nil {
		s = g
	}
	mouse := rl.GetMousePosition()
	data := ui.ReadProbe(s, v.camera, Ramp(v.app.Config()), loop.Params().Speed, mouse.X, mouse.Y)
	v.probe.Draw(data)
}

// drawControls draws the parameter panel and applies what the user changed.
func (v *Viewer) drawControls() {
	loop := v.app.Loop()
	res := v.controls.Draw(ui.ControlState{Params: loop.Params(), Paused: loop.Paused()}, v.overlays)

	if res.Changed {
		if err := loop.SetParams(res.Params); err != nil {
			v.app.logger.Warn("params rejected", "error", err)
		}
	}
	if res.TogglePause {
		v.togglePause()
	}
	if res.Reseed {
		v.reseed()
	}
	if res.ResetCamera {
		v.camera.Reset()
	}
}

func (v *Viewer) togglePause() {
	loop := v.app.Loop()
	if loop.Paused() {
		loop.Resume()
	} else {
		loop.Pause()
	}
}

func (v *Viewer) reseed() {
	if err := v.app.Reseed(); err != nil {
		v.app.logger.Error("reseed failed", "error", err)
	}
}

func (v *Viewer) snapshot() {
	path, err := v.app.SaveSnapshot()
	if err != nil {
		v.app.logger.Error("snapshot failed", "error", err)
		return
	}
	v.app.logger.Info("snapshot saved", "path", path, "generation", v.app.Loop().Generation())
}

// Stopped reports whether the simulation has ended.
func (v *Viewer) Stopped() bool {
	return v.app.Loop().State() == sim.StateStopped
}

// Close releases GPU resources and stops the App.
func (v *Viewer) Close() error {
	v.fieldOverlay.Unload()
	return v.app.Close()
}
