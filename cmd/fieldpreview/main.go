// Wind field preview tool - interactive visualization with sliders.
//
// Usage: go run ./cmd/fieldpreview [-config config.yaml]
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/gust/config"
	"github.com/pthm-cable/gust/field"
	"github.com/pthm-cable/gust/renderer"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 512
	panelWidth   = windowWidth - previewSize - 30
)

var kinds = []field.Kind{field.KindUniform, field.KindNoise, field.KindVortex}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	initial := cfg.Field
	params := initial
	params.Uniform = append([]float64(nil), initial.Uniform...)

	rl.InitWindow(windowWidth, windowHeight, "Wind Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	var (
		grid       *field.Grid
		texture    rl.Texture2D
		texW, texH int
		pixels     []color.RGBA
		time       float64
		animating  bool
		needsRegen = true
	)
	defer func() {
		if texW > 0 {
			rl.UnloadTexture(texture)
		}
	}()

	for !rl.WindowShouldClose() {
		if animating {
			time += float64(rl.GetFrameTime()) * params.Noise.TimeSpeed
			needsRegen = true
		}

		if needsRegen {
			g, err := generate(params, time)
			if err != nil {
				slog.Error("field generation failed", "error", err)
			} else {
				grid = g
				if grid.Width != texW || grid.Height != texH {
					if texW > 0 {
						rl.UnloadTexture(texture)
					}
					img := rl.GenImageColor(grid.Width, grid.Height, rl.Black)
					texture = rl.LoadTextureFromImage(img)
					rl.UnloadImage(img)
					rl.SetTextureFilter(texture, rl.FilterBilinear)
					texW, texH = grid.Width, grid.Height
					pixels = make([]color.RGBA, texW*texH)
				}
				renderer.EncodeField(grid, pixels)
				rl.UpdateTexture(texture, pixels)
			}
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		// Field rows grow upward, so flip the source vertically
		if texW > 0 {
			rl.DrawTexturePro(
				texture,
				rl.Rectangle{X: 0, Y: float32(texH), Width: float32(texW), Height: -float32(texH)},
				rl.Rectangle{X: 10, Y: 10, Width: previewSize, Height: previewSize},
				rl.Vector2{X: 0, Y: 0},
				0,
				rl.White,
			)
		}
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)

		if grid != nil {
			drawArrows(grid)

			mags := grid.Magnitudes()
			statsY := int32(previewSize + 25)
			rl.DrawText(
				fmt.Sprintf("Min: %.4f  Max: %.4f  Mean: %.4f  Std: %.4f",
					floats.Min(mags), floats.Max(mags), stat.Mean(mags, nil), stat.StdDev(mags, nil)),
				15, statsY, 16, rl.DarkGray,
			)
			rl.DrawText(fmt.Sprintf("Time: %.2f  Size: %dx%d", time, grid.Width, grid.Height), 15, statsY+20, 16, rl.DarkGray)
		}

		// Control panel
		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Wind Field Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		// Kind buttons
		for i, k := range kinds {
			label := string(k)
			if params.Kind == string(k) {
				label = "> " + label
			}
			if gui.Button(rl.Rectangle{X: panelX + float32(i)*130, Y: panelY, Width: 120, Height: 26}, label) {
				params.Kind = string(k)
				needsRegen = true
			}
		}
		panelY += 40

		slider := func(label, format string, value, lo, hi float64) float64 {
			rl.DrawText(label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 18
			out := gui.SliderBar(
				rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
				"", "",
				float32(value), float32(lo), float32(hi),
			)
			rl.DrawText(fmt.Sprintf(format, value), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
			panelY += 35
			if float64(out) != float64(float32(value)) {
				needsRegen = true
				return float64(out)
			}
			return value
		}

		switch field.Kind(params.Kind) {
		case field.KindNoise:
			params.Noise.Scale = slider("Scale (noise frequency)", "%.2f", params.Noise.Scale, 0.5, 12)
			params.Noise.Strength = slider("Strength (max wind)", "%.3f", params.Noise.Strength, 0, 0.5)
			params.Noise.TimeSpeed = slider("Time speed (animation)", "%.2f", params.Noise.TimeSpeed, 0, 2)
			params.Noise.Seed = int64(slider("Seed", "%.0f", float64(params.Noise.Seed), 0, 99999))
		case field.KindVortex:
			params.Vortex.Strength = slider("Strength", "%.3f", params.Vortex.Strength, -0.5, 0.5)
		case field.KindUniform:
			params.Uniform[0] = slider("Wind X", "%+.3f", params.Uniform[0], -0.5, 0.5)
			params.Uniform[1] = slider("Wind Y", "%+.3f", params.Uniform[1], -0.5, 0.5)
		}

		// Buttons
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, toggleText(animating, "Stop", "Animate")) {
			animating = !animating
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset Time") {
			time = 0
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 260, Y: panelY, Width: 120, Height: 30}, toggleText(params.Filter == "bilinear", "Bilinear", "Nearest")) {
			if params.Filter == "bilinear" {
				params.Filter = "nearest"
			} else {
				params.Filter = "bilinear"
			}
			needsRegen = true
		}
		panelY += 45

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Random Seed") {
			params.Noise.Seed = int64(rl.GetRandomValue(0, 99999))
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			params = initial
			params.Uniform = append([]float64(nil), initial.Uniform...)
			time = 0
			needsRegen = true
		}
		panelY += 55

		// Output YAML
		snippet := fieldYAML(params)
		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		for _, line := range strings.Split(strings.TrimRight(snippet, "\n"), "\n") {
			rl.DrawText(line, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 16
		}

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(snippet)
		}

		rl.EndDrawing()
	}
}

// generate builds the previewed field from a config section.
func generate(fc config.FieldConfig, t float64) (*field.Grid, error) {
	filter, err := field.ParseFilter(fc.Filter)
	if err != nil {
		return nil, err
	}
	spec := field.Spec{
		Kind:   field.Kind(fc.Kind),
		Width:  fc.Width,
		Height: fc.Height,
		Filter: filter,
		Noise: field.NoiseParams{
			Seed:     fc.Noise.Seed,
			Scale:    fc.Noise.Scale,
			Strength: float32(fc.Noise.Strength),
		},
		VortexStrength: float32(fc.Vortex.Strength),
	}
	if len(fc.Uniform) == 2 {
		spec.Uniform = mgl32.Vec2{float32(fc.Uniform[0]), float32(fc.Uniform[1])}
	}
	return field.Generate(spec, t)
}

// fieldYAML renders the field section the way it appears in config.yaml.
func fieldYAML(fc config.FieldConfig) string {
	out, err := yaml.Marshal(map[string]config.FieldConfig{"field": fc})
	if err != nil {
		return err.Error()
	}
	return string(out)
}

// drawArrows draws a coarse grid of wind vectors over the preview.
func drawArrows(g *field.Grid) {
	const cells = 16
	peak := g.MaxMagnitude()
	if peak == 0 {
		return
	}
	step := float32(previewSize) / cells
	for j := 0; j < cells; j++ {
		for i := 0; i < cells; i++ {
			pos := mgl32.Vec2{(float32(i) + 0.5) / cells, (float32(j) + 0.5) / cells}
			v := g.Sample(pos).Mul(step * 0.45 / peak)
			sx := 10 + pos[0]*previewSize
			sy := 10 + (1-pos[1])*previewSize
			rl.DrawLineEx(
				rl.Vector2{X: sx, Y: sy},
				rl.Vector2{X: sx + v[0], Y: sy - v[1]},
				1.5, rl.Fade(rl.Black, 0.6),
			)
		}
	}
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
