package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/gust/camera"
	"github.com/pthm-cable/gust/field"
)

// RaylibTarget draws vertices into the current raylib frame.
// The caller owns BeginDrawing/EndDrawing; the target only brackets its
// own points with alpha blending.
type RaylibTarget struct {
	Camera *camera.Camera
}

// NewRaylibTarget creates a target that projects through cam.
func NewRaylibTarget(cam *camera.Camera) *RaylibTarget {
	return &RaylibTarget{Camera: cam}
}

// Begin enables src-alpha blending.
func (t *RaylibTarget) Begin() {
	rl.BeginBlendMode(rl.BlendAlpha)
}

// Draw renders each vertex as a Size x Size square scaled by the camera zoom.
func (t *RaylibTarget) Draw(vertices []Vertex) {
	zoom := t.Camera.Zoom
	for i := range vertices {
		v := &vertices[i]
		sx, sy := t.Camera.ClipToScreen(v.Clip)
		size := v.Size * zoom
		if !t.Camera.OnScreen(sx, sy, size) {
			continue
		}
		half := size / 2
		rl.DrawRectangleV(
			rl.Vector2{X: sx - half, Y: sy - half},
			rl.Vector2{X: size, Y: size},
			toRaylibColor(v.Color),
		)
	}
}

// End restores the default blend mode.
func (t *RaylibTarget) End() {
	rl.EndBlendMode()
}

func toRaylibColor(c mgl32.Vec4) color.RGBA {
	return color.RGBA{R: to8(c[0]), G: to8(c[1]), B: to8(c[2]), A: to8(c[3])}
}

// FieldOverlay shows the bound velocity field as a translucent texture.
// Red and green encode the direction, blue the magnitude relative to the
// strongest cell.
type FieldOverlay struct {
	tex        rl.Texture2D
	texW, texH int
	pixels     []color.RGBA

	Opacity     uint8
	initialized bool
}

// NewFieldOverlay creates an overlay; textures are created lazily on first Update.
func NewFieldOverlay() *FieldOverlay {
	return &FieldOverlay{Opacity: 96}
}

// Init creates the texture (must be called after raylib window is created).
func (o *FieldOverlay) Init(w, h int) {
	if o.initialized {
		o.Unload()
	}

	o.texW = w
	o.texH = h
	o.pixels = make([]color.RGBA, w*h)

	img := rl.GenImageColor(w, h, rl.Black)
	o.tex = rl.LoadTextureFromImage(img)
	rl.SetTextureFilter(o.tex, rl.FilterBilinear)
	rl.SetTextureWrap(o.tex, rl.WrapRepeat)
	rl.UnloadImage(img)

	o.initialized = true
}

// Update uploads g to the texture, recreating it if the field size changed.
func (o *FieldOverlay) Update(g *field.Grid) {
	if g == nil {
		return
	}
	if !o.initialized || g.Width != o.texW || g.Height != o.texH {
		o.Init(g.Width, g.Height)
	}

	EncodeField(g, o.pixels)
	rl.UpdateTexture(o.tex, o.pixels)
}

// Draw stretches the visible part of the field over the screen.
func (o *FieldOverlay) Draw(cam *camera.Camera) {
	if !o.initialized {
		return
	}

	span := 1 / cam.Zoom
	left := cam.Center[0] - span/2
	bottom := cam.Center[1] - span/2

	// Field rows grow upward, so flip the source vertically
	src := rl.Rectangle{
		X:      left * float32(o.texW),
		Y:      bottom * float32(o.texH),
		Width:  span * float32(o.texW),
		Height: -span * float32(o.texH),
	}
	dst := rl.Rectangle{X: 0, Y: 0, Width: cam.ViewportW, Height: cam.ViewportH}

	rl.BeginBlendMode(rl.BlendAlpha)
	rl.DrawTexturePro(o.tex, src, dst, rl.Vector2{}, 0, color.RGBA{R: 255, G: 255, B: 255, A: o.Opacity})
	rl.EndBlendMode()
}

// Unload frees GPU resources.
func (o *FieldOverlay) Unload() {
	if !o.initialized {
		return
	}
	rl.UnloadTexture(o.tex)
	o.initialized = false
}

// EncodeField writes one pixel per field cell into dst (len must be Width*Height).
func EncodeField(g *field.Grid, dst []color.RGBA) {
	peak := g.MaxMagnitude()
	if peak == 0 {
		peak = 1
	}
	for i := range dst {
		v := mgl32.Vec2{g.Data[i*2], g.Data[i*2+1]}.Mul(1 / peak)
		dst[i] = color.RGBA{
			R: to8(0.5 + 0.5*v[0]),
			G: to8(0.5 + 0.5*v[1]),
			B: to8(v.Len()),
			A: 255,
		}
	}
}
