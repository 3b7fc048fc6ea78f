package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	xdraw "golang.org/x/image/draw"
)

// Framebuffer is a software color target. Points are drawn as squares of
// Size pixels and blended like glBlendFunc(SRC_ALPHA, ONE_MINUS_SRC_ALPHA).
// Clip y = -1 is the bottom row, as on a GPU.
type Framebuffer struct {
	Width, Height int
	Pix           []mgl32.Vec4 // row-major, top row first, RGBA in [0,1]
	Clear         mgl32.Vec4
}

// NewFramebuffer allocates a framebuffer cleared to transparent black.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		Pix:    make([]mgl32.Vec4, width*height),
	}
}

// Begin clears the framebuffer.
func (f *Framebuffer) Begin() {
	for i := range f.Pix {
		f.Pix[i] = f.Clear
	}
}

// Draw blends all vertices in order.
func (f *Framebuffer) Draw(vertices []Vertex) {
	for i := range vertices {
		f.DrawPoint(vertices[i])
	}
}

// End is a no-op for the software target.
func (f *Framebuffer) End() {}

// DrawPoint blends one point sprite.
func (f *Framebuffer) DrawPoint(v Vertex) {
	cx, cy := f.ClipToPixel(v.Clip)
	half := v.Size / 2

	x0 := int(math.Floor(float64(cx - half)))
	x1 := int(math.Ceil(float64(cx + half)))
	y0 := int(math.Floor(float64(cy - half)))
	y1 := int(math.Ceil(float64(cy + half)))
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}

	x0, x1 = max(x0, 0), min(x1, f.Width)
	y0, y1 = max(y0, 0), min(y1, f.Height)

	a := v.Color[3]
	src := v.Color.Vec3()
	for y := y0; y < y1; y++ {
		row := y * f.Width
		for x := x0; x < x1; x++ {
			dst := f.Pix[row+x]
			rgb := src.Mul(a).Add(dst.Vec3().Mul(1 - a))
			f.Pix[row+x] = rgb.Vec4(a + dst[3]*(1-a))
		}
	}
}

// ClipToPixel maps clip space to pixel coordinates.
func (f *Framebuffer) ClipToPixel(clip mgl32.Vec2) (float32, float32) {
	x := (clip[0] + 1) * 0.5 * float32(f.Width)
	y := (1 - (clip[1]+1)*0.5) * float32(f.Height)
	return x, y
}

// At returns the pixel at (x, y).
func (f *Framebuffer) At(x, y int) mgl32.Vec4 {
	return f.Pix[y*f.Width+x]
}

// Image converts the framebuffer to an 8-bit non-premultiplied image.
func (f *Framebuffer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			p := f.Pix[y*f.Width+x]
			img.SetNRGBA(x, y, color.NRGBA{
				R: to8(p[0]),
				G: to8(p[1]),
				B: to8(p[2]),
				A: to8(p[3]),
			})
		}
	}
	return img
}

// WritePNG encodes the framebuffer as PNG, scaled to width x height.
// Scaling is nearest-neighbour so point sprites keep hard edges.
func (f *Framebuffer) WritePNG(w io.Writer, width, height int) error {
	src := f.Image()
	var img image.Image = src
	if width != f.Width || height != f.Height {
		if width <= 0 || height <= 0 {
			return fmt.Errorf("invalid output size %dx%d", width, height)
		}
		dst := image.NewNRGBA(image.Rect(0, 0, width, height))
		xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
		img = dst
	}
	return png.Encode(w, img)
}

// SavePNG writes the framebuffer to path at its own size.
func (f *Framebuffer) SavePNG(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := f.WritePNG(file, f.Width, f.Height); err != nil {
		file.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return file.Close()
}

// Opaque returns rgb as a fully opaque clear color.
func Opaque(rgb [3]float32) mgl32.Vec4 {
	return mgl32.Vec4{rgb[0], rgb[1], rgb[2], 1}
}

// to8 quantizes a [0,1] channel.
func to8(v float32) uint8 {
	return uint8(mgl32.Clamp(v, 0, 1)*255 + 0.5)
}
