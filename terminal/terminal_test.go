package terminal

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/gust/renderer"
)

func newScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(screen.Fini)
	screen.SetSize(w, h)
	return screen
}

func TestTargetSize(t *testing.T) {
	screen := newScreen(t, 80, 24)

	target := NewTarget(screen, mgl32.Vec3{})
	fb := target.Framebuffer()

	if fb.Width != 80 || fb.Height != 48 {
		t.Errorf("expected 80x48 pixels, got %dx%d", fb.Width, fb.Height)
	}

	target.StatusRows = 1
	target.Resize()
	if target.Framebuffer().Height != 46 {
		t.Errorf("expected 46 pixel rows with a status line, got %d", target.Framebuffer().Height)
	}
}

func TestTargetHalfBlocks(t *testing.T) {
	screen := newScreen(t, 4, 2)
	target := NewTarget(screen, mgl32.Vec3{0, 0, 1})

	// A red pixel in the top-left pixel row, the bottom-left of cell (0,0)
	// keeps the blue background
	v := renderer.Vertex{Clip: mgl32.Vec2{-0.875, 0.875}, Color: mgl32.Vec4{1, 0, 0, 1}, Size: 1}
	target.Begin()
	target.Draw([]renderer.Vertex{v})
	target.End()

	mainc, _, style, _ := screen.GetContent(0, 0)
	if mainc != halfBlock {
		t.Fatalf("expected half block, got %q", mainc)
	}
	fg, bg, _ := style.Decompose()
	if fg != tcell.NewRGBColor(255, 0, 0) {
		t.Errorf("expected red foreground, got %v", fg)
	}
	if bg != tcell.NewRGBColor(0, 0, 255) {
		t.Errorf("expected blue background, got %v", bg)
	}

	// Untouched cell shows background in both halves
	_, _, style, _ = screen.GetContent(3, 1)
	fg, bg, _ = style.Decompose()
	if fg != bg || bg != tcell.NewRGBColor(0, 0, 255) {
		t.Errorf("expected background-only cell, got fg=%v bg=%v", fg, bg)
	}
}

func TestTargetFollowsResize(t *testing.T) {
	screen := newScreen(t, 10, 5)
	target := NewTarget(screen, mgl32.Vec3{})

	screen.SetSize(20, 8)
	target.Begin()

	if target.Framebuffer().Width != 20 || target.Framebuffer().Height != 16 {
		t.Errorf("expected 20x16 after resize, got %dx%d", target.Framebuffer().Width, target.Framebuffer().Height)
	}
}

func TestDrawTextClips(t *testing.T) {
	screen := newScreen(t, 5, 1)

	DrawText(screen, 2, 0, "hello", tcell.StyleDefault)

	for x, want := range []rune{'h', 'e', 'l'} {
		got, _, _, _ := screen.GetContent(x+2, 0)
		if got != want {
			t.Errorf("cell %d: expected %q, got %q", x+2, want, got)
		}
	}
}

func TestColor(t *testing.T) {
	if got := Color(mgl32.Vec4{2, -1, 0.5, 1}); got != tcell.NewRGBColor(255, 0, 128) {
		t.Errorf("expected clamped color, got %v", got)
	}
}
