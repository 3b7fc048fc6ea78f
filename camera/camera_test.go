package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 0.01
}

func TestNew(t *testing.T) {
	cam := New(1280, 720)

	// Should be centered on the domain
	if cam.Center != (mgl32.Vec2{0.5, 0.5}) {
		t.Errorf("expected camera at (0.5, 0.5), got %v", cam.Center)
	}
	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom 1.0, got %f", cam.Zoom)
	}
}

func TestNormToScreenCorners(t *testing.T) {
	cam := New(1280, 720)

	testCases := []struct {
		p      mgl32.Vec2
		sx, sy float32
	}{
		{mgl32.Vec2{0.5, 0.5}, 640, 360}, // center
		{mgl32.Vec2{0, 0}, 0, 720},       // bottom-left of domain
		{mgl32.Vec2{1, 1}, 1280, 0},      // top-right of domain
	}

	for _, tc := range testCases {
		sx, sy := cam.NormToScreen(tc.p)
		if !near(sx, tc.sx) || !near(sy, tc.sy) {
			t.Errorf("NormToScreen(%v) = (%f,%f), want (%f,%f)", tc.p, sx, sy, tc.sx, tc.sy)
		}
	}
}

func TestClipToScreenMatchesNorm(t *testing.T) {
	cam := New(800, 600)

	sx, sy := cam.ClipToScreen(mgl32.Vec2{0.2, -0.4})
	nx, ny := cam.NormToScreen(mgl32.Vec2{0.6, 0.3})
	if !near(sx, nx) || !near(sy, ny) {
		t.Errorf("clip and norm disagree: (%f,%f) vs (%f,%f)", sx, sy, nx, ny)
	}
}

func TestScreenToNormRoundtrip(t *testing.T) {
	cam := New(1280, 720)
	cam.SetZoom(2)
	cam.Center = mgl32.Vec2{0.1, 0.9}

	testCases := []struct{ sx, sy float32 }{
		{640, 360},  // center
		{100, 100},  // top-left
		{1200, 600}, // near bottom-right
	}

	for _, tc := range testCases {
		p := cam.ScreenToNorm(tc.sx, tc.sy)
		sx, sy := cam.NormToScreen(p)
		if !near(sx, tc.sx) || !near(sy, tc.sy) {
			t.Errorf("roundtrip failed: (%f,%f) -> %v -> (%f,%f)", tc.sx, tc.sy, p, sx, sy)
		}
	}
}

func TestToroidalWrap(t *testing.T) {
	cam := New(1000, 1000)
	cam.SetZoom(4)
	cam.Center = mgl32.Vec2{0.02, 0.5}

	// A particle at the right edge of the domain is just left of the camera
	sx, _ := cam.NormToScreen(mgl32.Vec2{0.98, 0.5})
	if sx >= 500 {
		t.Errorf("expected particle on left of screen, got x=%f", sx)
	}
}

func TestPanWraps(t *testing.T) {
	cam := New(1000, 1000)
	cam.Center = mgl32.Vec2{0.1, 0.5}

	// Pan left should wrap to right side of the domain
	cam.Pan(-200, 0)

	if !near(cam.Center[0], 0.9) {
		t.Errorf("expected X to wrap to 0.9, got %f", cam.Center[0])
	}

	// Screen down is domain down
	cam.Pan(0, 100)
	if !near(cam.Center[1], 0.4) {
		t.Errorf("expected Y 0.4 after panning down, got %f", cam.Center[1])
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(1280, 720)

	cam.SetZoom(0.1) // Below min
	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom clamped to 1.0, got %f", cam.Zoom)
	}

	cam.ZoomBy(100) // Above max
	if cam.Zoom != 8.0 {
		t.Errorf("expected zoom clamped to 8.0, got %f", cam.Zoom)
	}
}

func TestOnScreen(t *testing.T) {
	cam := New(1280, 720)

	if !cam.OnScreen(640, 360, 0) {
		t.Error("center should be visible")
	}
	if cam.OnScreen(-50, 360, 10) {
		t.Error("far point should not be visible")
	}
	if !cam.OnScreen(-5, 360, 10) {
		t.Error("edge point within margin should be visible")
	}
}

func TestReset(t *testing.T) {
	cam := New(1280, 720)
	cam.Center = mgl32.Vec2{0.2, 0.2}
	cam.Zoom = 2.5

	cam.Reset()

	if cam.Center != (mgl32.Vec2{0.5, 0.5}) {
		t.Errorf("expected position (0.5, 0.5), got %v", cam.Center)
	}
	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom 1.0, got %f", cam.Zoom)
	}
}
