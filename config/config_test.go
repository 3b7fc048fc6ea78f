package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}

	if cfg.Derived.ParticleCount != cfg.Particles.Width*cfg.Particles.Height {
		t.Errorf("particle count %d does not match %dx%d",
			cfg.Derived.ParticleCount, cfg.Particles.Width, cfg.Particles.Height)
	}
	if cfg.Render.TailFade <= 0 || cfg.Render.TailFade >= 1 {
		t.Errorf("default tail_fade %f outside (0,1)", cfg.Render.TailFade)
	}
	want := [3]float32{0, 0.4, 1}
	if cfg.Derived.LowSpeedColor != want {
		t.Errorf("expected low speed color %v, got %v", want, cfg.Derived.LowSpeedColor)
	}
	if cfg.Render.SpeedGain != 2.0 {
		t.Errorf("expected speed gain 2.0, got %f", cfg.Render.SpeedGain)
	}
}

func TestLoadOverlaysUserFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("particles:\n  width: 2\n  height: 1\nadvection:\n  speed: 0.5\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("loading overlay: %v", err)
	}

	if cfg.Derived.ParticleCount != 2 {
		t.Errorf("expected 2 particles, got %d", cfg.Derived.ParticleCount)
	}
	if cfg.Derived.Speed32 != 0.5 {
		t.Errorf("expected speed 0.5, got %f", cfg.Derived.Speed32)
	}
	// Fields absent from the overlay keep their defaults
	if cfg.Render.TailLength != 4 {
		t.Errorf("expected default tail_length 4, got %d", cfg.Render.TailLength)
	}
}

func TestLoadRejectsBadColor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("render:\n  low_speed_color: [1.0, 0.0]\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for 2-component color")
	}
}

func TestWriteYAMLRoundtrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Render.TailLength = 7

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("writing yaml: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reloading: %v", err)
	}
	if reloaded.Render.TailLength != 7 {
		t.Errorf("expected tail_length 7 after reload, got %d", reloaded.Render.TailLength)
	}
}
