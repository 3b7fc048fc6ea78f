// Shader debug tool - compiles the WGSL kernels to SPIR-V and renders
// reference frames with the CPU passes for comparison against a GPU backend.
//
// Usage: go run ./cmd/shaderdebug -out debug -frames 4 -steps 30
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pthm-cable/gust/app"
	"github.com/pthm-cable/gust/config"
	"github.com/pthm-cable/gust/renderer"
	"github.com/pthm-cable/gust/shaders"
	"github.com/pthm-cable/gust/sim"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outDir := flag.String("out", "debug", "Output directory")
	frames := flag.Int("frames", 4, "Reference frames to write (0 = only compile)")
	steps := flag.Int("steps", 30, "Steps between reference frames")
	width := flag.Int("width", 256, "Render width")
	height := flag.Int("height", 256, "Render height")
	scale := flag.Int("scale", 2, "PNG upscale factor")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create %s: %v\n", *outDir, err)
		os.Exit(1)
	}

	failed := false
	for _, name := range shaders.Names() {
		spirv, err := shaders.CompileBytes(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			failed = true
			continue
		}
		path := filepath.Join(*outDir, name+".spv")
		if err := os.WriteFile(path, spirv, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("Compiled %s: %s (%d bytes)\n", name, path, len(spirv))
	}

	if *frames > 0 {
		if err := renderFrames(*configPath, *outDir, *frames, *steps, *width, *height, *scale, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render frames: %v\n", err)
			os.Exit(1)
		}
	}

	if failed {
		os.Exit(1)
	}
}

// renderFrames steps a headless simulation into a framebuffer and writes one
// PNG every steps steps.
func renderFrames(configPath, outDir string, frames, steps, width, height, scale int, logger *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	fb := renderer.NewFramebuffer(width, height)
	fb.Clear = renderer.Opaque(cfg.Derived.Background)

	a, err := app.New(cfg, sim.Host{Clock: sim.FixedClock{DT: cfg.Derived.FixedDT32}, Target: fb}, app.Options{Logger: logger})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	for i := 0; i < frames; i++ {
		if err := a.Run(ctx, (i+1)*steps); err != nil {
			return err
		}

		path := filepath.Join(outDir, fmt.Sprintf("frame_%03d.png", i))
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := fb.WritePNG(f, width*scale, height*scale); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("Frame %d (generation %d): %s\n", i, a.Loop().Generation(), path)
	}
	return nil
}
