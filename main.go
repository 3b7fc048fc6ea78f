package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gust/app"
	"github.com/pthm-cable/gust/config"
	"github.com/pthm-cable/gust/renderer"
	"github.com/pthm-cable/gust/sim"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, config copy and snapshots")
	resume := flag.String("resume", "", "Resume particle positions from a snapshot file")
	seed := flag.Int64("seed", 0, "Particle seeding RNG seed (0 = config value, then time-based)")
	maxSteps := flag.Int("max-steps", 0, "Stop after N steps (0 = unlimited)")
	framePath := flag.String("frame", "", "Headless: write the final frame to this PNG")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := app.Options{
		Seed:        *seed,
		LogStats:    *logStats,
		OutputDir:   *outputDir,
		SnapshotDir: *snapshotDir,
		ResumePath:  *resume,
		Logger:      logger,
	}

	if *headless {
		if err := runHeadless(ctx, cfg, opts, *maxSteps, *framePath); err != nil {
			slog.Error("headless run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Gust")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	v, err := app.NewViewer(ctx, cfg, opts)
	if err != nil {
		slog.Error("failed to start viewer", "error", err)
		os.Exit(1)
	}
	defer v.Close()

	for !rl.WindowShouldClose() && ctx.Err() == nil && !v.Stopped() {
		if err := v.Frame(ctx); err != nil {
			slog.Error("frame failed", "error", err)
			break
		}
		if *maxSteps > 0 && int(v.App().Loop().Generation()) >= *maxSteps {
			break
		}
	}
}

// runHeadless steps with the fixed config delta. With framePath set, every
// step is also rendered into a software framebuffer and the last one saved.
func runHeadless(ctx context.Context, cfg *config.Config, opts app.Options, maxSteps int, framePath string) error {
	host := sim.Host{Clock: sim.FixedClock{DT: cfg.Derived.FixedDT32}}

	var fb *renderer.Framebuffer
	if framePath != "" {
		fb = renderer.NewFramebuffer(cfg.Screen.Width, cfg.Screen.Height)
		fb.Clear = renderer.Opaque(cfg.Derived.Background)
		host.Target = fb
	}

	a, err := app.New(cfg, host, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Run(ctx, maxSteps); err != nil {
		return err
	}

	if fb != nil {
		if err := fb.SavePNG(framePath); err != nil {
			return err
		}
		slog.Info("frame saved", "path", framePath)
	}
	return nil
}
