// Terminal wind viewer - draws the particles with half-block characters.
//
// Usage: go run ./cmd/windterm [-config config.yaml] [-particles 64] [-snapshot-dir snapshots]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/gust/app"
	"github.com/pthm-cable/gust/config"
	"github.com/pthm-cable/gust/sim"
	"github.com/pthm-cable/gust/terminal"
)

const frameInterval = 33 * time.Millisecond // ~30 FPS

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	particles := flag.Int("particles", 64, "Particle grid side (0 = config value)")
	size := flag.Float64("size", 1.5, "Particle size in half-cell pixels (0 = config value)")
	logPath := flag.String("log", "", "Write logs to this file (the screen is busy)")
	snapshotDir := flag.String("snapshot-dir", "snapshots", "Directory for snapshot files (S key)")
	flag.Parse()

	var logOut io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.Create(*logPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	logger := slog.New(slog.NewJSONHandler(logOut, nil))

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *particles > 0 {
		cfg.Particles.Width = *particles
		cfg.Particles.Height = *particles
	}
	if *size > 0 {
		cfg.Render.ParticleSize = *size
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init screen: %v\n", err)
		os.Exit(1)
	}

	err = run(screen, cfg, app.Options{SnapshotDir: *snapshotDir, Logger: logger})
	screen.Fini()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(screen tcell.Screen, cfg *config.Config, opts app.Options) error {
	target := terminal.NewTarget(screen, mgl32.Vec3(cfg.Derived.Background))
	target.StatusRows = 1

	a, err := app.New(cfg, sim.Host{Clock: sim.NewWallClock(), Target: target}, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.StartAnimator(ctx)

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	loop := a.Loop()
	status := tcell.StyleDefault.Foreground(tcell.ColorLightGray).Background(tcell.ColorBlack)
	lastFrame := time.Now()

	for {
		select {
		case ev := <-eventChan:
			if !handleInput(ev, a, screen, opts.Logger) {
				return nil
			}

		case now := <-ticker.C:
			var err error
			if loop.Paused() {
				err = loop.Redraw()
			} else {
				err = loop.Frame(ctx)
			}
			if err != nil {
				return err
			}

			fps := 0.0
			if d := now.Sub(lastFrame); d > 0 {
				fps = float64(time.Second) / float64(d)
			}
			lastFrame = now

			_, rows := screen.Size()
			line := fmt.Sprintf(" gen %d | %d particles | wrapped %d | field %s v%d | %.0f fps | [space] pause [r] reseed [s] snapshot [+/-] speed [q] quit",
				loop.Generation(), loop.Resolution().Count(), loop.LastStats().Wrapped,
				a.FieldKind(), loop.FieldVersion(), fps)
			if loop.Paused() {
				line = " PAUSED |" + line
			}
			clearRow(screen, rows-1, status)
			terminal.DrawText(screen, 0, rows-1, line, status)
			screen.Show()
		}
	}
}

// handleInput returns false when the viewer should quit.
func handleInput(ev tcell.Event, a *app.App, screen tcell.Screen, logger *slog.Logger) bool {
	loop := a.Loop()
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}
		switch ev.Rune() {
		case 'q':
			return false
		case ' ':
			if loop.Paused() {
				loop.Resume()
			} else {
				loop.Pause()
			}
		case 'r':
			if err := a.Reseed(); err != nil {
				logger.Error("reseed failed", "error", err)
			}
		case 's':
			path, err := a.SaveSnapshot()
			if err != nil {
				logger.Error("snapshot failed", "error", err)
				break
			}
			logger.Info("snapshot saved", "path", path, "generation", loop.Generation())
		case '+', '=':
			scaleSpeed(loop, 1.25, logger)
		case '-':
			scaleSpeed(loop, 0.8, logger)
		}

	case *tcell.EventResize:
		screen.Sync()
	}
	return true
}

func scaleSpeed(loop *sim.Loop, factor float32, logger *slog.Logger) {
	p := loop.Params()
	p.Speed *= factor
	if err := loop.SetParams(p); err != nil {
		logger.Warn("params rejected", "error", err)
	}
}

func clearRow(screen tcell.Screen, y int, style tcell.Style) {
	w, _ := screen.Size()
	for x := 0; x < w; x++ {
		screen.SetContent(x, y, ' ', nil, style)
	}
}
