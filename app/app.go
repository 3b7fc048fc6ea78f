// Package app wires the configuration, the simulation loop and telemetry into
// a runnable wind visualization. Hosts (the raylib viewer, the terminal viewer,
// headless runs) supply the clock and the render target.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/pthm-cable/gust/config"
	"github.com/pthm-cable/gust/field"
	"github.com/pthm-cable/gust/renderer"
	"github.com/pthm-cable/gust/sim"
	"github.com/pthm-cable/gust/systems"
	"github.com/pthm-cable/gust/telemetry"
)

// ErrNoSnapshotDir is returned by SaveSnapshot when no destination is configured.
var ErrNoSnapshotDir = errors.New("no snapshot directory configured")

// Options configure a run beyond what the config file holds.
type Options struct {
	Seed        int64  // particle seeding RNG; 0 keeps the config seed
	RunID       string // empty generates a UUID
	LogStats    bool   // log every stats window
	OutputDir   string // CSV logs, config copy and snapshots
	SnapshotDir string // snapshots when OutputDir is empty
	ResumePath  string // start from a saved snapshot
	Logger      *slog.Logger
}

// App owns one simulation and its telemetry.
type App struct {
	cfg    *config.Config
	opts   Options
	runID  string
	seed   int64
	logger *slog.Logger

	loop      *sim.Loop
	spec      field.Spec
	animator  *fieldAnimator
	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	output    *telemetry.OutputManager

	lastStats telemetry.WindowStats
	hasStats  bool

	// Sim time not yet applied to the field (inline animation only)
	pendingFieldTime float64
	animating        bool
	cancel           context.CancelFunc
	wg               sync.WaitGroup
}

// New builds an App on host. The field, particle grid and parameters come
// from cfg; a resume snapshot overrides the particle grid and positions.
func New(cfg *config.Config, host sim.Host, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger = logger.With("run_id", runID)

	spec, err := FieldSpec(cfg)
	if err != nil {
		return nil, err
	}
	grid, err := field.Generate(spec, 0)
	if err != nil {
		return nil, err
	}

	seed := cfg.Particles.Seed
	if opts.Seed != 0 {
		seed = opts.Seed
	}
	res := systems.Resolution{Width: cfg.Particles.Width, Height: cfg.Particles.Height}
	var seeds []mgl32.Vec2
	if opts.ResumePath != "" {
		snap, err := telemetry.LoadSnapshot(opts.ResumePath)
		if err != nil {
			return nil, fmt.Errorf("resume: %w", err)
		}
		res = snap.Resolution()
		seeds = snap.Seeds()
		if opts.Seed == 0 {
			seed = snap.Seed
		}
		logger.Info("resuming from snapshot",
			"path", opts.ResumePath,
			"generation", snap.Generation,
			"resolution", res.String(),
		)
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	if host.Allocator == nil {
		host.Allocator = systems.HeapAllocator{MaxTexels: cfg.Loop.MaxTexels}
	}

	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	loop, err := sim.New(host, sim.Options{
		Resolution: res,
		Seeds:      seeds,
		Seeding:    cfg.Particles.Seeding,
		Seed:       seed,
		Field:      grid,
		Params:     SimParams(cfg),
		Ramp:       Ramp(cfg),
		Perf:       perf,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		loop.Stop()
		return nil, err
	}
	if err := output.WriteConfig(cfg); err != nil {
		logger.Error("failed to write config", "error", err)
	}

	a := &App{
		cfg:       cfg,
		opts:      opts,
		runID:     runID,
		seed:      seed,
		logger:    logger,
		loop:      loop,
		spec:      spec,
		animator:  newFieldAnimator(spec, cfg.Field.Noise.TimeSpeed),
		collector: telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		perf:      perf,
		output:    output,
	}
	a.hookTelemetry()

	logger.Info("app initialized",
		"seed", seed,
		"field", string(spec.Kind),
		"field_size", fmt.Sprintf("%dx%d", spec.Width, spec.Height),
		"filter", spec.Filter.String(),
		"output_dir", output.Dir(),
	)
	return a, nil
}

// FieldSpec converts the field section of cfg into a generator spec.
func FieldSpec(cfg *config.Config) (field.Spec, error) {
	filter, err := field.ParseFilter(cfg.Field.Filter)
	if err != nil {
		return field.Spec{}, err
	}
	return field.Spec{
		Kind:    field.Kind(cfg.Field.Kind),
		Width:   cfg.Field.Width,
		Height:  cfg.Field.Height,
		Filter:  filter,
		Uniform: mgl32.Vec2(cfg.Derived.Uniform),
		Noise: field.NoiseParams{
			Seed:     cfg.Field.Noise.Seed,
			Scale:    cfg.Field.Noise.Scale,
			Strength: float32(cfg.Field.Noise.Strength),
		},
		VortexStrength: float32(cfg.Field.Vortex.Strength),
	}, nil
}

// SimParams returns the per-frame parameters configured in cfg.
func SimParams(cfg *config.Config) sim.Params {
	return sim.Params{
		Speed: cfg.Derived.Speed32,
		Render: renderer.RenderParams{
			TailLength:   cfg.Render.TailLength,
			TailFade:     float32(cfg.Render.TailFade),
			ParticleSize: float32(cfg.Render.ParticleSize),
			TrailSpacing: float32(cfg.Render.TrailSpacing),
		},
	}
}

// Ramp returns the speed color ramp configured in cfg.
func Ramp(cfg *config.Config) renderer.ColorRamp {
	return renderer.ColorRamp{
		Low:  mgl32.Vec3(cfg.Derived.LowSpeedColor),
		High: mgl32.Vec3(cfg.Derived.HighSpeedColor),
		Gain: float32(cfg.Render.SpeedGain),
	}
}

// Loop returns the simulation loop.
func (a *App) Loop() *sim.Loop { return a.loop }

// Config returns the run configuration.
func (a *App) Config() *config.Config { return a.cfg }

// Perf returns the step timing collector.
func (a *App) Perf() *telemetry.PerfCollector { return a.perf }

// RunID returns the run identifier.
func (a *App) RunID() string { return a.runID }

// Seed returns the seed the particles were scattered with.
func (a *App) Seed() int64 { return a.seed }

// FieldKind returns the generator of the bound field.
func (a *App) FieldKind() field.Kind { return a.spec.Kind }

// LastStats returns the most recent stats window, if one has been flushed.
func (a *App) LastStats() (telemetry.WindowStats, bool) {
	return a.lastStats, a.hasStats
}

// Reseed scatters the particles again at the current resolution.
func (a *App) Reseed() error {
	return a.loop.Reinitialize(a.loop.Resolution())
}

// SaveSnapshot writes the current particle state. Snapshots go to the output
// directory when one is set, otherwise to the snapshot directory.
func (a *App) SaveSnapshot() (string, error) {
	buf := a.loop.Current()
	if buf == nil {
		return "", sim.ErrStopped
	}
	snap := telemetry.NewSnapshot(buf, a.loop.Generation())
	snap.RunID = a.runID
	snap.Seed = a.seed
	snap.FieldVersion = a.loop.FieldVersion()

	if a.output != nil {
		return a.output.WriteSnapshot(snap)
	}
	if a.opts.SnapshotDir == "" {
		return "", ErrNoSnapshotDir
	}
	if err := os.MkdirAll(a.opts.SnapshotDir, 0755); err != nil {
		return "", fmt.Errorf("creating snapshot directory: %w", err)
	}
	path := filepath.Join(a.opts.SnapshotDir, fmt.Sprintf("snapshot_%06d.json", snap.Generation))
	if err := snap.Save(path); err != nil {
		return "", err
	}
	return path, nil
}

// Close stops the field animator and the loop and closes output files.
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()
	a.loop.Stop()
	return a.output.Close()
}
