// Package config provides configuration loading and access for the wind visualization.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all visualization configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Particles ParticlesConfig `yaml:"particles"`
	Advection AdvectionConfig `yaml:"advection"`
	Render    RenderConfig    `yaml:"render"`
	Field     FieldConfig     `yaml:"field"`
	Loop      LoopConfig      `yaml:"loop"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// ParticlesConfig sizes the particle population.
// The population is Width*Height and is fixed for the lifetime of a simulation.
type ParticlesConfig struct {
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Seed    int64  `yaml:"seed"`    // 0 = time-based
	Seeding string `yaml:"seeding"` // "random" or "grid"
}

// AdvectionConfig holds integration parameters.
type AdvectionConfig struct {
	Speed float64 `yaml:"speed"` // Scale applied to sampled wind vectors
}

// RenderConfig holds particle drawing parameters.
type RenderConfig struct {
	TailLength     int       `yaml:"tail_length"`   // Trailing instances per particle
	TailFade       float64   `yaml:"tail_fade"`     // Alpha = tail_fade^k, in (0,1)
	ParticleSize   float64   `yaml:"particle_size"` // Point size in pixels
	TrailSpacing   float64   `yaml:"trail_spacing"` // Offset of instance k along -velocity (0 = stacked)
	SpeedGain      float64   `yaml:"speed_gain"`    // Speed multiplier before smoothstep
	LowSpeedColor  []float64 `yaml:"low_speed_color"`
	HighSpeedColor []float64 `yaml:"high_speed_color"`
	Background     []float64 `yaml:"background"`
}

// FieldConfig selects and parameterizes the demo velocity field.
type FieldConfig struct {
	Kind    string       `yaml:"kind"`   // "uniform", "noise" or "vortex"
	Width   int          `yaml:"width"`  // Field texture width in texels
	Height  int          `yaml:"height"` // Field texture height in texels
	Filter  string       `yaml:"filter"` // "nearest" or "bilinear"
	Uniform []float64    `yaml:"uniform"`
	Noise   NoiseConfig  `yaml:"noise"`
	Vortex  VortexConfig `yaml:"vortex"`
}

// NoiseConfig holds simplex noise field parameters.
type NoiseConfig struct {
	Seed      int64   `yaml:"seed"`
	Scale     float64 `yaml:"scale"`      // Noise frequency over the unit square
	Strength  float64 `yaml:"strength"`   // Max wind magnitude
	TimeSpeed float64 `yaml:"time_speed"` // Noise animation speed (0 = static)
}

// VortexConfig holds rotational field parameters.
type VortexConfig struct {
	Strength float64 `yaml:"strength"`
}

// LoopConfig holds frame loop parameters.
type LoopConfig struct {
	FixedDT   float64 `yaml:"fixed_dt"`   // Headless step size in seconds
	MaxTexels int     `yaml:"max_texels"` // Allocation budget per buffer (0 = unlimited)
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow int `yaml:"stats_window"` // Steps per stats window
	PerfWindow  int `yaml:"perf_window"`  // Steps averaged by the perf collector
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ParticleCount  int
	Speed32        float32
	FixedDT32      float32
	LowSpeedColor  [3]float32
	HighSpeedColor [3]float32
	Background     [3]float32
	Uniform        [2]float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() error {
	c.Derived.ParticleCount = c.Particles.Width * c.Particles.Height
	c.Derived.Speed32 = float32(c.Advection.Speed)
	c.Derived.FixedDT32 = float32(c.Loop.FixedDT)

	var err error
	if c.Derived.LowSpeedColor, err = rgb("render.low_speed_color", c.Render.LowSpeedColor); err != nil {
		return err
	}
	if c.Derived.HighSpeedColor, err = rgb("render.high_speed_color", c.Render.HighSpeedColor); err != nil {
		return err
	}
	if c.Derived.Background, err = rgb("render.background", c.Render.Background); err != nil {
		return err
	}

	if len(c.Field.Uniform) != 2 {
		return fmt.Errorf("field.uniform: expected 2 components, got %d", len(c.Field.Uniform))
	}
	c.Derived.Uniform = [2]float32{float32(c.Field.Uniform[0]), float32(c.Field.Uniform[1])}

	return nil
}

// rgb converts a 3-element YAML list to a float32 triple.
func rgb(name string, v []float64) ([3]float32, error) {
	if len(v) != 3 {
		return [3]float32{}, fmt.Errorf("%s: expected 3 components, got %d", name, len(v))
	}
	return [3]float32{float32(v[0]), float32(v[1]), float32(v[2])}, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
