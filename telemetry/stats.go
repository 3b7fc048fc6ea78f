package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/gust/systems"
)

// WindowStats holds aggregated statistics for a window of steps.
type WindowStats struct {
	WindowStartStep uint64  `csv:"-"`
	WindowEndStep   uint64  `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	Particles    int `csv:"particles"`
	Steps        int `csv:"steps"`
	SkippedSteps int `csv:"skipped"`

	// Teleports during the window and per particle-step
	Wrapped  int     `csv:"wrapped"`
	WrapRate float64 `csv:"wrap_rate"`

	// Speed distribution (sampled at window end)
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedP10  float64 `csv:"speed_p10"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`
	SpeedMax  float64 `csv:"speed_max"`

	// Non-finite positions (NaN propagation is not trapped by the kernel)
	NonFinite int `csv:"non_finite"`

	FieldVersion uint64 `csv:"field_version"`
}

// SpeedStats summarizes a set of particle speeds.
type SpeedStats struct {
	Mean, Std     float64
	P10, P50, P90 float64
	Max           float64
}

// ComputeSpeedStats calculates mean, sample std and empirical quantiles.
// values is sorted in place.
func ComputeSpeedStats(values []float64) SpeedStats {
	n := len(values)
	if n == 0 {
		return SpeedStats{}
	}

	sort.Float64s(values)

	s := SpeedStats{
		Mean: stat.Mean(values, nil),
		P10:  stat.Quantile(0.10, stat.Empirical, values, nil),
		P50:  stat.Quantile(0.50, stat.Empirical, values, nil),
		P90:  stat.Quantile(0.90, stat.Empirical, values, nil),
		Max:  values[n-1],
	}
	if n > 1 {
		s.Std = stat.StdDev(values, nil)
	}
	return s
}

// SpeedSamples appends the finite speeds of buf to dst and returns it
// along with the number of particles whose state is not finite.
func SpeedSamples(buf *systems.StateBuffer, dst []float64) ([]float64, int) {
	dst = dst[:0]
	nonFinite := 0
	for i := range buf.Texels {
		t := &buf.Texels[i]
		speed := float64(t.Vel.Len())
		if !finite(float64(t.Pos[0])) || !finite(float64(t.Pos[1])) || !finite(speed) {
			nonFinite++
			continue
		}
		dst = append(dst, speed)
	}
	return dst, nonFinite
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("window_start", s.WindowStartStep),
		slog.Uint64("window_end", s.WindowEndStep),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("particles", s.Particles),
		slog.Int("steps", s.Steps),
		slog.Int("skipped", s.SkippedSteps),
		slog.Int("wrapped", s.Wrapped),
		slog.Float64("wrap_rate", s.WrapRate),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_std", s.SpeedStd),
		slog.Float64("speed_p10", s.SpeedP10),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("speed_max", s.SpeedMax),
		slog.Int("non_finite", s.NonFinite),
		slog.Uint64("field_version", s.FieldVersion),
	)
}
