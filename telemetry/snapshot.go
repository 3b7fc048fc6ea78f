package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/gust/systems"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// ErrBadSnapshot is returned when a loaded snapshot is inconsistent.
var ErrBadSnapshot = errors.New("bad snapshot")

// Snapshot holds the particle state of one buffer so a run can be resumed.
// Velocities are informational: the next step resamples them from the field.
type Snapshot struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id,omitempty"`
	Seed    int64  `json:"seed"`

	Width  int `json:"width"`
	Height int `json:"height"`

	Generation   uint64 `json:"generation"`
	FieldVersion uint64 `json:"field_version"`

	Particles []ParticleState `json:"particles"`
}

// ParticleState holds one texel.
type ParticleState struct {
	X    float32 `json:"x"`
	Y    float32 `json:"y"`
	VelX float32 `json:"vel_x"`
	VelY float32 `json:"vel_y"`
}

// NewSnapshot copies buf into a snapshot.
func NewSnapshot(buf *systems.StateBuffer, generation uint64) *Snapshot {
	snap := &Snapshot{
		Version:    SnapshotVersion,
		Width:      buf.Resolution.Width,
		Height:     buf.Resolution.Height,
		Generation: generation,
		Particles:  make([]ParticleState, len(buf.Texels)),
	}
	for i, t := range buf.Texels {
		snap.Particles[i] = ParticleState{X: t.Pos[0], Y: t.Pos[1], VelX: t.Vel[0], VelY: t.Vel[1]}
	}
	return snap
}

// Resolution returns the particle grid size of the snapshot.
func (s *Snapshot) Resolution() systems.Resolution {
	return systems.Resolution{Width: s.Width, Height: s.Height}
}

// Seeds returns the particle positions, suitable for StateStore.Initialize.
func (s *Snapshot) Seeds() []mgl32.Vec2 {
	seeds := make([]mgl32.Vec2, len(s.Particles))
	for i, p := range s.Particles {
		seeds[i] = mgl32.Vec2{p.X, p.Y}
	}
	return seeds
}

// Validate checks version and particle count.
func (s *Snapshot) Validate() error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("%w: version %d, want %d", ErrBadSnapshot, s.Version, SnapshotVersion)
	}
	if !s.Resolution().Valid() {
		return fmt.Errorf("%w: resolution %s", ErrBadSnapshot, s.Resolution())
	}
	if len(s.Particles) != s.Resolution().Count() {
		return fmt.Errorf("%w: %d particles for resolution %s", ErrBadSnapshot, len(s.Particles), s.Resolution())
	}
	return nil
}

// Save writes the snapshot as indented JSON.
// Non-finite positions cannot be encoded and make Save fail.
func (s *Snapshot) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads and validates a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}

	return &snapshot, nil
}
