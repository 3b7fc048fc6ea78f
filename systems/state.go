package systems

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Texel is one particle: a position in [0,1]x[0,1] and the velocity it moved with.
// A particle's identity is its texel index, which never changes.
type Texel struct {
	Pos mgl32.Vec2
	Vel mgl32.Vec2
}

// Resolution is the particle grid size. Population = Width * Height.
type Resolution struct {
	Width  int
	Height int
}

// Count returns the number of particles.
func (r Resolution) Count() int {
	return r.Width * r.Height
}

// Valid reports whether both dimensions are positive.
func (r Resolution) Valid() bool {
	return r.Width > 0 && r.Height > 0
}

// Index returns the texel index of grid coordinate (x, y).
func (r Resolution) Index(x, y int) int {
	return y*r.Width + x
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// StateBuffer is one half of the double-buffered particle state.
type StateBuffer struct {
	ID         int // 0 = A, 1 = B
	Resolution Resolution
	Texels     []Texel
}

// Allocator provides backing storage for state buffers.
// Hosts with a bounded surface implement this to report exhaustion.
type Allocator interface {
	Allocate(res Resolution) ([]Texel, error)
	Release(texels []Texel)
}

// HeapAllocator allocates buffers on the Go heap.
// MaxTexels > 0 caps the size of a single buffer.
type HeapAllocator struct {
	MaxTexels int
}

// Allocate returns a zeroed texel slice.
func (a HeapAllocator) Allocate(res Resolution) ([]Texel, error) {
	n := res.Count()
	if a.MaxTexels > 0 && n > a.MaxTexels {
		return nil, fmt.Errorf("%w: %d texels exceeds budget of %d", ErrAllocation, n, a.MaxTexels)
	}
	return make([]Texel, n), nil
}

// Release is a no-op; the garbage collector reclaims heap buffers.
func (HeapAllocator) Release([]Texel) {}

// StateStore owns the two particle buffers and which one is current.
// Exactly one buffer is current (readable) and the other is the write target;
// AdvanceTo swaps the roles. A buffer is never read and written in one step.
type StateStore struct {
	alloc   Allocator
	buffers [2]*StateBuffer
	current int
	gen     uint64
}

// NewStateStore creates an empty store. A nil allocator uses the heap.
func NewStateStore(alloc Allocator) *StateStore {
	if alloc == nil {
		alloc = HeapAllocator{}
	}
	return &StateStore{alloc: alloc}
}

// Initialize allocates both buffers and fills buffer A with seed positions and zero velocity.
// Buffer A becomes current and buffer B the write target.
// Calling Initialize on an initialized store re-initializes it.
func (s *StateStore) Initialize(res Resolution, seeds []mgl32.Vec2) error {
	if !res.Valid() {
		return &InitializationError{Op: "initialize", Resolution: res, Err: ErrInvalidResolution}
	}
	if len(seeds) != res.Count() {
		return &InitializationError{
			Op:         "initialize",
			Resolution: res,
			Err:        fmt.Errorf("%w: got %d seeds for %d particles", ErrSeedMismatch, len(seeds), res.Count()),
		}
	}

	s.Reset()

	a, err := s.alloc.Allocate(res)
	if err != nil {
		return &InitializationError{Op: "allocate buffer A", Resolution: res, Err: err}
	}
	b, err := s.alloc.Allocate(res)
	if err != nil {
		s.alloc.Release(a)
		return &InitializationError{Op: "allocate buffer B", Resolution: res, Err: err}
	}
	if len(a) != res.Count() || len(b) != res.Count() {
		s.alloc.Release(a)
		s.alloc.Release(b)
		return &InitializationError{Op: "allocate", Resolution: res, Err: ErrAllocation}
	}

	for i, p := range seeds {
		a[i] = Texel{Pos: p}
	}

	s.buffers[0] = &StateBuffer{ID: 0, Resolution: res, Texels: a}
	s.buffers[1] = &StateBuffer{ID: 1, Resolution: res, Texels: b}
	s.current = 0
	s.gen = 0
	return nil
}

// Initialized reports whether the store holds buffers.
func (s *StateStore) Initialized() bool {
	return s.buffers[0] != nil
}

// Resolution returns the particle grid size, or zero before Initialize.
func (s *StateStore) Resolution() Resolution {
	if !s.Initialized() {
		return Resolution{}
	}
	return s.buffers[0].Resolution
}

// Current returns the buffer safe to read this frame.
func (s *StateStore) Current() *StateBuffer {
	return s.buffers[s.current]
}

// Next returns the buffer the next advection writes into.
func (s *StateStore) Next() *StateBuffer {
	return s.buffers[1-s.current]
}

// AdvanceTo commits next as current; the old current becomes the write target.
// next must be the store's write target.
func (s *StateStore) AdvanceTo(next *StateBuffer) error {
	if !s.Initialized() {
		return ErrNotInitialized
	}
	if next == nil || next != s.buffers[1-s.current] {
		return ErrNotWriteTarget
	}
	s.current = 1 - s.current
	s.gen++
	return nil
}

// Generation returns the number of committed advances since Initialize.
func (s *StateStore) Generation() uint64 {
	return s.gen
}

// Reset releases both buffers. The store must be initialized again before use.
func (s *StateStore) Reset() {
	for i, b := range s.buffers {
		if b != nil {
			s.alloc.Release(b.Texels)
			s.buffers[i] = nil
		}
	}
	s.current = 0
	s.gen = 0
}
