package systems

import (
	"errors"
	"fmt"
)

// Initialization failures. All are fatal to the store instance.
var (
	ErrInvalidResolution = errors.New("non-positive particle resolution")
	ErrSeedMismatch      = errors.New("seed count does not match resolution")
	ErrAllocation        = errors.New("particle buffer allocation failed")
)

// Step discipline violations, reported host-side before any dispatch.
var (
	ErrNotInitialized     = errors.New("state store not initialized")
	ErrNotWriteTarget     = errors.New("buffer is not the store's write target")
	ErrSameBuffer         = errors.New("advection source and destination are the same buffer")
	ErrResolutionMismatch = errors.New("advection buffers differ in resolution")
	ErrNoField            = errors.New("no velocity field bound")
)

// InitializationError reports why a particle state store could not be set up.
type InitializationError struct {
	Op         string
	Resolution Resolution
	Err        error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("%s %dx%d: %v", e.Op, e.Resolution.Width, e.Resolution.Height, e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }
