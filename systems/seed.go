package systems

import (
	"fmt"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
)

// Seeding strategies.
const (
	SeedingRandom = "random"
	SeedingGrid   = "grid"
)

// RandomSeeds scatters one position per particle uniformly over [0,1)x[0,1).
// This is the only randomness in the simulation.
func RandomSeeds(res Resolution, rng *rand.Rand) []mgl32.Vec2 {
	seeds := make([]mgl32.Vec2, res.Count())
	for i := range seeds {
		seeds[i] = mgl32.Vec2{rng.Float32(), rng.Float32()}
	}
	return seeds
}

// GridSeeds places each particle at the centre of its own texel.
func GridSeeds(res Resolution) []mgl32.Vec2 {
	seeds := make([]mgl32.Vec2, res.Count())
	for y := 0; y < res.Height; y++ {
		for x := 0; x < res.Width; x++ {
			seeds[res.Index(x, y)] = mgl32.Vec2{
				(float32(x) + 0.5) / float32(res.Width),
				(float32(y) + 0.5) / float32(res.Height),
			}
		}
	}
	return seeds
}

// Seeds builds seed positions for the named strategy.
func Seeds(strategy string, res Resolution, rng *rand.Rand) ([]mgl32.Vec2, error) {
	if !res.Valid() {
		return nil, &InitializationError{Op: "seed", Resolution: res, Err: ErrInvalidResolution}
	}
	switch strategy {
	case SeedingRandom, "":
		return RandomSeeds(res, rng), nil
	case SeedingGrid:
		return GridSeeds(res), nil
	}
	return nil, fmt.Errorf("unknown seeding strategy %q", strategy)
}
