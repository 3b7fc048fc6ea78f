// Package shaders holds the WGSL versions of the advection and render kernels.
// The CPU passes in systems and renderer are authoritative; these sources use
// the same constants so a GPU backend produces the same frames.
package shaders

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"github.com/gogpu/naga"
)

//go:embed advect.wgsl
var advectSource string

//go:embed render.wgsl
var renderSource string

// Kernel names.
const (
	Advect = "advect"
	Render = "render"
)

// ErrUnknownShader is returned for a name not in Names().
var ErrUnknownShader = errors.New("unknown shader")

var sources = map[string]string{
	Advect: advectSource,
	Render: renderSource,
}

// Names lists the embedded kernels in sorted order.
func Names() []string {
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Source returns the WGSL text of a kernel.
func Source(name string) (string, error) {
	src, ok := sources[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownShader, name)
	}
	return src, nil
}

// CompileBytes compiles a kernel to SPIR-V bytes.
func CompileBytes(name string) ([]byte, error) {
	src, err := Source(name)
	if err != nil {
		return nil, err
	}
	spirv, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s shader: %w", name, err)
	}
	return spirv, nil
}

// Compile compiles a kernel to SPIR-V words.
func Compile(name string) ([]uint32, error) {
	spirvBytes, err := CompileBytes(name)
	if err != nil {
		return nil, err
	}

	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}
