package field

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
)

// Binding is the handle through which the host publishes the current velocity field.
// Replacing the field is a single pointer swap, so a step that loaded the old grid
// keeps sampling it consistently until it finishes.
type Binding struct {
	current atomic.Pointer[Grid]
	version atomic.Uint64
}

// NewBinding creates a binding, optionally with an initial field.
func NewBinding(g *Grid) (*Binding, error) {
	b := &Binding{}
	if g != nil {
		if err := b.Bind(g); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Bind validates g and makes it the current field.
// On error the previously bound field stays current.
func (b *Binding) Bind(g *Grid) error {
	if err := g.Validate(); err != nil {
		return err
	}
	b.current.Store(g)
	b.version.Add(1)
	return nil
}

// Current returns the bound field, or nil if none was bound yet.
func (b *Binding) Current() *Grid {
	return b.current.Load()
}

// Version increments on every successful Bind.
func (b *Binding) Version() uint64 {
	return b.version.Load()
}

// Sample samples the current field. An unbound field reads as calm air.
// Passes load Current once per step instead, so a swap never splits a dispatch.
func (b *Binding) Sample(pos mgl32.Vec2) mgl32.Vec2 {
	g := b.current.Load()
	if g == nil {
		return mgl32.Vec2{}
	}
	return g.Sample(pos)
}
