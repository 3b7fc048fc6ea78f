package sim

import (
	"sync"

	"github.com/pthm-cable/gust/systems"
)

// EventType identifies loop events.
type EventType uint8

const (
	EventStepped    EventType = iota // a step advected with dt > 0
	EventSkipped                     // a step advected by zero (dt <= 0)
	EventStopped                     // the loop entered StateStopped
	EventFieldBound                  // a new velocity field was bound
)

func (t EventType) String() string {
	switch t {
	case EventStepped:
		return "stepped"
	case EventSkipped:
		return "skipped"
	case EventStopped:
		return "stopped"
	case EventFieldBound:
		return "field_bound"
	}
	return "unknown"
}

// Event is published on the loop's Bus.
type Event struct {
	Type       EventType
	Generation uint64

	// Step events
	DeltaTime float32
	Stats     systems.AdvectStats

	// Field events
	FieldVersion uint64

	// Stop events; nil for a host-requested stop
	Err error
}

// Handler receives events. Handlers run on the emitting goroutine.
type Handler func(Event)

// Subscription identifies a registered handler.
type Subscription struct {
	id  uint64
	typ EventType
}

type subscriber struct {
	id   uint64
	fn   Handler
	once bool
}

// Bus is a typed publish/subscribe hub. It is safe for concurrent use and
// handlers may subscribe or unsubscribe from inside a handler.
type Bus struct {
	mu       sync.Mutex
	nextID   uint64
	handlers map[EventType][]subscriber
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[EventType][]subscriber)}
}

// On registers fn for every event of type t.
func (b *Bus) On(t EventType, fn Handler) Subscription {
	return b.add(t, fn, false)
}

// Once registers fn for the next event of type t only.
func (b *Bus) Once(t EventType, fn Handler) Subscription {
	return b.add(t, fn, true)
}

func (b *Bus) add(t EventType, fn Handler, once bool) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.handlers[t] = append(b.handlers[t], subscriber{id: b.nextID, fn: fn, once: once})
	return Subscription{id: b.nextID, typ: t}
}

// Off removes one handler. It reports whether the handler was registered.
func (b *Bus) Off(sub Subscription) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.handlers[sub.typ]
	for i, s := range subs {
		if s.id == sub.id {
			b.handlers[sub.typ] = append(subs[:i:i], subs[i+1:]...)
			if len(b.handlers[sub.typ]) == 0 {
				delete(b.handlers, sub.typ)
			}
			return true
		}
	}
	return false
}

// OffAll removes every handler for t.
func (b *Bus) OffAll(t EventType) {
	b.mu.Lock()
	delete(b.handlers, t)
	b.mu.Unlock()
}

// Count returns the number of handlers registered for t.
func (b *Bus) Count(t EventType) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[t])
}

// Emit calls every handler for e.Type in registration order.
// Once-handlers are removed before any handler runs.
func (b *Bus) Emit(e Event) {
	b.mu.Lock()
	subs := b.handlers[e.Type]
	if len(subs) == 0 {
		b.mu.Unlock()
		return
	}
	run := make([]Handler, len(subs))
	kept := subs[:0:0]
	for i, s := range subs {
		run[i] = s.fn
		if !s.once {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		delete(b.handlers, e.Type)
	} else if len(kept) != len(subs) {
		b.handlers[e.Type] = kept
	}
	b.mu.Unlock()

	for _, fn := range run {
		fn(e)
	}
}
