// Package syncbus fans inbound realtime sync events out to registered
// listeners, decoupled from any view lifecycle.
//
// Each listener registration returns an unsubscribe token. Go functions are
// not comparable, so exact-identity removal is implemented through the token:
// unsubscribing removes precisely the registration it was returned from and
// nothing else. Unsubscribing twice is a no-op.
package syncbus

import (
	"sync"

	"github.com/hoodly/hoodly-go/pkg/logger"
)

// Kind identifies the entity class of a sync event.
type Kind string

const (
	KindMessage     Kind = "message"
	KindReport      Kind = "report"
	KindNotice      Kind = "notice"
	KindChatGroup   Kind = "chatGroup"
	KindPrivateChat Kind = "privateChat"
	KindRoster      Kind = "roster"
)

// Event is one inbound sync notification. The payload is opaque to the bus;
// listeners interpret it per kind.
type Event struct {
	Kind    Kind
	Payload map[string]any
}

// Listener receives sync events of a single kind.
type Listener func(Event)

// Unsubscribe removes the registration it was returned from.
type Unsubscribe func()

type registration struct {
	id uint64
	fn Listener
}

// Bus is the listener registry. The zero value is not usable; call New.
type Bus struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[Kind][]registration
	enabled   bool
}

// New creates a Bus with sync dispatch enabled.
func New() *Bus {
	return &Bus{
		listeners: make(map[Kind][]registration),
		enabled:   true,
	}
}

// AddListener registers fn for events of the given kind. Listeners are
// invoked in registration order.
func (b *Bus) AddListener(kind Kind, fn Listener) Unsubscribe {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.listeners[kind] = append(b.listeners[kind], registration{id: id, fn: fn})

	return func() {
		b.removeListener(kind, id)
	}
}

func (b *Bus) removeListener(kind Kind, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.listeners[kind]
	for i, reg := range regs {
		if reg.id == id {
			b.listeners[kind] = append(regs[:i:i], regs[i+1:]...)
			return
		}
	}
	// Already removed; not an error.
}

// SetEnabled toggles dispatch. While disabled, inbound events are dropped
// without buffering; re-enabling does not replay them.
func (b *Bus) SetEnabled(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = enabled
}

// Enabled reports whether dispatch is currently enabled.
func (b *Bus) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

// ListenerCount returns the number of listeners registered for a kind.
func (b *Bus) ListenerCount(kind Kind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners[kind])
}

// Dispatch delivers an event to every listener of its kind, in registration
// order. A panicking listener is isolated: the panic is logged and delivery
// continues with the remaining listeners.
func (b *Bus) Dispatch(event Event) {
	b.mu.Lock()
	if !b.enabled {
		b.mu.Unlock()
		return
	}
	regs := make([]registration, len(b.listeners[event.Kind]))
	copy(regs, b.listeners[event.Kind])
	b.mu.Unlock()

	for _, reg := range regs {
		invoke(reg.fn, event)
	}
}

func invoke(fn Listener, event Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("syncbus: listener panic for kind %s: %v", event.Kind, r)
		}
	}()
	fn(event)
}
