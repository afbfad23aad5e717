// Package events implements the process-local event bus of the vio runtime.
//
// The bus delivers events synchronously, keeps a bounded history of what was
// emitted and supports a wildcard channel that observes every event:
//
//	bus := events.New()
//	off := bus.On("store:change", func(e events.Event) { ... })
//	defer off()
//	bus.Emit("store:change", map[string]any{"action": "increment"})
//
// Handlers may emit further events or change subscriptions while they run;
// each Emit iterates over the handler set captured before dispatch began.
package events

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Wildcard is the channel that receives every emitted event.
const Wildcard = "*"

// DefaultHistorySize is the history capacity used when none is configured.
const DefaultHistorySize = 100

// Event is an immutable record of one emission.
type Event struct {
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

// Handler receives events.
type Handler func(Event)

// Bus is a publish/subscribe channel with bounded history.
// It is safe for concurrent use; handlers are never called with the
// internal lock held.
type Bus struct {
	mu       sync.Mutex
	handlers map[string][]*subscription
	history  []Event
	capacity int
	clock    clock.Clock
}

type subscription struct {
	handler Handler
}

// Option configures a Bus.
type Option func(*Bus)

// WithHistorySize sets the history capacity. Zero disables history;
// negative values are ignored.
func WithHistorySize(n int) Option {
	return func(b *Bus) {
		if n >= 0 {
			b.capacity = n
		}
	}
}

// WithClock sets the clock used to timestamp events.
func WithClock(c clock.Clock) Option {
	return func(b *Bus) {
		if c != nil {
			b.clock = c
		}
	}
}

// New creates a bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		handlers: make(map[string][]*subscription),
		capacity: DefaultHistorySize,
		clock:    clock.New(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// On registers handler for eventType and returns a function that removes it.
// The returned function is safe to call more than once.
func (b *Bus) On(eventType string, handler Handler) func() {
	if handler == nil {
		return func() {}
	}
	sub := &subscription{handler: handler}

	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], sub)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(eventType, sub) })
	}
}

func (b *Bus) remove(eventType string, sub *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.handlers[eventType]
	for i, s := range subs {
		if s == sub {
			// copy so snapshots taken by in-flight emits stay intact
			next := make([]*subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			if len(next) == 0 {
				delete(b.handlers, eventType)
			} else {
				b.handlers[eventType] = next
			}
			return
		}
	}
}

// Emit records an event and delivers it to the handlers registered for
// eventType and, unless eventType is Wildcard, to the wildcard handlers.
// A nil payload is recorded as an empty map.
func (b *Bus) Emit(eventType string, payload map[string]any) {
	if payload == nil {
		payload = map[string]any{}
	}

	b.mu.Lock()
	event := Event{Type: eventType, Payload: payload, Timestamp: b.clock.Now()}
	if b.capacity > 0 {
		b.history = append(b.history, event)
		if over := len(b.history) - b.capacity; over > 0 {
			b.history = append(b.history[:0:0], b.history[over:]...)
		}
	}
	exact := b.handlers[eventType]
	var wildcard []*subscription
	if eventType != Wildcard {
		wildcard = b.handlers[Wildcard]
	}
	b.mu.Unlock()

	for _, sub := range exact {
		sub.handler(event)
	}
	for _, sub := range wildcard {
		sub.handler(event)
	}
}

// History returns a copy of the retained events, oldest first.
func (b *Bus) History() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Event, len(b.history))
	copy(out, b.history)
	return out
}

// Capacity returns the history capacity.
func (b *Bus) Capacity() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.capacity
}

// Clear removes every handler and the history.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[string][]*subscription)
	b.history = nil
}
