package events

import (
	"log"
	"sync"
	"time"
)

// Handler processes a single event
// Handlers run synchronously on the emitter's goroutine
type Handler func(ev Event)

// LogFunc receives handler panic reports; defaults to stdlib log
type LogFunc func(format string, args ...any)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is an in-process publish/subscribe channel for cross-module
// notifications
//
// Delivery:
//   - Synchronous, in subscription order, to a snapshot of current
//     subscribers; unsubscribing mid-delivery never affects the pass
//   - A handler that panics is recovered and logged individually so
//     one failing subscriber never blocks the others
//
// No durability across process restarts
type Bus struct {
	mu     sync.Mutex
	subs   map[EventType][]subscription
	nextID uint64
	clock  func() time.Time
	logf   LogFunc
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{
		subs:  make(map[EventType][]subscription),
		clock: time.Now,
		logf:  log.Printf,
	}
}

// SetLogger redirects handler panic reports
func (b *Bus) SetLogger(logf LogFunc) {
	if logf == nil {
		return
	}
	b.mu.Lock()
	b.logf = logf
	b.mu.Unlock()
}

// Subscribe registers a handler for the given event type and returns
// an unsubscribe function. Removal is by subscription identity, never
// by handler equality, so the same function may subscribe twice
func (b *Bus) Subscribe(t EventType, h Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[t] = append(b.subs[t], subscription{id: id, handler: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.unsubscribe(t, id)
		})
	}
}

func (b *Bus) unsubscribe(t EventType, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[t]
	for i, s := range subs {
		if s.id == id {
			// Copy-on-remove keeps any in-flight emit snapshot intact
			next := make([]subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			b.subs[t] = next
			return
		}
	}
}

// Emit delivers the payload to every current subscriber of t
func (b *Bus) Emit(t EventType, payload any) {
	b.EmitFrom(t, "", payload)
}

// EmitFrom delivers an event attributed to the given source module
func (b *Bus) EmitFrom(t EventType, source string, payload any) {
	b.mu.Lock()
	snapshot := b.subs[t]
	logf := b.logf
	now := b.clock()
	b.mu.Unlock()

	ev := Event{Type: t, Source: source, Timestamp: now, Payload: payload}
	for _, s := range snapshot {
		b.dispatch(s.handler, ev, logf)
	}
}

func (b *Bus) dispatch(h Handler, ev Event, logf LogFunc) {
	defer func() {
		if r := recover(); r != nil {
			logf("events: handler panic on %s: %v", ev.Type, r)
		}
	}()
	h(ev)
}

// SubscriberCount returns the number of handlers registered for t
func (b *Bus) SubscriberCount(t EventType) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[t])
}
