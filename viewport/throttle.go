package viewport

import (
	"time"

	"github.com/aldrenn/starmap/core"
	"github.com/aldrenn/starmap/events"
)

// Notifier throttles viewport-changed propagation to modules
//
// During an active gesture, notifications go out at a bounded cadence
// and intermediate updates are coalesced latest-wins. Gesture end
// always flushes immediately, and callers may force an immediate send
// to bypass the throttle
type Notifier struct {
	bus      *events.Bus
	clock    core.Clock
	interval time.Duration

	gestureActive bool
	lastSent      time.Time
	pending       *events.ViewportChangedPayload
}

// NewNotifier creates a notifier publishing on the given bus
func NewNotifier(bus *events.Bus, clock core.Clock, interval time.Duration) *Notifier {
	return &Notifier{
		bus:      bus,
		clock:    clock,
		interval: interval,
	}
}

// GestureStart marks the beginning of an active gesture
func (n *Notifier) GestureStart() {
	if n.gestureActive {
		return
	}
	n.gestureActive = true
	n.bus.Emit(events.EventGestureStarted, nil)
}

// GestureEnd flushes any coalesced update and lifts the throttle
func (n *Notifier) GestureEnd() {
	if !n.gestureActive {
		return
	}
	n.gestureActive = false
	n.flush()
	n.bus.Emit(events.EventGestureEnded, nil)
}

// Offer submits a viewport change for propagation
// immediate bypasses throttling; otherwise, updates inside a gesture
// are rate-limited and only the latest pending update survives
func (n *Notifier) Offer(v *Viewport, immediate bool) {
	payload := snapshotPayload(v, immediate)

	if immediate || !n.gestureActive {
		n.send(payload)
		return
	}

	now := n.clock.Now()
	if now.Sub(n.lastSent) >= n.interval {
		n.send(payload)
		return
	}

	// Coalesce: latest pending update wins
	n.pending = payload
}

// Tick gives the notifier a chance to send a due pending update
// Called once per frame by the orchestrator
func (n *Notifier) Tick() {
	if n.pending == nil {
		return
	}
	if n.clock.Now().Sub(n.lastSent) >= n.interval {
		n.flush()
	}
}

// Pending reports whether a coalesced update awaits delivery
func (n *Notifier) Pending() bool {
	return n.pending != nil
}

func (n *Notifier) flush() {
	if n.pending == nil {
		return
	}
	p := n.pending
	n.pending = nil
	n.send(p)
}

func (n *Notifier) send(p *events.ViewportChangedPayload) {
	n.lastSent = n.clock.Now()
	n.pending = nil
	n.bus.Emit(events.EventViewportChanged, p)
}

func snapshotPayload(v *Viewport, immediate bool) *events.ViewportChangedPayload {
	tx, ty := v.Translation()
	return &events.ViewportChangedPayload{
		TranslateX: tx,
		TranslateY: ty,
		Scale:      v.Scale(),
		Bounds:     v.Bounds(),
		Immediate:  immediate,
	}
}
