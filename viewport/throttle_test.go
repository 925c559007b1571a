package viewport

import (
	"testing"
	"time"

	"github.com/aldrenn/starmap/core"
	"github.com/aldrenn/starmap/events"
)

func collectChanges(bus *events.Bus) *[]*events.ViewportChangedPayload {
	var got []*events.ViewportChangedPayload
	bus.Subscribe(events.EventViewportChanged, func(ev events.Event) {
		got = append(got, ev.Payload.(*events.ViewportChangedPayload))
	})
	return &got
}

func TestNotifierImmediateOutsideGesture(t *testing.T) {
	bus := events.NewBus()
	clock := core.NewMockClock(time.Unix(0, 0))
	n := NewNotifier(bus, clock, 75*time.Millisecond)
	got := collectChanges(bus)

	v := New(800, 600)
	n.Offer(v, false)
	n.Offer(v, false)

	if len(*got) != 2 {
		t.Errorf("outside a gesture every offer sends: got %d", len(*got))
	}
}

func TestNotifierThrottlesAndCoalescesDuringGesture(t *testing.T) {
	bus := events.NewBus()
	clock := core.NewMockClock(time.Unix(0, 0))
	n := NewNotifier(bus, clock, 75*time.Millisecond)
	got := collectChanges(bus)

	v := New(800, 600)
	n.GestureStart()

	n.Offer(v, false) // sends: beyond interval since zero lastSent
	if len(*got) != 1 {
		t.Fatalf("first gesture offer should send, got %d", len(*got))
	}

	v.Pan(10, 0)
	n.Offer(v, false) // throttled, pending
	v.Pan(10, 0)
	n.Offer(v, false) // replaces pending (latest wins)

	if len(*got) != 1 {
		t.Fatalf("throttled offers must not send, got %d", len(*got))
	}
	if !n.Pending() {
		t.Fatal("expected a coalesced pending update")
	}

	clock.Advance(80 * time.Millisecond)
	n.Tick()

	if len(*got) != 2 {
		t.Fatalf("due pending update should flush on tick, got %d", len(*got))
	}
	tx, _ := v.Translation()
	if (*got)[1].TranslateX != tx {
		t.Errorf("flushed update is not the latest: %v != %v", (*got)[1].TranslateX, tx)
	}
}

func TestNotifierGestureEndFlushesImmediately(t *testing.T) {
	bus := events.NewBus()
	clock := core.NewMockClock(time.Unix(0, 0))
	n := NewNotifier(bus, clock, 75*time.Millisecond)
	got := collectChanges(bus)

	var ended bool
	bus.Subscribe(events.EventGestureEnded, func(ev events.Event) { ended = true })

	v := New(800, 600)
	n.GestureStart()
	n.Offer(v, false)
	v.Pan(5, 5)
	n.Offer(v, false) // pending

	n.GestureEnd()

	if len(*got) != 2 {
		t.Errorf("gesture end must flush pending update, got %d sends", len(*got))
	}
	if !ended {
		t.Error("gesture end event not emitted")
	}
	if n.Pending() {
		t.Error("pending update survived gesture end")
	}
}

func TestNotifierImmediateOverrideBypassesThrottle(t *testing.T) {
	bus := events.NewBus()
	clock := core.NewMockClock(time.Unix(0, 0))
	n := NewNotifier(bus, clock, 75*time.Millisecond)
	got := collectChanges(bus)

	v := New(800, 600)
	n.GestureStart()
	n.Offer(v, false)
	n.Offer(v, true) // immediate override

	if len(*got) != 2 {
		t.Errorf("immediate offer must bypass throttle, got %d", len(*got))
	}
	if !(*got)[1].Immediate {
		t.Error("immediate flag not carried on payload")
	}
}
