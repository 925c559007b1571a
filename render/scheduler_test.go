package render

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/aldrenn/starmap/core"
	"github.com/aldrenn/starmap/events"
)

func waitDrained(t *testing.T, a *Analyzer) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		a.Tick(true)
		if !a.InFlight() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("computation never drained")
}

func TestAnalyzerDebounceCollapsesBurst(t *testing.T) {
	clock := core.NewMockClock(time.Unix(0, 0))
	bus := events.NewBus()

	var runs atomic.Int32
	a := NewAnalyzer(clock, bus, 100*time.Millisecond, func() any {
		runs.Add(1)
		return "done"
	})

	var completed []uint64
	bus.Subscribe(events.EventAnalysisComplete, func(ev events.Event) {
		p := ev.Payload.(*events.AnalysisCompletePayload)
		completed = append(completed, p.RequestID)
	})

	// Burst of requests inside the quiet window
	a.Request()
	clock.Advance(10 * time.Millisecond)
	a.Request()
	clock.Advance(10 * time.Millisecond)
	a.Request()

	// Still inside the window: nothing launches
	a.Tick(true)
	if a.InFlight() {
		t.Fatal("computation launched before the quiet window elapsed")
	}
	if !a.Pending() {
		t.Fatal("burst should leave one pending request")
	}

	clock.Advance(100 * time.Millisecond)
	a.Tick(true)
	waitDrained(t, a)

	if got := runs.Load(); got != 1 {
		t.Errorf("compute ran %d times, want 1", got)
	}
	if len(completed) != 1 {
		t.Fatalf("completed = %v, want exactly one result", completed)
	}
	if completed[0] != 3 {
		t.Errorf("result id = %d, want the latest request (3)", completed[0])
	}
}

func TestAnalyzerRequiresIdleSlot(t *testing.T) {
	clock := core.NewMockClock(time.Unix(0, 0))
	bus := events.NewBus()
	a := NewAnalyzer(clock, bus, 50*time.Millisecond, func() any { return nil })

	a.Request()
	clock.Advance(time.Second)

	a.Tick(false)
	if a.InFlight() {
		t.Fatal("computation launched in a busy frame")
	}
	if !a.Pending() {
		t.Fatal("request should still be pending")
	}

	a.Tick(true)
	if a.Pending() {
		t.Error("idle tick should consume the pending request")
	}
	waitDrained(t, a)
}

func TestAnalyzerDropsRequestWhileInFlight(t *testing.T) {
	clock := core.NewMockClock(time.Unix(0, 0))
	bus := events.NewBus()

	release := make(chan struct{})
	a := NewAnalyzer(clock, bus, 50*time.Millisecond, func() any {
		<-release
		return "slow"
	})

	var completed []uint64
	bus.Subscribe(events.EventAnalysisComplete, func(ev events.Event) {
		p := ev.Payload.(*events.AnalysisCompletePayload)
		completed = append(completed, p.RequestID)
	})

	a.Request()
	clock.Advance(time.Second)
	a.Tick(true)
	if !a.InFlight() {
		t.Fatal("computation should be in flight")
	}

	// Requests during flight are no-ops
	a.Request()
	a.Request()
	if a.Pending() {
		t.Error("requests during flight should be dropped")
	}

	close(release)
	waitDrained(t, a)

	if len(completed) != 1 || completed[0] != 1 {
		t.Errorf("completed = %v, want only the original request", completed)
	}
}

func TestAnalyzerRejectsStaleResult(t *testing.T) {
	clock := core.NewMockClock(time.Unix(0, 0))
	bus := events.NewBus()
	a := NewAnalyzer(clock, bus, 50*time.Millisecond, func() any { return nil })

	emitted := 0
	bus.Subscribe(events.EventAnalysisComplete, func(events.Event) {
		emitted++
	})

	// A result from a superseded request id must be discarded
	a.requestID.Store(5)
	a.inFlight.Store(true)
	a.results <- analysisResult{id: 3, result: "stale"}

	a.Tick(true)

	if emitted != 0 {
		t.Error("stale result should be discarded without a completion event")
	}
	if a.InFlight() {
		t.Error("draining a stale result should still clear in-flight")
	}
}
