package render

import (
	"sync/atomic"
	"time"

	"github.com/aldrenn/starmap/core"
	"github.com/aldrenn/starmap/events"
)

type analysisResult struct {
	id     uint64
	result any
}

// Analyzer defers heavy derived computation off the interactive path
//
// Two-stage pipeline: a debounce window collapses request bursts into
// one computation, which then runs only in an idle scheduling slot.
// At most one computation is in flight; a request arriving while one
// is outstanding is dropped as a no-op. Results are accepted only if
// the originating request is still the most recent (stale-result
// rejection via monotonic request id). In-flight work is never
// forcibly interrupted, only its result discarded
type Analyzer struct {
	clock    core.Clock
	bus      *events.Bus
	debounce time.Duration
	compute  func() any

	requestID   atomic.Uint64
	pendingID   uint64 // 0 = none; owned by the frame loop
	lastRequest time.Time
	inFlight    atomic.Bool

	results chan analysisResult
}

// NewAnalyzer creates an idle-scheduled analyzer around compute
func NewAnalyzer(clock core.Clock, bus *events.Bus, debounce time.Duration, compute func() any) *Analyzer {
	return &Analyzer{
		clock:    clock,
		bus:      bus,
		debounce: debounce,
		compute:  compute,
		results:  make(chan analysisResult, 4),
	}
}

// Request asks for a recomputation. Bursts within the debounce window
// collapse into one; a request while a computation is outstanding is
// dropped entirely
func (a *Analyzer) Request() {
	if a.inFlight.Load() {
		return // at most one in flight
	}
	a.pendingID = a.requestID.Add(1)
	a.lastRequest = a.clock.Now()
}

// Tick drives the pipeline; the orchestrator calls it once per frame
// with idle=true only when the frame completed under budget
func (a *Analyzer) Tick(idle bool) {
	a.drainResults()

	if a.pendingID == 0 || !idle || a.inFlight.Load() {
		return
	}
	if a.clock.Now().Sub(a.lastRequest) < a.debounce {
		return // still inside the quiet window
	}

	id := a.pendingID
	a.pendingID = 0
	a.inFlight.Store(true)

	core.Go(func() {
		res := a.compute()
		a.results <- analysisResult{id: id, result: res}
	})
}

// drainResults applies completed computations, discarding stale ones
func (a *Analyzer) drainResults() {
	for {
		select {
		case res := <-a.results:
			a.inFlight.Store(false)
			if res.id != a.requestID.Load() {
				continue // superseded; result discarded
			}
			a.bus.Emit(events.EventAnalysisComplete, &events.AnalysisCompletePayload{
				RequestID: res.id,
				Result:    res.result,
			})
		default:
			return
		}
	}
}

// Pending reports whether a request awaits its quiet window
func (a *Analyzer) Pending() bool {
	return a.pendingID != 0
}

// InFlight reports whether a computation is outstanding
func (a *Analyzer) InFlight() bool {
	return a.inFlight.Load()
}
