package governor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/aldrenn/starmap/config"
	"github.com/aldrenn/starmap/core"
	"github.com/aldrenn/starmap/events"
	"github.com/aldrenn/starmap/parameter"
	"github.com/aldrenn/starmap/status"
)

// Sample is one frame's performance measurement
type Sample struct {
	FPS       float64
	FrameTime time.Duration
	Timestamp time.Time
}

// PoolReclaimer is the emergency hook into the render resource pool
type PoolReclaimer interface {
	Utilization() float64
	Capacity() int
	Reclaim(newCapacity int)
}

// Governor is the closed-loop performance controller
//
// It samples frame performance into a bounded sliding window and
// re-evaluates the active quality level at most once per evaluation
// interval. Degradation is tiered (deep deficits skip levels);
// upgrades are conservative (one level, two-condition gate). A manual
// override locks the level for a cooldown, suppressing the loop
//
// Explicitly constructed and injected, never a process global, so
// tests build isolated instances
type Governor struct {
	mu sync.Mutex

	cfg   config.Config
	clock core.Clock
	bus   *events.Bus
	pool  PoolReclaimer // optional

	samples [parameter.SampleWindowSize]Sample
	next    int
	count   int

	level     QualityLevel
	lockUntil time.Time
	lastEval  time.Time

	performanceMode bool

	// Bus emissions are deferred until the mutex is released so a
	// subscriber may call back into the governor synchronously
	outbox []events.Event

	// Telemetry (cached pointers, written on the hot path)
	statAvgFPS   *status.AtomicFloat
	statQuality  *status.AtomicString
	statEvals    *atomic.Int64
	statPerfMode *atomic.Bool
	statReclaims *atomic.Int64
}

// New creates a governor starting at the highest quality level
// The controller degrades under measured pressure rather than
// starting pessimistic
func New(cfg config.Config, clock core.Clock, bus *events.Bus, reg *status.Registry) *Governor {
	return &Governor{
		cfg:          cfg,
		clock:        clock,
		bus:          bus,
		level:        QualityUltra,
		statAvgFPS:   reg.Floats.Get("governor.fps_avg"),
		statQuality:  reg.Strings.Get("governor.quality"),
		statEvals:    reg.Ints.Get("governor.evals"),
		statPerfMode: reg.Bools.Get("governor.performance_mode"),
		statReclaims: reg.Ints.Get("governor.pool_reclaims"),
	}
}

// AttachPool wires the render resource pool for emergency reclamation
func (g *Governor) AttachPool(p PoolReclaimer) {
	g.mu.Lock()
	g.pool = p
	g.mu.Unlock()
}

// RecordSample appends a frame measurement to the sliding window,
// evicting the oldest when full
func (g *Governor) RecordSample(fps float64, frameTime time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.samples[g.next] = Sample{
		FPS:       fps,
		FrameTime: frameTime,
		Timestamp: g.clock.Now(),
	}
	g.next = (g.next + 1) % parameter.SampleWindowSize
	if g.count < parameter.SampleWindowSize {
		g.count++
	}
}

// windowStats returns moving average and minimum over the window
// Caller holds g.mu
func (g *Governor) windowStats() (avg, min float64) {
	if g.count == 0 {
		return 0, 0
	}
	min = g.samples[0].FPS
	sum := 0.0
	for i := 0; i < g.count; i++ {
		fps := g.samples[i].FPS
		sum += fps
		if fps < min {
			min = fps
		}
	}
	return sum / float64(g.count), min
}

// queueEvent stages a bus emission for after the mutex is released
// Caller holds g.mu
func (g *Governor) queueEvent(t events.EventType, payload any) {
	if g.bus == nil {
		return
	}
	g.outbox = append(g.outbox, events.Event{Type: t, Payload: payload})
}

// flushOutbox emits staged events; called with g.mu released
func (g *Governor) flushOutbox() {
	g.mu.Lock()
	staged := g.outbox
	g.outbox = nil
	g.mu.Unlock()

	for _, ev := range staged {
		g.bus.Emit(ev.Type, ev.Payload)
	}
}

// Evaluate runs one control decision if the evaluation interval has
// elapsed. Called every frame by the orchestrator; cheap when gated
func (g *Governor) Evaluate() {
	g.mu.Lock()
	defer g.flushOutbox()
	defer g.mu.Unlock()

	now := g.clock.Now()
	if now.Sub(g.lastEval) < g.cfg.EvalInterval {
		return
	}
	if g.count < parameter.SampleWindowSize/2 {
		return // not enough history for a stable decision
	}
	g.lastEval = now
	g.statEvals.Add(1)

	avg, windowMin := g.windowStats()
	g.statAvgFPS.Set(avg)

	// Manual override suppresses the loop until the cooldown passes
	if now.Before(g.lockUntil) {
		return
	}

	switch {
	case avg < g.cfg.CriticalFPS:
		g.degradeLocked(avg)
	case avg >= g.cfg.TargetFPS*parameter.UpgradeAvgRatio &&
		windowMin >= g.cfg.TargetFPS*parameter.UpgradeMinRatio:
		// Conservative two-condition gate: both the average and the
		// window minimum must hold, preventing oscillation from spikes
		g.setLevelLocked(g.level+1, "sustained headroom", false)
	}
}

// degradeLocked lowers quality with severity tiering: the deeper the
// deficit below critical, the more levels one evaluation drops
// An actual drop also raises a performance warning for the host;
// staying pinned at the floor does not re-announce
// Caller holds g.mu
func (g *Governor) degradeLocked(avg float64) {
	prev := g.level
	switch {
	case avg < g.cfg.CriticalFPS*parameter.DegradeSevereRatio:
		g.setLevelLocked(QualityLow, "severe degradation", false)
	case avg < g.cfg.CriticalFPS*parameter.DegradeHeavyRatio:
		g.setLevelLocked(g.level-2, "heavy degradation", false)
	default:
		g.setLevelLocked(g.level-1, "degradation", false)
	}

	if g.level != prev {
		g.queueEvent(events.EventPerformanceWarning, &events.PerformanceWarningPayload{
			AverageFPS: avg,
			Level:      g.level.String(),
		})
	}
}

// SetQualityLevel applies an explicit operator override and locks the
// level for the configured cooldown; the loop resumes automatically
// after the cooldown expires
func (g *Governor) SetQualityLevel(level QualityLevel, reason string) {
	g.mu.Lock()
	defer g.flushOutbox()
	defer g.mu.Unlock()

	g.lockUntil = g.clock.Now().Add(g.cfg.OverrideCooldown)
	g.setLevelLocked(level, reason, true)
}

// setLevelLocked transitions the active level and publishes the change
// Caller holds g.mu
func (g *Governor) setLevelLocked(level QualityLevel, reason string, manual bool) {
	level = level.clamp()
	if level == g.level {
		return
	}
	prev := g.level
	g.level = level
	g.statQuality.Store(level.String())

	g.queueEvent(events.EventQualityChanged, &events.QualityChangedPayload{
		Previous: int(prev),
		Current:  int(level),
		Reason:   reason,
		Manual:   manual,
	})
}

// Level returns the active quality level
func (g *Governor) Level() QualityLevel {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.level
}

// Settings returns the active level's settings record
func (g *Governor) Settings() QualitySettings {
	return SettingsFor(g.Level())
}

// ShouldRender implements deterministic frame-skip: with skip
// interval N > 0, every (N+1)th frame renders and the rest skip
func (g *Governor) ShouldRender(frame uint64) bool {
	interval := g.Settings().SkipInterval
	if interval <= 0 {
		return true
	}
	return frame%uint64(interval+1) == 0
}

// SkipRatio returns the fraction of frames currently skipped
func (g *Governor) SkipRatio() float64 {
	interval := g.Settings().SkipInterval
	if interval <= 0 {
		return 0
	}
	return float64(interval) / float64(interval+1)
}

// AverageFPS returns the current moving average
func (g *Governor) AverageFPS() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	avg, _ := g.windowStats()
	return avg
}

// PerformanceMode reports whether the forced low-cost mode is active
func (g *Governor) PerformanceMode() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.performanceMode
}

// CheckPoolPressure monitors pooled-resource utilization
// independently of the FPS loop. A breach triggers full reclamation
// at reduced capacity plus forced performance mode and lowest quality
// This is the last-resort path, distinct from gradual degradation
func (g *Governor) CheckPoolPressure() bool {
	g.mu.Lock()
	defer g.flushOutbox()
	defer g.mu.Unlock()

	if g.pool == nil {
		return false
	}
	util := g.pool.Utilization()
	if util <= g.cfg.PoolThreshold {
		return false
	}

	g.reclaimLocked()
	g.setLevelLocked(QualityLow, "resource exhaustion", false)
	// Hold the floor so a healthy FPS window cannot climb back out
	// while performance mode is still forced
	g.lockUntil = g.clock.Now().Add(g.cfg.OverrideCooldown)
	return true
}

// EmergencyPoolCleanup is the operator-triggered reclamation path
func (g *Governor) EmergencyPoolCleanup() {
	g.mu.Lock()
	defer g.flushOutbox()
	defer g.mu.Unlock()
	g.reclaimLocked()
}

// reclaimLocked clears and reinitializes the pool at reduced capacity
// and forces performance mode. Caller holds g.mu
func (g *Governor) reclaimLocked() {
	if g.pool != nil {
		reduced := int(float64(g.pool.Capacity()) * parameter.PoolReclaimFactor)
		g.pool.Reclaim(reduced)
		g.statReclaims.Add(1)
	}
	g.performanceMode = true
	g.statPerfMode.Store(true)

	g.queueEvent(events.EventPoolReclaimed, nil)
}

// EmergencyReset forces lowest quality, performance mode, and pool
// reclamation. Module disabling is coordinated by the orchestrator,
// which owns the registry
func (g *Governor) EmergencyReset() {
	g.mu.Lock()
	defer g.flushOutbox()
	defer g.mu.Unlock()

	g.reclaimLocked()
	g.setLevelLocked(QualityLow, "emergency reset", false)
	// Hold the floor so the loop does not immediately climb back out
	g.lockUntil = g.clock.Now().Add(g.cfg.OverrideCooldown)

	g.queueEvent(events.EventEmergencyReset, nil)
}

// ExitPerformanceMode clears the forced low-cost mode
func (g *Governor) ExitPerformanceMode() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.performanceMode = false
	g.statPerfMode.Store(false)
}
