package module

import (
	"fmt"
	"sync"
	"time"

	"github.com/aldrenn/starmap/core"
	"github.com/aldrenn/starmap/events"
	"github.com/aldrenn/starmap/governor"
	"github.com/aldrenn/starmap/parameter"
	"github.com/aldrenn/starmap/status"
)

type entry struct {
	mod  RenderModule
	desc Descriptor

	// statRenderUS caches the per-module render timing metric
	statRenderUS *status.AtomicFloat
}

type initResult struct {
	id  string
	err error
}

// GlobalMetrics aggregates registry-wide performance state
type GlobalMetrics struct {
	AverageFPS            float64
	DisabledModuleIDs     []string
	PerformanceModeActive bool
}

// Registry manages pluggable render modules for one mounted map
//
// All registry operations execute on one logical thread of control
// (the frame loop); the only cross-goroutine traffic is async module
// initialization, which reports back through a channel drained by
// ProcessLifecycle
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	order   []string // registration order, drives render order

	gov    *governor.Governor
	bus    *events.Bus
	status *status.Registry
	init   InitContext

	initDone  chan initResult
	maxErrors int

	statActive *status.AtomicFloat
}

// NewRegistry creates an empty registry bound to the governor and bus
func NewRegistry(gov *governor.Governor, bus *events.Bus, reg *status.Registry, init InitContext) *Registry {
	return &Registry{
		entries:    make(map[string]*entry),
		gov:        gov,
		bus:        bus,
		status:     reg,
		init:       init,
		initDone:   make(chan initResult, 64),
		maxErrors:  parameter.ModuleMaxErrors,
		statActive: reg.Floats.Get("registry.modules_active"),
	}
}

// Register adds a module and starts asynchronous initialization
// Idempotent per id: re-registering an existing id is a no-op
// A failing module becomes Failed; registration of others proceeds
func (r *Registry) Register(m RenderModule) {
	id := m.ID()

	r.mu.Lock()
	if _, exists := r.entries[id]; exists {
		r.mu.Unlock()
		return
	}
	e := &entry{
		mod: m,
		desc: Descriptor{
			ID:       id,
			Category: m.Category(),
			Priority: m.Priority(),
			Enabled:  true,
			Debug:    r.init.Config.DebugOverlay,
			State:    StateInitializing,
		},
		statRenderUS: r.status.Floats.Get("module." + id + ".render_us"),
	}
	r.entries[id] = e
	r.order = append(r.order, id)
	r.mu.Unlock()

	r.startInit(id, m)
}

func (r *Registry) startInit(id string, m RenderModule) {
	ctx := &InitContext{Bus: r.init.Bus, Status: r.init.Status, Config: r.init.Config}
	core.Go(func() {
		var initErr error
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					initErr = fmt.Errorf("init panic: %v", rec)
				}
			}()
			initErr = m.Initialize(ctx)
		}()
		r.initDone <- initResult{id: id, err: initErr}
	})
}

// ProcessLifecycle drains pending initialization results, applies
// state transitions, and stamps the governor's performance mode onto
// every descriptor. Called once per frame by the orchestrator
func (r *Registry) ProcessLifecycle() {
	for {
		select {
		case res := <-r.initDone:
			r.finishInit(res)
		default:
			r.syncPerformanceMode()
			return
		}
	}
}

func (r *Registry) syncPerformanceMode() {
	perf := r.gov.PerformanceMode()
	r.mu.Lock()
	for _, e := range r.entries {
		e.desc.PerformanceMode = perf
	}
	r.mu.Unlock()
}

func (r *Registry) finishInit(res initResult) {
	r.mu.Lock()
	e, ok := r.entries[res.id]
	if !ok || e.desc.State != StateInitializing {
		r.mu.Unlock()
		return
	}
	if res.err != nil {
		e.desc.State = StateFailed
	} else {
		e.desc.State = StateActive
	}
	r.mu.Unlock()

	if res.err != nil {
		err := &core.ModuleInitError{ModuleID: res.id, Err: res.err}
		r.bus.EmitFrom(events.EventModuleFailed, res.id, &events.ModuleStatePayload{
			ModuleID: res.id,
			State:    StateFailed.String(),
			Err:      err,
		})
		return
	}
	r.bus.EmitFrom(events.EventModuleInitialized, res.id, &events.ModuleStatePayload{
		ModuleID: res.id,
		State:    StateActive.String(),
	})
}

// WaitForInit blocks until every registered module has left
// Initializing or the timeout expires. Intended for startup and tests;
// the frame loop itself never blocks here
func (r *Registry) WaitForInit(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		select {
		case res := <-r.initDone:
			r.finishInit(res)
		case <-time.After(time.Millisecond):
		}
		if !r.anyInitializing() {
			return true
		}
	}
	return !r.anyInitializing()
}

func (r *Registry) anyInitializing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.desc.State == StateInitializing {
			return true
		}
	}
	return false
}

// Enable activates a disabled module. Valid from Active/Disabled only;
// no-op when already Active. Re-enable skips reinitialization because
// disabling preserved internal state
func (r *Registry) Enable(id string) error {
	return r.setEnabled(id, true)
}

// Disable deactivates a module, preserving its internal state
func (r *Registry) Disable(id string) error {
	return r.setEnabled(id, false)
}

func (r *Registry) setEnabled(id string, enabled bool) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("module %s: not registered", id)
	}

	switch e.desc.State {
	case StateActive, StateDisabled:
	default:
		r.mu.Unlock()
		return fmt.Errorf("module %s: cannot toggle in state %s", id, e.desc.State)
	}

	target := StateDisabled
	eventType := events.EventModuleDisabled
	if enabled {
		target = StateActive
		eventType = events.EventModuleEnabled
	}
	if e.desc.State == target {
		r.mu.Unlock()
		return nil // already at target
	}
	e.desc.State = target
	e.desc.Enabled = enabled
	r.mu.Unlock()

	r.bus.EmitFrom(eventType, id, &events.ModuleStatePayload{
		ModuleID: id,
		State:    target.String(),
	})
	return nil
}

// DisableAllExcept disables every toggleable module not in keep
// Used by emergency reset to shed all but safety-critical modules
func (r *Registry) DisableAllExcept(keep ...string) {
	keepSet := make(map[string]bool, len(keep))
	for _, id := range keep {
		keepSet[id] = true
	}

	r.mu.Lock()
	ids := make([]string, 0, len(r.order))
	for _, id := range r.order {
		if !keepSet[id] && r.entries[id].desc.State == StateActive {
			ids = append(ids, id)
		}
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.Disable(id)
	}
}

// UpdateAll advances every active module's state for the frame
func (r *Registry) UpdateAll(frame *FrameContext) {
	for _, e := range r.activeEntries() {
		r.updateOne(e, frame)
	}
}

func (r *Registry) updateOne(e *entry, frame *FrameContext) {
	defer func() {
		if rec := recover(); rec != nil {
			r.flagRenderFailure(e, fmt.Errorf("update panic: %v", rec))
		}
	}()
	e.mod.Update(frame)
}

// RenderAll invokes active modules in registration order and returns
// their outputs. A module that fails during render has its output
// dropped for this frame only and its circuit breaker flagged; no
// error escapes the registry
func (r *Registry) RenderAll(frame *FrameContext) []Output {
	active := r.activeEntries()
	outputs := make([]Output, 0, len(active))

	for _, e := range active {
		if out, ok := r.renderOne(e, frame); ok {
			outputs = append(outputs, out)
		}
	}

	r.statActive.Set(float64(len(active)))
	return outputs
}

func (r *Registry) renderOne(e *entry, frame *FrameContext) (out Output, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.flagRenderFailure(e, fmt.Errorf("render panic: %v", rec))
			ok = false
		}
	}()

	start := time.Now()
	out, err := e.mod.Render(frame)
	e.statRenderUS.Set(float64(time.Since(start).Microseconds()))

	if err != nil {
		r.flagRenderFailure(e, err)
		return Output{}, false
	}
	return out, true
}

// flagRenderFailure counts a failure toward the module's circuit
// breaker. The module is not reinitialized eagerly; once the breaker
// trips it goes Failed and leaves the per-frame set
func (r *Registry) flagRenderFailure(e *entry, cause error) {
	r.mu.Lock()
	e.desc.ErrorCount++
	tripped := e.desc.ErrorCount >= r.maxErrors && e.desc.State != StateFailed
	if tripped {
		e.desc.State = StateFailed
	}
	id := e.desc.ID
	r.mu.Unlock()

	if tripped {
		err := &core.ModuleRenderError{ModuleID: id, Err: cause}
		r.bus.EmitFrom(events.EventModuleFailed, id, &events.ModuleStatePayload{
			ModuleID: id,
			State:    StateFailed.String(),
			Err:      err,
		})
	}
}

// RecoverModule resets a failed module's breaker and reinitializes it
// This is the targeted recovery action exposed by the boundary
func (r *Registry) RecoverModule(id string) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("module %s: not registered", id)
	}
	e.desc.ErrorCount = 0
	e.desc.State = StateInitializing
	m := e.mod
	r.mu.Unlock()

	r.startInit(id, m)
	return nil
}

// activeEntries snapshots active modules in registration order
func (r *Registry) activeEntries() []*entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	active := make([]*entry, 0, len(r.order))
	for _, id := range r.order {
		e := r.entries[id]
		if e.desc.State == StateActive && e.desc.Enabled {
			active = append(active, e)
		}
	}
	return active
}

// Get returns the descriptor for one module
func (r *Registry) Get(id string) (Descriptor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return Descriptor{}, false
	}
	return e.desc, true
}

// All returns descriptors in registration order
func (r *Registry) All() []Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id].desc)
	}
	return out
}

// DisabledIDs returns ids of modules currently out of the per-frame
// set (disabled or failed)
func (r *Registry) DisabledIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []string
	for _, id := range r.order {
		switch r.entries[id].desc.State {
		case StateDisabled, StateFailed:
			ids = append(ids, id)
		}
	}
	return ids
}

// GlobalPerformanceMetrics aggregates per-module state with the
// governor's view of frame performance
func (r *Registry) GlobalPerformanceMetrics() GlobalMetrics {
	return GlobalMetrics{
		AverageFPS:            r.gov.AverageFPS(),
		DisabledModuleIDs:     r.DisabledIDs(),
		PerformanceModeActive: r.gov.PerformanceMode(),
	}
}

// Teardown cleans up every module and destroys all descriptors
func (r *Registry) Teardown() {
	r.mu.Lock()
	entries := make([]*entry, 0, len(r.order))
	for _, id := range r.order {
		entries = append(entries, r.entries[id])
	}
	r.entries = make(map[string]*entry)
	r.order = nil
	r.mu.Unlock()

	for _, e := range entries {
		func() {
			defer func() { recover() }() // cleanup panics never block teardown
			e.mod.Cleanup()
		}()
	}
}
