package render

import (
	"sort"
	"time"

	"github.com/aldrenn/starmap/config"
	"github.com/aldrenn/starmap/core"
	"github.com/aldrenn/starmap/events"
	"github.com/aldrenn/starmap/governor"
	"github.com/aldrenn/starmap/module"
	"github.com/aldrenn/starmap/parameter"
	"github.com/aldrenn/starmap/status"
	"github.com/aldrenn/starmap/viewport"
	"github.com/aldrenn/starmap/visibility"
)

// EntitySource supplies the per-frame read-only entity view.
// Version must change whenever the underlying set changes; it keys
// the culling memoization fingerprint.
type EntitySource interface {
	Objects() []visibility.Object
	Version() uint64
}

// EntityUpdater is optionally implemented by an EntitySource that
// accepts in-place bulk updates; sources that do must bump Version
type EntityUpdater interface {
	ApplyUpdates(updates []events.EntityUpdate)
}

// Frame is the composed visual tree for one frame: module outputs
// ordered by module priority, then registration order.
type Frame struct {
	Outputs []module.Output
	Number  uint64
	Skipped bool // true when this is the cached prior frame
	LOD     visibility.Level
	Culling visibility.Result
}

// cullFingerprint keys the explicit culling cache. Reculling only
// happens when a relevant input changed.
type cullFingerprint struct {
	bounds        core.Rect
	scale         float64
	entityVersion uint64
	maxObjects    int
}

// Orchestrator owns the authoritative viewport and the frame loop for
// one mounted map. It composes module outputs into frames, gates them
// on the governor's frame-skip decision, and exposes the host-facing
// override and recovery surface. All methods except the On* input
// entry points must be called from the frame goroutine.
type Orchestrator struct {
	cfg   config.Config
	clock core.Clock
	bus   *events.Bus

	vp       *viewport.Viewport
	notifier *viewport.Notifier
	input    *events.InputQueue

	gov      *governor.Governor
	registry *module.Registry
	entities EntitySource
	updates  *events.BatchPool[events.EntityUpdate]

	boundary *Boundary
	analyzer *Analyzer

	frame         uint64
	lastFrameTime time.Time
	lastComposed  time.Time
	cachedFrame   *Frame

	cullKey    cullFingerprint
	cullCached visibility.Result
	cullValid  bool

	statFrames  *status.AtomicFloat
	statSkipped *status.AtomicFloat
}

// PerformanceSnapshot is the host-facing performance summary.
type PerformanceSnapshot struct {
	AverageFPS          float64
	CurrentQualityLevel string
	SkipRatio           float64
	DisabledModuleIDs   []string
}

func NewOrchestrator(
	cfg config.Config,
	clock core.Clock,
	bus *events.Bus,
	vp *viewport.Viewport,
	gov *governor.Governor,
	registry *module.Registry,
	entities EntitySource,
	reg *status.Registry,
) *Orchestrator {
	return &Orchestrator{
		cfg:         cfg,
		clock:       clock,
		bus:         bus,
		vp:          vp,
		notifier:    viewport.NewNotifier(bus, clock, cfg.GestureThrottle),
		input:       events.NewInputQueue(),
		gov:         gov,
		registry:    registry,
		entities:    entities,
		updates:     events.NewBatchPool[events.EntityUpdate](64),
		boundary:    NewBoundary(parameter.BoundaryMaxFailures),
		statFrames:  reg.Floats.Get("render.frames"),
		statSkipped: reg.Floats.Get("render.frames_skipped"),
	}
}

// SetAnalyzer attaches the deferred heavy-computation pipeline.
func (o *Orchestrator) SetAnalyzer(a *Analyzer) {
	o.analyzer = a
}

// Viewport exposes the authoritative viewport state.
func (o *Orchestrator) Viewport() *viewport.Viewport {
	return o.vp
}

// Boundary exposes the failure-isolation layer.
func (o *Orchestrator) Boundary() *Boundary {
	return o.boundary
}

// Gesture entry points. Producers may call these from any goroutine;
// commands cross into the frame loop through the lock-free input queue.

// OnPanUpdate queues a pan delta in screen units.
func (o *Orchestrator) OnPanUpdate(dx, dy float64) {
	o.input.Push(events.Event{Type: events.EventViewportChanged, Payload: &events.PanPayload{DX: dx, DY: dy}})
}

// OnPinchUpdate queues a pinch update around a screen-space focal point.
func (o *Orchestrator) OnPinchUpdate(scale, focalX, focalY float64) {
	o.input.Push(events.Event{Type: events.EventViewportChanged, Payload: &events.PinchPayload{Scale: scale, FocalX: focalX, FocalY: focalY}})
}

// OnTap queues a tap at screen coordinates.
func (o *Orchestrator) OnTap(x, y float64) {
	o.input.Push(events.Event{Type: events.EventEntityTapped, Payload: &events.TapPayload{X: x, Y: y}})
}

// OnGestureStart queues the beginning of an active gesture.
func (o *Orchestrator) OnGestureStart() {
	o.input.Push(events.Event{Type: events.EventGestureStarted})
}

// OnGestureEnd queues the end of the active gesture.
func (o *Orchestrator) OnGestureEnd() {
	o.input.Push(events.Event{Type: events.EventGestureEnded})
}

// OnEntityUpdates queues a bulk entity update through a pooled batch
// payload. The entries are copied; the caller keeps its slice.
func (o *Orchestrator) OnEntityUpdates(updates []events.EntityUpdate) {
	events.EmitBatch(o.input, o.updates, events.EventEntitiesUpdated, updates)
}

// RenderFrame runs one frame: drain input, update the viewport, feed
// the governor, cull, and compose. When the governor's frame-skip
// decision fires, or the level's render throttle has not elapsed
// since the last composed frame, the cached prior frame is
// substituted so skipping never yields an empty or flickering frame.
func (o *Orchestrator) RenderFrame() (frame *Frame, rec *Recovery) {
	defer func() {
		if r := recover(); r != nil {
			rec = o.boundary.CapturePanic(r)
			frame = o.cachedFrame
		}
	}()

	if active := o.boundary.Active(); active != nil {
		// Boundary is presenting a recovery view; hold the last good frame
		return o.cachedFrame, active
	}

	o.registry.ProcessLifecycle()
	o.applyInput()
	o.notifier.Tick()

	now := o.clock.Now()
	frameTime := parameter.FrameBudget
	if !o.lastFrameTime.IsZero() {
		frameTime = now.Sub(o.lastFrameTime)
	}
	o.lastFrameTime = now

	fps := 0.0
	if frameTime > 0 {
		fps = float64(time.Second) / float64(frameTime)
	}
	o.gov.RecordSample(fps, frameTime)
	o.gov.Evaluate()
	o.gov.CheckPoolPressure()

	n := o.frame
	o.frame++
	o.statFrames.Set(float64(o.frame))

	quality := o.gov.Settings()
	if o.cachedFrame != nil {
		throttled := quality.RenderThrottle > 0 && now.Sub(o.lastComposed) < quality.RenderThrottle
		if throttled || !o.gov.ShouldRender(n) {
			o.statSkipped.Add(1)
			skipped := *o.cachedFrame
			skipped.Number = n
			skipped.Skipped = true
			return &skipped, nil
		}
	}

	culling := o.cullVisible(quality.MaxObjects)

	lod := visibility.SelectByScale(o.vp.Scale())
	lod = visibility.Adapt(lod, frameTime, parameter.FrameBudget)

	ctx := &module.FrameContext{
		Bounds:          o.vp.Bounds(),
		Scale:           o.vp.Scale(),
		Visible:         culling.Visible,
		LOD:             lod,
		Quality:         quality,
		Elapsed:         frameTime,
		Frame:           n,
		PerformanceMode: o.gov.PerformanceMode(),
	}

	o.registry.UpdateAll(ctx)
	outputs := o.registry.RenderAll(ctx)

	// Stable sort by module priority; registration order breaks ties
	sort.SliceStable(outputs, func(i, j int) bool {
		return outputs[i].Priority < outputs[j].Priority
	})

	composed := &Frame{
		Outputs: outputs,
		Number:  n,
		LOD:     lod,
		Culling: culling,
	}
	o.cachedFrame = composed
	o.lastComposed = now

	if o.analyzer != nil {
		o.analyzer.Tick(frameTime <= parameter.FrameBudget)
	}

	return composed, nil
}

// cullVisible computes the visible set through the fingerprint cache:
// recull only when the viewport, entity version, or budget changed.
func (o *Orchestrator) cullVisible(maxObjects int) visibility.Result {
	key := cullFingerprint{
		bounds:        o.vp.Bounds(),
		scale:         o.vp.Scale(),
		entityVersion: o.entities.Version(),
		maxObjects:    maxObjects,
	}
	if o.cullValid && key == o.cullKey {
		return o.cullCached
	}

	res := visibility.Cull(o.entities.Objects(), o.vp.Bounds(), maxObjects)
	o.cullKey = key
	o.cullCached = res
	o.cullValid = true
	return res
}

// applyInput drains the queue and applies commands in arrival order.
// Viewport updates apply immediately to the authoritative state; their
// propagation to modules is throttled by the notifier, latest-wins.
func (o *Orchestrator) applyInput() {
	pending := o.input.Consume()
	if pending == nil {
		return
	}

	viewportChanged := false
	for _, ev := range pending {
		switch p := ev.Payload.(type) {
		case *events.PanPayload:
			o.vp.Pan(p.DX, p.DY)
			viewportChanged = true
		case *events.PinchPayload:
			o.vp.Pinch(p.Scale, p.FocalX, p.FocalY)
			viewportChanged = true
		case *events.TapPayload:
			world := o.vp.ScreenToWorld(core.Vec2{X: p.X, Y: p.Y})
			o.bus.Emit(events.EventEntityTapped, &events.TapPayload{X: world.X, Y: world.Y})
		case *events.BatchPayload[events.EntityUpdate]:
			if u, ok := o.entities.(EntityUpdater); ok {
				u.ApplyUpdates(p.Entries)
			}
			o.updates.Release(p)
		default:
			switch ev.Type {
			case events.EventGestureStarted:
				o.notifier.GestureStart()
			case events.EventGestureEnded:
				if viewportChanged {
					o.notifier.Offer(o.vp, false)
					viewportChanged = false
				}
				o.notifier.GestureEnd()
			}
		}
	}

	if viewportChanged {
		o.notifier.Offer(o.vp, false)
	}
}

// PerformanceSnapshot summarizes current performance state for the host.
func (o *Orchestrator) PerformanceSnapshot() PerformanceSnapshot {
	return PerformanceSnapshot{
		AverageFPS:          o.gov.AverageFPS(),
		CurrentQualityLevel: o.gov.Level().String(),
		SkipRatio:           o.gov.SkipRatio(),
		DisabledModuleIDs:   o.registry.DisabledIDs(),
	}
}

// SetQualityLevel applies a manual override with its cooldown lock.
func (o *Orchestrator) SetQualityLevel(level governor.QualityLevel, reason string) {
	o.gov.SetQualityLevel(level, reason)
}

// SetModuleEnabled toggles one module.
func (o *Orchestrator) SetModuleEnabled(id string, enabled bool) error {
	if enabled {
		return o.registry.Enable(id)
	}
	return o.registry.Disable(id)
}

// RecoverModule performs the boundary's targeted module recovery.
func (o *Orchestrator) RecoverModule(id string) error {
	if err := o.registry.RecoverModule(id); err != nil {
		return err
	}
	o.boundary.Retry()
	return nil
}

// Retry clears the boundary error and resumes normal frames.
// Returns false once recovery is terminal.
func (o *Orchestrator) Retry() bool {
	return o.boundary.Retry()
}

// EmergencyReset sheds everything but the named safety-critical
// modules (primary entity rendering and input handling), forces
// lowest quality and performance mode, and reclaims pooled resources.
func (o *Orchestrator) EmergencyReset(criticalModuleIDs ...string) {
	o.registry.DisableAllExcept(criticalModuleIDs...)
	o.gov.EmergencyReset()
	o.bus.Emit(events.EventToastRequested, &events.ToastPayload{
		Kind:    "warning",
		Message: "Map switched to emergency mode to stay responsive.",
	})
}

// EmergencyPoolCleanup is the operator-triggered pool reclamation.
func (o *Orchestrator) EmergencyPoolCleanup() {
	o.gov.EmergencyPoolCleanup()
}

// Teardown stops the frame loop's collaborators.
func (o *Orchestrator) Teardown() {
	o.registry.Teardown()
}
