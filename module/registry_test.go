package module

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aldrenn/starmap/config"
	"github.com/aldrenn/starmap/core"
	"github.com/aldrenn/starmap/events"
	"github.com/aldrenn/starmap/governor"
	"github.com/aldrenn/starmap/status"
)

// fakeModule is a configurable test module
type fakeModule struct {
	id         string
	initErr    error
	initPanic  bool
	renderErr  error
	renderBoom bool

	initCount    int
	updateCount  int
	renderCount  int
	cleanupCount int
}

func (m *fakeModule) ID() string       { return m.id }
func (m *fakeModule) Category() string { return "test" }
func (m *fakeModule) Priority() int    { return 0 }

func (m *fakeModule) Initialize(ctx *InitContext) error {
	m.initCount++
	if m.initPanic {
		panic("init exploded")
	}
	return m.initErr
}

func (m *fakeModule) Update(frame *FrameContext) { m.updateCount++ }

func (m *fakeModule) Render(frame *FrameContext) (Output, error) {
	m.renderCount++
	if m.renderBoom {
		panic("render exploded")
	}
	if m.renderErr != nil {
		return Output{}, m.renderErr
	}
	return Output{ModuleID: m.id, Payload: m.renderCount}, nil
}

func (m *fakeModule) Cleanup() { m.cleanupCount++ }

func newTestRegistry(t *testing.T) (*Registry, *events.Bus) {
	t.Helper()
	bus := events.NewBus()
	reg := status.NewRegistry()
	clock := core.NewMockClock(time.Unix(0, 0))
	gov := governor.New(config.Default(), clock, bus, reg)
	r := NewRegistry(gov, bus, reg, InitContext{Bus: bus, Status: reg, Config: config.Default()})
	return r, bus
}

func mustInit(t *testing.T, r *Registry) {
	t.Helper()
	if !r.WaitForInit(2 * time.Second) {
		t.Fatal("modules did not finish initializing")
	}
}

func TestPartialInitFailureIsolation(t *testing.T) {
	r, _ := newTestRegistry(t)

	mods := []*fakeModule{
		{id: "a"},
		{id: "b", initErr: errors.New("no GPU")},
		{id: "c"},
	}
	for _, m := range mods {
		r.Register(m)
	}
	mustInit(t, r)

	for _, tt := range []struct {
		id       string
		expected State
	}{
		{"a", StateActive},
		{"b", StateFailed},
		{"c", StateActive},
	} {
		d, ok := r.Get(tt.id)
		if !ok {
			t.Fatalf("module %s missing", tt.id)
		}
		if d.State != tt.expected {
			t.Errorf("module %s: expected %s, got %s", tt.id, tt.expected, d.State)
		}
	}

	// Failed module is excluded from per-frame invocation
	outputs := r.RenderAll(&FrameContext{})
	if len(outputs) != 2 {
		t.Errorf("expected 2 outputs, got %d", len(outputs))
	}
}

func TestInitPanicIsIsolated(t *testing.T) {
	r, _ := newTestRegistry(t)

	r.Register(&fakeModule{id: "boom", initPanic: true})
	r.Register(&fakeModule{id: "ok"})
	mustInit(t, r)

	d, _ := r.Get("boom")
	if d.State != StateFailed {
		t.Errorf("panicking init should fail the module, got %s", d.State)
	}
	d, _ = r.Get("ok")
	if d.State != StateActive {
		t.Errorf("bystander module should be active, got %s", d.State)
	}
}

func TestRegisterIdempotent(t *testing.T) {
	r, _ := newTestRegistry(t)

	m1 := &fakeModule{id: "dup"}
	m2 := &fakeModule{id: "dup"}
	r.Register(m1)
	r.Register(m2)
	mustInit(t, r)

	if len(r.All()) != 1 {
		t.Errorf("expected single registration, got %d", len(r.All()))
	}
	if m2.initCount != 0 {
		t.Error("second registration must not initialize")
	}
}

func TestRenderFailureDropsOutputOnly(t *testing.T) {
	r, _ := newTestRegistry(t)

	good1 := &fakeModule{id: "good1"}
	bad := &fakeModule{id: "bad", renderBoom: true}
	good2 := &fakeModule{id: "good2"}
	r.Register(good1)
	r.Register(bad)
	r.Register(good2)
	mustInit(t, r)

	outputs := r.RenderAll(&FrameContext{})

	if len(outputs) != 2 {
		t.Fatalf("expected outputs from the 2 healthy modules, got %d", len(outputs))
	}
	if outputs[0].ModuleID != "good1" || outputs[1].ModuleID != "good2" {
		t.Errorf("registration order violated: %+v", outputs)
	}

	// One failure does not fail the module
	d, _ := r.Get("bad")
	if d.State != StateActive {
		t.Errorf("single render failure must not fail module: %s", d.State)
	}
	if d.ErrorCount != 1 {
		t.Errorf("breaker not flagged: %d", d.ErrorCount)
	}
}

func TestCircuitBreakerTripsAtMaxErrors(t *testing.T) {
	r, bus := newTestRegistry(t)

	var failedEvent *events.ModuleStatePayload
	bus.Subscribe(events.EventModuleFailed, func(ev events.Event) {
		failedEvent = ev.Payload.(*events.ModuleStatePayload)
	})

	bad := &fakeModule{id: "flaky", renderErr: errors.New("shader miscompiled")}
	r.Register(bad)
	mustInit(t, r)

	for i := 0; i < 5; i++ {
		r.RenderAll(&FrameContext{})
	}

	d, _ := r.Get("flaky")
	if d.State != StateFailed {
		t.Errorf("breaker should trip at 5 errors, state %s count %d", d.State, d.ErrorCount)
	}
	if failedEvent == nil {
		t.Fatal("module failed event not emitted")
	}
	var renderErr *core.ModuleRenderError
	if !errors.As(failedEvent.Err, &renderErr) || renderErr.ModuleID != "flaky" {
		t.Errorf("event should carry a typed render error: %v", failedEvent.Err)
	}

	// Tripped module no longer renders
	before := bad.renderCount
	r.RenderAll(&FrameContext{})
	if bad.renderCount != before {
		t.Error("failed module still invoked")
	}
}

func TestEnableDisableTransitions(t *testing.T) {
	r, _ := newTestRegistry(t)

	m := &fakeModule{id: "toggle"}
	r.Register(m)
	r.Register(&fakeModule{id: "broken", initErr: errors.New("nope")})
	mustInit(t, r)

	if err := r.Disable("toggle"); err != nil {
		t.Fatalf("disable: %v", err)
	}
	d, _ := r.Get("toggle")
	if d.State != StateDisabled {
		t.Errorf("expected disabled, got %s", d.State)
	}

	// No-op at target state
	if err := r.Disable("toggle"); err != nil {
		t.Errorf("disable at target must be a no-op, got %v", err)
	}

	// Disabled module skips render but preserves state for re-enable
	r.RenderAll(&FrameContext{})
	if m.renderCount != 0 {
		t.Error("disabled module rendered")
	}
	if err := r.Enable("toggle"); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if m.initCount != 1 {
		t.Error("re-enable must not reinitialize")
	}

	// Invalid from Failed
	if err := r.Enable("broken"); err == nil {
		t.Error("enabling a failed module must error")
	}
	if err := r.Enable("ghost"); err == nil {
		t.Error("enabling an unregistered module must error")
	}
}

func TestRecoverModule(t *testing.T) {
	r, _ := newTestRegistry(t)

	bad := &fakeModule{id: "flaky", renderErr: errors.New("boom")}
	r.Register(bad)
	mustInit(t, r)

	for i := 0; i < 5; i++ {
		r.RenderAll(&FrameContext{})
	}
	d, _ := r.Get("flaky")
	if d.State != StateFailed {
		t.Fatal("setup: breaker should have tripped")
	}

	bad.renderErr = nil // the fault is gone
	if err := r.RecoverModule("flaky"); err != nil {
		t.Fatalf("recover: %v", err)
	}
	mustInit(t, r)

	d, _ = r.Get("flaky")
	if d.State != StateActive || d.ErrorCount != 0 {
		t.Errorf("recovery incomplete: %+v", d)
	}
	if bad.initCount != 2 {
		t.Errorf("targeted recovery must reinitialize, init count %d", bad.initCount)
	}
}

func TestDisableAllExceptKeepsSafetyCritical(t *testing.T) {
	r, _ := newTestRegistry(t)

	for _, id := range []string{"starfield", "input", "lanes", "labels", "fx"} {
		r.Register(&fakeModule{id: id})
	}
	mustInit(t, r)

	r.DisableAllExcept("starfield", "input")

	for _, d := range r.All() {
		switch d.ID {
		case "starfield", "input":
			if d.State != StateActive {
				t.Errorf("safety-critical module %s disabled", d.ID)
			}
		default:
			if d.State != StateDisabled {
				t.Errorf("module %s should be disabled, got %s", d.ID, d.State)
			}
		}
	}

	disabled := r.DisabledIDs()
	if len(disabled) != 3 {
		t.Errorf("expected 3 disabled ids, got %v", disabled)
	}
}

func TestGlobalPerformanceMetrics(t *testing.T) {
	r, _ := newTestRegistry(t)

	r.Register(&fakeModule{id: "a"})
	r.Register(&fakeModule{id: "b", initErr: fmt.Errorf("dead")})
	mustInit(t, r)

	m := r.GlobalPerformanceMetrics()
	if len(m.DisabledModuleIDs) != 1 || m.DisabledModuleIDs[0] != "b" {
		t.Errorf("unexpected disabled ids: %v", m.DisabledModuleIDs)
	}
	if m.PerformanceModeActive {
		t.Error("performance mode should start inactive")
	}
}

func TestTeardownCleansUpAllModules(t *testing.T) {
	r, _ := newTestRegistry(t)

	a := &fakeModule{id: "a"}
	b := &fakeModule{id: "b"}
	r.Register(a)
	r.Register(b)
	mustInit(t, r)

	r.Teardown()

	if a.cleanupCount != 1 || b.cleanupCount != 1 {
		t.Errorf("cleanup counts: a=%d b=%d", a.cleanupCount, b.cleanupCount)
	}
	if len(r.All()) != 0 {
		t.Error("descriptors survived teardown")
	}
}

func TestDescriptorsTrackPerformanceModeAndDebug(t *testing.T) {
	bus := events.NewBus()
	reg := status.NewRegistry()
	clock := core.NewMockClock(time.Unix(0, 0))
	cfg := config.Default()
	cfg.DebugOverlay = true
	gov := governor.New(cfg, clock, bus, reg)
	r := NewRegistry(gov, bus, reg, InitContext{Bus: bus, Status: reg, Config: cfg})

	r.Register(&fakeModule{id: "a"})
	mustInit(t, r)

	desc, ok := r.Get("a")
	if !ok {
		t.Fatal("module not registered")
	}
	if !desc.Debug {
		t.Error("debug flag not taken from the init context")
	}

	r.ProcessLifecycle()
	if desc, _ = r.Get("a"); desc.PerformanceMode {
		t.Error("performance mode flagged while the governor is idle")
	}

	gov.EmergencyReset()
	r.ProcessLifecycle()
	if desc, _ = r.Get("a"); !desc.PerformanceMode {
		t.Error("descriptor did not pick up forced performance mode")
	}

	gov.ExitPerformanceMode()
	r.ProcessLifecycle()
	if desc, _ = r.Get("a"); desc.PerformanceMode {
		t.Error("descriptor did not clear performance mode")
	}
}
