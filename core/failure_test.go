package core

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureClass
	}{
		{"nil", nil, FailureUnknown},
		{"critical", &CriticalError{Reason: "corrupt"}, FailureCritical},
		{"module init", &ModuleInitError{ModuleID: "starfield", Err: errors.New("boom")}, FailureModule},
		{"module render", &ModuleRenderError{ModuleID: "lanes", Err: errors.New("boom")}, FailureModule},
		{"pool exhaustion", &ResourceExhaustedError{Utilization: 0.95}, FailurePerformance},
		{"wrapped module error", fmt.Errorf("frame failed: %w", &ModuleRenderError{ModuleID: "labels", Err: errors.New("x")}), FailureModule},
		{"critical wins over wrapping", fmt.Errorf("outer: %w", &CriticalError{Reason: "y"}), FailureCritical},
		{"network by message", errors.New("connection refused"), FailureNetwork},
		{"timeout by message", errors.New("dial timeout"), FailureNetwork},
		{"budget by message", errors.New("frame budget exceeded"), FailurePerformance},
		{"plain error", errors.New("something else"), FailureUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestModuleIDOf(t *testing.T) {
	if id, ok := ModuleIDOf(&ModuleInitError{ModuleID: "starfield"}); !ok || id != "starfield" {
		t.Errorf("ModuleIDOf init = %q, %v", id, ok)
	}
	if id, ok := ModuleIDOf(fmt.Errorf("wrap: %w", &ModuleRenderError{ModuleID: "lanes"})); !ok || id != "lanes" {
		t.Errorf("ModuleIDOf wrapped render = %q, %v", id, ok)
	}
	if _, ok := ModuleIDOf(errors.New("plain")); ok {
		t.Error("plain error should carry no module id")
	}
}

func TestGoRoutesPanicToCrashHandler(t *testing.T) {
	var mu sync.Mutex
	var captured any
	done := make(chan struct{})

	SetCrashHandler(func(r any) {
		mu.Lock()
		captured = r
		mu.Unlock()
		close(done)
	})
	defer SetCrashHandler(defaultCrashHandler)

	Go(func() { panic("escaped") })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("crash handler never invoked")
	}

	mu.Lock()
	defer mu.Unlock()
	if captured != "escaped" {
		t.Errorf("captured = %v, want the panic value", captured)
	}
}
