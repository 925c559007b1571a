package core

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
)

// FailureClass categorizes errors crossing the orchestration boundary
type FailureClass uint8

const (
	FailureUnknown FailureClass = iota
	FailureModule
	FailurePerformance
	FailureCritical
	FailureNetwork
)

// String returns the failure class name
func (c FailureClass) String() string {
	switch c {
	case FailureModule:
		return "module"
	case FailurePerformance:
		return "performance"
	case FailureCritical:
		return "critical"
	case FailureNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// ModuleInitError marks a failed module initialization
// The registry isolates it: the module goes Failed, others proceed
type ModuleInitError struct {
	ModuleID string
	Err      error
}

func (e *ModuleInitError) Error() string {
	return fmt.Sprintf("module %s: init failed: %v", e.ModuleID, e.Err)
}

func (e *ModuleInitError) Unwrap() error {
	return e.Err
}

// ModuleRenderError marks a per-frame render failure
// The frame output is dropped and the module's breaker is flagged
type ModuleRenderError struct {
	ModuleID string
	Err      error
}

func (e *ModuleRenderError) Error() string {
	return fmt.Sprintf("module %s: render failed: %v", e.ModuleID, e.Err)
}

func (e *ModuleRenderError) Unwrap() error {
	return e.Err
}

// CriticalError is explicitly non-recoverable; only a full restart clears it
type CriticalError struct {
	Reason string
}

func (e *CriticalError) Error() string {
	return "critical: " + e.Reason
}

// ResourceExhaustedError marks a pool-utilization breach
type ResourceExhaustedError struct {
	Utilization float64
}

func (e *ResourceExhaustedError) Error() string {
	return fmt.Sprintf("resource pool exhausted: utilization %.2f", e.Utilization)
}

// Classify inspects an error and maps it onto the failure taxonomy
// Module errors carry the offending module id via ModuleIDOf
func Classify(err error) FailureClass {
	if err == nil {
		return FailureUnknown
	}

	var critical *CriticalError
	if errors.As(err, &critical) {
		return FailureCritical
	}

	var initErr *ModuleInitError
	var renderErr *ModuleRenderError
	if errors.As(err, &initErr) || errors.As(err, &renderErr) {
		return FailureModule
	}

	var exhausted *ResourceExhaustedError
	if errors.As(err, &exhausted) {
		return FailurePerformance
	}

	// Last-resort string sniffing for errors from external collaborators
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "network") || strings.Contains(msg, "connection") || strings.Contains(msg, "timeout"):
		return FailureNetwork
	case strings.Contains(msg, "frame") || strings.Contains(msg, "budget"):
		return FailurePerformance
	default:
		return FailureUnknown
	}
}

// ModuleIDOf extracts the module id embedded in a module error, if any
func ModuleIDOf(err error) (string, bool) {
	var initErr *ModuleInitError
	if errors.As(err, &initErr) {
		return initErr.ModuleID, true
	}
	var renderErr *ModuleRenderError
	if errors.As(err, &renderErr) {
		return renderErr.ModuleID, true
	}
	return "", false
}

// CrashHandler receives panics that escape all recovery boundaries
type CrashHandler func(r any)

var crashHandler CrashHandler = defaultCrashHandler

// SetCrashHandler replaces the process-level panic handler
// Must be called before any Go goroutines are spawned
func SetCrashHandler(h CrashHandler) {
	if h != nil {
		crashHandler = h
	}
}

func defaultCrashHandler(r any) {
	fmt.Fprintf(os.Stderr, "CRASH DETECTED: %v\n", r)
	fmt.Fprintf(os.Stderr, "Stack Trace:\n%s\n", debug.Stack())
	os.Exit(1)
}

// HandleCrash invokes the process-level panic handler
func HandleCrash(r any) {
	if r == nil {
		return
	}
	crashHandler(r)
}

// Go runs a function in a new goroutine with panic recovery
// Use this instead of the 'go' keyword so background work cannot
// take the process down silently
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				HandleCrash(r)
			}
		}()
		fn()
	}()
}
