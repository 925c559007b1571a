package render

import (
	"fmt"
	"log"

	"github.com/aldrenn/starmap/core"
)

// RecoveryAction is a user-facing recovery option scoped to a
// failure classification
type RecoveryAction uint8

const (
	// ActionRetry clears the error and re-renders unchanged children
	ActionRetry RecoveryAction = iota

	// ActionRecoverModule reinitializes the one implicated module
	ActionRecoverModule

	// ActionEmergencyMode delegates to the governor's emergency reset
	ActionEmergencyMode

	// ActionRestart is the terminal recovery: full restart
	ActionRestart
)

// String returns the action name
func (a RecoveryAction) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionRecoverModule:
		return "recover_module"
	case ActionEmergencyMode:
		return "emergency_mode"
	case ActionRestart:
		return "restart"
	default:
		return "invalid"
	}
}

// Recovery is the substituted view state after a captured failure
type Recovery struct {
	Class    core.FailureClass
	Message  string
	ModuleID string
	Actions  []RecoveryAction

	// Terminal means the rolling failure count reached its maximum:
	// retry has been withdrawn and only restart remains
	Terminal bool
}

// Boundary is the supervising failure-isolation layer around the
// composed frame. It intercepts otherwise-uncaught errors, classifies
// them, and substitutes a recovery view. A rolling failure count
// withdraws retry once it reaches the configured maximum
type Boundary struct {
	maxFailures int
	failures    int
	active      *Recovery
	logf        func(format string, args ...any)
}

// NewBoundary creates a boundary allowing maxFailures local recoveries
func NewBoundary(maxFailures int) *Boundary {
	return &Boundary{maxFailures: maxFailures, logf: log.Printf}
}

// SetLogger redirects capture reports
func (b *Boundary) SetLogger(logf func(format string, args ...any)) {
	if logf != nil {
		b.logf = logf
	}
}

// Capture classifies a failure and produces the recovery view
func (b *Boundary) Capture(err error) *Recovery {
	b.failures++
	b.logf("render boundary: %v (failure %d/%d)", err, b.failures, b.maxFailures)

	class := core.Classify(err)
	moduleID, _ := core.ModuleIDOf(err)
	terminal := b.failures >= b.maxFailures || class == core.FailureCritical

	rec := &Recovery{
		Class:    class,
		Message:  messageFor(class, moduleID, err),
		ModuleID: moduleID,
		Terminal: terminal,
		Actions:  actionsFor(class, moduleID, terminal),
	}
	b.active = rec
	return rec
}

// CapturePanic converts a recovered panic value and classifies it
func (b *Boundary) CapturePanic(r any) *Recovery {
	if err, ok := r.(error); ok {
		return b.Capture(err)
	}
	return b.Capture(fmt.Errorf("panic: %v", r))
}

// Retry clears the active error so unchanged children re-render
// No-op once the boundary is terminal
func (b *Boundary) Retry() bool {
	if b.active == nil {
		return true
	}
	if b.active.Terminal {
		return false
	}
	b.active = nil
	return true
}

// Active returns the current recovery view, nil when healthy
func (b *Boundary) Active() *Recovery {
	return b.active
}

// FailureCount returns the rolling failure count
func (b *Boundary) FailureCount() int {
	return b.failures
}

// Reset clears all failure state; only a full restart calls this
func (b *Boundary) Reset() {
	b.failures = 0
	b.active = nil
}

func messageFor(class core.FailureClass, moduleID string, err error) string {
	switch class {
	case core.FailureModule:
		return fmt.Sprintf("A map layer (%s) stopped responding.", moduleID)
	case core.FailurePerformance:
		return "The map is under heavy load and reduced its quality."
	case core.FailureCritical:
		return "The map hit an unrecoverable error and must restart."
	case core.FailureNetwork:
		return "The map lost its data connection."
	default:
		return fmt.Sprintf("The map hit an unexpected error: %v", err)
	}
}

// actionsFor scopes recovery actions to the classification
// Retry is withdrawn once the breaker trips; only terminal recovery
// remains offered
func actionsFor(class core.FailureClass, moduleID string, terminal bool) []RecoveryAction {
	if terminal {
		return []RecoveryAction{ActionRestart}
	}

	actions := []RecoveryAction{ActionRetry}
	if class == core.FailureModule && moduleID != "" {
		actions = append(actions, ActionRecoverModule)
	}
	if class == core.FailurePerformance {
		actions = append(actions, ActionEmergencyMode)
	}
	return actions
}
