package module

import (
	"time"

	"github.com/aldrenn/starmap/config"
	"github.com/aldrenn/starmap/core"
	"github.com/aldrenn/starmap/events"
	"github.com/aldrenn/starmap/governor"
	"github.com/aldrenn/starmap/status"
	"github.com/aldrenn/starmap/visibility"
)

// State is a module's lifecycle position
//
//	Uninitialized -> Initializing -> Active <-> Disabled
//
// Failed is terminal and reachable from any non-terminal state
type State uint8

const (
	StateUninitialized State = iota
	StateInitializing
	StateActive
	StateDisabled
	StateFailed
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateActive:
		return "active"
	case StateDisabled:
		return "disabled"
	case StateFailed:
		return "failed"
	default:
		return "invalid"
	}
}

// InitContext is handed to modules during initialization for
// dependency injection
type InitContext struct {
	Bus    *events.Bus
	Status *status.Registry
	Config config.Config
}

// FrameContext is the immutable per-frame input passed to every
// active module. Entity collections are read-only views; modules
// never take ownership
type FrameContext struct {
	Bounds  core.Rect
	Scale   float64
	Visible []visibility.Ranked
	LOD     visibility.Level
	Quality governor.QualitySettings

	Elapsed time.Duration
	Frame   uint64

	PerformanceMode bool
}

// Output is one module's contribution to the composed frame
// The payload is opaque to the registry; the host compositor
// interprets it
type Output struct {
	ModuleID string
	Priority int
	Payload  any
}

// RenderModule is the closed polymorphic interface all pluggable
// render modules implement. The registry holds interface references,
// never concrete types
type RenderModule interface {
	// ID returns the unique module identifier
	ID() string

	// Category groups modules for diagnostics ("entities", "overlay", ...)
	Category() string

	// Priority orders composed outputs; lower renders first
	Priority() int

	// Initialize prepares internal state; called once off the frame
	// loop. An error is isolated: the module goes Failed, others proceed
	Initialize(ctx *InitContext) error

	// Update advances module state for the frame
	Update(frame *FrameContext)

	// Render produces the module's output for the frame
	Render(frame *FrameContext) (Output, error)

	// Cleanup releases resources at registry teardown
	Cleanup()
}

// Descriptor is the registry-owned record of one module
type Descriptor struct {
	ID              string
	Category        string
	Priority        int
	Enabled         bool
	PerformanceMode bool
	Debug           bool
	State           State
	ErrorCount      int
}
