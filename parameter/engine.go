package parameter

import "time"

// Frame Loop & Engine Timing
const (
	// FrameUpdateInterval is the rendering frame rate interval (~60 FPS)
	FrameUpdateInterval = 16 * time.Millisecond

	// FrameBudget is the target maximum time to produce one rendered frame
	FrameBudget = 16700 * time.Microsecond

	// TargetFPS is the frame rate the governor steers toward
	TargetFPS = 60.0

	// CriticalFPS is the moving-average floor below which quality degrades
	CriticalFPS = 45.0

	// GovernorEvalInterval is the minimum spacing between governor evaluations
	GovernorEvalInterval = time.Second

	// QualityOverrideCooldown locks the quality level after a manual override
	QualityOverrideCooldown = 30 * time.Second
)

// Input & Event Limits
const (
	// InputQueueSize is the fixed capacity of the input ring buffer
	InputQueueSize = 1024

	// InputBufferMask is the bitmask for fast modulo operations (1024 - 1)
	InputBufferMask = 1023
)

// Performance Sampling
const (
	// SampleWindowSize holds ~1s of samples at 60fps
	SampleWindowSize = 60
)

// Deferred Analysis Scheduling
const (
	// AnalysisDebounce collapses bursts of analysis requests into one
	AnalysisDebounce = 100 * time.Millisecond
)

// Failure Isolation
const (
	// ModuleMaxErrors is the per-module render error count that trips the circuit breaker
	ModuleMaxErrors = 5

	// BoundaryMaxFailures withdraws retry once the rolling failure count reaches it
	BoundaryMaxFailures = 5
)
