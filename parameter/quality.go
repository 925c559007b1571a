package parameter

import "time"

// Quality degrade tiers, expressed as fractions of CriticalFPS.
// The deeper the deficit, the more levels a single evaluation drops.
const (
	// DegradeSevereRatio: average below this fraction of critical jumps straight to Low
	DegradeSevereRatio = 0.50

	// DegradeHeavyRatio: average below this fraction of critical drops two levels
	DegradeHeavyRatio = 0.75
)

// Quality upgrade gate, expressed as fractions of TargetFPS.
// Both conditions must hold across the full sample window.
const (
	// UpgradeAvgRatio is the moving-average requirement
	UpgradeAvgRatio = 0.98

	// UpgradeMinRatio is the window-minimum requirement
	UpgradeMinRatio = 0.95
)

// Per-level render budgets. Index order matches governor.QualityLevel.
const (
	MaxObjectsLow    = 150
	MaxObjectsMedium = 400
	MaxObjectsHigh   = 800
	MaxObjectsUltra  = 2000
)

// Per-level frame-skip intervals. N > 0 renders every (N+1)th frame.
const (
	SkipIntervalLow    = 2
	SkipIntervalMedium = 1
	SkipIntervalHigh   = 0
	SkipIntervalUltra  = 0
)

// Per-level render throttles (minimum spacing between composed frames).
const (
	RenderThrottleLow    = 50 * time.Millisecond
	RenderThrottleMedium = 33 * time.Millisecond
	RenderThrottleHigh   = 0 * time.Millisecond
	RenderThrottleUltra  = 0 * time.Millisecond
)
