package parameter

// Viewport scale thresholds for the discrete LOD table.
// Scale below a threshold selects the corresponding level or lower.
const (
	LODScaleMinimal = 0.3
	LODScaleLow     = 0.6
	LODScaleMedium  = 1.0
	LODScaleHigh    = 2.0
)

// Adaptive LOD reaction regimes, as measured-frame-time / target-frame-time.
// This per-call loop is intentionally independent of the governor's windowed
// thresholds; the two controllers react at different time scales.
const (
	// AdaptiveForceMinimalRatio forces the minimal level
	AdaptiveForceMinimalRatio = 2.0

	// AdaptiveDropTwoRatio drops two levels
	AdaptiveDropTwoRatio = 1.5

	// AdaptiveDropOneRatio drops one level
	AdaptiveDropOneRatio = 1.2

	// AdaptiveRaiseRatio raises one level when comfortably under budget
	AdaptiveRaiseRatio = 0.8
)

// Priority ranking weights. The blend is:
//
//	priority = PriorityDistanceWeight*(1 - normalizedCenterDistance) +
//	           PrioritySignificanceWeight*significance
//
// Weights sum to 1 so priorities stay in [0, 1] for significance in [0, 1].
const (
	PriorityDistanceWeight     = 0.6
	PrioritySignificanceWeight = 0.4
)
