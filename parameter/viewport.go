package parameter

import "time"

// Viewport Scale Bounds
const (
	// MinScale is the furthest zoom-out
	MinScale = 0.1

	// MaxScale is the closest zoom-in
	MaxScale = 5.0

	// DefaultScale is the initial viewport scale
	DefaultScale = 1.0
)

// Gesture Throttling
const (
	// GestureThrottle bounds viewport-changed propagation during an active gesture
	GestureThrottle = 75 * time.Millisecond
)
