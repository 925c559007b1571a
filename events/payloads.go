package events

import "github.com/aldrenn/starmap/core"

// ViewportChangedPayload carries the new viewport geometry
type ViewportChangedPayload struct {
	TranslateX float64
	TranslateY float64
	Scale      float64
	Bounds     core.Rect
	Immediate  bool // true when the update bypassed gesture throttling
}

// PanPayload carries a pan gesture delta in screen units
type PanPayload struct {
	DX, DY float64
}

// PinchPayload carries a pinch gesture update
type PinchPayload struct {
	Scale  float64
	FocalX float64
	FocalY float64
}

// TapPayload carries a tap location in screen units
type TapPayload struct {
	X, Y float64
}

// QualityChangedPayload announces a governor quality transition
type QualityChangedPayload struct {
	Previous int
	Current  int
	Reason   string
	Manual   bool
}

// PerformanceWarningPayload reports a sustained frame-rate deficit
// that forced an automatic quality drop
type PerformanceWarningPayload struct {
	AverageFPS float64
	Level      string
}

// ModuleStatePayload announces a module lifecycle transition
type ModuleStatePayload struct {
	ModuleID string
	State    string
	Err      error
}

// EntityUpdate adjusts one entity's render-relevant state without a
// full dataset swap. Carried in bulk via BatchPayload[EntityUpdate]
type EntityUpdate struct {
	ID           uint64
	Significance float64
}

// ToastPayload is forwarded to the host UI chrome for display
// The core never renders the toast itself
type ToastPayload struct {
	Kind     string // "info", "warning", "error"
	Message  string
	ModuleID string
}

// AnalysisCompletePayload carries the result of a deferred computation
type AnalysisCompletePayload struct {
	RequestID uint64
	Result    any
}
