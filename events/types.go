package events

import "time"

// EventType identifies a cross-module notification
type EventType uint16

const (
	EventNone EventType = iota

	// Viewport & input
	EventViewportChanged
	EventGestureStarted
	EventGestureEnded
	EventEntityTapped

	// Governor
	EventQualityChanged
	EventPerformanceWarning
	EventEmergencyReset
	EventPoolReclaimed

	// Module lifecycle
	EventModuleInitialized
	EventModuleFailed
	EventModuleEnabled
	EventModuleDisabled

	// Entity data
	EventEntitiesUpdated

	// Host chrome
	EventToastRequested

	// Deferred analysis
	EventAnalysisComplete
)

// String returns the event type name for diagnostics
func (t EventType) String() string {
	switch t {
	case EventViewportChanged:
		return "viewport_changed"
	case EventGestureStarted:
		return "gesture_started"
	case EventGestureEnded:
		return "gesture_ended"
	case EventEntityTapped:
		return "entity_tapped"
	case EventQualityChanged:
		return "quality_changed"
	case EventPerformanceWarning:
		return "performance_warning"
	case EventEmergencyReset:
		return "emergency_reset"
	case EventPoolReclaimed:
		return "pool_reclaimed"
	case EventModuleInitialized:
		return "module_initialized"
	case EventModuleFailed:
		return "module_failed"
	case EventModuleEnabled:
		return "module_enabled"
	case EventModuleDisabled:
		return "module_disabled"
	case EventEntitiesUpdated:
		return "entities_updated"
	case EventToastRequested:
		return "toast_requested"
	case EventAnalysisComplete:
		return "analysis_complete"
	default:
		return "none"
	}
}

// Event is a transient cross-module notification
// Ordering is emission order per bus; events are never persisted
type Event struct {
	Type      EventType
	Source    string // originating module id, empty for core subsystems
	Timestamp time.Time
	Payload   any
}
