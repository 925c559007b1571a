package governor

import (
	"time"

	"github.com/aldrenn/starmap/parameter"
)

// QualityLevel is the ordered rendering trade-off tier
// Exactly one level is active at a time
type QualityLevel int

const (
	QualityLow QualityLevel = iota
	QualityMedium
	QualityHigh
	QualityUltra

	qualityCount = 4
)

// String returns the level name
func (q QualityLevel) String() string {
	switch q {
	case QualityLow:
		return "low"
	case QualityMedium:
		return "medium"
	case QualityHigh:
		return "high"
	case QualityUltra:
		return "ultra"
	default:
		return "invalid"
	}
}

func (q QualityLevel) clamp() QualityLevel {
	if q < QualityLow {
		return QualityLow
	}
	if q > QualityUltra {
		return QualityUltra
	}
	return q
}

// QualitySettings is the bundle of rendering trade-offs one level maps to
type QualitySettings struct {
	// MaxObjects caps the visible entity count after culling
	MaxObjects int

	// SkipInterval N > 0 renders every (N+1)th frame
	SkipInterval int

	// RenderThrottle is the minimum spacing between composed frames
	RenderThrottle time.Duration

	// Feature toggles
	Glow          bool
	Animations    bool
	ParticleTrail bool
}

var qualityTable = [qualityCount]QualitySettings{
	{
		MaxObjects:     parameter.MaxObjectsLow,
		SkipInterval:   parameter.SkipIntervalLow,
		RenderThrottle: parameter.RenderThrottleLow,
	},
	{
		MaxObjects:     parameter.MaxObjectsMedium,
		SkipInterval:   parameter.SkipIntervalMedium,
		RenderThrottle: parameter.RenderThrottleMedium,
		Glow:           true,
	},
	{
		MaxObjects:     parameter.MaxObjectsHigh,
		SkipInterval:   parameter.SkipIntervalHigh,
		RenderThrottle: parameter.RenderThrottleHigh,
		Glow:           true,
		Animations:     true,
	},
	{
		MaxObjects:     parameter.MaxObjectsUltra,
		SkipInterval:   parameter.SkipIntervalUltra,
		RenderThrottle: parameter.RenderThrottleUltra,
		Glow:           true,
		Animations:     true,
		ParticleTrail:  true,
	},
}

// SettingsFor returns the settings record for a level (clamped)
func SettingsFor(q QualityLevel) QualitySettings {
	return qualityTable[q.clamp()]
}
