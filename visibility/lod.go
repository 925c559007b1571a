package visibility

import (
	"time"

	"github.com/aldrenn/starmap/parameter"
)

// Level is a discrete rendering fidelity tier
type Level int

const (
	LevelMinimal Level = iota
	LevelLow
	LevelMedium
	LevelHigh
	LevelUltra

	levelCount = 5
)

// String returns the level name
func (l Level) String() string {
	switch l {
	case LevelMinimal:
		return "Minimal"
	case LevelLow:
		return "Low"
	case LevelMedium:
		return "Medium"
	case LevelHigh:
		return "High"
	case LevelUltra:
		return "Ultra"
	default:
		return "Invalid"
	}
}

// Features is the per-level feature toggle bundle
type Features struct {
	Labels     bool
	Glow       bool
	Animations bool
	Connectors bool
}

// Settings describes one row of the LOD table
type Settings struct {
	// MaxDistance is the per-object world distance ceiling for this level
	MaxDistance float64

	Features Features

	// Complexity scales render effort (particle counts, segment counts)
	Complexity float64
}

// lodTable is the ordered 5-level detail table. Index = Level
var lodTable = [levelCount]Settings{
	{MaxDistance: 4000, Features: Features{}, Complexity: 0.1},
	{MaxDistance: 2000, Features: Features{Connectors: true}, Complexity: 0.3},
	{MaxDistance: 1000, Features: Features{Labels: true, Connectors: true}, Complexity: 0.6},
	{MaxDistance: 500, Features: Features{Labels: true, Glow: true, Connectors: true}, Complexity: 0.85},
	{MaxDistance: 250, Features: Features{Labels: true, Glow: true, Animations: true, Connectors: true}, Complexity: 1.0},
}

// SettingsFor returns the table row for a level (clamped)
func SettingsFor(l Level) Settings {
	return lodTable[l.clamp()]
}

func (l Level) clamp() Level {
	if l < LevelMinimal {
		return LevelMinimal
	}
	if l > LevelUltra {
		return LevelUltra
	}
	return l
}

// SelectByScale maps a viewport scale to a detail level
// Monotonic: smaller scale (zoomed out) never yields more detail
func SelectByScale(scale float64) Level {
	switch {
	case scale < parameter.LODScaleMinimal:
		return LevelMinimal
	case scale < parameter.LODScaleLow:
		return LevelLow
	case scale < parameter.LODScaleMedium:
		return LevelMedium
	case scale < parameter.LODScaleHigh:
		return LevelHigh
	default:
		return LevelUltra
	}
}

// SelectByDistance maps a per-object world distance to the most
// detailed level whose MaxDistance still covers it
func SelectByDistance(distance float64) Level {
	for l := LevelUltra; l > LevelMinimal; l-- {
		if distance <= lodTable[l].MaxDistance {
			return l
		}
	}
	return LevelMinimal
}

// Adapt applies the per-call frame-time reaction to a table-selected
// level. This loop is intentionally faster than, and independent of,
// the governor's windowed average
//
// Degrading conditions never increase detail within one evaluation:
// only a comfortably under-budget frame raises the level, by one
func Adapt(selected Level, frameTime, target time.Duration) Level {
	if target <= 0 {
		return selected.clamp()
	}
	ratio := float64(frameTime) / float64(target)

	switch {
	case ratio > parameter.AdaptiveForceMinimalRatio:
		return LevelMinimal
	case ratio > parameter.AdaptiveDropTwoRatio:
		return (selected - 2).clamp()
	case ratio > parameter.AdaptiveDropOneRatio:
		return (selected - 1).clamp()
	case ratio < parameter.AdaptiveRaiseRatio:
		return (selected + 1).clamp()
	default:
		return selected.clamp()
	}
}
