package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/aldrenn/starmap/parameter"
)

// Config is host-supplied runtime tuning, loaded from environment
// variables. Defaults mirror the compile-time constants in parameter;
// persistence of these values is the host's responsibility
type Config struct {
	TargetFPS        float64       `env:"STARMAP_TARGET_FPS"        envDefault:"60"`
	CriticalFPS      float64       `env:"STARMAP_CRITICAL_FPS"      envDefault:"45"`
	EvalInterval     time.Duration `env:"STARMAP_EVAL_INTERVAL"     envDefault:"1s"`
	OverrideCooldown time.Duration `env:"STARMAP_OVERRIDE_COOLDOWN" envDefault:"30s"`
	GestureThrottle  time.Duration `env:"STARMAP_GESTURE_THROTTLE"  envDefault:"75ms"`
	AnalysisDebounce time.Duration `env:"STARMAP_ANALYSIS_DEBOUNCE" envDefault:"100ms"`
	PoolCapacity     int           `env:"STARMAP_POOL_CAPACITY"     envDefault:"512"`
	PoolThreshold    float64       `env:"STARMAP_POOL_THRESHOLD"    envDefault:"0.90"`
	MinScale         float64       `env:"STARMAP_MIN_SCALE"         envDefault:"0.1"`
	MaxScale         float64       `env:"STARMAP_MAX_SCALE"         envDefault:"5.0"`
	DebugOverlay     bool          `env:"STARMAP_DEBUG_OVERLAY"     envDefault:"false"`
}

// Load parses configuration from the environment
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the compiled-in configuration without touching the
// environment
func Default() Config {
	return Config{
		TargetFPS:        parameter.TargetFPS,
		CriticalFPS:      parameter.CriticalFPS,
		EvalInterval:     parameter.GovernorEvalInterval,
		OverrideCooldown: parameter.QualityOverrideCooldown,
		GestureThrottle:  parameter.GestureThrottle,
		AnalysisDebounce: parameter.AnalysisDebounce,
		PoolCapacity:     parameter.PoolDefaultCapacity,
		PoolThreshold:    parameter.PoolEmergencyThreshold,
		MinScale:         parameter.MinScale,
		MaxScale:         parameter.MaxScale,
	}
}

// Validate rejects configurations that would break controller invariants
func (c Config) Validate() error {
	if c.TargetFPS <= 0 {
		return fmt.Errorf("target fps must be positive, got %v", c.TargetFPS)
	}
	if c.CriticalFPS <= 0 || c.CriticalFPS > c.TargetFPS {
		return fmt.Errorf("critical fps must be in (0, target], got %v", c.CriticalFPS)
	}
	if c.MinScale <= 0 || c.MinScale >= c.MaxScale {
		return fmt.Errorf("scale bounds invalid: [%v, %v]", c.MinScale, c.MaxScale)
	}
	if c.PoolCapacity < 1 {
		return fmt.Errorf("pool capacity must be at least 1, got %d", c.PoolCapacity)
	}
	if c.PoolThreshold <= 0 || c.PoolThreshold > 1 {
		return fmt.Errorf("pool threshold must be in (0, 1], got %v", c.PoolThreshold)
	}
	return nil
}
