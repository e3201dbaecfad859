package services

import "time"

// EngineConfig tunes the planning engine.
type EngineConfig struct {
	// CanonicalHorizonMonths is the lead time the canonical offsets assume.
	CanonicalHorizonMonths int
	// MaxDependencyPasses caps dependency enforcement.
	MaxDependencyPasses int
	// WeekStart is the day block dates snap back to.
	WeekStart time.Weekday
}

// DefaultEngineConfig returns a 12 month horizon, 100 passes and Sunday weeks.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		CanonicalHorizonMonths: 12,
		MaxDependencyPasses:    100,
		WeekStart:              time.Sunday,
	}
}

func (c EngineConfig) withDefaults() EngineConfig {
	d := DefaultEngineConfig()
	if c.CanonicalHorizonMonths <= 0 {
		c.CanonicalHorizonMonths = d.CanonicalHorizonMonths
	}
	if c.MaxDependencyPasses <= 0 {
		c.MaxDependencyPasses = d.MaxDependencyPasses
	}
	return c
}
