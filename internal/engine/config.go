package engine

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Config holds the engine's evaluation tunables.
type Config struct {
	// Freshness is the age beyond which a latest sample is tagged stale.
	Freshness time.Duration
	// TrendLookback is the window span read for pressure trend rules.
	TrendLookback time.Duration
	// DeltaTolerance is the maximum timestamp skew allowed between the
	// two stations of a cross-station pressure delta rule.
	DeltaTolerance time.Duration
	// FetchTimeout bounds each individual sample lookup.
	FetchTimeout time.Duration
	// GustEpsilon is the wind speed below which a gust ratio is
	// considered unevaluable rather than divided toward infinity.
	GustEpsilon float64
	// MaxParallel caps concurrent rule evaluations within one location.
	MaxParallel int

	Clock clockwork.Clock
}

func (c Config) withDefaults() Config {
	if c.Freshness <= 0 {
		c.Freshness = 60 * time.Minute
	}
	if c.TrendLookback <= 0 {
		c.TrendLookback = 3 * time.Hour
	}
	if c.DeltaTolerance <= 0 {
		c.DeltaTolerance = 15 * time.Minute
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 5 * time.Second
	}
	if c.GustEpsilon <= 0 {
		c.GustEpsilon = 0.1
	}
	if c.MaxParallel <= 0 {
		c.MaxParallel = 8
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	return c
}
