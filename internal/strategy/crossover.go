// Package strategy turns indicator frames into per-bar trading signals.
package strategy

import (
	"github.com/quantduc/crossover-bot/internal/indicators"
	"github.com/quantduc/crossover-bot/pkg/config"
)

// Signal is the per-bar output of the crossover strategy.
type Signal int8

const (
	SignalNone Signal = iota
	SignalLong        // fast MA crossed above slow MA and all filters passed
	SignalExit        // fast MA crossed back below slow MA
)

// Crossover implements the filtered moving-average crossover strategy for
// one parameter combination.
type Crossover struct {
	params   config.StrategyParams
	settings indicators.Settings
	slopeMin float64
}

// NewCrossover creates a crossover strategy for the given combination.
func NewCrossover(params config.StrategyParams, settings indicators.Settings, slopeThreshold float64) *Crossover {
	return &Crossover{
		params:   params,
		settings: settings,
		slopeMin: slopeThreshold,
	}
}

// Name returns the strategy identifier, e.g. "MA_12_26".
func (c *Crossover) Name() string { return c.params.Name() }

// Compute builds the indicator frame this strategy needs.
func (c *Crossover) Compute(in *indicators.Inputs) *indicators.Frame {
	return indicators.Compute(in, c.params.FastPeriod, c.params.SlowPeriod, c.params.UseTrendFilter, c.settings)
}

// Signals evaluates the whole series in one pass and returns one signal per
// bar. Bars inside the warmup prefix never produce a signal.
func (c *Crossover) Signals(in *indicators.Inputs, f *indicators.Frame) []Signal {
	out := make([]Signal, in.Len())

	for i := 1; i < in.Len(); i++ {
		if !f.Defined(i) || !f.Defined(i-1) {
			continue
		}

		fastAbove := f.FastMA[i] > f.SlowMA[i]
		prevFastAbove := f.FastMA[i-1] > f.SlowMA[i-1]

		switch {
		case fastAbove && !prevFastAbove:
			if c.entryFiltersPass(in, f, i) {
				out[i] = SignalLong
			}
		case !fastAbove && prevFastAbove:
			out[i] = SignalExit
		}
	}

	return out
}

// entryFiltersPass applies the volume, volatility, and trend filters to a
// crossover bar. Exit crossovers are never filtered.
func (c *Crossover) entryFiltersPass(in *indicators.Inputs, f *indicators.Frame, i int) bool {
	if f.VolumePct[i] < c.params.MinVolumePercentile {
		return false
	}
	if f.ATRPct[i] < c.params.MinATRPercentile {
		return false
	}
	if c.params.UseTrendFilter {
		// Longs only with price above the long-horizon average and the
		// average itself rising.
		if in.Close[i] <= f.TrendMA[i] {
			return false
		}
		if f.TrendSlope[i] <= c.slopeMin {
			return false
		}
	}
	return true
}
