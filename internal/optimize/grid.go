// Package optimize explores the strategy parameter space in parallel and
// ranks the outcomes.
package optimize

import "github.com/quantduc/crossover-bot/pkg/config"

// Combinations enumerates the parameter grid in a fixed deterministic
// order. Combinations violating fast < slow are excluded here, before any
// worker ever sees them. When the full product exceeds maxCombinations the
// grid is thinned by a deterministic stride so repeated runs sample the
// same subset.
func Combinations(cfg *config.Config) []config.StrategyParams {
	opt := cfg.Optimization

	fastValues := opt.FastPeriod.Values()
	slowValues := opt.SlowPeriod.Values()
	slValues := opt.SLMultiplier.Values()
	tpValues := opt.TPMultiplier.Values()
	trendValues := opt.UseTrendFilter
	volValues := opt.MinVolumePercentile.Values()
	atrValues := opt.MinATRPercentile.Values()

	var combos []config.StrategyParams
	for _, fast := range fastValues {
		for _, slow := range slowValues {
			if fast >= slow {
				continue
			}
			for _, sl := range slValues {
				for _, tp := range tpValues {
					for _, trend := range trendValues {
						for _, vol := range volValues {
							for _, atr := range atrValues {
								combos = append(combos, config.StrategyParams{
									FastPeriod:          fast,
									SlowPeriod:          slow,
									SLMultiplier:        sl,
									TPMultiplier:        tp,
									UseTrendFilter:      trend,
									MinVolumePercentile: vol,
									MinATRPercentile:    atr,
								})
							}
						}
					}
				}
			}
		}
	}

	if cfg.MaxCombinations > 0 && len(combos) > cfg.MaxCombinations {
		combos = sampleByStride(combos, cfg.MaxCombinations)
	}
	return combos
}

// sampleByStride keeps at most limit combinations, spaced evenly across the
// ordered grid.
func sampleByStride(combos []config.StrategyParams, limit int) []config.StrategyParams {
	stride := (len(combos) + limit - 1) / limit
	sampled := make([]config.StrategyParams, 0, limit)
	for i := 0; i < len(combos) && len(sampled) < limit; i += stride {
		sampled = append(sampled, combos[i])
	}
	return sampled
}
