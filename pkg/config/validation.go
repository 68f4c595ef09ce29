package config

import "fmt"

// Validate checks a single parameter combination for structural validity.
func (p StrategyParams) Validate() error {
	if p.FastPeriod <= 0 {
		return fmt.Errorf("fast_period must be positive, got %d", p.FastPeriod)
	}
	if p.SlowPeriod <= 0 {
		return fmt.Errorf("slow_period must be positive, got %d", p.SlowPeriod)
	}
	if p.FastPeriod >= p.SlowPeriod {
		return fmt.Errorf("fast_period (%d) must be less than slow_period (%d)", p.FastPeriod, p.SlowPeriod)
	}
	if p.SLMultiplier <= 0 {
		return fmt.Errorf("sl_multiplier must be positive, got %.2f", p.SLMultiplier)
	}
	if p.TPMultiplier <= 0 {
		return fmt.Errorf("tp_multiplier must be positive, got %.2f", p.TPMultiplier)
	}
	if p.MinVolumePercentile < 0 || p.MinVolumePercentile > 100 {
		return fmt.Errorf("min_volume_percentile must be within [0, 100], got %.2f", p.MinVolumePercentile)
	}
	if p.MinATRPercentile < 0 || p.MinATRPercentile > 100 {
		return fmt.Errorf("min_atr_percentile must be within [0, 100], got %.2f", p.MinATRPercentile)
	}
	return nil
}

// Validate checks the full run configuration.
func (c *Config) Validate() error {
	if c.InitialBalance <= 0 {
		return fmt.Errorf("initial_balance must be positive, got %.2f", c.InitialBalance)
	}
	if c.Commission < 0 || c.Commission >= 1 {
		return fmt.Errorf("commission must be within [0, 1), got %.4f", c.Commission)
	}
	if c.PositionSize <= 0 || c.PositionSize > 1 {
		return fmt.Errorf("position_size must be within (0, 1], got %.2f", c.PositionSize)
	}
	if c.MAType != "ema" && c.MAType != "sma" {
		return fmt.Errorf("ma_type must be \"ema\" or \"sma\", got %q", c.MAType)
	}
	if c.ATRWindow < 2 {
		return fmt.Errorf("atr_window must be at least 2, got %d", c.ATRWindow)
	}
	if c.PercentileWindow < 2 {
		return fmt.Errorf("percentile_window must be at least 2, got %d", c.PercentileWindow)
	}
	if c.TrendPeriod < 2 {
		return fmt.Errorf("trend_period must be at least 2, got %d", c.TrendPeriod)
	}
	if c.TrendSlopeBars < 1 {
		return fmt.Errorf("trend_slope_bars must be at least 1, got %d", c.TrendSlopeBars)
	}
	if c.TrailingStop && c.TrailingMultiplier <= 0 {
		return fmt.Errorf("trailing_multiplier must be positive when trailing_stop is enabled, got %.2f", c.TrailingMultiplier)
	}
	if c.PeriodsPerYear <= 0 {
		return fmt.Errorf("periods_per_year must be positive, got %.2f", c.PeriodsPerYear)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.MaxCombinations < 1 {
		return fmt.Errorf("max_combinations must be at least 1, got %d", c.MaxCombinations)
	}
	if err := c.Strategy.Validate(); err != nil {
		return fmt.Errorf("default strategy parameters invalid: %w", err)
	}
	if len(c.Optimization.UseTrendFilter) == 0 {
		return fmt.Errorf("optimization.use_trend_filter must list at least one value")
	}
	if c.Optimization.FastPeriod.Min <= 0 || c.Optimization.SlowPeriod.Min <= 0 {
		return fmt.Errorf("optimization periods must be positive")
	}
	return nil
}
