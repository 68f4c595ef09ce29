package config

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
)

// Default strategy parameter values
const (
	DefaultFastPeriod          = 12
	DefaultSlowPeriod          = 26
	DefaultSLMultiplier        = 2.0
	DefaultTPMultiplier        = 4.0
	DefaultUseTrendFilter      = true
	DefaultMinVolumePercentile = 25.0
	DefaultMinATRPercentile    = 25.0

	// Engine defaults
	DefaultInitialBalance = 10000.0
	DefaultCommission     = 0.001 // 0.1%
	DefaultPositionSize   = 0.10  // 10% of capital per trade
	DefaultATRWindow      = 14
	DefaultPctWindow      = 100
	DefaultTrendPeriod    = 200
	DefaultTrendSlopeBars = 12
	DefaultSlopeThreshold = 0.001
	DefaultTrailingMult   = 3.0
	DefaultPeriodsPerYear = 252.0

	// Optimization defaults
	DefaultMaxCombinations = 10000
)

// StrategyParams is one moving-average crossover parameter combination.
type StrategyParams struct {
	FastPeriod          int     `json:"fast_period"`
	SlowPeriod          int     `json:"slow_period"`
	SLMultiplier        float64 `json:"sl_multiplier"`
	TPMultiplier        float64 `json:"tp_multiplier"`
	UseTrendFilter      bool    `json:"use_trend_filter"`
	MinVolumePercentile float64 `json:"min_volume_percentile"`
	MinATRPercentile    float64 `json:"min_atr_percentile"`
}

// Name returns a short identifier like "MA_12_26" used in logs and reports
func (p StrategyParams) Name() string {
	return fmt.Sprintf("MA_%d_%d", p.FastPeriod, p.SlowPeriod)
}

// IntRange describes an optimizable integer parameter
type IntRange struct {
	Default int `json:"default"`
	Min     int `json:"min"`
	Max     int `json:"max"`
	Step    int `json:"step"`
}

// Values expands the range into its discrete candidates
func (r IntRange) Values() []int {
	step := r.Step
	if step <= 0 {
		step = 1
	}
	if r.Max < r.Min {
		return nil
	}
	var vals []int
	for v := r.Min; v <= r.Max; v += step {
		vals = append(vals, v)
	}
	return vals
}

// FloatRange describes an optimizable float parameter
type FloatRange struct {
	Default float64 `json:"default"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Step    float64 `json:"step"`
}

// Values expands the range into its discrete candidates
func (r FloatRange) Values() []float64 {
	step := r.Step
	if step <= 0 {
		return []float64{r.Min}
	}
	if r.Max < r.Min {
		return nil
	}
	var vals []float64
	// Small epsilon so Max itself survives float accumulation error
	for v := r.Min; v <= r.Max+step*1e-9; v += step {
		vals = append(vals, v)
	}
	return vals
}

// OptimizationRanges mirrors the strategy parameter table: one range per
// optimizable dimension plus the trend-filter variants to test.
type OptimizationRanges struct {
	FastPeriod          IntRange   `json:"fast_period"`
	SlowPeriod          IntRange   `json:"slow_period"`
	SLMultiplier        FloatRange `json:"sl_multiplier"`
	TPMultiplier        FloatRange `json:"tp_multiplier"`
	UseTrendFilter      []bool     `json:"use_trend_filter"`
	MinVolumePercentile FloatRange `json:"min_volume_percentile"`
	MinATRPercentile    FloatRange `json:"min_atr_percentile"`
}

// Config holds all configuration for crossover backtesting and optimization
type Config struct {
	DataFile       string  `json:"data_file"`
	Symbol         string  `json:"symbol"`
	Interval       string  `json:"interval"`
	InitialBalance float64 `json:"initial_balance"`
	Commission     float64 `json:"commission"`
	PositionSize   float64 `json:"position_size"`

	// Indicator settings shared by every combination
	MAType              string  `json:"ma_type"` // "ema" or "sma"
	ATRWindow           int     `json:"atr_window"`
	PercentileWindow    int     `json:"percentile_window"`
	TrendPeriod         int     `json:"trend_period"`
	TrendSlopeBars      int     `json:"trend_slope_bars"`
	TrendSlopeThreshold float64 `json:"trend_slope_threshold"`

	// Exit handling
	TrailingStop       bool    `json:"trailing_stop"`
	TrailingMultiplier float64 `json:"trailing_multiplier"`

	// Metrics
	PeriodsPerYear float64 `json:"periods_per_year"`

	// Optimization
	Workers         int                `json:"workers"`
	MaxCombinations int                `json:"max_combinations"`
	Strategy        StrategyParams     `json:"strategy"`
	Optimization    OptimizationRanges `json:"optimization"`
}

// DefaultConfig returns a config populated with every default, including the
// optimization grid used when no config file is supplied.
func DefaultConfig() *Config {
	return &Config{
		Symbol:         "BTCUSDT",
		Interval:       "60",
		InitialBalance: DefaultInitialBalance,
		Commission:     DefaultCommission,
		PositionSize:   DefaultPositionSize,

		MAType:              "ema",
		ATRWindow:           DefaultATRWindow,
		PercentileWindow:    DefaultPctWindow,
		TrendPeriod:         DefaultTrendPeriod,
		TrendSlopeBars:      DefaultTrendSlopeBars,
		TrendSlopeThreshold: DefaultSlopeThreshold,

		TrailingStop:       false,
		TrailingMultiplier: DefaultTrailingMult,

		PeriodsPerYear: DefaultPeriodsPerYear,

		Workers:         runtime.NumCPU(),
		MaxCombinations: DefaultMaxCombinations,

		Strategy: StrategyParams{
			FastPeriod:          DefaultFastPeriod,
			SlowPeriod:          DefaultSlowPeriod,
			SLMultiplier:        DefaultSLMultiplier,
			TPMultiplier:        DefaultTPMultiplier,
			UseTrendFilter:      DefaultUseTrendFilter,
			MinVolumePercentile: DefaultMinVolumePercentile,
			MinATRPercentile:    DefaultMinATRPercentile,
		},

		Optimization: OptimizationRanges{
			FastPeriod:          IntRange{Default: DefaultFastPeriod, Min: 5, Max: 20, Step: 3},
			SlowPeriod:          IntRange{Default: DefaultSlowPeriod, Min: 15, Max: 40, Step: 5},
			SLMultiplier:        FloatRange{Default: DefaultSLMultiplier, Min: 1.5, Max: 2.5, Step: 0.5},
			TPMultiplier:        FloatRange{Default: DefaultTPMultiplier, Min: 3.0, Max: 5.0, Step: 1.0},
			UseTrendFilter:      []bool{true},
			MinVolumePercentile: FloatRange{Default: DefaultMinVolumePercentile, Min: 25, Max: 25, Step: 0},
			MinATRPercentile:    FloatRange{Default: DefaultMinATRPercentile, Min: 25, Max: 25, Step: 0},
		},
	}
}

// LoadConfig reads a JSON config file over the defaults. An empty path
// returns the defaults unchanged.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// MaxLookback returns the longest indicator warmup any combination in the
// optimization grid can require. The data must be at least this long.
func (c *Config) MaxLookback() int {
	maxSlow := c.Optimization.SlowPeriod.Max
	if c.Strategy.SlowPeriod > maxSlow {
		maxSlow = c.Strategy.SlowPeriod
	}
	lookback := maxSlow + c.ATRWindow
	for _, tf := range c.Optimization.UseTrendFilter {
		if tf && c.TrendPeriod+c.TrendSlopeBars > lookback {
			lookback = c.TrendPeriod + c.TrendSlopeBars
		}
	}
	if c.Strategy.UseTrendFilter && c.TrendPeriod+c.TrendSlopeBars > lookback {
		lookback = c.TrendPeriod + c.TrendSlopeBars
	}
	return lookback
}
