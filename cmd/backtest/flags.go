package main

import "flag"

// Flags groups every command line option of the backtest binary.
type Flags struct {
	// Run selection
	ConfigFile  *string
	DataFile    *string
	Symbol      *string
	Interval    *string
	Period      *string
	StartDate   *string
	EndDate     *string
	Optimize    *bool
	ConsoleOnly *bool
	OutputDir   *string
	TopN        *int

	// Strategy overrides (single backtest)
	FastPeriod   *int
	SlowPeriod   *int
	SLMultiplier *float64
	TPMultiplier *float64
	TrendFilter  *bool
	MinVolPct    *float64
	MinATRPct    *float64

	// Engine overrides
	InitialBalance *float64
	Commission     *float64
	Workers        *int

	// Infrastructure
	EnvFile     *string
	MetricsAddr *string
}

// NewFlags registers every flag. flag.Parse is left to the caller.
func NewFlags() *Flags {
	return &Flags{
		ConfigFile:  flag.String("config", "", "JSON config file (defaults used when empty)"),
		DataFile:    flag.String("data", "", "Historical data CSV file"),
		Symbol:      flag.String("symbol", "", "Trading symbol (e.g. BTCUSDT)"),
		Interval:    flag.String("interval", "", "Candle interval label (e.g. 1h)"),
		Period:      flag.String("period", "", "Restrict to trailing period (7d, 30d, 180d, 365d)"),
		StartDate:   flag.String("start", "", "Start date filter (YYYY-MM-DD)"),
		EndDate:     flag.String("end", "", "End date filter (YYYY-MM-DD)"),
		Optimize:    flag.Bool("optimize", false, "Run grid-search optimization instead of a single backtest"),
		ConsoleOnly: flag.Bool("console-only", false, "Print results without writing output files"),
		OutputDir:   flag.String("output", "", "Output directory (default results/<SYMBOL>_<interval>)"),
		TopN:        flag.Int("top", 10, "Number of top combinations to print after optimization"),

		FastPeriod:   flag.Int("fast", 0, "Fast MA period override"),
		SlowPeriod:   flag.Int("slow", 0, "Slow MA period override"),
		SLMultiplier: flag.Float64("sl", 0, "Stop-loss ATR multiplier override"),
		TPMultiplier: flag.Float64("tp", 0, "Take-profit ATR multiplier override"),
		TrendFilter:  flag.Bool("trend-filter", true, "Require price above a rising long-term EMA"),
		MinVolPct:    flag.Float64("min-vol-pct", -1, "Minimum volume percentile override"),
		MinATRPct:    flag.Float64("min-atr-pct", -1, "Minimum ATR percentile override"),

		InitialBalance: flag.Float64("balance", 0, "Initial balance override"),
		Commission:     flag.Float64("commission", -1, "Commission rate override (e.g. 0.001)"),
		Workers:        flag.Int("workers", 0, "Worker count for optimization (default: CPUs)"),

		EnvFile:     flag.String("env", ".env", "Environment file"),
		MetricsAddr: flag.String("metrics-addr", "", "Expose Prometheus metrics on this address (e.g. :9090)"),
	}
}
