// Command backtest runs a moving-average crossover simulation over
// historical candles, either for a single parameter combination or as a
// parallel grid search over the whole parameter space.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/quantduc/crossover-bot/internal/backtest"
	"github.com/quantduc/crossover-bot/internal/monitoring"
	"github.com/quantduc/crossover-bot/internal/optimize"
	"github.com/quantduc/crossover-bot/pkg/config"
	"github.com/quantduc/crossover-bot/pkg/data"
	"github.com/quantduc/crossover-bot/pkg/reporting"
	"github.com/quantduc/crossover-bot/pkg/types"
)

const (
	appName    = "Crossover Backtest"
	appVersion = "1.0.0"
)

func main() {
	flags := NewFlags()
	flag.Parse()

	fmt.Printf("🎯 %s v%s\n", strings.ToUpper(appName), appVersion)
	fmt.Printf("%s\n\n", strings.Repeat("=", 50))

	if err := godotenv.Load(*flags.EnvFile); err != nil {
		log.Printf("⚠️  Could not load %s (%v)", *flags.EnvFile, err)
		log.Println("📋 Using system environment variables")
	}

	cfg, err := config.LoadConfig(*flags.ConfigFile)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}
	applyOverrides(cfg, flags)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	if *flags.MetricsAddr != "" {
		errCh := monitoring.Serve(*flags.MetricsAddr)
		go func() {
			if err := <-errCh; err != nil {
				log.Printf("⚠️  Metrics endpoint failed: %v", err)
			}
		}()
		log.Printf("📈 Prometheus metrics on %s/metrics", *flags.MetricsAddr)
	}

	series, err := loadSeries(cfg, flags)
	if err != nil {
		log.Fatalf("❌ Data error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *flags.Optimize {
		runOptimization(ctx, cfg, series, flags)
		return
	}
	runSingleBacktest(cfg, series, flags)
}

// applyOverrides layers explicitly-set command line flags over the loaded
// config. flag.Visit only reports flags the user actually passed, so config
// file values survive untouched defaults.
func applyOverrides(cfg *config.Config, flags *Flags) {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["data"] {
		cfg.DataFile = *flags.DataFile
	}
	if set["symbol"] {
		cfg.Symbol = strings.ToUpper(*flags.Symbol)
	}
	if set["interval"] {
		cfg.Interval = *flags.Interval
	}
	if set["fast"] {
		cfg.Strategy.FastPeriod = *flags.FastPeriod
	}
	if set["slow"] {
		cfg.Strategy.SlowPeriod = *flags.SlowPeriod
	}
	if set["sl"] {
		cfg.Strategy.SLMultiplier = *flags.SLMultiplier
	}
	if set["tp"] {
		cfg.Strategy.TPMultiplier = *flags.TPMultiplier
	}
	if set["trend-filter"] {
		cfg.Strategy.UseTrendFilter = *flags.TrendFilter
	}
	if set["min-vol-pct"] {
		cfg.Strategy.MinVolumePercentile = *flags.MinVolPct
	}
	if set["min-atr-pct"] {
		cfg.Strategy.MinATRPercentile = *flags.MinATRPct
	}
	if set["balance"] {
		cfg.InitialBalance = *flags.InitialBalance
	}
	if set["commission"] {
		cfg.Commission = *flags.Commission
	}
	if set["workers"] {
		cfg.Workers = *flags.Workers
	}
}

func loadSeries(cfg *config.Config, flags *Flags) ([]types.OHLCV, error) {
	provider := data.NewCachedProvider(data.NewCSVProvider())

	series, err := provider.LoadData(cfg.DataFile)
	if err != nil {
		return nil, &backtest.DataError{Reason: fmt.Sprintf("loading %s", cfg.DataFile), Err: err}
	}

	filter := data.NewDefaultDataFilter()

	if *flags.StartDate != "" || *flags.EndDate != "" {
		start := time.Time{}
		end := time.Now()
		if *flags.StartDate != "" {
			start, err = time.Parse("2006-01-02", *flags.StartDate)
			if err != nil {
				return nil, fmt.Errorf("invalid start date: %w", err)
			}
		}
		if *flags.EndDate != "" {
			end, err = time.Parse("2006-01-02", *flags.EndDate)
			if err != nil {
				return nil, fmt.Errorf("invalid end date: %w", err)
			}
		}
		series = filter.FilterByDateRange(series, start, end)
	}

	if *flags.Period != "" {
		d, ok := data.ParseTrailingPeriod(*flags.Period)
		if !ok {
			return nil, fmt.Errorf("invalid period format: %s (use 7d, 30d, 180d, 365d)", *flags.Period)
		}
		series = filter.FilterByPeriod(series, d)
	}

	if err := provider.ValidateData(series); err != nil {
		return nil, &backtest.DataError{Reason: "series failed validation", Err: err}
	}

	log.Printf("📊 Using %d candles (%s .. %s)", len(series),
		series[0].Timestamp.Format("2006-01-02 15:04"),
		series[len(series)-1].Timestamp.Format("2006-01-02 15:04"))
	return series, nil
}

func runSingleBacktest(cfg *config.Config, series []types.OHLCV, flags *Flags) {
	evaluator := backtest.NewEvaluator(cfg, series)

	results, metrics, err := evaluator.EvaluateCombination(cfg.Strategy)
	if err != nil {
		log.Fatalf("❌ Backtest failed: %v", err)
	}

	reporting.PrintBacktestSummary(cfg.Strategy, results, metrics)

	if *flags.ConsoleOnly {
		return
	}

	outDir := *flags.OutputDir
	if outDir == "" {
		outDir = reporting.OutputDir(cfg.Symbol, cfg.Interval)
	}
	tradesPath := reporting.TimestampedPath(outDir, "trades", ".csv")
	if err := reporting.WriteTradesCSV(results, tradesPath); err != nil {
		log.Fatalf("❌ Failed to write trades: %v", err)
	}
	log.Printf("💾 Trades written to %s", tradesPath)
}

func runOptimization(ctx context.Context, cfg *config.Config, series []types.OHLCV, flags *Flags) {
	optimizer, err := optimize.New(cfg, series)
	if err != nil {
		log.Fatalf("❌ Optimization setup failed: %v", err)
	}

	report, err := optimizer.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("❌ Optimization failed: %v", err)
	}
	if errors.Is(err, context.Canceled) {
		log.Println("⚠️  Interrupted — reporting partial results")
	}

	reporting.PrintTopResults(report, *flags.TopN)

	if report.Best != nil {
		reporting.PrintBestConfig(reporting.BestConfig{
			Symbol:   cfg.Symbol,
			Interval: cfg.Interval,
			Strategy: report.Best.Params,
			Metrics:  report.Best.Metrics,
			Total:    report.Total,
		})
	}

	if *flags.ConsoleOnly {
		return
	}

	outDir := *flags.OutputDir
	if outDir == "" {
		outDir = reporting.OutputDir(cfg.Symbol, cfg.Interval)
	}
	if err := writeOptimizationOutputs(report, cfg, outDir); err != nil {
		log.Fatalf("❌ Failed to write optimization outputs: %v", err)
	}
}

// writeOptimizationOutputs persists the grid results. The ranked CSV is
// written for every completed run, even one where all combinations failed;
// the best-params JSON and the Excel workbook need a winner.
func writeOptimizationOutputs(report *optimize.Report, cfg *config.Config, outDir string) error {
	csvPath := reporting.TimestampedPath(outDir, "optimization_results", ".csv")
	if err := reporting.WriteOptimizationCSV(report, csvPath); err != nil {
		return err
	}
	log.Printf("💾 Grid results written to %s", csvPath)

	if report.Best == nil {
		log.Println("⚠️  No successful combination — skipping best-params and Excel outputs")
		return nil
	}

	jsonPath := reporting.TimestampedPath(outDir, "best_params", ".json")
	best := reporting.BestConfig{
		Symbol:   cfg.Symbol,
		Interval: cfg.Interval,
		Strategy: report.Best.Params,
		Metrics:  report.Best.Metrics,
		Total:    report.Total,
	}
	if err := reporting.WriteBestConfigJSON(best, jsonPath); err != nil {
		return err
	}
	log.Printf("💾 Best parameters written to %s", jsonPath)

	xlsxPath := reporting.TimestampedPath(outDir, "optimization_report", ".xlsx")
	if err := reporting.WriteOptimizationXLSX(report, cfg.Symbol, cfg.Interval, xlsxPath); err != nil {
		return err
	}
	log.Printf("💾 Excel workbook written to %s", xlsxPath)
	return nil
}
