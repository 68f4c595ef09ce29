package optimize

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/quantduc/crossover-bot/internal/backtest"
	"github.com/quantduc/crossover-bot/internal/monitoring"
	"github.com/quantduc/crossover-bot/pkg/config"
	"github.com/quantduc/crossover-bot/pkg/types"
)

// Optimizer drives a full grid search: it enumerates the parameter grid,
// fans the combinations out over a worker pool, and aggregates the ranked
// report.
type Optimizer struct {
	cfg       *config.Config
	evaluator *backtest.Evaluator
}

// New validates that the series can warm up every combination in the grid
// and prepares the shared evaluator.
func New(cfg *config.Config, series []types.OHLCV) (*Optimizer, error) {
	lookback := cfg.MaxLookback()
	if len(series) <= lookback {
		return nil, &backtest.DataError{
			Reason: fmt.Sprintf("series has %d bars but the widest combination needs more than %d", len(series), lookback),
		}
	}
	return &Optimizer{
		cfg:       cfg,
		evaluator: backtest.NewEvaluator(cfg, series),
	}, nil
}

// Run executes the grid search. Cancelling ctx stops submission of new
// combinations and drains already-queued ones as failures; in-flight
// evaluations always finish and their results are included in the report.
func (o *Optimizer) Run(ctx context.Context) (*Report, error) {
	combos := Combinations(o.cfg)
	if len(combos) == 0 {
		return nil, &backtest.InvalidParameterError{Reason: "parameter grid is empty (check fast < slow ranges)"}
	}

	log.Printf("🔍 Starting grid search: %d combinations across %d workers", len(combos), o.cfg.Workers)

	pool := backtest.NewWorkerPool(ctx, o.cfg.Workers, len(combos), o.evaluator)
	pool.Start()

	submitted := make(chan int, 1)
	go func() {
		count := 0
		for i, params := range combos {
			if err := pool.Submit(backtest.Job{ID: i, Params: params}); err != nil {
				log.Printf("⚠️ Submission stopped after %d/%d combinations: %v", count, len(combos), err)
				break
			}
			count++
		}
		submitted <- count
	}()

	tracker := backtest.NewProgressTracker(len(combos))
	aggregator := NewAggregator(len(combos))

	var bestSharpe float64
	collected := 0
	pending := -1
	lastLog := time.Now()

	for pending != collected {
		select {
		case result := <-pool.Results():
			collected++
			aggregator.Add(result)
			tracker.Record(result.Failed())
			monitoring.RecordEvaluation(result.Failed(), result.Duration.Seconds())

			if !result.Failed() && result.Metrics.TotalTrades > 0 && result.Metrics.SharpeRatio > bestSharpe {
				bestSharpe = result.Metrics.SharpeRatio
				monitoring.UpdateBestSharpe(bestSharpe)
			}

			if time.Since(lastLog) >= 5*time.Second {
				done, total, percent, elapsed := tracker.Progress()
				monitoring.UpdateProgress(done, total)
				log.Printf("📊 Progress: %d/%d (%.1f%%) | failed: %d | elapsed: %s | remaining: ~%s",
					done, total, percent, tracker.Failed(),
					elapsed.Round(time.Second), tracker.EstimateTimeRemaining().Round(time.Second))
				lastLog = time.Now()
			}
		case n := <-submitted:
			pending = n
		}
	}

	pool.Stop()

	done, total, _, elapsed := tracker.Progress()
	monitoring.UpdateProgress(done, total)
	log.Printf("✅ Grid search complete: %d/%d evaluated, %d failed, took %s",
		done, total, tracker.Failed(), elapsed.Round(time.Millisecond))

	report := aggregator.Report()
	if report.Best == nil {
		log.Printf("⚠️ No combination evaluated successfully")
	}
	if err := ctx.Err(); err != nil {
		// A partial report is still useful after interruption.
		return report, err
	}
	return report, nil
}
