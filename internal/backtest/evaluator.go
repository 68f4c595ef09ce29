package backtest

import (
	"fmt"

	"github.com/quantduc/crossover-bot/internal/indicators"
	"github.com/quantduc/crossover-bot/internal/strategy"
	"github.com/quantduc/crossover-bot/pkg/config"
	"github.com/quantduc/crossover-bot/pkg/types"
)

// Evaluator runs the full indicator -> simulation -> metrics pipeline for
// one parameter combination against a shared read-only series. The column
// vectors are extracted once and shared by every combination; only the
// moving averages depend on the parameters.
type Evaluator struct {
	cfg      *config.Config
	inputs   *indicators.Inputs
	settings indicators.Settings
	engine   *Engine
}

// NewEvaluator prepares an evaluator over a loaded series. The series is
// never mutated afterwards, so evaluators are safe to share across workers.
func NewEvaluator(cfg *config.Config, series []types.OHLCV) *Evaluator {
	return &Evaluator{
		cfg:    cfg,
		inputs: indicators.NewInputs(series),
		settings: indicators.Settings{
			MAType:           cfg.MAType,
			ATRWindow:        cfg.ATRWindow,
			PercentileWindow: cfg.PercentileWindow,
			TrendPeriod:      cfg.TrendPeriod,
			TrendSlopeBars:   cfg.TrendSlopeBars,
		},
		engine: NewEngine(cfg),
	}
}

// Inputs exposes the shared column vectors.
func (ev *Evaluator) Inputs() *indicators.Inputs { return ev.inputs }

// EvaluateCombination runs one combination end to end. All failures come
// back as typed errors so the caller can tell invalid parameters and short
// data apart from genuine compute faults; a panic inside the pipeline is
// converted to a ComputeError rather than taking down sibling evaluations.
func (ev *Evaluator) EvaluateCombination(params config.StrategyParams) (results *BacktestResults, metrics Metrics, err error) {
	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = &ComputeError{Stage: "evaluation", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if err := params.Validate(); err != nil {
		return nil, Metrics{}, &InvalidParameterError{Reason: err.Error()}
	}

	crossover := strategy.NewCrossover(params, ev.settings, ev.cfg.TrendSlopeThreshold)
	frame := crossover.Compute(ev.inputs)
	signals := crossover.Signals(ev.inputs, frame)

	results, err = ev.engine.Run(ev.inputs, frame, signals, params)
	if err != nil {
		return nil, Metrics{}, err
	}

	metrics = Evaluate(results.Trades, results.EquityCurve, results.StartBalance, ev.cfg.PeriodsPerYear)
	if !isFinite(metrics.TotalReturn) || !isFinite(metrics.MaxDrawdown) || !isFinite(metrics.SharpeRatio) {
		return nil, Metrics{}, &ComputeError{Stage: "metrics", Err: fmt.Errorf("non-finite metric for %s", params.Name())}
	}
	return results, metrics, nil
}
