package backtest

import (
	"fmt"
	"math"
	"time"

	"github.com/quantduc/crossover-bot/internal/indicators"
	"github.com/quantduc/crossover-bot/internal/strategy"
	"github.com/quantduc/crossover-bot/pkg/config"
)

// ExitReason identifies what closed a trade.
type ExitReason string

const (
	ExitStopLoss       ExitReason = "stop_loss"
	ExitTakeProfit     ExitReason = "take_profit"
	ExitTrailingStop   ExitReason = "trailing_stop"
	ExitSignalReversal ExitReason = "signal_reversal"
	ExitEndOfData      ExitReason = "end_of_data"
)

// Trade is a closed position, immutable once appended to the ledger.
type Trade struct {
	EntryTime  time.Time
	ExitTime   time.Time
	Side       string
	EntryPrice float64
	ExitPrice  float64
	Quantity   float64
	Commission float64
	PnL        float64
	ExitReason ExitReason
}

// Position is the transient state of the one open trade.
type Position struct {
	EntryTime    time.Time
	EntryIndex   int
	EntryPrice   float64
	Quantity     float64
	StopLoss     float64
	TakeProfit   float64
	ATRAtEntry   float64
	TrailingHigh float64
	TrailingStop float64
}

// EquityPoint is one bar of the cumulative equity curve.
type EquityPoint struct {
	Timestamp time.Time
	Equity    float64
}

// BacktestResults is the ledger and equity curve of one simulation run.
type BacktestResults struct {
	StartBalance float64
	EndBalance   float64
	Trades       []Trade
	EquityCurve  []EquityPoint
}

// Engine simulates the crossover strategy bar by bar. Entries fill at the
// next bar's open after the signal bar so the fill never uses information
// from the bar that produced the signal.
type Engine struct {
	initialBalance     float64
	commission         float64
	positionSize       float64
	trailingEnabled    bool
	trailingMultiplier float64
}

// NewEngine creates a simulator from the run configuration.
func NewEngine(cfg *config.Config) *Engine {
	return &Engine{
		initialBalance:     cfg.InitialBalance,
		commission:         cfg.Commission,
		positionSize:       cfg.PositionSize,
		trailingEnabled:    cfg.TrailingStop,
		trailingMultiplier: cfg.TrailingMultiplier,
	}
}

// Run walks the series once, starting flat, and returns the trade ledger
// plus the per-bar equity curve.
//
// Exit checks on a bar run in fixed priority: stop loss, take profit,
// trailing stop, crossover reversal. Stop and take-profit fills use the
// breached level, or the bar's open when the bar gaps through the level.
// Exits are never evaluated on the entry bar itself, so every trade spans
// at least one full bar.
func (e *Engine) Run(in *indicators.Inputs, f *indicators.Frame, signals []strategy.Signal, params config.StrategyParams) (*BacktestResults, error) {
	if err := params.Validate(); err != nil {
		return nil, &InvalidParameterError{Reason: err.Error()}
	}
	n := in.Len()
	if n == 0 || f.Warmup() >= n-1 {
		return nil, &DataError{Reason: fmt.Sprintf("series has %d bars but the combination needs more than %d", n, f.Warmup()+1)}
	}
	if len(signals) != n {
		return nil, &ComputeError{Stage: "simulation", Err: fmt.Errorf("signal vector length %d does not match series length %d", len(signals), n)}
	}

	results := &BacktestResults{
		StartBalance: e.initialBalance,
		Trades:       make([]Trade, 0),
		EquityCurve:  make([]EquityPoint, 0, n),
	}

	cash := e.initialBalance
	var pos *Position
	pendingATR := math.NaN() // ATR of the signal bar, set when an entry is queued

	for i := 0; i < n; i++ {
		// Fill a queued entry at this bar's open.
		if !math.IsNaN(pendingATR) && pos == nil {
			entryPrice := in.Open[i]
			qty := cash * e.positionSize / entryPrice
			cash -= qty * entryPrice
			pos = &Position{
				EntryTime:    in.Times[i],
				EntryIndex:   i,
				EntryPrice:   entryPrice,
				Quantity:     qty,
				StopLoss:     entryPrice - params.SLMultiplier*pendingATR,
				TakeProfit:   entryPrice + params.TPMultiplier*pendingATR,
				ATRAtEntry:   pendingATR,
				TrailingHigh: entryPrice,
				TrailingStop: entryPrice - e.trailingMultiplier*pendingATR,
			}
		}
		pendingATR = math.NaN()

		if pos != nil && i > pos.EntryIndex {
			if reason, price, ok := e.exitOn(in, signals, pos, i); ok {
				e.closePosition(results, pos, in.Times[i], price, &cash, reason)
				pos = nil
			}
		}

		if pos != nil {
			// Trailing high-water only ever ratchets up.
			if in.High[i] > pos.TrailingHigh {
				pos.TrailingHigh = in.High[i]
				pos.TrailingStop = pos.TrailingHigh - e.trailingMultiplier*pos.ATRAtEntry
			}
		}

		// Entry signals are ignored while a position is open; one open
		// position at a time. The last bar cannot queue an entry since
		// there is no next open to fill at.
		if pos == nil && signals[i] == strategy.SignalLong && i < n-1 {
			pendingATR = f.ATR[i]
		}

		// Forced close at the end of the data.
		if pos != nil && i == n-1 {
			e.closePosition(results, pos, in.Times[i], in.Close[i], &cash, ExitEndOfData)
			pos = nil
		}

		equity := cash
		if pos != nil {
			equity += pos.Quantity * in.Close[i]
		}
		results.EquityCurve = append(results.EquityCurve, EquityPoint{Timestamp: in.Times[i], Equity: equity})
	}

	results.EndBalance = cash
	if !isFinite(results.EndBalance) {
		return nil, &ComputeError{Stage: "simulation", Err: fmt.Errorf("final balance is not finite")}
	}
	return results, nil
}

// exitOn checks the exit conditions for bar i in priority order and returns
// the realized exit price.
func (e *Engine) exitOn(in *indicators.Inputs, signals []strategy.Signal, pos *Position, i int) (ExitReason, float64, bool) {
	if in.Low[i] <= pos.StopLoss {
		return ExitStopLoss, fillThrough(in.Open[i], pos.StopLoss, false), true
	}
	if in.High[i] >= pos.TakeProfit {
		return ExitTakeProfit, fillThrough(in.Open[i], pos.TakeProfit, true), true
	}
	if e.trailingEnabled && in.Low[i] <= pos.TrailingStop {
		return ExitTrailingStop, fillThrough(in.Open[i], pos.TrailingStop, false), true
	}
	if signals[i] == strategy.SignalExit {
		return ExitSignalReversal, in.Close[i], true
	}
	return "", 0, false
}

// fillThrough returns the level unless the bar already opened beyond it, in
// which case the open is the realistic fill.
func fillThrough(open, level float64, above bool) float64 {
	if above {
		if open > level {
			return open
		}
		return level
	}
	if open < level {
		return open
	}
	return level
}

func (e *Engine) closePosition(results *BacktestResults, pos *Position, exitTime time.Time, exitPrice float64, cash *float64, reason ExitReason) {
	notional := pos.Quantity * exitPrice
	commission := notional * e.commission
	*cash += notional - commission

	results.Trades = append(results.Trades, Trade{
		EntryTime:  pos.EntryTime,
		ExitTime:   exitTime,
		Side:       "long",
		EntryPrice: pos.EntryPrice,
		ExitPrice:  exitPrice,
		Quantity:   pos.Quantity,
		Commission: commission,
		PnL:        pos.Quantity*(exitPrice-pos.EntryPrice) - commission,
		ExitReason: reason,
	})
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
