package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantduc/crossover-bot/internal/indicators"
	"github.com/quantduc/crossover-bot/internal/strategy"
	"github.com/quantduc/crossover-bot/pkg/config"
	"github.com/quantduc/crossover-bot/pkg/types"
)

var engineSettings = indicators.Settings{
	MAType:           "sma",
	ATRWindow:        2,
	PercentileWindow: 5,
	TrendPeriod:      3,
	TrendSlopeBars:   1,
}

func engineParams() config.StrategyParams {
	return config.StrategyParams{
		FastPeriod:   2,
		SlowPeriod:   3,
		SLMultiplier: 2.0,
		TPMultiplier: 4.0,
	}
}

func engineConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.InitialBalance = 10000
	cfg.Commission = 0.001
	cfg.PositionSize = 0.10
	cfg.TrailingStop = false
	return cfg
}

// bar is a compact OHLCV literal for building test series.
type bar struct {
	o, h, l, c float64
}

func seriesOf(bars []bar) *indicators.Inputs {
	out := make([]types.OHLCV, len(bars))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, b := range bars {
		out[i] = types.OHLCV{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Open:      b.o,
			High:      b.h,
			Low:       b.l,
			Close:     b.c,
			Volume:    1000,
		}
	}
	return indicators.NewInputs(out)
}

// flatBars returns n bars at price 100 with 2-wide ranges, so ATR is
// exactly 2 once the window fills.
func flatBars(n int) []bar {
	bars := make([]bar, n)
	for i := range bars {
		bars[i] = bar{o: 100, h: 101, l: 99, c: 100}
	}
	return bars
}

// runWith simulates the series with a hand-placed signal vector.
func runWith(t *testing.T, cfg *config.Config, bars []bar, place func(signals []strategy.Signal)) (*BacktestResults, error) {
	t.Helper()
	in := seriesOf(bars)
	f := indicators.Compute(in, 2, 3, false, engineSettings)
	signals := make([]strategy.Signal, in.Len())
	if place != nil {
		place(signals)
	}
	return NewEngine(cfg).Run(in, f, signals, engineParams())
}

func TestRun_TakeProfitFillsAtLevel(t *testing.T) {
	bars := flatBars(10)
	// Entry queued on bar 5 fills at bar 6 open (100). ATR at the signal
	// bar is 2, so SL=96 and TP=108. Bar 8 trades through the target.
	bars[8] = bar{o: 104, h: 110, l: 103, c: 109}
	bars[9] = bar{o: 109, h: 110, l: 108, c: 109}

	results, err := runWith(t, engineConfig(), bars, func(s []strategy.Signal) {
		s[5] = strategy.SignalLong
	})
	require.NoError(t, err)

	require.Len(t, results.Trades, 1)
	trade := results.Trades[0]
	assert.Equal(t, ExitTakeProfit, trade.ExitReason)
	assert.InDelta(t, 100.0, trade.EntryPrice, 1e-9)
	assert.InDelta(t, 108.0, trade.ExitPrice, 1e-9)
	assert.InDelta(t, 10.0, trade.Quantity, 1e-9)
	// Commission charged on exit notional only
	assert.InDelta(t, 1.08, trade.Commission, 1e-9)
	assert.InDelta(t, 78.92, trade.PnL, 1e-9)
	assert.True(t, trade.ExitTime.After(trade.EntryTime))
	assert.InDelta(t, 10078.92, results.EndBalance, 1e-9)
}

func TestRun_StopLossGapFillsAtOpen(t *testing.T) {
	bars := flatBars(10)
	// Bar 8 gaps far below the 96 stop: the open is the realistic fill.
	bars[8] = bar{o: 90, h: 91, l: 89, c: 90}
	bars[9] = bar{o: 90, h: 91, l: 89, c: 90}

	results, err := runWith(t, engineConfig(), bars, func(s []strategy.Signal) {
		s[5] = strategy.SignalLong
	})
	require.NoError(t, err)

	require.Len(t, results.Trades, 1)
	trade := results.Trades[0]
	assert.Equal(t, ExitStopLoss, trade.ExitReason)
	assert.InDelta(t, 90.0, trade.ExitPrice, 1e-9)
	assert.Negative(t, trade.PnL)
}

func TestRun_SignalReversalExitsAtClose(t *testing.T) {
	bars := flatBars(10)

	results, err := runWith(t, engineConfig(), bars, func(s []strategy.Signal) {
		s[5] = strategy.SignalLong
		s[8] = strategy.SignalExit
	})
	require.NoError(t, err)

	require.Len(t, results.Trades, 1)
	trade := results.Trades[0]
	assert.Equal(t, ExitSignalReversal, trade.ExitReason)
	assert.InDelta(t, 100.0, trade.ExitPrice, 1e-9)
}

func TestRun_OpenPositionClosedAtEndOfData(t *testing.T) {
	bars := flatBars(10)

	results, err := runWith(t, engineConfig(), bars, func(s []strategy.Signal) {
		s[7] = strategy.SignalLong
	})
	require.NoError(t, err)

	require.Len(t, results.Trades, 1)
	trade := results.Trades[0]
	assert.Equal(t, ExitEndOfData, trade.ExitReason)
	assert.InDelta(t, 100.0, trade.ExitPrice, 1e-9)
}

func TestRun_NoSignalsNoTrades(t *testing.T) {
	cfg := engineConfig()
	results, err := runWith(t, cfg, flatBars(20), nil)
	require.NoError(t, err)

	assert.Empty(t, results.Trades)
	assert.Equal(t, cfg.InitialBalance, results.EndBalance)
	require.Len(t, results.EquityCurve, 20)
	for _, p := range results.EquityCurve {
		assert.InDelta(t, cfg.InitialBalance, p.Equity, 1e-9)
	}
}

func TestRun_SecondSignalIgnoredWhileOpen(t *testing.T) {
	bars := flatBars(12)

	results, err := runWith(t, engineConfig(), bars, func(s []strategy.Signal) {
		s[5] = strategy.SignalLong
		s[7] = strategy.SignalLong // already in a position
	})
	require.NoError(t, err)

	require.Len(t, results.Trades, 1)
	assert.Equal(t, ExitEndOfData, results.Trades[0].ExitReason)
}

func TestRun_SignalOnLastBarNeverFills(t *testing.T) {
	bars := flatBars(10)

	results, err := runWith(t, engineConfig(), bars, func(s []strategy.Signal) {
		s[len(s)-1] = strategy.SignalLong
	})
	require.NoError(t, err)

	assert.Empty(t, results.Trades)
}

func TestRun_NoExitOnEntryBar(t *testing.T) {
	bars := flatBars(10)
	// The fill bar itself trades through the take-profit level; the exit
	// must wait for the next bar.
	bars[6] = bar{o: 100, h: 120, l: 99, c: 100}
	bars[7] = bar{o: 100, h: 120, l: 99, c: 110}

	results, err := runWith(t, engineConfig(), bars, func(s []strategy.Signal) {
		s[5] = strategy.SignalLong
	})
	require.NoError(t, err)

	require.Len(t, results.Trades, 1)
	trade := results.Trades[0]
	assert.Equal(t, ExitTakeProfit, trade.ExitReason)
	assert.Equal(t, time.Hour, trade.ExitTime.Sub(trade.EntryTime))
}

func TestRun_TrailingStopRatchets(t *testing.T) {
	cfg := engineConfig()
	cfg.TrailingStop = true
	cfg.TrailingMultiplier = 3.0

	bars := flatBars(14)
	// Rally lifts the trailing high to 120, putting the trailing stop at
	// 114, then the pullback to 113 triggers it before the fixed stop (96).
	bars[7] = bar{o: 100, h: 110, l: 100, c: 110}
	bars[8] = bar{o: 110, h: 120, l: 110, c: 119}
	bars[9] = bar{o: 118, h: 119, l: 113, c: 114}
	for i := 10; i < 14; i++ {
		bars[i] = bar{o: 114, h: 115, l: 113, c: 114}
	}

	params := engineParams()
	params.TPMultiplier = 50 // keep the fixed target out of reach

	in := seriesOf(bars)
	f := indicators.Compute(in, 2, 3, false, engineSettings)
	signals := make([]strategy.Signal, in.Len())
	signals[5] = strategy.SignalLong

	results, err := NewEngine(cfg).Run(in, f, signals, params)
	require.NoError(t, err)

	require.Len(t, results.Trades, 1)
	assert.Equal(t, ExitTrailingStop, results.Trades[0].ExitReason)
	assert.InDelta(t, 114.0, results.Trades[0].ExitPrice, 1e-9)
}

func TestRun_InvalidParamsRejected(t *testing.T) {
	in := seriesOf(flatBars(10))
	f := indicators.Compute(in, 2, 3, false, engineSettings)
	signals := make([]strategy.Signal, in.Len())

	params := engineParams()
	params.FastPeriod = 5
	params.SlowPeriod = 3

	_, err := NewEngine(engineConfig()).Run(in, f, signals, params)
	require.Error(t, err)
	var perr *InvalidParameterError
	assert.ErrorAs(t, err, &perr)
}

func TestRun_ShortSeriesRejected(t *testing.T) {
	in := seriesOf(flatBars(3))
	f := indicators.Compute(in, 2, 3, false, engineSettings)
	signals := make([]strategy.Signal, in.Len())

	_, err := NewEngine(engineConfig()).Run(in, f, signals, engineParams())
	require.Error(t, err)
	var derr *DataError
	assert.ErrorAs(t, err, &derr)
}
