package optimize

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantduc/crossover-bot/internal/backtest"
)

func result(id int, trades int, sharpe, totalReturn, maxDD float64) backtest.Result {
	return backtest.Result{
		ID: id,
		Metrics: backtest.Metrics{
			TotalTrades: trades,
			SharpeRatio: sharpe,
			TotalReturn: totalReturn,
			MaxDrawdown: maxDD,
		},
	}
}

func TestReport_RanksBySharpe(t *testing.T) {
	agg := NewAggregator(3)
	agg.Add(result(0, 10, 1.0, 0.2, 0.1))
	agg.Add(result(1, 10, 2.0, 0.1, 0.1))
	agg.Add(result(2, 10, 0.5, 0.3, 0.1))

	report := agg.Report()

	require.Len(t, report.Ranked, 3)
	assert.Equal(t, 1, report.Ranked[0].ID)
	assert.Equal(t, 0, report.Ranked[1].ID)
	assert.Equal(t, 2, report.Ranked[2].ID)
	require.NotNil(t, report.Best)
	assert.Equal(t, 1, report.Best.ID)
}

func TestReport_TradedBeatsNonTradedRegardlessOfSharpe(t *testing.T) {
	agg := NewAggregator(2)
	agg.Add(result(0, 0, 0, 0, 0)) // never traded
	agg.Add(result(1, 3, -0.5, -0.05, 0.2))

	report := agg.Report()

	require.NotNil(t, report.Best)
	assert.Equal(t, 1, report.Best.ID)
}

func TestReport_TieBreakChain(t *testing.T) {
	// Equal Sharpe: total return decides
	agg := NewAggregator(2)
	agg.Add(result(0, 5, 1.0, 0.10, 0.1))
	agg.Add(result(1, 5, 1.0, 0.20, 0.1))
	assert.Equal(t, 1, agg.Report().Best.ID)

	// Equal Sharpe and return: lower drawdown decides
	agg = NewAggregator(2)
	agg.Add(result(0, 5, 1.0, 0.10, 0.30))
	agg.Add(result(1, 5, 1.0, 0.10, 0.05))
	assert.Equal(t, 1, agg.Report().Best.ID)

	// Full tie: the earlier grid position wins
	agg = NewAggregator(2)
	agg.Add(result(1, 5, 1.0, 0.10, 0.10))
	agg.Add(result(0, 5, 1.0, 0.10, 0.10))
	assert.Equal(t, 0, agg.Report().Best.ID)
}

func TestReport_SeparatesFailures(t *testing.T) {
	agg := NewAggregator(3)
	agg.Add(result(0, 5, 1.0, 0.1, 0.1))
	agg.Add(backtest.Result{ID: 1, Err: errors.New("boom")})
	agg.Add(result(2, 5, 0.5, 0.1, 0.1))

	report := agg.Report()

	assert.Len(t, report.Ranked, 2)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, 1, report.Failures[0].ID)
	assert.Equal(t, 3, report.Total)
}

func TestReport_DeterministicAcrossInsertionOrder(t *testing.T) {
	results := []backtest.Result{
		result(0, 10, 1.0, 0.2, 0.1),
		result(1, 10, 2.0, 0.1, 0.1),
		result(2, 0, 0, 0, 0),
		result(3, 10, 2.0, 0.1, 0.1),
	}

	forward := NewAggregator(len(results))
	for _, r := range results {
		forward.Add(r)
	}
	backward := NewAggregator(len(results))
	for i := len(results) - 1; i >= 0; i-- {
		backward.Add(results[i])
	}

	a := forward.Report()
	b := backward.Report()

	require.Equal(t, len(a.Ranked), len(b.Ranked))
	for i := range a.Ranked {
		assert.Equal(t, a.Ranked[i].ID, b.Ranked[i].ID)
	}
	assert.Equal(t, a.Best.ID, b.Best.ID)
}

func TestReport_NoSuccessesMeansNoBest(t *testing.T) {
	agg := NewAggregator(1)
	agg.Add(backtest.Result{ID: 0, Err: errors.New("boom")})

	report := agg.Report()

	assert.Nil(t, report.Best)
	assert.Empty(t, report.Ranked)
}
