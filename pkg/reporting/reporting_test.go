package reporting

import (
	"encoding/csv"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/quantduc/crossover-bot/internal/backtest"
	"github.com/quantduc/crossover-bot/internal/optimize"
	"github.com/quantduc/crossover-bot/pkg/config"
)

func sampleReport() *optimize.Report {
	agg := optimize.NewAggregator(3)
	agg.Add(backtest.Result{
		ID: 0,
		Params: config.StrategyParams{
			FastPeriod: 5, SlowPeriod: 20, SLMultiplier: 2, TPMultiplier: 4,
			MinVolumePercentile: 25, MinATRPercentile: 25,
		},
		Metrics: backtest.Metrics{
			SharpeRatio: 1.8, TotalReturn: 0.25, MaxDrawdown: 0.08,
			WinRate: 0.6, ProfitFactor: math.Inf(1), TotalTrades: 12, WinningTrades: 12,
		},
	})
	agg.Add(backtest.Result{
		ID: 1,
		Params: config.StrategyParams{
			FastPeriod: 10, SlowPeriod: 30, SLMultiplier: 2, TPMultiplier: 4,
		},
		Metrics: backtest.Metrics{
			SharpeRatio: 0.9, TotalReturn: 0.10, MaxDrawdown: 0.12,
			WinRate: 0.5, ProfitFactor: 1.4, TotalTrades: 8, WinningTrades: 4, LosingTrades: 4,
		},
	})
	agg.Add(backtest.Result{
		ID:     2,
		Params: config.StrategyParams{FastPeriod: 30, SlowPeriod: 10, SLMultiplier: 2, TPMultiplier: 4},
		Err:    &backtest.InvalidParameterError{Reason: "fast_period (30) must be less than slow_period (10)"},
	})
	return agg.Report()
}

func TestOutputDir_NormalizesSymbolAndInterval(t *testing.T) {
	assert.Equal(t, filepath.Join("results", "BTCUSDT_1h"), OutputDir("btcusdt", "1H"))
	assert.Equal(t, filepath.Join("results", "UNKNOWN_unknown"), OutputDir("", ""))
}

func TestTimestampedPath_EmbedsRunTimestamp(t *testing.T) {
	path := TimestampedPath("out", "optimization_results", ".csv")

	assert.True(t, strings.HasPrefix(path, filepath.Join("out", "optimization_results_")))
	assert.True(t, strings.HasSuffix(path, ".csv"))
}

func TestWriteOptimizationCSV_RankedRowsAndFailures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.csv")
	report := sampleReport()

	require.NoError(t, WriteOptimizationCSV(report, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	// Header, two ranked rows, one failure row
	require.Len(t, rows, 4)
	assert.Equal(t, "rank", rows[0][0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "MA_5_20", rows[1][1])
	// Non-finite profit factor is rendered as a word, not a broken number
	pfCol := indexOf(rows[0], "profit_factor")
	require.GreaterOrEqual(t, pfCol, 0)
	assert.Equal(t, "inf", rows[1][pfCol])

	statusCol := indexOf(rows[0], "status")
	assert.Equal(t, "failed", rows[3][statusCol])
	assert.Contains(t, rows[3][statusCol+1], "fast_period")
}

func TestWriteTradesCSV_OneRowPerTrade(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	entry := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	results := &backtest.BacktestResults{
		StartBalance: 10000,
		EndBalance:   10078.92,
		Trades: []backtest.Trade{{
			EntryTime: entry, ExitTime: entry.Add(2 * time.Hour), Side: "long",
			EntryPrice: 100, ExitPrice: 108, Quantity: 10, Commission: 1.08,
			PnL: 78.92, ExitReason: backtest.ExitTakeProfit,
		}},
	}

	require.NoError(t, WriteTradesCSV(results, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "take_profit", rows[1][len(rows[1])-1])
}

func TestWriteBestConfigJSON_SurvivesInfiniteMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "best.json")
	report := sampleReport()

	best := BestConfig{
		Symbol:   "BTCUSDT",
		Interval: "1h",
		Strategy: report.Best.Params,
		Metrics:  report.Best.Metrics,
		Total:    report.Total,
	}
	require.NoError(t, WriteBestConfigJSON(best, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "BTCUSDT", decoded["symbol"])
	metrics := decoded["metrics"].(map[string]interface{})
	assert.Equal(t, "inf", metrics["profit_factor"])
}

func TestWriteOptimizationXLSX_TwoSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	report := sampleReport()

	require.NoError(t, WriteOptimizationXLSX(report, "BTCUSDT", "1h", path))

	fx, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer fx.Close()

	sheets := fx.GetSheetList()
	assert.Contains(t, sheets, "Results")
	assert.Contains(t, sheets, "Best Parameters")

	combo, err := fx.GetCellValue("Results", "B2")
	require.NoError(t, err)
	assert.Equal(t, "MA_5_20", combo)
}

func indexOf(row []string, name string) int {
	for i, v := range row {
		if v == name {
			return i
		}
	}
	return -1
}
