package reporting

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/quantduc/crossover-bot/internal/backtest"
	"github.com/quantduc/crossover-bot/internal/optimize"
)

// WriteOptimizationCSV writes every evaluated combination, ranked best
// first with failures at the bottom, so the whole grid can be inspected in
// a spreadsheet.
func WriteOptimizationCSV(report *optimize.Report, path string) error {
	if err := EnsureDirectoryExists(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"rank", "combination",
		"fast_period", "slow_period", "sl_multiplier", "tp_multiplier",
		"use_trend_filter", "min_volume_percentile", "min_atr_percentile",
		"sharpe_ratio", "total_return", "annualized_return", "max_drawdown",
		"win_rate", "profit_factor", "total_trades",
		"status", "error",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for rank, r := range report.Ranked {
		row := append(
			[]string{strconv.Itoa(rank + 1), r.Params.Name()},
			paramColumns(r)...,
		)
		row = append(row,
			formatMetric(r.Metrics.SharpeRatio),
			formatMetric(r.Metrics.TotalReturn),
			formatMetric(r.Metrics.AnnualizedReturn),
			formatMetric(r.Metrics.MaxDrawdown),
			formatMetric(r.Metrics.WinRate),
			formatMetric(r.Metrics.ProfitFactor),
			strconv.Itoa(r.Metrics.TotalTrades),
			"ok", "",
		)
		if err := w.Write(row); err != nil {
			return err
		}
	}

	for _, r := range report.Failures {
		row := append([]string{"", r.Params.Name()}, paramColumns(r)...)
		row = append(row, "", "", "", "", "", "", "", "failed", r.Err.Error())
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

// WriteTradesCSV writes the trade ledger of a single backtest run.
func WriteTradesCSV(results *backtest.BacktestResults, path string) error {
	if err := EnsureDirectoryExists(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"entry_time", "exit_time", "side", "entry_price", "exit_price",
		"quantity", "commission", "pnl", "exit_reason",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, t := range results.Trades {
		row := []string{
			t.EntryTime.Format("2006-01-02 15:04:05"),
			t.ExitTime.Format("2006-01-02 15:04:05"),
			t.Side,
			fmt.Sprintf("%.8f", t.EntryPrice),
			fmt.Sprintf("%.8f", t.ExitPrice),
			fmt.Sprintf("%.8f", t.Quantity),
			fmt.Sprintf("%.4f", t.Commission),
			fmt.Sprintf("%.4f", t.PnL),
			string(t.ExitReason),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func paramColumns(r backtest.Result) []string {
	return []string{
		strconv.Itoa(r.Params.FastPeriod),
		strconv.Itoa(r.Params.SlowPeriod),
		strconv.FormatFloat(r.Params.SLMultiplier, 'f', -1, 64),
		strconv.FormatFloat(r.Params.TPMultiplier, 'f', -1, 64),
		strconv.FormatBool(r.Params.UseTrendFilter),
		strconv.FormatFloat(r.Params.MinVolumePercentile, 'f', -1, 64),
		strconv.FormatFloat(r.Params.MinATRPercentile, 'f', -1, 64),
	}
}

// formatMetric renders non-finite values as words so spreadsheet tools
// never misparse the column.
func formatMetric(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return "nan"
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}
