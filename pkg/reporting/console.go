package reporting

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/quantduc/crossover-bot/internal/backtest"
	"github.com/quantduc/crossover-bot/internal/optimize"
	"github.com/quantduc/crossover-bot/pkg/config"
)

// PrintBacktestSummary prints the outcome of a single backtest run.
func PrintBacktestSummary(params config.StrategyParams, results *backtest.BacktestResults, metrics backtest.Metrics) {
	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Printf("📊 BACKTEST RESULTS — %s\n", params.Name())
	fmt.Println(strings.Repeat("=", 50))

	fmt.Printf("💰 Initial Balance:    $%.2f\n", results.StartBalance)
	fmt.Printf("💰 Final Balance:      $%.2f\n", results.EndBalance)
	fmt.Printf("📈 Total Return:       %.2f%%\n", metrics.TotalReturn*100)
	fmt.Printf("📈 Annualized Return:  %.2f%%\n", metrics.AnnualizedReturn*100)
	fmt.Printf("📉 Max Drawdown:       %.2f%%\n", metrics.MaxDrawdown*100)
	fmt.Printf("📊 Sharpe Ratio:       %.2f\n", metrics.SharpeRatio)
	fmt.Printf("📊 Sortino Ratio:      %.2f\n", metrics.SortinoRatio)
	fmt.Printf("💹 Profit Factor:      %s\n", consoleMetric(metrics.ProfitFactor))
	fmt.Printf("🔄 Total Trades:       %d\n", metrics.TotalTrades)
	fmt.Printf("✅ Winning Trades:     %d (%.1f%%)\n", metrics.WinningTrades, metrics.WinRate*100)
	fmt.Printf("❌ Losing Trades:      %d\n", metrics.LosingTrades)

	if metrics.TotalTrades == 0 {
		fmt.Println("⚠️  No trades executed — filters may be too strict for this series")
	}
}

// PrintTopResults renders the top-n combinations of an optimization run as
// a console table.
func PrintTopResults(report *optimize.Report, n int) {
	if len(report.Ranked) == 0 {
		fmt.Println("⚠️  No combination evaluated successfully")
		return
	}
	if n > len(report.Ranked) {
		n = len(report.Ranked)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("TOP %d COMBINATIONS (%d evaluated, %d failed)", n, report.Total, len(report.Failures)))
	t.SetStyle(table.StyleRounded)

	t.AppendHeader(table.Row{
		"Rank", "Combination", "SL", "TP", "Trend", "Sharpe", "Return", "Max DD", "Win Rate", "PF", "Trades",
	})

	for i := 0; i < n; i++ {
		r := report.Ranked[i]
		t.AppendRow(table.Row{
			i + 1,
			r.Params.Name(),
			fmt.Sprintf("%.1f", r.Params.SLMultiplier),
			fmt.Sprintf("%.1f", r.Params.TPMultiplier),
			r.Params.UseTrendFilter,
			fmt.Sprintf("%.2f", r.Metrics.SharpeRatio),
			fmt.Sprintf("%.2f%%", r.Metrics.TotalReturn*100),
			fmt.Sprintf("%.2f%%", r.Metrics.MaxDrawdown*100),
			fmt.Sprintf("%.1f%%", r.Metrics.WinRate*100),
			consoleMetric(r.Metrics.ProfitFactor),
			r.Metrics.TotalTrades,
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, WidthMin: 12, Align: text.AlignLeft},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
		{Number: 9, Align: text.AlignRight},
		{Number: 10, Align: text.AlignRight},
	})

	t.Render()
	fmt.Println()
}

func consoleMetric(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return "nan"
	}
	return fmt.Sprintf("%.2f", v)
}
