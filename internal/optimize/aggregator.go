package optimize

import (
	"sort"

	"github.com/quantduc/crossover-bot/internal/backtest"
)

// Report is the final outcome of an optimization batch: every result
// (success and failure), the successes in rank order, and the winner.
type Report struct {
	// Ranked holds successful results, best first.
	Ranked []backtest.Result
	// Failures holds the combinations that could not be evaluated.
	Failures []backtest.Result
	// Best points at Ranked[0], nil when nothing succeeded.
	Best *backtest.Result
	// Total is the number of dispatched combinations.
	Total int
}

// Aggregator collects per-combination results and ranks them once the
// batch is complete.
type Aggregator struct {
	results []backtest.Result
}

// NewAggregator creates an aggregator sized for the expected batch.
func NewAggregator(capacity int) *Aggregator {
	return &Aggregator{results: make([]backtest.Result, 0, capacity)}
}

// Add records one completed combination, success or failure.
func (a *Aggregator) Add(r backtest.Result) {
	a.results = append(a.results, r)
}

// Report ranks the collected results and returns the final report.
// Ranking is deterministic: rerunning it over the same result set always
// yields the same order and the same best combination.
func (a *Aggregator) Report() *Report {
	report := &Report{Total: len(a.results)}

	for _, r := range a.results {
		if r.Failed() {
			report.Failures = append(report.Failures, r)
		} else {
			report.Ranked = append(report.Ranked, r)
		}
	}

	sort.SliceStable(report.Ranked, func(i, j int) bool {
		return Less(report.Ranked[j], report.Ranked[i])
	})
	sort.SliceStable(report.Failures, func(i, j int) bool {
		return report.Failures[i].ID < report.Failures[j].ID
	})

	if len(report.Ranked) > 0 {
		report.Best = &report.Ranked[0]
	}
	return report
}

// Less orders two successful results from worst to best using the full
// tie-break chain: any trades beats no trades, then higher Sharpe, then
// higher total return, then lower max drawdown, then grid position.
func Less(a, b backtest.Result) bool {
	aTraded := a.Metrics.TotalTrades > 0
	bTraded := b.Metrics.TotalTrades > 0
	if aTraded != bTraded {
		return !aTraded
	}
	if a.Metrics.SharpeRatio != b.Metrics.SharpeRatio {
		return a.Metrics.SharpeRatio < b.Metrics.SharpeRatio
	}
	if a.Metrics.TotalReturn != b.Metrics.TotalReturn {
		return a.Metrics.TotalReturn < b.Metrics.TotalReturn
	}
	if a.Metrics.MaxDrawdown != b.Metrics.MaxDrawdown {
		return a.Metrics.MaxDrawdown > b.Metrics.MaxDrawdown
	}
	// Stable final tie-break on grid position
	return a.ID > b.ID
}
