package backtest

import (
	"encoding/json"
	"math"
	"strconv"
)

// Metrics summarizes one evaluated parameter combination.
//
// Sentinel policy, applied so that every combination yields a comparable
// result instead of a division fault:
//   - zero trades: win rate 0, profit factor 0, Sharpe 0
//   - no losing trades with at least one winner: profit factor +Inf
//   - zero return variance (e.g. a single trade): Sharpe 0
type Metrics struct {
	SharpeRatio      float64 `json:"sharpe_ratio"`
	TotalReturn      float64 `json:"total_return"`
	AnnualizedReturn float64 `json:"annualized_return"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	WinRate          float64 `json:"win_rate"`
	ProfitFactor     float64 `json:"profit_factor"`
	SortinoRatio     float64 `json:"sortino_ratio"`
	TotalTrades      int     `json:"total_trades"`
	WinningTrades    int     `json:"winning_trades"`
	LosingTrades     int     `json:"losing_trades"`
}

// Evaluate reduces a trade ledger and equity curve into summary metrics.
// It is a pure function: identical inputs always produce identical output.
func Evaluate(trades []Trade, equity []EquityPoint, initialBalance, periodsPerYear float64) Metrics {
	m := Metrics{TotalTrades: len(trades)}

	for _, t := range trades {
		if t.PnL > 0 {
			m.WinningTrades++
		} else {
			m.LosingTrades++
		}
	}
	if m.TotalTrades > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades)
	}

	m.ProfitFactor = profitFactor(trades)
	m.SharpeRatio = sharpeRatio(trades, periodsPerYear)
	m.TotalReturn = totalReturn(equity, initialBalance)
	m.AnnualizedReturn = annualizedReturn(equity, initialBalance)
	m.MaxDrawdown = maxDrawdown(equity)
	m.SortinoRatio = sortinoRatio(equity)

	return m
}

func profitFactor(trades []Trade) float64 {
	grossProfit := 0.0
	grossLoss := 0.0
	for _, t := range trades {
		if t.PnL > 0 {
			grossProfit += t.PnL
		} else {
			grossLoss += math.Abs(t.PnL)
		}
	}
	if grossLoss == 0 {
		if grossProfit > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return grossProfit / grossLoss
}

// sharpeRatio computes mean/stddev of per-trade returns scaled by the
// square root of the configured periods per year.
func sharpeRatio(trades []Trade, periodsPerYear float64) float64 {
	if len(trades) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(trades))
	for _, t := range trades {
		denom := t.EntryPrice * t.Quantity
		if denom > 0 {
			returns = append(returns, t.PnL/denom)
		}
	}
	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))
	stdDev := math.Sqrt(variance)

	if stdDev < 1e-10 {
		return 0
	}
	return mean / stdDev * math.Sqrt(periodsPerYear)
}

func totalReturn(equity []EquityPoint, initialBalance float64) float64 {
	if len(equity) == 0 || initialBalance <= 0 {
		return 0
	}
	return equity[len(equity)-1].Equity/initialBalance - 1
}

func annualizedReturn(equity []EquityPoint, initialBalance float64) float64 {
	if len(equity) < 2 || initialBalance <= 0 {
		return 0
	}
	first := equity[0]
	last := equity[len(equity)-1]
	years := last.Timestamp.Sub(first.Timestamp).Hours() / (24 * 365.25)
	if years <= 0 || last.Equity <= 0 {
		return 0
	}
	return math.Pow(last.Equity/initialBalance, 1.0/years) - 1.0
}

// maxDrawdown scans the equity curve once, tracking the running peak.
func maxDrawdown(equity []EquityPoint) float64 {
	maxDD := 0.0
	peak := 0.0
	for _, p := range equity {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			dd := (peak - p.Equity) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// sortinoRatio computes mean per-bar return over downside deviation.
func sortinoRatio(equity []EquityPoint) float64 {
	if len(equity) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1].Equity > 0 {
			returns = append(returns, (equity[i].Equity-equity[i-1].Equity)/equity[i-1].Equity)
		}
	}
	if len(returns) == 0 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	downsideVariance := 0.0
	downsideCount := 0
	for _, r := range returns {
		if r < 0 {
			downsideVariance += r * r
			downsideCount++
		}
	}
	if downsideCount == 0 {
		if mean > 0 {
			return math.Inf(1)
		}
		return 0
	}

	downside := math.Sqrt(downsideVariance / float64(downsideCount))
	if downside == 0 {
		return 0
	}
	return mean / downside
}

// jsonFloat renders non-finite values as JSON strings so a metrics payload
// with an infinite profit factor still marshals.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsInf(v, 1):
		return []byte(`"inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-inf"`), nil
	case math.IsNaN(v):
		return []byte(`"nan"`), nil
	}
	return []byte(strconv.FormatFloat(v, 'g', -1, 64)), nil
}

// MarshalJSON keeps metrics serializable in the presence of sentinel
// infinities.
func (m Metrics) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		SharpeRatio      jsonFloat `json:"sharpe_ratio"`
		TotalReturn      jsonFloat `json:"total_return"`
		AnnualizedReturn jsonFloat `json:"annualized_return"`
		MaxDrawdown      jsonFloat `json:"max_drawdown"`
		WinRate          jsonFloat `json:"win_rate"`
		ProfitFactor     jsonFloat `json:"profit_factor"`
		SortinoRatio     jsonFloat `json:"sortino_ratio"`
		TotalTrades      int       `json:"total_trades"`
		WinningTrades    int       `json:"winning_trades"`
		LosingTrades     int       `json:"losing_trades"`
	}{
		SharpeRatio:      jsonFloat(m.SharpeRatio),
		TotalReturn:      jsonFloat(m.TotalReturn),
		AnnualizedReturn: jsonFloat(m.AnnualizedReturn),
		MaxDrawdown:      jsonFloat(m.MaxDrawdown),
		WinRate:          jsonFloat(m.WinRate),
		ProfitFactor:     jsonFloat(m.ProfitFactor),
		SortinoRatio:     jsonFloat(m.SortinoRatio),
		TotalTrades:      m.TotalTrades,
		WinningTrades:    m.WinningTrades,
		LosingTrades:     m.LosingTrades,
	})
}
