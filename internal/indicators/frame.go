package indicators

import (
	"math"
	"time"

	"github.com/quantduc/crossover-bot/pkg/types"
)

// Inputs holds the raw series decomposed into column vectors. It is built
// once per run and shared read-only by every parameter combination, so the
// per-combination cost is only the moving averages that actually depend on
// the combination.
type Inputs struct {
	Times  []time.Time
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
}

// NewInputs extracts column vectors from a bar series.
func NewInputs(series []types.OHLCV) *Inputs {
	in := &Inputs{
		Times:  make([]time.Time, len(series)),
		Open:   make([]float64, len(series)),
		High:   make([]float64, len(series)),
		Low:    make([]float64, len(series)),
		Close:  make([]float64, len(series)),
		Volume: make([]float64, len(series)),
	}
	for i, bar := range series {
		in.Times[i] = bar.Timestamp
		in.Open[i] = bar.Open
		in.High[i] = bar.High
		in.Low[i] = bar.Low
		in.Close[i] = bar.Close
		in.Volume[i] = bar.Volume
	}
	return in
}

// Len returns the number of bars.
func (in *Inputs) Len() int { return len(in.Close) }

// Settings carries the indicator windows shared by every combination.
type Settings struct {
	MAType           string // "ema" or "sma"
	ATRWindow        int
	PercentileWindow int
	TrendPeriod      int
	TrendSlopeBars   int
}

// Frame holds per-bar indicator values aligned index-for-index with the
// series. Leading bars are NaN until the longest lookback window is full.
type Frame struct {
	FastMA     []float64
	SlowMA     []float64
	TrendMA    []float64 // nil unless the trend filter is active
	TrendSlope []float64 // nil unless the trend filter is active
	ATR        []float64
	VolumePct  []float64
	ATRPct     []float64

	warmup int
}

// Warmup returns the index of the first bar with every indicator defined.
func (f *Frame) Warmup() int { return f.warmup }

// Defined reports whether every indicator the frame carries is defined at i.
func (f *Frame) Defined(i int) bool {
	if i < f.warmup {
		return false
	}
	if math.IsNaN(f.FastMA[i]) || math.IsNaN(f.SlowMA[i]) || math.IsNaN(f.ATR[i]) {
		return false
	}
	if f.TrendMA != nil && (math.IsNaN(f.TrendMA[i]) || math.IsNaN(f.TrendSlope[i])) {
		return false
	}
	return true
}

// Compute builds the indicator frame for one fast/slow combination. The
// trend columns are only computed when requested since they dominate the
// warmup (trend period 200 vs slow period ~40).
func Compute(in *Inputs, fastPeriod, slowPeriod int, useTrendFilter bool, s Settings) *Frame {
	ma := EMA
	if s.MAType == "sma" {
		ma = SMA
	}

	f := &Frame{
		FastMA: ma(in.Close, fastPeriod),
		SlowMA: ma(in.Close, slowPeriod),
		ATR:    ATR(in.High, in.Low, in.Close, s.ATRWindow),
	}
	f.VolumePct = RollingRank(in.Volume, s.PercentileWindow)
	f.ATRPct = RollingRank(f.ATR, s.PercentileWindow)

	f.warmup = slowPeriod - 1
	if s.ATRWindow-1 > f.warmup {
		f.warmup = s.ATRWindow - 1
	}

	if useTrendFilter {
		f.TrendMA = ma(in.Close, s.TrendPeriod)
		f.TrendSlope = Slope(f.TrendMA, s.TrendSlopeBars)
		if s.TrendPeriod+s.TrendSlopeBars-1 > f.warmup {
			f.warmup = s.TrendPeriod + s.TrendSlopeBars - 1
		}
	}

	return f
}
