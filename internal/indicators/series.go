// Package indicators computes technical indicators as whole-series array
// transforms. Every function takes the full value vector and returns an
// equally long output vector; bars without enough history are NaN so they
// can never leak into signal logic.
package indicators

import "math"

// SMA computes the simple moving average over close values.
// The first period-1 entries are NaN.
func SMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA computes the exponential moving average over close values, seeded with
// the SMA of the first period values. The first period-1 entries are NaN.
func EMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	alpha := 2.0 / float64(period+1)

	seed := 0.0
	for i := 0; i < period; i++ {
		seed += values[i]
	}
	out[period-1] = seed / float64(period)

	for i := period; i < len(values); i++ {
		out[i] = values[i]*alpha + out[i-1]*(1-alpha)
	}
	return out
}

// TrueRange computes per-bar true range:
// max(high-low, |high-prevClose|, |low-prevClose|).
// The first bar has no previous close and falls back to high-low.
func TrueRange(high, low, close []float64) []float64 {
	out := make([]float64, len(close))
	for i := range close {
		tr := high[i] - low[i]
		if i > 0 {
			if hc := math.Abs(high[i] - close[i-1]); hc > tr {
				tr = hc
			}
			if lc := math.Abs(low[i] - close[i-1]); lc > tr {
				tr = lc
			}
		}
		out[i] = tr
	}
	return out
}

// ATR computes the Average True Range as a rolling mean of true range over
// the given window. The first window-1 entries are NaN.
func ATR(high, low, close []float64, window int) []float64 {
	return SMA(TrueRange(high, low, close), window)
}

// RollingRank computes, for every bar, the percentile rank (0..100) of its
// value within the trailing window ending at that bar. Windows shorter than
// the configured size (near the start of the series) rank within whatever
// history exists. NaN inputs produce NaN outputs and are skipped as peers.
func RollingRank(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 0 {
		return out
	}

	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		below := 0
		total := 0
		for j := start; j <= i; j++ {
			if math.IsNaN(values[j]) {
				continue
			}
			total++
			if values[j] <= v {
				below++
			}
		}
		if total <= 1 {
			out[i] = 100
			continue
		}
		// Rank of the current bar among its peers, excluding itself from the
		// numerator so a window minimum scores 0 and a maximum scores 100.
		out[i] = float64(below-1) / float64(total-1) * 100
	}
	return out
}

// Slope computes the relative change of a series over a fixed bar span:
// (v[i] - v[i-span]) / v[i-span]. Entries without enough history are NaN.
func Slope(values []float64, span int) []float64 {
	out := nanSlice(len(values))
	if span <= 0 {
		return out
	}
	for i := span; i < len(values); i++ {
		prev := values[i-span]
		if math.IsNaN(prev) || math.IsNaN(values[i]) || prev == 0 {
			continue
		}
		out[i] = (values[i] - prev) / prev
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
