package data

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/quantduc/crossover-bot/pkg/types"
)

// DefaultDataFilter implements DataFilter for common filtering operations
type DefaultDataFilter struct{}

// NewDefaultDataFilter creates a new default data filter
func NewDefaultDataFilter() *DefaultDataFilter {
	return &DefaultDataFilter{}
}

// FilterByPeriod filters data to the last N period
func (f *DefaultDataFilter) FilterByPeriod(data []types.OHLCV, period time.Duration) []types.OHLCV {
	if period <= 0 || len(data) == 0 {
		return data
	}

	latestTime := data[len(data)-1].Timestamp
	cutoffTime := latestTime.Add(-period)

	startIdx := 0
	for i, candle := range data {
		if candle.Timestamp.After(cutoffTime) || candle.Timestamp.Equal(cutoffTime) {
			startIdx = i
			break
		}
	}

	return data[startIdx:]
}

// FilterByDateRange filters data to a specific date range
func (f *DefaultDataFilter) FilterByDateRange(data []types.OHLCV, start, end time.Time) []types.OHLCV {
	if len(data) == 0 {
		return data
	}

	var filtered []types.OHLCV

	for _, candle := range data {
		if (candle.Timestamp.After(start) || candle.Timestamp.Equal(start)) &&
			(candle.Timestamp.Before(end) || candle.Timestamp.Equal(end)) {
			filtered = append(filtered, candle)
		}
	}

	return filtered
}

// ValidateTimeSequence ensures data is in chronological order
func (f *DefaultDataFilter) ValidateTimeSequence(data []types.OHLCV) error {
	if len(data) <= 1 {
		return nil // Single item or empty is always valid
	}

	for i := 1; i < len(data); i++ {
		if data[i].Timestamp.Before(data[i-1].Timestamp) {
			return fmt.Errorf("data not in chronological order at index %d: %s comes after %s",
				i, data[i].Timestamp.Format(time.RFC3339), data[i-1].Timestamp.Format(time.RFC3339))
		}

		if data[i].Timestamp.Equal(data[i-1].Timestamp) {
			return fmt.Errorf("duplicate timestamp at index %d: %s",
				i, data[i].Timestamp.Format(time.RFC3339))
		}
	}

	return nil
}

// ParseTrailingPeriod parses strings like "7d", "30d", "365d" into a duration
func ParseTrailingPeriod(s string) (time.Duration, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if !strings.HasSuffix(s, "d") {
		return 0, false
	}
	days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
	if err != nil || days <= 0 {
		return 0, false
	}
	return time.Duration(days) * 24 * time.Hour, true
}
