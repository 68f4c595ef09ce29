package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantduc/crossover-bot/pkg/types"
)

func writeCSVFile(t *testing.T, rows string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "candles.csv")
	content := "timestamp,open,high,low,close,volume\n" + rows
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCSVProvider_LoadData(t *testing.T) {
	path := writeCSVFile(t,
		"2024-01-01 00:00:00,100,101,99,100.5,1500\n"+
			"2024-01-01 01:00:00,100.5,102,100,101.5,1800\n")

	provider := NewCSVProvider()
	candles, err := provider.LoadData(path)
	require.NoError(t, err)

	require.Len(t, candles, 2)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), candles[0].Timestamp)
	assert.Equal(t, 100.0, candles[0].Open)
	assert.Equal(t, 101.0, candles[0].High)
	assert.Equal(t, 99.0, candles[0].Low)
	assert.Equal(t, 100.5, candles[0].Close)
	assert.Equal(t, 1500.0, candles[0].Volume)
}

func TestCSVProvider_SkipsMalformedRows(t *testing.T) {
	path := writeCSVFile(t,
		"2024-01-01 00:00:00,100,101,99,100.5,1500\n"+
			"not-a-date,100,101,99,100,1000\n"+ // bad timestamp
			"2024-01-01 02:00:00,abc,101,99,100,1000\n"+ // bad open
			"2024-01-01 03:00:00,100,99,101,100,1000\n"+ // high below low
			"2024-01-01 04:00:00,-5,101,99,100,1000\n"+ // negative price
			"2024-01-01 04:30:00,100,101,99\n"+ // too few columns
			"2024-01-01 05:00:00,100,101,99,100.5,1200\n")

	provider := NewCSVProvider()
	candles, err := provider.LoadData(path)
	require.NoError(t, err)

	require.Len(t, candles, 2)
	assert.Equal(t, 0, candles[0].Timestamp.Hour())
	assert.Equal(t, 5, candles[1].Timestamp.Hour())
}

func TestCSVProvider_MissingFileFallsBackToSampleData(t *testing.T) {
	provider := NewCSVProvider()

	candles, err := provider.LoadData(filepath.Join(t.TempDir(), "missing.csv"))
	require.NoError(t, err)

	assert.NotEmpty(t, candles)
	assert.NoError(t, provider.ValidateData(candles))
}

func TestCSVProvider_ValidateData(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	good := []types.OHLCV{
		{Timestamp: base, Open: 100, High: 101, Low: 99, Close: 100, Volume: 1000},
		{Timestamp: base.Add(time.Hour), Open: 100, High: 102, Low: 99, Close: 101, Volume: 1000},
	}

	provider := NewCSVProvider()
	assert.NoError(t, provider.ValidateData(good))

	assert.Error(t, provider.ValidateData(nil), "empty series must be rejected")

	duplicated := []types.OHLCV{good[0], good[0]}
	assert.Error(t, provider.ValidateData(duplicated), "duplicate timestamps must be rejected")

	reversed := []types.OHLCV{good[1], good[0]}
	assert.Error(t, provider.ValidateData(reversed), "out-of-order timestamps must be rejected")

	badRange := []types.OHLCV{{Timestamp: base, Open: 100, High: 98, Low: 99, Close: 100, Volume: 1}}
	assert.Error(t, provider.ValidateData(badRange), "high below low must be rejected")
}

func TestCachedProvider_ServesSecondLoadFromMemory(t *testing.T) {
	path := writeCSVFile(t, "2024-01-01 00:00:00,100,101,99,100.5,1500\n")

	cached := NewCachedProvider(NewCSVProvider())

	first, err := cached.LoadData(path)
	require.NoError(t, err)

	// Remove the file: a second load can only succeed from the cache.
	// (The CSV provider would fall back to sample data for a missing file,
	// which has far more than one candle.)
	require.NoError(t, os.Remove(path))

	second, err := cached.LoadData(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	require.Len(t, second, 1)
}

func TestCachedProvider_CopiesOnGet(t *testing.T) {
	cache := NewMemoryCache()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.Set("k", []types.OHLCV{{Timestamp: base, Open: 100, High: 101, Low: 99, Close: 100}})

	got, ok := cache.Get("k")
	require.True(t, ok)
	got[0].Close = 1

	again, ok := cache.Get("k")
	require.True(t, ok)
	assert.Equal(t, 100.0, again[0].Close)
}

func TestFilterByPeriod_KeepsTrailingWindow(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make([]types.OHLCV, 48)
	for i := range series {
		series[i] = types.OHLCV{Timestamp: base.Add(time.Duration(i) * time.Hour), Open: 100, High: 101, Low: 99, Close: 100}
	}

	filter := NewDefaultDataFilter()
	out := filter.FilterByPeriod(series, 24*time.Hour)

	require.Len(t, out, 25)
	assert.Equal(t, series[23].Timestamp, out[0].Timestamp)
}

func TestFilterByDateRange_InclusiveBounds(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make([]types.OHLCV, 10)
	for i := range series {
		series[i] = types.OHLCV{Timestamp: base.AddDate(0, 0, i)}
	}

	filter := NewDefaultDataFilter()
	out := filter.FilterByDateRange(series, base.AddDate(0, 0, 2), base.AddDate(0, 0, 5))

	require.Len(t, out, 4)
	assert.Equal(t, base.AddDate(0, 0, 2), out[0].Timestamp)
	assert.Equal(t, base.AddDate(0, 0, 5), out[len(out)-1].Timestamp)
}

func TestParseTrailingPeriod(t *testing.T) {
	d, ok := ParseTrailingPeriod("7d")
	require.True(t, ok)
	assert.Equal(t, 7*24*time.Hour, d)

	d, ok = ParseTrailingPeriod(" 30D ")
	require.True(t, ok)
	assert.Equal(t, 30*24*time.Hour, d)

	for _, bad := range []string{"", "7", "7h", "-3d", "xd"} {
		_, ok := ParseTrailingPeriod(bad)
		assert.False(t, ok, "expected %q to be rejected", bad)
	}
}
