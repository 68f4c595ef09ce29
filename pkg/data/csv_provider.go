package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/quantduc/crossover-bot/pkg/types"
)

// Candle files use the layout the kline downloader writes:
// timestamp,open,high,low,close,volume with a header row.
const (
	csvTimeLayout = "2006-01-02 15:04:05"
	csvFieldCount = 6
)

// CSVProvider implements DataProvider for downloader-format CSV files.
type CSVProvider struct{}

// NewCSVProvider creates a new CSV data provider.
func NewCSVProvider() *CSVProvider {
	return &CSVProvider{}
}

// GetName returns the name of the data provider.
func (p *CSVProvider) GetName() string {
	return "CSV Provider"
}

// LoadData reads candles from a CSV file. Malformed rows are logged and
// skipped; a missing file falls back to generated sample data.
func (p *CSVProvider) LoadData(source string) ([]types.OHLCV, error) {
	file, err := os.Open(source)
	if err != nil {
		if os.IsNotExist(err) {
			log.Println("⚠️  Historical data file not found, generating sample data...")
			return p.generateSampleData(), nil
		}
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, err
	}

	var candles []types.OHLCV
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV at line %d: %v", line, err)
		}
		line++

		candle, err := parseCandleRow(record)
		if err != nil {
			log.Printf("⚠️ Skipping line %d: %v", line, err)
			continue
		}
		candles = append(candles, candle)
	}

	return candles, nil
}

func parseCandleRow(record []string) (types.OHLCV, error) {
	if len(record) < csvFieldCount {
		return types.OHLCV{}, fmt.Errorf("expected %d columns, got %d", csvFieldCount, len(record))
	}

	timestamp, err := time.Parse(csvTimeLayout, record[0])
	if err != nil {
		return types.OHLCV{}, fmt.Errorf("invalid timestamp %q: %v", record[0], err)
	}

	fields := [5]float64{}
	for i, name := range [5]string{"open", "high", "low", "close", "volume"} {
		fields[i], err = strconv.ParseFloat(record[i+1], 64)
		if err != nil {
			return types.OHLCV{}, fmt.Errorf("invalid %s %q: %v", name, record[i+1], err)
		}
	}

	candle := types.OHLCV{
		Timestamp: timestamp,
		Open:      fields[0],
		High:      fields[1],
		Low:       fields[2],
		Close:     fields[3],
		Volume:    fields[4],
	}

	if candle.Open <= 0 || candle.High <= 0 || candle.Low <= 0 || candle.Close <= 0 {
		return types.OHLCV{}, fmt.Errorf("non-positive price")
	}
	if candle.High < candle.Open || candle.High < candle.Close || candle.High < candle.Low {
		return types.OHLCV{}, fmt.Errorf("high %.4f below another price", candle.High)
	}
	if candle.Low > candle.Open || candle.Low > candle.Close {
		return types.OHLCV{}, fmt.Errorf("low %.4f above another price", candle.Low)
	}

	return candle, nil
}

// generateSampleData creates sample data for testing when no real data is available
func (p *CSVProvider) generateSampleData() []types.OHLCV {
	// Generate 365 days of hourly data
	data := make([]types.OHLCV, 365*24)
	startTime := time.Now().AddDate(-1, 0, 0)
	basePrice := 30000.0

	for i := range data {
		volatility := 0.02
		trend := float64(i) * 0.1
		randomWalk := (rand.Float64() - 0.5) * basePrice * volatility

		price := basePrice + trend + randomWalk
		if price < basePrice*0.5 {
			price = basePrice * 0.5
		}

		open := price * (1 + (rand.Float64()-0.5)*0.01)
		high := price * (1 + rand.Float64()*0.02)
		low := price * (1 - rand.Float64()*0.02)
		if open > high {
			high = open
		}
		if open < low {
			low = open
		}

		data[i] = types.OHLCV{
			Timestamp: startTime.Add(time.Duration(i) * time.Hour),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     price,
			Volume:    rand.Float64() * 1000000,
		}

		basePrice = price
	}

	return data
}

// ValidateData validates the integrity of loaded data
func (p *CSVProvider) ValidateData(data []types.OHLCV) error {
	if len(data) == 0 {
		return fmt.Errorf("no data provided")
	}

	for i, candle := range data {
		if candle.Open <= 0 || candle.High <= 0 || candle.Low <= 0 || candle.Close <= 0 {
			return fmt.Errorf("invalid price data at index %d: prices must be positive", i)
		}

		if candle.High < candle.Low {
			return fmt.Errorf("invalid price data at index %d: high (%.4f) cannot be less than low (%.4f)",
				i, candle.High, candle.Low)
		}

		if candle.High < candle.Open || candle.High < candle.Close {
			return fmt.Errorf("invalid price data at index %d: high (%.4f) must be >= open (%.4f) and close (%.4f)",
				i, candle.High, candle.Open, candle.Close)
		}

		if candle.Low > candle.Open || candle.Low > candle.Close {
			return fmt.Errorf("invalid price data at index %d: low (%.4f) must be <= open (%.4f) and close (%.4f)",
				i, candle.Low, candle.Open, candle.Close)
		}

		// Strictly increasing timestamps; equal timestamps are as bad as reversed ones
		if i > 0 && !candle.Timestamp.After(data[i-1].Timestamp) {
			return fmt.Errorf("invalid timestamp sequence at index %d: timestamps must be strictly increasing", i)
		}
	}

	return nil
}
