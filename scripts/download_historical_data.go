package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/quantduc/crossover-bot/internal/exchange/bybit"
)

func main() {
	var (
		symbol    = flag.String("symbol", "BTCUSDT", "Trading symbol (e.g. BTCUSDT)")
		interval  = flag.String("interval", "1h", "Kline interval (1m, 5m, 15m, 30m, 1h, 4h, 1d)")
		category  = flag.String("category", "spot", "Market category (spot, linear, inverse)")
		startDate = flag.String("start", "", "Start date (YYYY-MM-DD)")
		endDate   = flag.String("end", "", "End date (YYYY-MM-DD)")
		outdir    = flag.String("outdir", "data", "Directory to write CSV files")
		output    = flag.String("output", "", "Explicit output file path")
		testnet   = flag.Bool("testnet", false, "Use the Bybit testnet")
	)
	flag.Parse()

	// Market-data endpoints are public; keys are only picked up when present.
	if err := godotenv.Load(); err == nil {
		log.Println("📋 Loaded environment from .env")
	}

	ival, err := bybit.ParseInterval(*interval)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	end := time.Now().UTC().Truncate(ival.Duration())
	start := end.AddDate(-1, 0, 0)
	if *startDate != "" {
		start, err = time.Parse("2006-01-02", *startDate)
		if err != nil {
			log.Fatalf("❌ Invalid start date: %v", err)
		}
	}
	if *endDate != "" {
		end, err = time.Parse("2006-01-02", *endDate)
		if err != nil {
			log.Fatalf("❌ Invalid end date: %v", err)
		}
	}
	if !start.Before(end) {
		log.Fatalf("❌ Start date %s is not before end date %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	client := bybit.NewClient(bybit.Config{
		APIKey:    os.Getenv("BYBIT_API_KEY"),
		APISecret: os.Getenv("BYBIT_API_SECRET"),
		Testnet:   *testnet,
	})

	fmt.Println("🚀 Bybit Historical Data Downloader")
	fmt.Println("====================================")
	fmt.Printf("🎯 Symbol:     %s (%s)\n", strings.ToUpper(*symbol), *category)
	fmt.Printf("⏱️  Interval:   %s\n", *interval)
	fmt.Printf("📅 Date Range: %s to %s\n", start.Format("2006-01-02"), end.Format("2006-01-02"))
	fmt.Println()

	klines, err := downloadRange(client, *category, strings.ToUpper(*symbol), ival, start, end)
	if err != nil {
		log.Fatalf("❌ Download failed: %v", err)
	}
	if len(klines) == 0 {
		log.Fatalf("❌ No candles returned for %s %s", *symbol, *interval)
	}

	path := *output
	if path == "" {
		path = filepath.Join(*outdir, fmt.Sprintf("%s_%s.csv", strings.ToLower(*symbol), *interval))
	}
	if err := writeCSV(path, klines); err != nil {
		log.Fatalf("❌ Failed to write %s: %v", path, err)
	}

	fmt.Printf("✅ Wrote %d candles to %s (%s .. %s)\n",
		len(klines), path,
		klines[0].StartTime.Format("2006-01-02 15:04:05"),
		klines[len(klines)-1].StartTime.Format("2006-01-02 15:04:05"))
}

// downloadRange pages backwards through the API (which returns newest bars
// first) until the whole window is covered, then returns the bars oldest
// first with duplicates removed.
func downloadRange(client *bybit.Client, category, symbol string, interval bybit.KlineInterval, start, end time.Time) ([]bybit.Kline, error) {
	const perRequest = 1000

	seen := make(map[int64]bool)
	var all []bybit.Kline

	cursor := end
	for cursor.After(start) {
		batch, err := client.GetKlines(context.Background(), bybit.KlineParams{
			Category: category,
			Symbol:   symbol,
			Interval: interval,
			Start:    &start,
			End:      &cursor,
			Limit:    perRequest,
		})
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}

		oldest := cursor
		for _, k := range batch {
			if k.StartTime.Before(oldest) {
				oldest = k.StartTime
			}
			if k.StartTime.Before(start) || seen[k.StartTime.UnixMilli()] {
				continue
			}
			seen[k.StartTime.UnixMilli()] = true
			all = append(all, k)
		}

		fmt.Printf("📥 Fetched %d candles, back to %s\n", len(batch), oldest.Format("2006-01-02 15:04"))

		if !oldest.Before(cursor) {
			break
		}
		cursor = oldest.Add(-interval.Duration())

		// Stay well under Bybit's public rate limit.
		time.Sleep(200 * time.Millisecond)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].StartTime.Before(all[j].StartTime) })
	return all, nil
}

func writeCSV(path string, klines []bybit.Kline) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"timestamp", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, k := range klines {
		record := []string{
			k.StartTime.UTC().Format("2006-01-02 15:04:05"),
			strconv.FormatFloat(k.Open, 'f', -1, 64),
			strconv.FormatFloat(k.High, 'f', -1, 64),
			strconv.FormatFloat(k.Low, 'f', -1, 64),
			strconv.FormatFloat(k.Close, 'f', -1, 64),
			strconv.FormatFloat(k.Volume, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Error()
}
