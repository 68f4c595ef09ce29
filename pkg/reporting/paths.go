// Package reporting renders backtest and optimization results to the
// console and to CSV, JSON, and Excel files.
package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// OutputDir returns the default output directory for a symbol/interval
// pair, e.g. results/BTCUSDT_1h.
func OutputDir(symbol, interval string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	i := strings.ToLower(strings.TrimSpace(interval))
	if s == "" {
		s = "UNKNOWN"
	}
	if i == "" {
		i = "unknown"
	}
	return filepath.Join("results", fmt.Sprintf("%s_%s", s, i))
}

// TimestampedPath joins dir with a name carrying a run timestamp, e.g.
// optimization_results_20240301_153004.csv. Successive runs never
// overwrite each other.
func TimestampedPath(dir, prefix, ext string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", prefix, time.Now().Format("20060102_150405"), ext))
}

// EnsureDirectoryExists creates the parent directory of path if needed.
func EnsureDirectoryExists(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}
