package reporting

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/quantduc/crossover-bot/internal/backtest"
	"github.com/quantduc/crossover-bot/pkg/config"
)

// BestConfig is the JSON document written for the winning combination. It
// carries everything needed to reproduce the run.
type BestConfig struct {
	Symbol   string                `json:"symbol"`
	Interval string                `json:"interval"`
	Strategy config.StrategyParams `json:"strategy"`
	Metrics  backtest.Metrics      `json:"metrics"`
	Total    int                   `json:"combinations_evaluated"`
}

// WriteBestConfigJSON writes the winning parameters and metrics to path.
// Metrics marshals non-finite values as strings, so an infinite profit
// factor never produces invalid JSON.
func WriteBestConfigJSON(best BestConfig, path string) error {
	data, err := json.MarshalIndent(best, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal best config: %w", err)
	}

	if err := EnsureDirectoryExists(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// PrintBestConfig prints the winning configuration as JSON to stdout.
func PrintBestConfig(best BestConfig) {
	data, _ := json.MarshalIndent(best, "", "  ")
	fmt.Println(string(data))
}
