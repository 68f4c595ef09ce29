package reporting

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/quantduc/crossover-bot/internal/optimize"
)

// excelStyles holds the style IDs shared by the workbook sheets.
type excelStyles struct {
	Header  int
	Number  int
	Percent int
	Text    int
}

// WriteOptimizationXLSX writes a two-sheet workbook: the full ranked grid
// on "Results" and the winning combination on "Best Parameters".
func WriteOptimizationXLSX(report *optimize.Report, symbol, interval, path string) error {
	if err := EnsureDirectoryExists(path); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const resultsSheet = "Results"
	const bestSheet = "Best Parameters"

	fx.SetSheetName(fx.GetSheetName(0), resultsSheet)
	fx.NewSheet(bestSheet)

	styles, err := createStyles(fx)
	if err != nil {
		return err
	}

	if err := writeResultsSheet(fx, resultsSheet, report, styles); err != nil {
		return err
	}
	if err := writeBestSheet(fx, bestSheet, report, symbol, interval, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func createStyles(fx *excelize.File) (excelStyles, error) {
	var styles excelStyles
	var err error

	styles.Header, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F4F4F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.Number, err = fx.NewStyle(&excelize.Style{
		NumFmt:    2, // 0.00
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return styles, err
	}

	styles.Percent, err = fx.NewStyle(&excelize.Style{
		NumFmt:    10, // 0.00%
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return styles, err
	}

	styles.Text, err = fx.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "left"},
	})
	return styles, err
}

func writeResultsSheet(fx *excelize.File, sheet string, report *optimize.Report, styles excelStyles) error {
	headers := []string{
		"Rank", "Combination", "Fast", "Slow", "SL Mult", "TP Mult",
		"Trend Filter", "Min Vol Pct", "Min ATR Pct",
		"Sharpe", "Total Return", "Max Drawdown", "Win Rate",
		"Profit Factor", "Trades", "Status",
	}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		fx.SetCellValue(sheet, cell, h)
		fx.SetCellStyle(sheet, cell, cell, styles.Header)
	}

	row := 2
	for rank, r := range report.Ranked {
		values := []interface{}{
			rank + 1, r.Params.Name(),
			r.Params.FastPeriod, r.Params.SlowPeriod,
			r.Params.SLMultiplier, r.Params.TPMultiplier,
			r.Params.UseTrendFilter,
			r.Params.MinVolumePercentile, r.Params.MinATRPercentile,
			excelMetric(r.Metrics.SharpeRatio),
			excelMetric(r.Metrics.TotalReturn),
			excelMetric(r.Metrics.MaxDrawdown),
			excelMetric(r.Metrics.WinRate),
			excelMetric(r.Metrics.ProfitFactor),
			r.Metrics.TotalTrades,
			"ok",
		}
		if err := setRow(fx, sheet, row, values); err != nil {
			return err
		}
		for col := 10; col <= 14; col++ {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			style := styles.Number
			if col == 11 || col == 12 || col == 13 {
				style = styles.Percent
			}
			fx.SetCellStyle(sheet, cell, cell, style)
		}
		row++
	}

	for _, r := range report.Failures {
		values := []interface{}{
			"", r.Params.Name(),
			r.Params.FastPeriod, r.Params.SlowPeriod,
			r.Params.SLMultiplier, r.Params.TPMultiplier,
			r.Params.UseTrendFilter,
			r.Params.MinVolumePercentile, r.Params.MinATRPercentile,
			"", "", "", "", "", "",
			fmt.Sprintf("failed: %v", r.Err),
		}
		if err := setRow(fx, sheet, row, values); err != nil {
			return err
		}
		row++
	}

	fx.SetColWidth(sheet, "B", "B", 16)
	fx.SetColWidth(sheet, "J", "P", 14)
	return nil
}

func writeBestSheet(fx *excelize.File, sheet string, report *optimize.Report, symbol, interval string, styles excelStyles) error {
	if report.Best == nil {
		fx.SetCellValue(sheet, "A1", "No combination evaluated successfully")
		return nil
	}

	best := report.Best
	rows := [][2]interface{}{
		{"Symbol", symbol},
		{"Interval", interval},
		{"Combination", best.Params.Name()},
		{"Fast Period", best.Params.FastPeriod},
		{"Slow Period", best.Params.SlowPeriod},
		{"SL Multiplier", best.Params.SLMultiplier},
		{"TP Multiplier", best.Params.TPMultiplier},
		{"Trend Filter", best.Params.UseTrendFilter},
		{"Min Volume Percentile", best.Params.MinVolumePercentile},
		{"Min ATR Percentile", best.Params.MinATRPercentile},
		{"Sharpe Ratio", excelMetric(best.Metrics.SharpeRatio)},
		{"Total Return", excelMetric(best.Metrics.TotalReturn)},
		{"Annualized Return", excelMetric(best.Metrics.AnnualizedReturn)},
		{"Max Drawdown", excelMetric(best.Metrics.MaxDrawdown)},
		{"Win Rate", excelMetric(best.Metrics.WinRate)},
		{"Profit Factor", excelMetric(best.Metrics.ProfitFactor)},
		{"Total Trades", best.Metrics.TotalTrades},
		{"Combinations Evaluated", report.Total},
		{"Failed Combinations", len(report.Failures)},
	}

	for i, pair := range rows {
		label, _ := excelize.CoordinatesToCellName(1, i+1)
		value, _ := excelize.CoordinatesToCellName(2, i+1)
		fx.SetCellValue(sheet, label, pair[0])
		fx.SetCellValue(sheet, value, pair[1])
		fx.SetCellStyle(sheet, label, label, styles.Header)
		fx.SetCellStyle(sheet, value, value, styles.Text)
	}

	fx.SetColWidth(sheet, "A", "A", 24)
	fx.SetColWidth(sheet, "B", "B", 18)
	return nil
}

func setRow(fx *excelize.File, sheet string, row int, values []interface{}) error {
	for col, v := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		if err := fx.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

// excelMetric keeps non-finite metrics representable in a cell.
func excelMetric(v float64) interface{} {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return "nan"
	}
	return v
}
