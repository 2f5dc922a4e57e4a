package reporting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/quantfarm/seasonal-edge/internal/analyzer"
	"github.com/quantfarm/seasonal-edge/internal/backtest"
)

// ExcelReporter writes a result as a multi-sheet workbook: Summary, Buckets,
// Trades and MonteCarlo.
type ExcelReporter struct{}

// NewExcelReporter creates an Excel reporter.
func NewExcelReporter() *ExcelReporter {
	return &ExcelReporter{}
}

type excelStyles struct {
	header  int
	percent int
	money   int
}

// cellNum leaves undefined statistics as empty cells rather than writing a
// literal NaN into the sheet.
func cellNum(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

// Write saves the workbook to path, creating parent directories.
func (r *ExcelReporter) Write(res *analyzer.Result, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const (
		summarySheet    = "Summary"
		bucketsSheet    = "Buckets"
		tradesSheet     = "Trades"
		monteCarloSheet = "MonteCarlo"
	)

	fx.SetSheetName(fx.GetSheetName(0), summarySheet)
	for _, name := range []string{bucketsSheet, tradesSheet, monteCarloSheet} {
		if _, err := fx.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	styles, err := r.createStyles(fx)
	if err != nil {
		return err
	}

	if err := r.writeSummary(fx, summarySheet, res, styles); err != nil {
		return err
	}
	if err := r.writeBuckets(fx, bucketsSheet, res, styles); err != nil {
		return err
	}
	if err := r.writeTrades(fx, tradesSheet, res, styles); err != nil {
		return err
	}
	if err := r.writeMonteCarlo(fx, monteCarloSheet, res, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func (r *ExcelReporter) createStyles(fx *excelize.File) (excelStyles, error) {
	var styles excelStyles
	var err error

	styles.header, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return styles, fmt.Errorf("create header style: %w", err)
	}

	styles.percent, err = fx.NewStyle(&excelize.Style{NumFmt: 10}) // 0.00%
	if err != nil {
		return styles, fmt.Errorf("create percent style: %w", err)
	}

	styles.money, err = fx.NewStyle(&excelize.Style{NumFmt: 44}) // accounting
	if err != nil {
		return styles, fmt.Errorf("create money style: %w", err)
	}

	return styles, nil
}

func (r *ExcelReporter) writeSummary(fx *excelize.File, sheet string, res *analyzer.Result, styles excelStyles) error {
	rows := [][]any{
		{"Symbol", res.Symbol},
		{"From", res.From.Format("2006-01-02")},
		{"To", res.To.Format("2006-01-02")},
		{"Periods", res.Periods},
	}

	if m := res.Risk; m != nil {
		rows = append(rows,
			[]any{"Annual Return", cellNum(m.AnnualReturn)},
			[]any{"Annual Volatility", cellNum(m.AnnualVolatility)},
			[]any{"Sharpe", cellNum(m.Sharpe)},
			[]any{"Sortino", cellNum(m.Sortino)},
			[]any{"Calmar", cellNum(m.Calmar)},
			[]any{"Max Drawdown", cellNum(m.MaxDrawdown)},
			[]any{"Skewness", cellNum(m.Skewness)},
			[]any{"Excess Kurtosis", cellNum(m.Kurtosis)},
		)
		if m.HasBenchmark {
			rows = append(rows,
				[]any{"Beta", cellNum(m.Beta)},
				[]any{"Alpha", cellNum(m.Alpha)},
			)
		}
	}
	if sig := res.Significance; sig != nil {
		rows = append(rows,
			[]any{"ANOVA F", sig.ANOVA.FStat},
			[]any{"ANOVA p-value", sig.ANOVA.PValue},
			[]any{"Seasonality Significant", sig.ANOVA.Significant},
		)
	}
	if bt := res.Backtest; bt != nil && bt.Metrics != nil {
		rows = append(rows,
			[]any{"Strategy Total Return", bt.Metrics.TotalReturn},
			[]any{"Strategy Final Capital", bt.Metrics.FinalCapital},
			[]any{"Round Trips", bt.Metrics.TradeCount},
		)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row %d: %w", i+1, err)
		}
	}
	return fx.SetColStyle(sheet, "A", styles.header)
}

func (r *ExcelReporter) writeBuckets(fx *excelize.File, sheet string, res *analyzer.Result, styles excelStyles) error {
	header := []any{"Bucket", "Avg Return", "Volatility", "Win Rate", "Min", "Max", "Years", "T-Stat", "P-Value"}
	if err := fx.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write bucket header: %w", err)
	}
	if err := fx.SetRowStyle(sheet, 1, 1, styles.header); err != nil {
		return err
	}

	for i, b := range res.Buckets {
		row := []any{b.Label, b.AvgReturn, b.Volatility, b.WinRate, b.MinReturn, b.MaxReturn, b.Count}
		if res.Significance != nil {
			if bt, ok := res.Significance.Buckets[b.Label]; ok {
				row = append(row, bt.TStat, bt.PValue)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write bucket row %d: %w", i+2, err)
		}
	}

	if len(res.Buckets) > 0 {
		last := len(res.Buckets) + 1
		if err := fx.SetCellStyle(sheet, "B2", fmt.Sprintf("F%d", last), styles.percent); err != nil {
			return err
		}
	}
	return nil
}

func (r *ExcelReporter) writeTrades(fx *excelize.File, sheet string, res *analyzer.Result, styles excelStyles) error {
	header := []any{"Date", "Type", "Price", "Shares", "Cash After", "Return"}
	if err := fx.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write trades header: %w", err)
	}
	if err := fx.SetRowStyle(sheet, 1, 1, styles.header); err != nil {
		return err
	}
	if res.Backtest == nil {
		return nil
	}

	for i, trade := range res.Backtest.Trades {
		row := []any{
			trade.Date.Format("2006-01-02"),
			string(trade.Type),
			trade.Price,
			trade.Shares,
			trade.CashAfter,
			nil, // Return is only defined on SELL rows
		}
		if trade.Type == backtest.TradeSell {
			row[5] = trade.Return
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write trade row %d: %w", i+2, err)
		}
	}

	if n := len(res.Backtest.Trades); n > 0 {
		if err := fx.SetCellStyle(sheet, "E2", fmt.Sprintf("E%d", n+1), styles.money); err != nil {
			return err
		}
	}
	return nil
}

func (r *ExcelReporter) writeMonteCarlo(fx *excelize.File, sheet string, res *analyzer.Result, styles excelStyles) error {
	if res.MonteCarlo == nil {
		return nil
	}
	mc := res.MonteCarlo

	rows := [][]any{
		{"Trials", len(mc.FinalReturns)},
		{"Mean Final Return", mc.Mean},
		{"Std", mc.Std},
		{"95% CI Low", mc.CI95[0]},
		{"95% CI High", mc.CI95[1]},
		{"99% CI Low", mc.CI99[0]},
		{"99% CI High", mc.CI99[1]},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write monte carlo row %d: %w", i+1, err)
		}
	}

	// Final returns in a column for histogramming by hand.
	if err := fx.SetCellValue(sheet, "D1", "Final Returns"); err != nil {
		return err
	}
	for i, v := range mc.FinalReturns {
		cell, err := excelize.CoordinatesToCellName(4, i+2)
		if err != nil {
			return err
		}
		if err := fx.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("write final return %d: %w", i, err)
		}
	}
	return fx.SetColStyle(sheet, "A", styles.header)
}
