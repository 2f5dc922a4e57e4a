// Package reporting renders analysis results: console tables for humans,
// JSON and Excel files for everything downstream.
package reporting

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/quantfarm/seasonal-edge/internal/analyzer"
	"github.com/quantfarm/seasonal-edge/internal/backtest"
)

// ConsoleReporter prints an analysis result as a set of rounded tables.
type ConsoleReporter struct{}

// NewConsoleReporter creates a console reporter.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{}
}

// Print renders the full result to stdout.
func (r *ConsoleReporter) Print(res *analyzer.Result) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Printf("📊 SEASONAL ANALYSIS: %s  (%s to %s, %d periods)\n",
		res.Symbol, res.From.Format("2006-01-02"), res.To.Format("2006-01-02"), res.Periods)
	fmt.Println(strings.Repeat("=", 60))

	r.printBuckets(res)
	r.printRisk(res)
	r.printSignificance(res)
	r.printBacktest(res)
	r.printMonteCarlo(res)
	r.printRegimes(res)

	for _, w := range res.Warnings {
		fmt.Printf("⚠️  %s\n", w)
	}
}

func (r *ConsoleReporter) printBuckets(res *analyzer.Result) {
	if len(res.Buckets) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("CALENDAR BUCKETS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Bucket", "Avg Return", "Volatility", "Win Rate", "Min", "Max", "Years"})

	for _, b := range res.Buckets {
		t.AppendRow(table.Row{
			b.Label,
			pct(b.AvgReturn),
			pct(b.Volatility),
			pct(b.WinRate),
			pct(b.MinReturn),
			pct(b.MaxReturn),
			b.Count,
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})
	t.Render()
	fmt.Println()
}

func (r *ConsoleReporter) printRisk(res *analyzer.Result) {
	if res.Risk == nil {
		return
	}
	m := res.Risk

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("RISK METRICS")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"📈 Annual Return", pct(m.AnnualReturn)},
		{"📉 Annual Volatility", pct(m.AnnualVolatility)},
		{"📊 Sharpe Ratio", num(m.Sharpe)},
		{"📊 Sortino Ratio", num(m.Sortino)},
		{"📊 Calmar Ratio", num(m.Calmar)},
		{"📉 Max Drawdown", pct(m.MaxDrawdown)},
		{"📐 Skewness", num(m.Skewness)},
		{"📐 Excess Kurtosis", num(m.Kurtosis)},
	})
	if m.HasBenchmark {
		t.AppendSeparator()
		t.AppendRows([]table.Row{
			{"🔗 Beta", num(m.Beta)},
			{"🔗 Alpha (annual)", pct(m.Alpha)},
		})
	}
	t.Render()

	if res.VaR != nil {
		v := table.NewWriter()
		v.SetOutputMirror(os.Stdout)
		v.SetTitle("VALUE AT RISK")
		v.SetStyle(table.StyleRounded)
		v.AppendHeader(table.Row{"Confidence", "Historical", "Parametric", "Cornish-Fisher"})

		levels := make([]float64, 0, len(res.VaR))
		for level := range res.VaR {
			levels = append(levels, level)
		}
		sort.Float64s(levels)
		for _, level := range levels {
			est := res.VaR[level]
			v.AppendRow(table.Row{
				fmt.Sprintf("%.0f%%", (1-level)*100),
				pct(est.Historical),
				pct(est.Parametric),
				pct(est.CornishFisher),
			})
		}
		v.Render()
	}

	if dd := res.Drawdowns; dd != nil {
		fmt.Printf("📉 Worst drawdown %s over %d days (peak index %d, trough index %d)\n",
			pct(dd.MaxDrawdown), dd.DurationDays, dd.StartIndex, dd.EndIndex)
	}
	fmt.Println()
}

func (r *ConsoleReporter) printSignificance(res *analyzer.Result) {
	if res.Significance == nil {
		return
	}
	sig := res.Significance

	verdict := "❌ not significant"
	if sig.ANOVA.Significant {
		verdict = "✅ significant"
	}
	fmt.Printf("🧪 ANOVA: F=%.3f p=%.4f (%s)\n", sig.ANOVA.FStat, sig.ANOVA.PValue, verdict)

	labels := make([]string, 0, len(sig.Buckets))
	for label, bt := range sig.Buckets {
		if bt.Significant {
			labels = append(labels, label)
		}
	}
	if len(labels) > 0 {
		sort.Strings(labels)
		fmt.Printf("🧪 Buckets deviating from the grand mean: %s\n", strings.Join(labels, ", "))
	}
	fmt.Println()
}

func (r *ConsoleReporter) printBacktest(res *analyzer.Result) {
	if res.Backtest == nil {
		return
	}
	bt := res.Backtest

	if bt.Outcome == backtest.OutcomeNoTrades {
		fmt.Println("🔄 Backtest: the rule never traded on this series")
		fmt.Println()
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("SEASONAL STRATEGY BACKTEST")
	t.SetStyle(table.StyleRounded)

	m := bt.Metrics
	t.AppendRows([]table.Row{
		{"📈 Total Return", pct(m.TotalReturn)},
		{"💰 Final Capital", fmt.Sprintf("$%.2f", m.FinalCapital)},
		{"🔄 Round Trips", m.TradeCount},
		{"✅ Win Rate", pct(m.WinRate)},
		{"💹 Profit Factor", num(m.ProfitFactor)},
		{"📊 Avg Win / Avg Loss", fmt.Sprintf("%s / %s", pct(m.AvgWin), pct(m.AvgLoss))},
	})
	t.Render()
	fmt.Println()
}

func (r *ConsoleReporter) printMonteCarlo(res *analyzer.Result) {
	if res.MonteCarlo == nil {
		return
	}
	mc := res.MonteCarlo

	fmt.Printf("🎲 Monte Carlo (%d trials): mean %s, std %s\n",
		len(mc.FinalReturns), pct(mc.Mean), pct(mc.Std))
	fmt.Printf("   95%% CI [%s, %s]   99%% CI [%s, %s]\n",
		pct(mc.CI95[0]), pct(mc.CI95[1]), pct(mc.CI99[0]), pct(mc.CI99[1]))
	fmt.Println()
}

func (r *ConsoleReporter) printRegimes(res *analyzer.Result) {
	if res.VolRegimes != nil {
		v := res.VolRegimes
		current := v.Labels[len(v.Labels)-1]
		fmt.Printf("🌡️  Volatility regime: %s now, %d transitions, threshold %s annualized\n",
			current, v.TransitionCount(), pct(v.Threshold))
	}
	if res.TrendRegimes != nil {
		tr := res.TrendRegimes
		current := tr.Labels[len(tr.Labels)-1]
		fmt.Printf("🧭 Trend regime: %s now (SMA %0.2f / %0.2f)\n",
			current, tr.SMAShort[len(tr.SMAShort)-1], tr.SMALong[len(tr.SMALong)-1])
	}
}

func pct(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	if math.IsInf(v, 0) {
		return "inf"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	if math.IsInf(v, 0) {
		return "inf"
	}
	return fmt.Sprintf("%.3f", v)
}
