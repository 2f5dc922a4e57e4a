// Package analyzer wires the analytics components into one per-symbol run:
// calendar aggregation first (the backtest policy may be derived from bucket
// rankings), then risk, significance, backtest, Monte Carlo and regime
// detection fanned out concurrently — they share the input series and
// nothing else.
package analyzer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantfarm/seasonal-edge/internal/backtest"
	"github.com/quantfarm/seasonal-edge/internal/monitoring"
	"github.com/quantfarm/seasonal-edge/internal/montecarlo"
	"github.com/quantfarm/seasonal-edge/internal/regime"
	"github.com/quantfarm/seasonal-edge/internal/risk"
	"github.com/quantfarm/seasonal-edge/internal/seasonal"
	"github.com/quantfarm/seasonal-edge/internal/significance"
	"github.com/quantfarm/seasonal-edge/pkg/types"
)

// Config selects what a run computes and how.
type Config struct {
	Unit             seasonal.CalendarUnit
	Geometric        bool
	RiskFreeRate     float64
	ConfidenceLevels []float64
	Benchmark        []float64 // optional, aligned with the return series

	InitialCapital float64
	Commission     float64
	// Policy overrides the derived one. When nil, a SeasonalMonths policy
	// is ranked out of the month buckets with TopBuckets entries/exits.
	Policy     backtest.EntryExitPolicy
	TopBuckets int

	MonteCarlo montecarlo.Config
}

// DefaultConfig returns the standard analysis setup.
func DefaultConfig() Config {
	return Config{
		Unit:           seasonal.UnitMonth,
		RiskFreeRate:   risk.DefaultRiskFreeRate,
		InitialCapital: 100000,
		Commission:     0.001,
		TopBuckets:     3,
	}
}

// Result is the immutable output of one analysis run. Components that could
// not run on this input carry their reason in Warnings instead of failing
// the whole run; only structural input errors abort.
type Result struct {
	Symbol  string    `json:"symbol"`
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
	Periods int       `json:"periods"`

	Buckets      []seasonal.BucketStats    `json:"buckets"`
	Risk         *risk.Metrics             `json:"risk,omitempty"`
	VaR          risk.VaRByLevel           `json:"var,omitempty"`
	Drawdowns    *risk.DrawdownResult      `json:"drawdowns,omitempty"`
	Significance *significance.Result      `json:"significance,omitempty"`
	Backtest     *backtest.Result          `json:"backtest,omitempty"`
	MonteCarlo   *montecarlo.Result        `json:"monte_carlo,omitempty"`
	VolRegimes   *regime.VolatilityRegimes `json:"vol_regimes,omitempty"`
	TrendRegimes *regime.TrendRegimes      `json:"trend_regimes,omitempty"`

	Warnings []string `json:"warnings,omitempty"`
}

// Analyzer runs analyses. Safe for concurrent use; it holds no per-run
// state.
type Analyzer struct {
	cfg Config
	log zerolog.Logger
}

// New builds an analyzer from a config and a logger.
func New(cfg Config, log zerolog.Logger) *Analyzer {
	return &Analyzer{cfg: cfg, log: log}
}

// Run analyzes one price series. The context bounds the Monte Carlo loop.
func (a *Analyzer) Run(ctx context.Context, symbol string, prices []types.PricePoint) (*Result, error) {
	started := time.Now()

	returnPoints, err := types.Returns(prices)
	if err != nil {
		return nil, fmt.Errorf("invalid series for %s: %w", symbol, err)
	}
	returns := types.ReturnValues(returnPoints)
	closes := types.Closes(prices)
	dates := types.Dates(prices)

	res := &Result{
		Symbol:  symbol,
		From:    prices[0].Date,
		To:      prices[len(prices)-1].Date,
		Periods: len(prices),
	}

	a.log.Debug().Str("symbol", symbol).Int("periods", len(prices)).
		Str("unit", a.cfg.Unit.String()).Msg("starting analysis")

	// Aggregation runs first: the backtest policy may depend on the
	// bucket ranking, and the significance tester shares the groups.
	agg := &seasonal.Aggregator{Geometric: a.cfg.Geometric}
	groups, err := agg.Observations(returnPoints, a.cfg.Unit)
	if err != nil {
		return nil, fmt.Errorf("aggregation for %s: %w", symbol, err)
	}
	buckets, err := agg.GroupByCalendarUnit(returnPoints, a.cfg.Unit)
	if err != nil {
		return nil, fmt.Errorf("aggregation for %s: %w", symbol, err)
	}
	res.Buckets = buckets

	policy := a.cfg.Policy
	if policy == nil {
		monthBuckets := buckets
		if a.cfg.Unit != seasonal.UnitMonth {
			monthBuckets, err = agg.GroupByCalendarUnit(returnPoints, seasonal.UnitMonth)
			if err != nil {
				return nil, fmt.Errorf("policy derivation for %s: %w", symbol, err)
			}
		}
		policy = backtest.TopBuckets(monthBuckets, a.cfg.TopBuckets)
	}

	// The remaining components only read the input series; fan out.
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		warnings []string
	)
	warn := func(component string, err error) {
		mu.Lock()
		defer mu.Unlock()
		warnings = append(warnings, fmt.Sprintf("%s: %v", component, err))
		a.log.Warn().Str("symbol", symbol).Str("component", component).Err(err).Msg("component skipped")
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		m, err := risk.CalculateMetrics(returns, a.cfg.Benchmark, a.cfg.RiskFreeRate)
		if err != nil {
			warn("risk", err)
			return
		}
		res.Risk = m

		v, err := risk.VaR(returns, a.cfg.ConfidenceLevels)
		if err != nil {
			warn("var", err)
		} else {
			res.VaR = v
		}

		dd, err := risk.Drawdowns(dates, closes)
		if err != nil {
			warn("drawdowns", err)
		} else {
			res.Drawdowns = dd
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		sig, err := significance.TestSeasonality(groups)
		if err != nil {
			warn("significance", err)
			return
		}
		res.Significance = sig
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		sim, err := backtest.NewSimulator(a.cfg.InitialCapital, a.cfg.Commission)
		if err != nil {
			warn("backtest", err)
			return
		}
		bt, err := sim.Run(prices, policy)
		if err != nil {
			warn("backtest", err)
			return
		}
		res.Backtest = bt
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		mc, err := montecarlo.Simulate(ctx, returns, a.cfg.MonteCarlo)
		if err != nil {
			warn("monte_carlo", err)
			return
		}
		res.MonteCarlo = mc
		monitoring.RecordMonteCarlo(len(mc.FinalReturns))
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		det := regime.NewDetector()
		vol, err := det.VolatilityRegimes(returns)
		if err != nil {
			warn("vol_regimes", err)
		} else {
			res.VolRegimes = vol
		}
		trend, err := det.TrendRegimes(closes)
		if err != nil {
			warn("trend_regimes", err)
		} else {
			res.TrendRegimes = trend
		}
	}()

	wg.Wait()
	res.Warnings = warnings

	// A cancelled run should fail loudly, not return a partial result
	// that looks complete.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	elapsed := time.Since(started)
	monitoring.RecordAnalysis(symbol, nil, elapsed)
	a.log.Info().Str("symbol", symbol).Dur("elapsed", elapsed).
		Int("buckets", len(res.Buckets)).Int("warnings", len(warnings)).
		Msg("analysis complete")

	return res, nil
}
