package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfarm/seasonal-edge/pkg/types"
)

func pricesAt(start time.Time, closes []float64) []types.PricePoint {
	out := make([]types.PricePoint, len(closes))
	for i, c := range closes {
		out[i] = types.PricePoint{
			Date:  start.AddDate(0, i, 0),
			Open:  c, High: c, Low: c, Close: c,
			Volume: 1000,
		}
	}
	return out
}

func allMonths() []time.Month {
	months := make([]time.Month, 12)
	for i := range months {
		months[i] = time.Month(i + 1)
	}
	return months
}

// TestRun_ReferenceRoundTrip: capital 100000, commission 0, buy at 100,
// sell at 110 -> 950 shares, trade return 10%, final capital 109500,
// total return 9.5% reflecting the 5% cash drag.
func TestRun_ReferenceRoundTrip(t *testing.T) {
	start := time.Date(2023, time.January, 16, 0, 0, 0, 0, time.UTC)
	prices := pricesAt(start, []float64{100, 110}) // Jan entry, Feb exit

	sim, err := NewSimulator(100000, 0)
	require.NoError(t, err)

	res, err := sim.Run(prices, NewSeasonalMonths([]time.Month{time.January}, []time.Month{time.February}))
	require.NoError(t, err)

	assert.Equal(t, OutcomeTrades, res.Outcome)
	require.Len(t, res.Trades, 2)

	buy := res.Trades[0]
	assert.Equal(t, TradeBuy, buy.Type)
	assert.Equal(t, int64(950), buy.Shares)
	assert.InDelta(t, 5000.0, buy.CashAfter, 1e-9)

	sell := res.Trades[1]
	assert.Equal(t, TradeSell, sell.Type)
	assert.InDelta(t, 0.10, sell.Return, 1e-12)
	assert.InDelta(t, 109500.0, sell.CashAfter, 1e-9)

	require.NotNil(t, res.Metrics)
	assert.InDelta(t, 0.095, res.Metrics.TotalReturn, 1e-12)
	assert.InDelta(t, 109500.0, res.Metrics.FinalCapital, 1e-9)
	assert.Equal(t, 1, res.Metrics.TradeCount)
	assert.Equal(t, 1.0, res.Metrics.WinRate)
	assert.True(t, math.IsInf(res.Metrics.ProfitFactor, 1))
}

// TestRun_BuyHoldParity: entry in every month and no exits must equal the
// buy-and-hold return adjusted once for entry commission, modulo the cash
// buffer and share flooring.
func TestRun_BuyHoldParity(t *testing.T) {
	start := time.Date(2020, time.January, 15, 0, 0, 0, 0, time.UTC)
	closes := []float64{100, 104, 99, 108, 112, 107, 115, 118, 121, 117, 125, 131}
	prices := pricesAt(start, closes)

	commission := 0.001
	capital := 100000.0
	sim, err := NewSimulator(capital, commission)
	require.NoError(t, err)

	res, err := sim.Run(prices, NewSeasonalMonths(allMonths(), nil))
	require.NoError(t, err)
	assert.Equal(t, OutcomeBuyHold, res.Outcome)
	require.Len(t, res.Trades, 1)

	shares := float64(res.Trades[0].Shares)
	first, last := closes[0], closes[len(closes)-1]
	wantFinal := capital - shares*first*(1+commission) + shares*last
	assert.InDelta(t, wantFinal, res.Metrics.FinalCapital, 1e-6)
	assert.InDelta(t, (wantFinal-capital)/capital, res.Metrics.TotalReturn, 1e-12)
}

func TestRun_NoTradesVariant(t *testing.T) {
	start := time.Date(2023, time.March, 15, 0, 0, 0, 0, time.UTC)
	prices := pricesAt(start, []float64{100, 101, 102}) // Mar, Apr, May

	sim, err := NewSimulator(100000, 0.001)
	require.NoError(t, err)

	res, err := sim.Run(prices, NewSeasonalMonths([]time.Month{time.December}, nil))
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoTrades, res.Outcome)
	assert.Empty(t, res.Trades)
	assert.Nil(t, res.Metrics)
	assert.Len(t, res.EquityCurve, 3)
	// Flat the whole time: value stays at initial capital.
	assert.InDelta(t, 100000.0, res.EquityCurve[2].Value, 1e-9)
}

func TestRun_SnapshotEveryPeriod(t *testing.T) {
	start := time.Date(2023, time.January, 16, 0, 0, 0, 0, time.UTC)
	prices := pricesAt(start, []float64{100, 105, 110, 95})

	sim, err := NewSimulator(50000, 0)
	require.NoError(t, err)

	res, err := sim.Run(prices, NewSeasonalMonths([]time.Month{time.January}, []time.Month{time.April}))
	require.NoError(t, err)
	require.Len(t, res.EquityCurve, 4)

	// 475 shares bought at 100; marked at each close until the April exit.
	assert.Equal(t, int64(475), res.EquityCurve[0].Position)
	assert.InDelta(t, 2500+475*105.0, res.EquityCurve[1].Value, 1e-9)
	assert.Equal(t, int64(0), res.EquityCurve[3].Position)
}

func TestRun_CommissionAppliedBothWays(t *testing.T) {
	start := time.Date(2023, time.January, 16, 0, 0, 0, 0, time.UTC)
	prices := pricesAt(start, []float64{100, 100})

	commission := 0.01
	sim, err := NewSimulator(100000, commission)
	require.NoError(t, err)

	res, err := sim.Run(prices, NewSeasonalMonths([]time.Month{time.January}, []time.Month{time.February}))
	require.NoError(t, err)
	require.Equal(t, OutcomeTrades, res.Outcome)

	// Flat price: the loss is exactly two commissions on 950*100 notional.
	wantFinal := 100000.0 - 2*commission*95000.0
	assert.InDelta(t, wantFinal, res.Metrics.FinalCapital, 1e-9)
	// Trade return ignores commission by definition.
	assert.InDelta(t, 0.0, res.Trades[1].Return, 1e-12)
}

func TestRun_DeterministicAcrossRuns(t *testing.T) {
	start := time.Date(2021, time.January, 16, 0, 0, 0, 0, time.UTC)
	closes := []float64{100, 103, 98, 104, 110, 107, 112, 109, 114, 118, 116, 123}
	prices := pricesAt(start, closes)

	sim, err := NewSimulator(100000, 0.001)
	require.NoError(t, err)
	policy := NewSeasonalMonths([]time.Month{time.February, time.October}, []time.Month{time.May})

	first, err := sim.Run(prices, policy)
	require.NoError(t, err)
	second, err := sim.Run(prices, policy)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRun_RejectsInvalidSeries(t *testing.T) {
	sim, err := NewSimulator(100000, 0)
	require.NoError(t, err)

	_, err = sim.Run(nil, BuyAndHold{})
	assert.Error(t, err)
}

func TestNewSimulator_Validation(t *testing.T) {
	_, err := NewSimulator(0, 0)
	assert.Error(t, err)
	_, err = NewSimulator(1000, -0.1)
	assert.Error(t, err)
	_, err = NewSimulator(1000, 1.0)
	assert.Error(t, err)
}
