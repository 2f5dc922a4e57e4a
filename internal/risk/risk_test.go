package risk

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDrawdowns_ReferenceScenario prices [100,110,90,95,130] must peak at
// [100,110,110,110,130] and bottom out at index 2 with about -18.18%.
func TestDrawdowns_ReferenceScenario(t *testing.T) {
	values := []float64{100, 110, 90, 95, 130}

	dd, err := Drawdowns(nil, values)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, dd.Series[0], 1e-12)
	assert.InDelta(t, 0.0, dd.Series[1], 1e-12)
	assert.InDelta(t, -0.18181818, dd.Series[2], 1e-6)
	assert.InDelta(t, -0.13636364, dd.Series[3], 1e-6)
	assert.InDelta(t, 0.0, dd.Series[4], 1e-12)

	assert.InDelta(t, -0.18181818, dd.MaxDrawdown, 1e-6)
	assert.Equal(t, 2, dd.EndIndex)
	assert.Equal(t, 1, dd.StartIndex) // 110 is the pre-trough peak
}

func TestDrawdowns_MonotonicSeriesHasZeroDrawdown(t *testing.T) {
	dd, err := Drawdowns(nil, []float64{1, 2, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 0.0, dd.MaxDrawdown)
}

func TestDrawdowns_DurationInCalendarDays(t *testing.T) {
	base := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	dates := []time.Time{base, base.AddDate(0, 0, 7), base.AddDate(0, 0, 14), base.AddDate(0, 0, 21)}
	values := []float64{100, 120, 80, 90}

	dd, err := Drawdowns(dates, values)
	require.NoError(t, err)
	assert.Equal(t, 1, dd.StartIndex)
	assert.Equal(t, 2, dd.EndIndex)
	assert.Equal(t, 7, dd.DurationDays)
}

func TestDrawdowns_EmptySeries(t *testing.T) {
	_, err := Drawdowns(nil, nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestVaR_HistoricalMonotoneInConfidence(t *testing.T) {
	returns := []float64{0.01, -0.02, 0.015, 0.03, -0.01, 0.02, 0.01, -0.015, 0.025, 0.005, -0.02, 0.03}

	estimates, err := VaR(returns, []float64{0.01, 0.05, 0.10})
	require.NoError(t, err)
	assert.LessOrEqual(t, estimates[0.01].Historical, estimates[0.05].Historical)
	assert.LessOrEqual(t, estimates[0.05].Historical, estimates[0.10].Historical)
}

// TestVaR_CornishFisherPolynomial pins the expansion against a hand
// computation with fixed moments.
func TestVaR_CornishFisherPolynomial(t *testing.T) {
	// Symmetric input: skew = 0, so CF reduces to the kurtosis term.
	returns := []float64{-0.02, -0.01, 0.01, 0.02}

	estimates, err := VaR(returns, []float64{0.05})
	require.NoError(t, err)

	mean := 0.0
	variance := (0.0004 + 0.0001 + 0.0001 + 0.0004) / 4
	std := math.Sqrt(variance)
	m4 := (16e-8 + 1e-8 + 1e-8 + 16e-8) / 4
	kurt := m4/(variance*variance) - 3

	z := stdNormal.Quantile(0.05)
	cf := (1.0/24.0)*(z*z*z-3*z)*kurt - 0 // skew terms vanish
	want := mean + std*(z+cf)

	assert.InDelta(t, want, estimates[0.05].CornishFisher, 1e-12)
	assert.InDelta(t, mean+std*z, estimates[0.05].Parametric, 1e-12)
}

func TestVaR_InsufficientData(t *testing.T) {
	_, err := VaR([]float64{0.01}, nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

// Float map keys are not valid JSON keys on their own, so VaRByLevel
// marshals through strings and must round-trip back to float levels.
func TestVaRByLevel_JSONRoundTrip(t *testing.T) {
	in := VaRByLevel{
		0.05: {Historical: -0.02, Parametric: -0.025, CornishFisher: -0.024},
		0.01: {Historical: -0.04, Parametric: -0.045, CornishFisher: -0.044},
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"0.05"`)

	var out VaRByLevel
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestVaR_RejectsBadConfidence(t *testing.T) {
	_, err := VaR([]float64{0.01, 0.02}, []float64{1.5})
	assert.Error(t, err)
}

func TestCalculateMetrics_AnnualizationConvention(t *testing.T) {
	returns := []float64{0.01, -0.02, 0.015, 0.03, -0.01, 0.02, 0.01, -0.015, 0.025, 0.005, -0.02, 0.03}

	m, err := CalculateMetrics(returns, nil, DefaultRiskFreeRate)
	require.NoError(t, err)

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))
	assert.InDelta(t, mean*252, m.AnnualReturn, 1e-12)
	assert.InDelta(t, (m.AnnualReturn-DefaultRiskFreeRate)/m.AnnualVolatility, m.Sharpe, 1e-12)
	assert.LessOrEqual(t, m.MaxDrawdown, 0.0)
	assert.False(t, m.HasBenchmark)
}

func TestCalculateMetrics_SortinoUndefinedWithoutLosses(t *testing.T) {
	returns := []float64{0.01, 0.02, 0.005, 0.015}

	m, err := CalculateMetrics(returns, nil, DefaultRiskFreeRate)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(m.Sortino))
}

func TestCalculateMetrics_BetaAlpha(t *testing.T) {
	// returns = 2 * benchmark implies beta 2 exactly when cov and var use
	// the same denominator; here cov is sample and var population, so
	// beta = 2 * n/(n-1).
	bench := []float64{0.01, -0.01, 0.02, -0.02}
	returns := []float64{0.02, -0.02, 0.04, -0.04}

	m, err := CalculateMetrics(returns, bench, DefaultRiskFreeRate)
	require.NoError(t, err)
	require.True(t, m.HasBenchmark)
	assert.InDelta(t, 2.0*4.0/3.0, m.Beta, 1e-12)

	benchAnnual := 0.0 // mean of bench is zero
	want := m.AnnualReturn - (DefaultRiskFreeRate + m.Beta*(benchAnnual-DefaultRiskFreeRate))
	assert.InDelta(t, want, m.Alpha, 1e-12)
}

func TestCalculateMetrics_BenchmarkLengthMismatch(t *testing.T) {
	_, err := CalculateMetrics([]float64{0.01, 0.02}, []float64{0.01}, DefaultRiskFreeRate)
	assert.Error(t, err)
}

func TestCalmarOnValues_PriceLevelBasis(t *testing.T) {
	values := []float64{100, 110, 90, 95, 130}
	calmar := CalmarOnValues(0.10, values)
	assert.InDelta(t, 0.10/0.18181818, calmar, 1e-6)

	assert.True(t, math.IsNaN(CalmarOnValues(0.10, []float64{1, 2, 3})))
}
