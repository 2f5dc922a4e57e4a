package regime

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// calmThenWild builds a return series with a quiet first half and a noisy
// second half so the volatility split is unambiguous.
func calmThenWild(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		base := 0.001
		if i >= n/2 {
			base = 0.05
		}
		if i%2 == 0 {
			out[i] = base
		} else {
			out[i] = -base
		}
	}
	return out
}

func TestVolatilityRegimes_SplitsAtMedian(t *testing.T) {
	d := NewDetector()
	returns := calmThenWild(200)

	res, err := d.VolatilityRegimes(returns)
	require.NoError(t, err)

	assert.Equal(t, d.VolWindow-1, res.Start)
	assert.Len(t, res.Labels, 200-res.Start)
	assert.Len(t, res.Volatility, len(res.Labels))
	assert.Len(t, res.Transitions, len(res.Labels))

	// Early windows are calm, late windows wild.
	assert.Equal(t, LowVol, res.Labels[0])
	assert.Equal(t, HighVol, res.Labels[len(res.Labels)-1])

	// Median split: roughly half the labels on each side.
	high := 0
	for _, l := range res.Labels {
		if l == HighVol {
			high++
		}
	}
	assert.InDelta(t, len(res.Labels)/2, high, float64(len(res.Labels))/4)
}

func TestVolatilityRegimes_TransitionsMatchLabelChanges(t *testing.T) {
	d := NewDetector()
	res, err := d.VolatilityRegimes(calmThenWild(120))
	require.NoError(t, err)

	assert.False(t, res.Transitions[0])
	for i := 1; i < len(res.Labels); i++ {
		assert.Equal(t, res.Labels[i] != res.Labels[i-1], res.Transitions[i])
	}
	assert.GreaterOrEqual(t, res.TransitionCount(), 1)
}

func TestVolatilityRegimes_AnnualizedVolatility(t *testing.T) {
	d := &Detector{VolWindow: 3, ShortWindow: 50, LongWindow: 200}
	returns := []float64{0.01, -0.01, 0.01, -0.01}

	res, err := d.VolatilityRegimes(returns)
	require.NoError(t, err)

	// sample std of {0.01,-0.01,0.01} times sqrt(252)
	m := (0.01 - 0.01 + 0.01) / 3
	ss := math.Pow(0.01-m, 2)*2 + math.Pow(-0.01-m, 2)
	want := math.Sqrt(ss/2) * math.Sqrt(252)
	assert.InDelta(t, want, res.Volatility[0], 1e-12)
}

func TestVolatilityRegimes_InsufficientData(t *testing.T) {
	_, err := NewDetector().VolatilityRegimes(make([]float64, 10))
	assert.Error(t, err)
}

func trendingPrices(n int, slope float64) []float64 {
	out := make([]float64, n)
	price := 100.0
	for i := range out {
		price += slope
		out[i] = price
	}
	return out
}

func TestTrendRegimes_BullOnSteadyUptrend(t *testing.T) {
	d := NewDetector()
	prices := trendingPrices(300, 0.5)

	res, err := d.TrendRegimes(prices)
	require.NoError(t, err)
	assert.Equal(t, d.LongWindow-1, res.Start)

	// In a straight uptrend SMA50 > SMA200 and price > SMA50 everywhere.
	for i, l := range res.Labels {
		assert.Equal(t, Bull, l, "index %d", i)
	}
}

func TestTrendRegimes_BearOnSteadyDowntrend(t *testing.T) {
	prices := trendingPrices(300, -0.2)

	res, err := NewDetector().TrendRegimes(prices)
	require.NoError(t, err)
	for _, l := range res.Labels {
		assert.Equal(t, Bear, l)
	}
}

func TestTrendRegimes_FlatIsSideways(t *testing.T) {
	prices := make([]float64, 250)
	for i := range prices {
		prices[i] = 100
	}

	res, err := NewDetector().TrendRegimes(prices)
	require.NoError(t, err)
	for _, l := range res.Labels {
		assert.Equal(t, Sideways, l) // SMA ties fall to Sideways
	}
}

func TestTrendRegimes_InsufficientData(t *testing.T) {
	_, err := NewDetector().TrendRegimes(make([]float64, 100))
	assert.Error(t, err)
}
