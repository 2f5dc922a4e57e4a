// Package regime classifies market conditions from rolling statistics:
// a volatility regime (high/low against the median of the rolling
// annualized volatility) and a trend regime (bull/bear/sideways from the
// 50/200-period moving-average configuration).
package regime

import (
	"fmt"
	"math"

	"github.com/quantfarm/seasonal-edge/internal/indicators"
	"github.com/quantfarm/seasonal-edge/internal/stats"
)

// Default detector parameters.
const (
	DefaultVolWindow   = 22
	DefaultShortWindow = 50
	DefaultLongWindow  = 200

	annualizationFactor = 252
)

// VolLabel is the volatility regime of one period.
type VolLabel int

const (
	LowVol VolLabel = iota
	HighVol
)

func (l VolLabel) String() string {
	if l == HighVol {
		return "high_volatility"
	}
	return "low_volatility"
}

// TrendLabel is the trend regime of one period.
type TrendLabel int

const (
	Sideways TrendLabel = iota
	Bull
	Bear
)

func (l TrendLabel) String() string {
	switch l {
	case Bull:
		return "bull"
	case Bear:
		return "bear"
	default:
		return "sideways"
	}
}

// VolatilityRegimes labels each period once the rolling window fills.
// Index i of the slices corresponds to input index Start+i. Transitions[0]
// is false: there is no prior label to differ from.
type VolatilityRegimes struct {
	Start       int        `json:"start"`
	Volatility  []float64  `json:"volatility"`
	Labels      []VolLabel `json:"labels"`
	Transitions []bool     `json:"transitions"`
	Threshold   float64    `json:"threshold"`
}

// TrendRegimes labels each period once both moving averages exist.
// Index i corresponds to input index Start+i.
type TrendRegimes struct {
	Start    int          `json:"start"`
	SMAShort []float64    `json:"sma_short"`
	SMALong  []float64    `json:"sma_long"`
	Labels   []TrendLabel `json:"labels"`
}

// Detector holds the window configuration. The zero value is unusable; use
// NewDetector for the standard 22/50/200 setup.
type Detector struct {
	VolWindow   int
	ShortWindow int
	LongWindow  int
}

// NewDetector returns a detector with the default windows.
func NewDetector() *Detector {
	return &Detector{
		VolWindow:   DefaultVolWindow,
		ShortWindow: DefaultShortWindow,
		LongWindow:  DefaultLongWindow,
	}
}

// VolatilityRegimes computes rolling sample std over VolWindow returns,
// annualized by sqrt(252), and splits periods at the median of the rolling
// series: strictly above is HighVol, at or below is LowVol.
func (d *Detector) VolatilityRegimes(returns []float64) (*VolatilityRegimes, error) {
	if len(returns) < d.VolWindow {
		return nil, fmt.Errorf("volatility regime needs at least %d returns, got %d", d.VolWindow, len(returns))
	}

	rolling := indicators.RollingStd(returns, d.VolWindow)
	for i, v := range rolling {
		if !math.IsNaN(v) {
			rolling[i] = v * math.Sqrt(annualizationFactor)
		}
	}

	defined, start := indicators.Defined(rolling)
	threshold := stats.Median(defined)

	labels := make([]VolLabel, len(defined))
	transitions := make([]bool, len(defined))
	for i, v := range defined {
		if v > threshold {
			labels[i] = HighVol
		} else {
			labels[i] = LowVol
		}
		if i > 0 {
			transitions[i] = labels[i] != labels[i-1]
		}
	}

	return &VolatilityRegimes{
		Start:       start,
		Volatility:  defined,
		Labels:      labels,
		Transitions: transitions,
		Threshold:   threshold,
	}, nil
}

// TrendRegimes classifies each period from the moving-average stack:
// Bull when SMA50 > SMA200 and price > SMA50, Bear when SMA50 < SMA200 and
// price < SMA50, otherwise Sideways. Ties land in Sideways by construction.
func (d *Detector) TrendRegimes(prices []float64) (*TrendRegimes, error) {
	if len(prices) < d.LongWindow {
		return nil, fmt.Errorf("trend regime needs at least %d prices, got %d", d.LongWindow, len(prices))
	}

	short := indicators.SMASeries(prices, d.ShortWindow)
	long := indicators.SMASeries(prices, d.LongWindow)

	start := d.LongWindow - 1
	n := len(prices) - start
	labels := make([]TrendLabel, n)
	for i := 0; i < n; i++ {
		idx := start + i
		s, l, p := short[idx], long[idx], prices[idx]
		switch {
		case s > l && p > s:
			labels[i] = Bull
		case s < l && p < s:
			labels[i] = Bear
		default:
			labels[i] = Sideways
		}
	}

	return &TrendRegimes{
		Start:    start,
		SMAShort: short[start:],
		SMALong:  long[start:],
		Labels:   labels,
	}, nil
}

// TransitionCount is the number of volatility regime flips.
func (v *VolatilityRegimes) TransitionCount() int {
	count := 0
	for _, t := range v.Transitions {
		if t {
			count++
		}
	}
	return count
}
