package risk

import (
	"errors"
	"fmt"
	"time"
)

// ErrInsufficientData marks statistics asked of a series shorter than they
// require. Callers decide how to surface it; the engine never substitutes a
// plausible-looking default.
var ErrInsufficientData = errors.New("insufficient data")

// DrawdownResult describes the decline of a value series from its running
// peak. MaxDrawdown is always <= 0 and exactly 0 only for a monotonically
// non-decreasing series.
type DrawdownResult struct {
	Series       []float64 `json:"series"`
	MaxDrawdown  float64   `json:"max_drawdown"`
	StartIndex   int       `json:"start_index"` // peak preceding the trough
	EndIndex     int       `json:"end_index"`   // trough
	DurationDays int       `json:"duration_days"`
}

// Drawdowns computes the drawdown series of values against its cumulative
// maximum: dd[t] = (value[t] - peak[t]) / peak[t]. The trough is the first
// index attaining the minimum drawdown; the start is the first index
// attaining the maximum value before (and including) the trough. dates may
// be nil when no calendar duration is wanted; otherwise it must align with
// values.
func Drawdowns(dates []time.Time, values []float64) (*DrawdownResult, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: empty value series", ErrInsufficientData)
	}
	if dates != nil && len(dates) != len(values) {
		return nil, fmt.Errorf("dates length %d does not match values length %d", len(dates), len(values))
	}

	series := make([]float64, len(values))
	peak := values[0]
	maxDD := 0.0
	end := 0
	for i, v := range values {
		if v > peak {
			peak = v
		}
		series[i] = (v - peak) / peak
		if series[i] < maxDD {
			maxDD = series[i]
			end = i
		}
	}

	// First occurrence of the pre-trough maximum.
	start := 0
	best := values[0]
	for i := 1; i <= end; i++ {
		if values[i] > best {
			best = values[i]
			start = i
		}
	}

	result := &DrawdownResult{
		Series:      series,
		MaxDrawdown: maxDD,
		StartIndex:  start,
		EndIndex:    end,
	}
	if dates != nil {
		result.DurationDays = int(dates[end].Sub(dates[start]).Hours() / 24)
	}

	return result, nil
}

// maxDrawdownOf is the scalar-only variant used where the full series is not
// needed, e.g. the Calmar denominator.
func maxDrawdownOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	peak := values[0]
	maxDD := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		dd := (v - peak) / peak
		if dd < maxDD {
			maxDD = dd
		}
	}
	return maxDD
}
