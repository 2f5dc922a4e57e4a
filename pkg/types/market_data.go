package types

import (
	"fmt"
	"math"
	"time"
)

// PricePoint is one period of OHLCV data for an instrument.
type PricePoint struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// ReturnPoint is a dated simple return: close[t]/close[t-1] - 1.
type ReturnPoint struct {
	Date   time.Time `json:"date"`
	Return float64   `json:"return"`
}

// ValidateSeries checks the structural invariants the engine relies on:
// at least two periods, strictly ascending unique dates, finite positive
// prices. A violation is a caller bug, reported as an error rather than
// silently repaired.
func ValidateSeries(prices []PricePoint) error {
	if len(prices) < 2 {
		return fmt.Errorf("price series too short: need at least 2 periods, got %d", len(prices))
	}

	for i, p := range prices {
		if !isFinite(p.Open) || !isFinite(p.High) || !isFinite(p.Low) || !isFinite(p.Close) {
			return fmt.Errorf("non-finite OHLC value at index %d (%s)", i, p.Date.Format("2006-01-02"))
		}
		if p.Close <= 0 {
			return fmt.Errorf("non-positive close %.6f at index %d (%s)", p.Close, i, p.Date.Format("2006-01-02"))
		}
		if i > 0 {
			prev := prices[i-1].Date
			if p.Date.Equal(prev) {
				return fmt.Errorf("duplicate date %s at index %d", p.Date.Format("2006-01-02"), i)
			}
			if p.Date.Before(prev) {
				return fmt.Errorf("dates out of order at index %d: %s before %s",
					i, p.Date.Format("2006-01-02"), prev.Format("2006-01-02"))
			}
		}
	}

	return nil
}

// Returns derives the simple-return series from a validated price series.
// The result has length len(prices)-1; each return carries the date of the
// later close.
func Returns(prices []PricePoint) ([]ReturnPoint, error) {
	if err := ValidateSeries(prices); err != nil {
		return nil, err
	}

	returns := make([]ReturnPoint, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		returns = append(returns, ReturnPoint{
			Date:   prices[i].Date,
			Return: prices[i].Close/prices[i-1].Close - 1,
		})
	}

	return returns, nil
}

// Closes extracts the close prices from a series.
func Closes(prices []PricePoint) []float64 {
	out := make([]float64, len(prices))
	for i, p := range prices {
		out[i] = p.Close
	}
	return out
}

// Dates extracts the dates from a series.
func Dates(prices []PricePoint) []time.Time {
	out := make([]time.Time, len(prices))
	for i, p := range prices {
		out[i] = p.Date
	}
	return out
}

// ReturnValues strips the dates from a return series.
func ReturnValues(returns []ReturnPoint) []float64 {
	out := make([]float64, len(returns))
	for i, r := range returns {
		out[i] = r.Return
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
