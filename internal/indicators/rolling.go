// Package indicators provides the rolling-window primitives the regime
// detector is built on. Outputs align with the input series: positions
// before the first full window are NaN.
package indicators

import (
	"math"

	"github.com/quantfarm/seasonal-edge/internal/stats"
)

// SMASeries computes a simple moving average over a fixed window. The
// result has the same length as values; indexes before window-1 are NaN.
// A window larger than the series yields all NaN.
func SMASeries(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 0 || window > len(values) {
		return out
	}

	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// RollingStd computes the rolling sample standard deviation (ddof=1) over a
// fixed window, NaN-padded like SMASeries. Window must be at least 2 for
// the sample deviation to exist.
func RollingStd(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window < 2 || window > len(values) {
		return out
	}

	for i := window - 1; i < len(values); i++ {
		out[i] = stats.SampleStd(values[i-window+1 : i+1])
	}
	return out
}

// Defined returns the values of a NaN-padded rolling series from its first
// defined index, plus that index. An all-NaN series returns (nil, -1).
func Defined(series []float64) ([]float64, int) {
	for i, v := range series {
		if !math.IsNaN(v) {
			return series[i:], i
		}
	}
	return nil, -1
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
