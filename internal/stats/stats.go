// Package stats holds the small numeric helpers shared by the analytics
// engine. The ddof conventions matter here: descriptive statistics follow
// the sample (n-1) convention while the VaR and moment calculations use
// population (n) moments, so both are spelled out explicitly instead of
// relying on one library default.
package stats

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean, NaN for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// SampleStd returns the sample standard deviation (ddof=1).
// NaN for fewer than two values.
func SampleStd(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	m := Mean(values)
	ss := 0.0
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

// PopStd returns the population standard deviation (ddof=0).
// NaN for an empty slice.
func PopStd(values []float64) float64 {
	return math.Sqrt(PopVar(values))
}

// PopVar returns the population variance (ddof=0).
func PopVar(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	m := Mean(values)
	ss := 0.0
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return ss / float64(len(values))
}

// SampleCov returns the sample covariance (ddof=1) of two equal-length
// slices. NaN when lengths differ or fewer than two pairs exist.
func SampleCov(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return math.NaN()
	}
	mx, my := Mean(x), Mean(y)
	sum := 0.0
	for i := range x {
		sum += (x[i] - mx) * (y[i] - my)
	}
	return sum / float64(len(x)-1)
}

// Percentile returns the q-th percentile (q in [0,100]) using linear
// interpolation between closest ranks, matching the default numpy behavior.
// NaN for an empty slice.
func Percentile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if q <= 0 {
		return sorted[0]
	}
	if q >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := q / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	frac := rank - float64(lo)
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// Median is the 50th percentile.
func Median(values []float64) float64 {
	return Percentile(values, 50)
}

// Skewness returns the Fisher-Pearson coefficient of skewness computed from
// population central moments (the scipy default, bias uncorrected).
// Zero variance yields NaN.
func Skewness(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	m := Mean(values)
	m2, m3 := 0.0, 0.0
	for _, v := range values {
		d := v - m
		m2 += d * d
		m3 += d * d * d
	}
	n := float64(len(values))
	m2 /= n
	m3 /= n
	if m2 == 0 {
		return math.NaN()
	}
	return m3 / math.Pow(m2, 1.5)
}

// ExcessKurtosis returns Fisher excess kurtosis from population central
// moments (normal distribution scores 0). Zero variance yields NaN.
func ExcessKurtosis(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	m := Mean(values)
	m2, m4 := 0.0, 0.0
	for _, v := range values {
		d := v - m
		d2 := d * d
		m2 += d2
		m4 += d2 * d2
	}
	n := float64(len(values))
	m2 /= n
	m4 /= n
	if m2 == 0 {
		return math.NaN()
	}
	return m4/(m2*m2) - 3
}

// CumSum returns the cumulative sum of the input.
func CumSum(values []float64) []float64 {
	out := make([]float64, len(values))
	run := 0.0
	for i, v := range values {
		run += v
		out[i] = run
	}
	return out
}
