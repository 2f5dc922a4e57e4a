// Package significance tests whether calendar-bucket return differences are
// statistically distinguishable from noise: a one-way ANOVA across buckets
// plus per-bucket one-sample t-tests against the grand mean of all
// observations.
package significance

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/quantfarm/seasonal-edge/internal/seasonal"
	"github.com/quantfarm/seasonal-edge/internal/stats"
	"github.com/quantfarm/seasonal-edge/pkg/types"
)

// SignificanceLevel is the p-value threshold for flagging results.
const SignificanceLevel = 0.05

// ErrTooFewGroups means ANOVA was asked of fewer than two non-empty groups
// or with no residual degrees of freedom.
var ErrTooFewGroups = errors.New("too few groups for ANOVA")

// ANOVA is the one-way F-test result across all buckets.
type ANOVA struct {
	FStat       float64 `json:"f_stat"`
	PValue      float64 `json:"p_value"`
	Significant bool    `json:"significant"`
}

// MarshalJSON writes the degenerate outcomes (F=+Inf when within-group
// variance is zero, NaN when the group means coincide too) as null.
func (a ANOVA) MarshalJSON() ([]byte, error) {
	type jsonANOVA struct {
		FStat       types.JSONFloat `json:"f_stat"`
		PValue      types.JSONFloat `json:"p_value"`
		Significant bool            `json:"significant"`
	}
	return json.Marshal(jsonANOVA{
		FStat:       types.JSONFloat(a.FStat),
		PValue:      types.JSONFloat(a.PValue),
		Significant: a.Significant,
	})
}

// BucketTest is a one-sample t-test of a bucket's observations against the
// grand mean, detecting deviation from the series' own average rather than
// from zero.
type BucketTest struct {
	TStat       float64 `json:"t_stat"`
	PValue      float64 `json:"p_value"`
	Significant bool    `json:"significant"`
	Mean        float64 `json:"mean"`
	N           int     `json:"n"`
}

// Result bundles the ANOVA with the per-bucket tests, keyed by bucket label.
// Buckets with n<=1 are absent from Buckets (a t-test needs at least two
// observations), not reported as zeros.
type Result struct {
	ANOVA   ANOVA                 `json:"anova"`
	Buckets map[string]BucketTest `json:"per_bucket"`
}

// TestSeasonality runs the full battery over per-(year,unit) observation
// groups as produced by seasonal.Aggregator.Observations. Empty groups must
// already be omitted (the aggregator does so).
func TestSeasonality(groups []seasonal.Group) (*Result, error) {
	anova, err := oneWayANOVA(groups)
	if err != nil {
		return nil, err
	}

	// Grand mean over every observation, including single-observation
	// buckets that are excluded from their own t-test.
	var all []float64
	for _, g := range groups {
		all = append(all, g.Values...)
	}
	grandMean := stats.Mean(all)

	buckets := make(map[string]BucketTest, len(groups))
	for _, g := range groups {
		if len(g.Values) <= 1 {
			continue
		}
		test, ok := oneSampleTTest(g.Values, grandMean)
		if !ok {
			continue // zero within-bucket variance, t undefined
		}
		buckets[g.Label] = test
	}

	return &Result{ANOVA: *anova, Buckets: buckets}, nil
}

// oneWayANOVA computes the classic F statistic: between-group mean square
// over within-group mean square.
func oneWayANOVA(groups []seasonal.Group) (*ANOVA, error) {
	k := 0
	n := 0
	var all []float64
	for _, g := range groups {
		if len(g.Values) == 0 {
			continue
		}
		k++
		n += len(g.Values)
		all = append(all, g.Values...)
	}
	if k < 2 {
		return nil, fmt.Errorf("%w: got %d non-empty groups", ErrTooFewGroups, k)
	}
	if n-k < 1 {
		return nil, fmt.Errorf("%w: no residual degrees of freedom (N=%d, k=%d)", ErrTooFewGroups, n, k)
	}

	grand := stats.Mean(all)

	ssBetween := 0.0
	ssWithin := 0.0
	for _, g := range groups {
		if len(g.Values) == 0 {
			continue
		}
		gm := stats.Mean(g.Values)
		d := gm - grand
		ssBetween += float64(len(g.Values)) * d * d
		for _, v := range g.Values {
			dv := v - gm
			ssWithin += dv * dv
		}
	}

	dfBetween := float64(k - 1)
	dfWithin := float64(n - k)
	msBetween := ssBetween / dfBetween
	msWithin := ssWithin / dfWithin

	a := &ANOVA{}
	if msWithin == 0 {
		// Identical values within every group: infinitely strong
		// separation unless the group means coincide too.
		if msBetween == 0 {
			a.FStat = math.NaN()
			a.PValue = math.NaN()
			return a, nil
		}
		a.FStat = math.Inf(1)
		a.PValue = 0
		a.Significant = true
		return a, nil
	}

	a.FStat = msBetween / msWithin
	fDist := distuv.F{D1: dfBetween, D2: dfWithin}
	a.PValue = 1 - fDist.CDF(a.FStat)
	a.Significant = a.PValue < SignificanceLevel
	return a, nil
}

// oneSampleTTest tests H0: mean(values) == mu. Returns ok=false when the
// sample standard deviation is zero and t is undefined.
func oneSampleTTest(values []float64, mu float64) (BucketTest, bool) {
	n := len(values)
	mean := stats.Mean(values)
	sd := stats.SampleStd(values)
	if sd == 0 || math.IsNaN(sd) {
		return BucketTest{}, false
	}

	t := (mean - mu) / (sd / math.Sqrt(float64(n)))
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}
	p := 2 * tDist.CDF(-math.Abs(t))

	return BucketTest{
		TStat:       t,
		PValue:      p,
		Significant: p < SignificanceLevel,
		Mean:        mean,
		N:           n,
	}, true
}
