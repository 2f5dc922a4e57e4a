// Package seasonal groups a return series into calendar buckets and computes
// per-bucket statistics across years.
package seasonal

import (
	"fmt"
	"sort"
	"time"

	"github.com/quantfarm/seasonal-edge/internal/stats"
	"github.com/quantfarm/seasonal-edge/pkg/types"
)

// CalendarUnit selects the bucketing scheme.
type CalendarUnit int

const (
	UnitMonth CalendarUnit = iota
	UnitWeekday
	UnitQuarter
)

func (u CalendarUnit) String() string {
	switch u {
	case UnitMonth:
		return "month"
	case UnitWeekday:
		return "weekday"
	case UnitQuarter:
		return "quarter"
	default:
		return "unknown"
	}
}

// ParseCalendarUnit converts a config string to a CalendarUnit.
func ParseCalendarUnit(s string) (CalendarUnit, error) {
	switch s {
	case "month", "monthly":
		return UnitMonth, nil
	case "weekday", "daily":
		return UnitWeekday, nil
	case "quarter", "quarterly":
		return UnitQuarter, nil
	default:
		return 0, fmt.Errorf("unknown calendar unit %q", s)
	}
}

var monthLabels = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var weekdayLabels = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

var quarterLabels = []string{"Q1", "Q2", "Q3", "Q4"}

// Labels returns the canonical, calendar-ordered bucket labels for a unit.
func Labels(unit CalendarUnit) []string {
	switch unit {
	case UnitMonth:
		return monthLabels
	case UnitWeekday:
		return weekdayLabels
	case UnitQuarter:
		return quarterLabels
	default:
		return nil
	}
}

// BucketCount returns the number of canonical buckets for a unit.
func BucketCount(unit CalendarUnit) int {
	return len(Labels(unit))
}

// BucketStats holds the cross-year statistics for one calendar bucket.
// Volatility is the sample standard deviation of the per-year observations;
// a single-observation bucket reports 0 rather than NaN, a convention applied
// consistently across the engine.
type BucketStats struct {
	Bucket     int     `json:"bucket"` // canonical index within the unit, 0-based
	Label      string  `json:"label"`
	AvgReturn  float64 `json:"avg_return"`
	Volatility float64 `json:"volatility"`
	MinReturn  float64 `json:"min_return"`
	MaxReturn  float64 `json:"max_return"`
	Count      int     `json:"count"`
	WinRate    float64 `json:"win_rate"`
}

// Group is one bucket's per-(year,unit) observations in canonical order,
// the input shape the significance tester consumes.
type Group struct {
	Bucket int       `json:"bucket"`
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
}

// Aggregator turns a return series into calendar buckets. The default mode
// sums daily returns within each (year,unit) pair, an additive approximation
// of the compounded period return; Geometric switches to true compounding
// of (1+r).
type Aggregator struct {
	Geometric bool
}

// NewAggregator returns an aggregator in the default additive mode.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// GroupByCalendarUnit buckets a return series and returns per-bucket stats
// in canonical calendar order. Buckets with no observations are omitted.
func (a *Aggregator) GroupByCalendarUnit(returns []types.ReturnPoint, unit CalendarUnit) ([]BucketStats, error) {
	groups, err := a.Observations(returns, unit)
	if err != nil {
		return nil, err
	}

	out := make([]BucketStats, 0, len(groups))
	for _, g := range groups {
		out = append(out, summarize(g))
	}
	return out, nil
}

// Observations returns the per-(year,unit) observations grouped by bucket in
// canonical calendar order. Empty buckets are omitted.
func (a *Aggregator) Observations(returns []types.ReturnPoint, unit CalendarUnit) ([]Group, error) {
	if len(returns) == 0 {
		return nil, fmt.Errorf("empty return series")
	}
	labels := Labels(unit)
	if labels == nil {
		return nil, fmt.Errorf("invalid calendar unit %d", int(unit))
	}

	type yearBucket struct {
		year   int
		bucket int
	}
	sums := make(map[yearBucket]float64)
	seen := make(map[yearBucket]bool)
	for _, r := range returns {
		key := yearBucket{year: r.Date.Year(), bucket: bucketIndex(r.Date, unit)}
		if a.Geometric {
			if !seen[key] {
				sums[key] = 1
			}
			sums[key] *= 1 + r.Return
		} else {
			sums[key] += r.Return
		}
		seen[key] = true
	}

	// Regroup per bucket, years in ascending order for determinism.
	perBucket := make(map[int][]yearBucket)
	for key := range sums {
		perBucket[key.bucket] = append(perBucket[key.bucket], key)
	}

	groups := make([]Group, 0, len(labels))
	for bucket := 0; bucket < len(labels); bucket++ {
		keys := perBucket[bucket]
		if len(keys) == 0 {
			continue
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i].year < keys[j].year })
		values := make([]float64, 0, len(keys))
		for _, k := range keys {
			v := sums[k]
			if a.Geometric {
				v -= 1
			}
			values = append(values, v)
		}
		groups = append(groups, Group{Bucket: bucket, Label: labels[bucket], Values: values})
	}

	return groups, nil
}

func summarize(g Group) BucketStats {
	st := BucketStats{
		Bucket:    g.Bucket,
		Label:     g.Label,
		AvgReturn: stats.Mean(g.Values),
		MinReturn: g.Values[0],
		MaxReturn: g.Values[0],
		Count:     len(g.Values),
	}

	wins := 0
	for _, v := range g.Values {
		if v < st.MinReturn {
			st.MinReturn = v
		}
		if v > st.MaxReturn {
			st.MaxReturn = v
		}
		if v > 0 {
			wins++
		}
	}
	st.WinRate = float64(wins) / float64(len(g.Values))

	// Sample std is undefined for one observation; 0 is the documented
	// fallback, not a statement about the data.
	if len(g.Values) > 1 {
		st.Volatility = stats.SampleStd(g.Values)
	}

	return st
}

// bucketIndex maps a date to its canonical 0-based bucket for the unit.
// Weekdays are Monday-first.
func bucketIndex(date time.Time, unit CalendarUnit) int {
	switch unit {
	case UnitMonth:
		return int(date.Month()) - 1
	case UnitWeekday:
		return (int(date.Weekday()) + 6) % 7
	case UnitQuarter:
		return (int(date.Month()) - 1) / 3
	default:
		return -1
	}
}

// MonthOf returns the calendar month a month-unit bucket index represents.
func MonthOf(bucket int) time.Month {
	return time.Month(bucket + 1)
}
