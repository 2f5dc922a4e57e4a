package backtest

import (
	"sort"
	"time"

	"github.com/quantfarm/seasonal-edge/internal/seasonal"
)

// Position is the simulator state: flat or fully long.
type Position int

const (
	Flat Position = iota
	Long
)

// PeriodContext is what a policy sees at each bar.
type PeriodContext struct {
	Date     time.Time
	Price    float64
	Position Position
}

// EntryExitPolicy decides the desired position for a period. The set of
// implementations is closed: SeasonalMonths, BuyAndHold, and the
// bucket-ranked policy produced by TopBuckets.
type EntryExitPolicy interface {
	Desired(p PeriodContext) Position
	Name() string
}

// SeasonalMonths enters in the configured entry months and exits in the
// configured exit months. An empty exit set means hold forever once long.
type SeasonalMonths struct {
	entry map[time.Month]bool
	exit  map[time.Month]bool
}

// NewSeasonalMonths builds the calendar rule policy.
func NewSeasonalMonths(entry, exit []time.Month) SeasonalMonths {
	p := SeasonalMonths{
		entry: make(map[time.Month]bool, len(entry)),
		exit:  make(map[time.Month]bool, len(exit)),
	}
	for _, m := range entry {
		p.entry[m] = true
	}
	for _, m := range exit {
		p.exit[m] = true
	}
	return p
}

func (p SeasonalMonths) Desired(ctx PeriodContext) Position {
	month := ctx.Date.Month()
	switch ctx.Position {
	case Flat:
		if p.entry[month] {
			return Long
		}
	case Long:
		if len(p.exit) > 0 && p.exit[month] {
			return Flat
		}
	}
	return ctx.Position
}

func (p SeasonalMonths) Name() string { return "seasonal_months" }

// EntryMonths returns the entry set in calendar order, for reporting.
func (p SeasonalMonths) EntryMonths() []time.Month { return sortedMonths(p.entry) }

// ExitMonths returns the exit set in calendar order, for reporting.
func (p SeasonalMonths) ExitMonths() []time.Month { return sortedMonths(p.exit) }

func sortedMonths(set map[time.Month]bool) []time.Month {
	out := make([]time.Month, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// BuyAndHold enters on the first period and never exits.
type BuyAndHold struct{}

func (BuyAndHold) Desired(ctx PeriodContext) Position { return Long }

func (BuyAndHold) Name() string { return "buy_and_hold" }

// TopBuckets derives a SeasonalMonths policy from month-bucket rankings:
// the n buckets with the highest average return become entry months, the n
// lowest become exit months. Buckets must come from a month-unit
// aggregation; overlap is resolved in favor of entry.
func TopBuckets(buckets []seasonal.BucketStats, n int) SeasonalMonths {
	ranked := make([]seasonal.BucketStats, len(buckets))
	copy(ranked, buckets)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].AvgReturn > ranked[j].AvgReturn })

	if n > len(ranked) {
		n = len(ranked)
	}

	entrySet := make(map[time.Month]bool, n)
	entry := make([]time.Month, 0, n)
	for _, b := range ranked[:n] {
		m := seasonal.MonthOf(b.Bucket)
		entry = append(entry, m)
		entrySet[m] = true
	}

	exit := make([]time.Month, 0, n)
	for i := len(ranked) - n; i < len(ranked); i++ {
		m := seasonal.MonthOf(ranked[i].Bucket)
		if !entrySet[m] {
			exit = append(exit, m)
		}
	}

	return NewSeasonalMonths(entry, exit)
}
