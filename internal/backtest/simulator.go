// Package backtest simulates calendar-rule trading strategies over a daily
// price series. The simulator is a two-state machine (flat or fully long,
// no shorting) driven by an EntryExitPolicy, producing a trade log, an
// equity curve and realized performance metrics.
package backtest

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/quantfarm/seasonal-edge/pkg/types"
)

// AllocationFraction is the share of available capital deployed on entry.
// The remaining 5% stays in cash, which shows up as drag versus pure
// buy-and-hold.
const AllocationFraction = 0.95

// TradeType tags a trade log entry.
type TradeType string

const (
	TradeBuy  TradeType = "BUY"
	TradeSell TradeType = "SELL"
)

// Trade is one entry or exit. Return is only meaningful on SELL rows, where
// it is (price - entryPrice) / entryPrice of the matching BUY.
type Trade struct {
	Date      time.Time `json:"date"`
	Type      TradeType `json:"type"`
	Price     float64   `json:"price"`
	Shares    int64     `json:"shares"`
	CashAfter float64   `json:"cash_after"`
	Return    float64   `json:"return,omitempty"`
}

// Snapshot is the portfolio value at one period: cash plus position marked
// at the period close.
type Snapshot struct {
	Date     time.Time `json:"date"`
	Value    float64   `json:"value"`
	Position int64     `json:"position"`
}

// Outcome discriminates the three result shapes a run can produce.
type Outcome int

const (
	// OutcomeNoTrades: the rule never triggered; Metrics is nil so batch
	// callers can skip gracefully instead of reading zeros.
	OutcomeNoTrades Outcome = iota
	// OutcomeBuyHold: entries but no exits; metrics degenerate to the
	// total-return based set.
	OutcomeBuyHold
	// OutcomeTrades: at least one completed round trip.
	OutcomeTrades
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoTrades:
		return "no_trades"
	case OutcomeBuyHold:
		return "buy_and_hold"
	case OutcomeTrades:
		return "trades"
	default:
		return "unknown"
	}
}

// Metrics is the realized performance of a run.
type Metrics struct {
	TotalReturn  float64 `json:"total_return"`
	TradeCount   int     `json:"trade_count"`
	WinRate      float64 `json:"win_rate"`
	AvgWin       float64 `json:"avg_win"`
	AvgLoss      float64 `json:"avg_loss"`
	ProfitFactor float64 `json:"profit_factor"`
	FinalCapital float64 `json:"final_capital"`
}

// MarshalJSON writes non-finite metric values as null; a profit factor of
// +Inf (no losing round trips) would otherwise fail the whole document.
func (m Metrics) MarshalJSON() ([]byte, error) {
	type jsonMetrics struct {
		TotalReturn  types.JSONFloat `json:"total_return"`
		TradeCount   int             `json:"trade_count"`
		WinRate      types.JSONFloat `json:"win_rate"`
		AvgWin       types.JSONFloat `json:"avg_win"`
		AvgLoss      types.JSONFloat `json:"avg_loss"`
		ProfitFactor types.JSONFloat `json:"profit_factor"`
		FinalCapital types.JSONFloat `json:"final_capital"`
	}
	return json.Marshal(jsonMetrics{
		TotalReturn:  types.JSONFloat(m.TotalReturn),
		TradeCount:   m.TradeCount,
		WinRate:      types.JSONFloat(m.WinRate),
		AvgWin:       types.JSONFloat(m.AvgWin),
		AvgLoss:      types.JSONFloat(m.AvgLoss),
		ProfitFactor: types.JSONFloat(m.ProfitFactor),
		FinalCapital: types.JSONFloat(m.FinalCapital),
	})
}

// Result is the full output of one simulation.
type Result struct {
	Outcome     Outcome    `json:"outcome"`
	Trades      []Trade    `json:"trades"`
	EquityCurve []Snapshot `json:"equity_curve"`
	Metrics     *Metrics   `json:"metrics,omitempty"`
}

// Simulator runs calendar strategies against a price series. One instance
// per run configuration; Run itself is stateless and deterministic.
type Simulator struct {
	initialCapital float64
	commission     float64
}

// NewSimulator configures a simulator. commission is the per-side fraction
// of notional (e.g. 0.001 = 10 bps each way).
func NewSimulator(initialCapital, commission float64) (*Simulator, error) {
	if initialCapital <= 0 {
		return nil, fmt.Errorf("initial capital must be positive, got %v", initialCapital)
	}
	if commission < 0 || commission >= 1 {
		return nil, fmt.Errorf("commission must be in [0,1), got %v", commission)
	}
	return &Simulator{initialCapital: initialCapital, commission: commission}, nil
}

// Run walks the series period by period applying the policy. Entries buy
// floor(capital*0.95/price) shares and pay commission on the notional;
// exits sell everything and receive notional net of commission. Every
// period appends a portfolio snapshot.
func (s *Simulator) Run(prices []types.PricePoint, policy EntryExitPolicy) (*Result, error) {
	if err := types.ValidateSeries(prices); err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, fmt.Errorf("nil policy")
	}

	capital := s.initialCapital
	var shares int64
	entryPrice := 0.0
	state := Flat

	result := &Result{
		Trades:      make([]Trade, 0, 8),
		EquityCurve: make([]Snapshot, 0, len(prices)),
	}

	for _, p := range prices {
		desired := policy.Desired(PeriodContext{Date: p.Date, Price: p.Close, Position: state})

		if state == Flat && desired == Long {
			qty := int64(math.Floor(capital * AllocationFraction / p.Close))
			// A price above the deployable capital leaves nothing to
			// buy; stay flat rather than log a zero-share entry.
			if qty > 0 {
				notional := float64(qty) * p.Close
				capital -= notional * (1 + s.commission)
				shares = qty
				entryPrice = p.Close
				state = Long
				result.Trades = append(result.Trades, Trade{
					Date:      p.Date,
					Type:      TradeBuy,
					Price:     p.Close,
					Shares:    qty,
					CashAfter: capital,
				})
			}
		} else if state == Long && desired == Flat {
			notional := float64(shares) * p.Close
			capital += notional * (1 - s.commission)
			result.Trades = append(result.Trades, Trade{
				Date:      p.Date,
				Type:      TradeSell,
				Price:     p.Close,
				Shares:    shares,
				CashAfter: capital,
				Return:    (p.Close - entryPrice) / entryPrice,
			})
			shares = 0
			state = Flat
		}

		value := capital
		if state == Long {
			value += float64(shares) * p.Close
		}
		result.EquityCurve = append(result.EquityCurve, Snapshot{Date: p.Date, Value: value, Position: shares})
	}

	s.finalize(result)
	return result, nil
}

// finalize derives the outcome variant and metrics from the trade log.
func (s *Simulator) finalize(r *Result) {
	if len(r.Trades) == 0 {
		r.Outcome = OutcomeNoTrades
		return
	}

	finalValue := r.EquityCurve[len(r.EquityCurve)-1].Value
	totalReturn := (finalValue - s.initialCapital) / s.initialCapital

	var sellReturns []float64
	for _, t := range r.Trades {
		if t.Type == TradeSell {
			sellReturns = append(sellReturns, t.Return)
		}
	}

	if len(sellReturns) > 0 {
		r.Outcome = OutcomeTrades
		r.Metrics = roundTripMetrics(sellReturns, totalReturn, finalValue)
		return
	}

	// Entries only: the buy-and-hold degenerate metric set, derived from
	// total return since no round trips were realized.
	r.Outcome = OutcomeBuyHold
	m := &Metrics{
		TotalReturn:  totalReturn,
		TradeCount:   len(r.Trades),
		FinalCapital: finalValue,
	}
	if totalReturn > 0 {
		m.WinRate = 1
		m.AvgWin = totalReturn
		m.ProfitFactor = math.Inf(1)
	} else if totalReturn < 0 {
		m.AvgLoss = totalReturn
	}
	r.Metrics = m
}

func roundTripMetrics(sellReturns []float64, totalReturn, finalValue float64) *Metrics {
	wins, losses := 0, 0
	winSum, lossSum := 0.0, 0.0
	for _, ret := range sellReturns {
		if ret > 0 {
			wins++
			winSum += ret
		} else if ret < 0 {
			losses++
			lossSum += ret
		}
	}

	m := &Metrics{
		TotalReturn:  totalReturn,
		TradeCount:   len(sellReturns),
		WinRate:      float64(wins) / float64(len(sellReturns)),
		FinalCapital: finalValue,
	}
	if wins > 0 {
		m.AvgWin = winSum / float64(wins)
	}
	if losses > 0 {
		m.AvgLoss = lossSum / float64(losses)
		m.ProfitFactor = math.Abs(m.AvgWin / m.AvgLoss)
	} else {
		// No losing trades: +Inf by convention.
		m.ProfitFactor = math.Inf(1)
	}
	return m
}
