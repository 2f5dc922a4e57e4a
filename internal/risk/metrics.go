package risk

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/quantfarm/seasonal-edge/internal/stats"
	"github.com/quantfarm/seasonal-edge/pkg/types"
)

// TradingDaysPerYear is the annualization convention for daily returns.
const TradingDaysPerYear = 252

// DefaultRiskFreeRate is the annual risk-free rate assumed when the caller
// does not supply one.
const DefaultRiskFreeRate = 0.02

// Metrics is the derived risk profile of a return series. Undefined ratios
// are NaN; Beta/Alpha are only meaningful when HasBenchmark is set.
type Metrics struct {
	AnnualReturn     float64 `json:"annual_return"`
	AnnualVolatility float64 `json:"annual_volatility"`
	Sharpe           float64 `json:"sharpe"`
	Sortino          float64 `json:"sortino"`
	Calmar           float64 `json:"calmar"`
	Skewness         float64 `json:"skewness"`
	Kurtosis         float64 `json:"kurtosis"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	Beta             float64 `json:"beta,omitempty"`
	Alpha            float64 `json:"alpha,omitempty"`
	HasBenchmark     bool    `json:"has_benchmark"`
}

// MarshalJSON writes undefined ratios (NaN Sortino or Calmar, an infinite
// Sharpe on a zero-vol series) as null rather than failing the document.
func (m Metrics) MarshalJSON() ([]byte, error) {
	type jsonMetrics struct {
		AnnualReturn     types.JSONFloat `json:"annual_return"`
		AnnualVolatility types.JSONFloat `json:"annual_volatility"`
		Sharpe           types.JSONFloat `json:"sharpe"`
		Sortino          types.JSONFloat `json:"sortino"`
		Calmar           types.JSONFloat `json:"calmar"`
		Skewness         types.JSONFloat `json:"skewness"`
		Kurtosis         types.JSONFloat `json:"kurtosis"`
		MaxDrawdown      types.JSONFloat `json:"max_drawdown"`
		Beta             types.JSONFloat `json:"beta,omitempty"`
		Alpha            types.JSONFloat `json:"alpha,omitempty"`
		HasBenchmark     bool            `json:"has_benchmark"`
	}
	return json.Marshal(jsonMetrics{
		AnnualReturn:     types.JSONFloat(m.AnnualReturn),
		AnnualVolatility: types.JSONFloat(m.AnnualVolatility),
		Sharpe:           types.JSONFloat(m.Sharpe),
		Sortino:          types.JSONFloat(m.Sortino),
		Calmar:           types.JSONFloat(m.Calmar),
		Skewness:         types.JSONFloat(m.Skewness),
		Kurtosis:         types.JSONFloat(m.Kurtosis),
		MaxDrawdown:      types.JSONFloat(m.MaxDrawdown),
		Beta:             types.JSONFloat(m.Beta),
		Alpha:            types.JSONFloat(m.Alpha),
		HasBenchmark:     m.HasBenchmark,
	})
}

// CalculateMetrics derives the risk profile of a daily return series.
// benchmark may be nil; when present it must align with returns.
//
// MaxDrawdown (and therefore Calmar) is computed on the cumulative SUM of
// returns rather than a price level. The price-level alternative is
// available via CalmarOnValues so callers can choose their basis.
func CalculateMetrics(returns []float64, benchmark []float64, riskFree float64) (*Metrics, error) {
	if len(returns) < 2 {
		return nil, fmt.Errorf("%w: metrics need at least 2 returns, got %d", ErrInsufficientData, len(returns))
	}
	if benchmark != nil && len(benchmark) != len(returns) {
		return nil, fmt.Errorf("benchmark length %d does not match returns length %d", len(benchmark), len(returns))
	}

	annualReturn := stats.Mean(returns) * TradingDaysPerYear
	annualVol := stats.SampleStd(returns) * math.Sqrt(TradingDaysPerYear)

	m := &Metrics{
		AnnualReturn:     annualReturn,
		AnnualVolatility: annualVol,
		Sharpe:           (annualReturn - riskFree) / annualVol, // NaN/Inf when vol degenerates
		Skewness:         stats.Skewness(returns),
		Kurtosis:         stats.ExcessKurtosis(returns),
	}

	// Sortino: downside-only volatility, same annualization. Undefined
	// (NaN) when fewer than two negative returns exist.
	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	downsideVol := stats.SampleStd(downside) * math.Sqrt(TradingDaysPerYear)
	m.Sortino = (annualReturn - riskFree) / downsideVol

	m.MaxDrawdown = maxDrawdownOf(stats.CumSum(returns))
	if m.MaxDrawdown != 0 {
		m.Calmar = math.Abs(annualReturn / m.MaxDrawdown)
	} else {
		m.Calmar = math.NaN()
	}

	if benchmark != nil {
		benchVar := stats.PopVar(benchmark)
		m.Beta = stats.SampleCov(returns, benchmark) / benchVar
		benchAnnual := stats.Mean(benchmark) * TradingDaysPerYear
		m.Alpha = annualReturn - (riskFree + m.Beta*(benchAnnual-riskFree))
		m.HasBenchmark = true
	}

	return m, nil
}

// CalmarOnValues computes the Calmar ratio against the max drawdown of a
// price-level value series, the alternative basis to the cumulative-sum
// convention baked into CalculateMetrics. NaN when the series never draws
// down.
func CalmarOnValues(annualReturn float64, values []float64) float64 {
	maxDD := maxDrawdownOf(values)
	if maxDD == 0 {
		return math.NaN()
	}
	return math.Abs(annualReturn / maxDD)
}
