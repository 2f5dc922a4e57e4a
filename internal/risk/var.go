// Package risk computes Value-at-Risk, drawdown and risk-adjusted
// performance metrics from a return series. Everything here is a pure
// function of its inputs; degenerate statistics surface as NaN or ±Inf
// values, never as panics.
package risk

import (
	"encoding/json"
	"fmt"
	"strconv"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/quantfarm/seasonal-edge/internal/stats"
	"github.com/quantfarm/seasonal-edge/pkg/types"
)

// DefaultConfidenceLevels are the tail probabilities VaR is reported at.
var DefaultConfidenceLevels = []float64{0.01, 0.05, 0.10}

// VaREstimate holds the three VaR flavors for one confidence level.
type VaREstimate struct {
	Historical    float64 `json:"historical"`
	Parametric    float64 `json:"parametric"`
	CornishFisher float64 `json:"cornish_fisher"`
}

// MarshalJSON writes non-finite estimates as null: a zero-variance series
// has undefined skewness, which propagates NaN into the Cornish-Fisher term.
func (e VaREstimate) MarshalJSON() ([]byte, error) {
	type jsonEstimate struct {
		Historical    types.JSONFloat `json:"historical"`
		Parametric    types.JSONFloat `json:"parametric"`
		CornishFisher types.JSONFloat `json:"cornish_fisher"`
	}
	return json.Marshal(jsonEstimate{
		Historical:    types.JSONFloat(e.Historical),
		Parametric:    types.JSONFloat(e.Parametric),
		CornishFisher: types.JSONFloat(e.CornishFisher),
	})
}

// VaRByLevel maps confidence level to its estimates. encoding/json cannot
// key a map by float64, so marshaling goes through string keys ("0.05").
type VaRByLevel map[float64]VaREstimate

func (v VaRByLevel) MarshalJSON() ([]byte, error) {
	out := make(map[string]VaREstimate, len(v))
	for level, est := range v {
		out[strconv.FormatFloat(level, 'g', -1, 64)] = est
	}
	return json.Marshal(out)
}

func (v *VaRByLevel) UnmarshalJSON(data []byte) error {
	var raw map[string]VaREstimate
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(VaRByLevel, len(raw))
	for key, est := range raw {
		level, err := strconv.ParseFloat(key, 64)
		if err != nil {
			return fmt.Errorf("parse confidence level %q: %w", key, err)
		}
		out[level] = est
	}
	*v = out
	return nil
}

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// VaR computes historical, parametric and Cornish-Fisher VaR for each
// confidence level. Levels are tail probabilities in (0,1); nil selects the
// defaults. The parametric and Cornish-Fisher estimates use population
// moments.
func VaR(returns []float64, levels []float64) (VaRByLevel, error) {
	if len(returns) < 2 {
		return nil, fmt.Errorf("%w: VaR needs at least 2 returns, got %d", ErrInsufficientData, len(returns))
	}
	if levels == nil {
		levels = DefaultConfidenceLevels
	}

	mean := stats.Mean(returns)
	std := stats.PopStd(returns)
	skew := stats.Skewness(returns)
	kurt := stats.ExcessKurtosis(returns)

	out := make(VaRByLevel, len(levels))
	for _, conf := range levels {
		if conf <= 0 || conf >= 1 {
			return nil, fmt.Errorf("confidence level %v outside (0,1)", conf)
		}
		z := stdNormal.Quantile(conf)

		// Cornish-Fisher expansion of the normal quantile using the
		// series' skewness and excess kurtosis.
		cf := (1.0/6.0)*(z*z-1)*skew +
			(1.0/24.0)*(z*z*z-3*z)*kurt -
			(1.0/36.0)*(2*z*z*z-5*z)*skew*skew

		out[conf] = VaREstimate{
			Historical:    stats.Percentile(returns, conf*100),
			Parametric:    mean + std*z,
			CornishFisher: mean + std*(z+cf),
		}
	}

	return out, nil
}
