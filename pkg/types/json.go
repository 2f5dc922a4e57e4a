package types

import (
	"encoding/json"
	"math"
)

// JSONFloat is a float64 whose non-finite values marshal as null.
// encoding/json rejects NaN and ±Inf outright, but degenerate statistics
// (an undefined Sortino, a +Inf profit factor) are legitimate values in
// this engine and must not fail a whole result document. Decoding null
// back into a float64 field is a no-op, so round trips stay lossless for
// finite values.
type JSONFloat float64

func (f JSONFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}
