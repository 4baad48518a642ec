// Package options builds an implied-volatility forward curve from raw option
// chains: IV cleaning, expiry selection, call/put fusion, central-strike
// selection, expected-move projection and classification.
package options

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// IV quality gate
const (
	// IVPercentThreshold: readings above it are whole percentages
	IVPercentThreshold = 3.0
	// IVFloor rejects zero and noise readings
	IVFloor = 0.01
	// IVCeiling rejects readings above 300% after rescaling
	IVCeiling = 3.0
)

// CleanIV normalizes a raw implied-volatility reading to a fraction.
// Values above 3 are taken as percentages. Nil when the input is missing,
// not numeric, or outside [IVFloor, IVCeiling] after rescaling.
func CleanIV(raw interface{}) *float64 {
	v, ok := toFloat(raw)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	if v > IVPercentThreshold {
		v /= 100
	}
	if v < IVFloor || v > IVCeiling {
		return nil
	}
	return &v
}

func toFloat(raw interface{}) (float64, bool) {
	switch x := raw.(type) {
	case nil:
		return 0, false
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case *float64:
		if x == nil {
			return 0, false
		}
		return *x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
