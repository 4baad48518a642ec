// Package aggregate provides the robust statistics used to summarize irregular,
// partially missing market observations.
package aggregate

import (
	"math"

	"github.com/montanaflynn/stats"
)

// DefaultSpread replaces a missing or non-positive bid/ask spread
const DefaultSpread = 1.0

// Median returns the median of the defined values, or nil when none are defined
func Median(values []*float64) *float64 {
	data := defined(values)
	if len(data) == 0 {
		return nil
	}
	m, err := stats.Median(data)
	if err != nil || math.IsNaN(m) {
		return nil
	}
	return &m
}

// Mean returns the arithmetic mean of the defined values, or nil when none are defined
func Mean(values []*float64) *float64 {
	data := defined(values)
	if len(data) == 0 {
		return nil
	}
	m, err := stats.Mean(data)
	if err != nil || math.IsNaN(m) {
		return nil
	}
	return &m
}

// Spread returns ask - bid, or DefaultSpread when either side is missing or
// the spread is not positive. One-sided quotes are penalized, not trusted.
func Spread(bid, ask *float64) float64 {
	if bid == nil || ask == nil {
		return DefaultSpread
	}
	s := *ask - *bid
	if s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
		return DefaultSpread
	}
	return s
}

// InverseSpreadWeighted blends two readings weighting each by the inverse of
// its quoted spread, so the tighter market dominates.
func InverseSpreadWeighted(a, spreadA, b, spreadB float64) float64 {
	wa := 1 / spreadA
	wb := 1 / spreadB
	return (a*wa + b*wb) / (wa + wb)
}

func defined(values []*float64) stats.Float64Data {
	data := make(stats.Float64Data, 0, len(values))
	for _, v := range values {
		if v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0) {
			data = append(data, *v)
		}
	}
	return data
}
