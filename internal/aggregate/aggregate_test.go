package aggregate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []*float64
		want   *float64
	}{
		{name: "odd count", values: []*float64{f(0.3), f(0.1), f(0.2)}, want: f(0.2)},
		{name: "even count", values: []*float64{f(0.1), f(0.2), f(0.3), f(0.4)}, want: f(0.25)},
		{name: "missing values skipped", values: []*float64{nil, f(0.5), nil}, want: f(0.5)},
		{name: "non-finite values skipped", values: []*float64{f(math.NaN()), f(math.Inf(1)), f(0.4)}, want: f(0.4)},
		{name: "all missing", values: []*float64{nil, nil}, want: nil},
		{name: "empty input", values: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Median(tt.values)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-12)
		})
	}
}

func TestMedian_RobustToOutlier(t *testing.T) {
	values := []*float64{f(0.20), f(0.21), f(0.22), f(2.5)}
	median := Median(values)
	mean := Mean(values)

	require.NotNil(t, median)
	require.NotNil(t, mean)
	assert.InDelta(t, 0.215, *median, 1e-12)
	assert.Greater(t, *mean, 0.7)
}

func TestMean(t *testing.T) {
	got := Mean([]*float64{f(100), nil, f(102)})
	require.NotNil(t, got)
	assert.InDelta(t, 101.0, *got, 1e-12)

	assert.Nil(t, Mean(nil))
}

func TestSpread(t *testing.T) {
	tests := []struct {
		name     string
		bid, ask *float64
		want     float64
	}{
		{name: "regular market", bid: f(1.0), ask: f(1.2), want: 0.2},
		{name: "missing bid", bid: nil, ask: f(1.2), want: DefaultSpread},
		{name: "missing ask", bid: f(1.0), ask: nil, want: DefaultSpread},
		{name: "crossed market", bid: f(1.3), ask: f(1.2), want: DefaultSpread},
		{name: "locked market", bid: f(1.2), ask: f(1.2), want: DefaultSpread},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Spread(tt.bid, tt.ask), 1e-12)
		})
	}
}

func TestInverseSpreadWeighted(t *testing.T) {
	got := InverseSpreadWeighted(0.3, 0.1, 0.5, 0.5)

	// weights 10 and 2: (3 + 1) / 12
	assert.InDelta(t, 1.0/3.0, got, 1e-12)
	assert.Less(t, math.Abs(got-0.3), math.Abs(got-0.4))

	assert.InDelta(t, 0.4, InverseSpreadWeighted(0.3, 1, 0.5, 1), 1e-12)
}
