package options

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var today = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPickMonthly(t *testing.T) {
	tests := []struct {
		name     string
		expiries []time.Time
		horizon  int
		want     []time.Time
	}{
		{
			name:     "empty",
			expiries: nil,
			horizon:  6,
			want:     []time.Time{},
		},
		{
			name: "first expiry of each month",
			expiries: []time.Time{
				date(2026, 11, 27), date(2026, 11, 20), date(2026, 12, 18),
				date(2026, 12, 31), date(2027, 1, 15),
			},
			horizon: 6,
			want:    []time.Time{date(2026, 11, 20), date(2026, 12, 18), date(2027, 1, 15)},
		},
		{
			name: "past and today are skipped",
			expiries: []time.Time{
				date(2026, 10, 1), today, date(2026, 10, 23), date(2026, 10, 30),
			},
			horizon: 6,
			want:    []time.Time{date(2026, 10, 23)},
		},
		{
			name: "stops at horizon",
			expiries: []time.Time{
				date(2026, 11, 20), date(2026, 12, 18), date(2027, 1, 15), date(2027, 2, 19),
			},
			horizon: 2,
			want:    []time.Time{date(2026, 11, 20), date(2026, 12, 18)},
		},
		{
			name: "duplicates collapse",
			expiries: []time.Time{
				date(2026, 11, 20), date(2026, 11, 20).Add(16 * time.Hour),
			},
			horizon: 6,
			want:    []time.Time{date(2026, 11, 20)},
		},
		{
			name:     "zero horizon",
			expiries: []time.Time{date(2026, 11, 20)},
			horizon:  0,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PickMonthly(tt.expiries, tt.horizon, today))
		})
	}
}

func TestPickMonthly_DistinctMonthsAscending(t *testing.T) {
	var expiries []time.Time
	for d := 0; d < 400; d += 7 {
		expiries = append(expiries, today.AddDate(0, 0, d))
	}

	picked := PickMonthly(expiries, DefaultHorizonMonths, today)
	assert.Len(t, picked, DefaultHorizonMonths)

	months := make(map[string]bool)
	for i, e := range picked {
		assert.True(t, e.After(today))
		if i > 0 {
			assert.True(t, e.After(picked[i-1]))
		}
		key := e.Format("2006-01")
		assert.False(t, months[key], "month %s picked twice", key)
		months[key] = true
	}
}
