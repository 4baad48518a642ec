package options

import (
	"sort"
	"time"

	"github.com/juancg00ginversiones/ingecapital-data-api/internal/model"
)

// DefaultHorizonMonths is how many monthly expiries a curve spans
const DefaultHorizonMonths = 6

// PickMonthly keeps the nearest future expiry of each calendar month, walking
// forward from today, until horizon months are collected. Expiries on or
// before today are discarded.
func PickMonthly(expiries []time.Time, horizon int, today time.Time) []time.Time {
	if horizon <= 0 {
		return nil
	}
	today = model.Day(today)

	unique := make(map[time.Time]struct{}, len(expiries))
	for _, e := range expiries {
		if e.IsZero() {
			continue
		}
		unique[model.Day(e)] = struct{}{}
	}

	sorted := make([]time.Time, 0, len(unique))
	for e := range unique {
		sorted = append(sorted, e)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	type monthKey struct {
		year  int
		month time.Month
	}
	seen := make(map[monthKey]struct{}, horizon)
	picked := make([]time.Time, 0, horizon)

	for _, e := range sorted {
		if !e.After(today) {
			continue
		}
		key := monthKey{e.Year(), e.Month()}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		picked = append(picked, e)
		if len(picked) == horizon {
			break
		}
	}

	return picked
}
