package options

import (
	"math"
	"sort"
	"time"

	"github.com/juancg00ginversiones/ingecapital-data-api/internal/aggregate"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/model"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/validation"
)

// ATMStrikes is how many strikes around the anchor feed the ATM IV median
const ATMStrikes = 10

// BuildForwardCurve projects a one-standard-deviation move band for every
// summarized expiry. Expiries on or before today are excluded. Points are
// ordered by ascending expiry.
func BuildForwardCurve(quotes []model.FusedQuote, summaries []model.ExpirySummary, today time.Time) []model.ForwardCurvePoint {
	today = model.Day(today)

	byExpiry := make(map[time.Time][]model.FusedQuote)
	for _, q := range quotes {
		if q.IV != nil {
			byExpiry[model.Day(q.Expiry)] = append(byExpiry[model.Day(q.Expiry)], q)
		}
	}

	points := make([]model.ForwardCurvePoint, 0, len(summaries))
	for _, s := range summaries {
		exp := model.Day(s.Expiry)
		sub := byExpiry[exp]
		if len(sub) == 0 {
			continue
		}

		dte := model.DaysBetween(today, exp)
		if dte <= 0 {
			continue
		}

		central := s.CentralStrike.InexactFloat64()
		atm := ATMIV(sub, central)

		point := model.ForwardCurvePoint{
			Expiry:        exp,
			CentralStrike: central,
			Spot:          validation.FinitePtr(s.Spot),
			ATMIV:         atm,
			DaysToExpiry:  dte,
		}
		if s.Spot != nil && *s.Spot != 0 {
			point.PctVsSpot = validation.Finite((central / *s.Spot - 1) * 100)
		}
		if atm != nil {
			em := central * *atm * math.Sqrt(float64(dte)/365)
			point.ExpectedMove = validation.Finite(em)
			point.MoveUp = validation.Finite(central + em)
			point.MoveDown = validation.Finite(central - em)
		}

		points = append(points, point)
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Expiry.Before(points[j].Expiry) })
	return points
}

// ATMIV is the median IV of the ATMStrikes quotes nearest to central.
// Distance ties resolve to the lower strike.
func ATMIV(quotes []model.FusedQuote, central float64) *float64 {
	ranked := make([]model.FusedQuote, 0, len(quotes))
	for _, q := range quotes {
		if q.IV != nil {
			ranked = append(ranked, q)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		di := math.Abs(ranked[i].Strike.InexactFloat64() - central)
		dj := math.Abs(ranked[j].Strike.InexactFloat64() - central)
		if di != dj {
			return di < dj
		}
		return ranked[i].Strike.LessThan(ranked[j].Strike)
	})
	if len(ranked) > ATMStrikes {
		ranked = ranked[:ATMStrikes]
	}

	ivs := make([]*float64, 0, len(ranked))
	for _, q := range ranked {
		ivs = append(ivs, q.IV)
	}
	return aggregate.Median(ivs)
}
