package options

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/juancg00ginversiones/ingecapital-data-api/internal/aggregate"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/model"
)

// Summarize anchors each selected expiry on the strike of minimum fused IV.
// Expiries without any defined IV are dropped. Spot is the mean of every spot
// observation across the selected expiry set.
func Summarize(quotes []model.FusedQuote, expiries []time.Time) []model.ExpirySummary {
	inSet := RestrictTo(quotes, expiries)

	spots := make([]*float64, 0, len(inSet))
	byExpiry := make(map[time.Time][]model.FusedQuote, len(expiries))
	for _, q := range inSet {
		spots = append(spots, q.Spot)
		if q.IV != nil {
			byExpiry[model.Day(q.Expiry)] = append(byExpiry[model.Day(q.Expiry)], q)
		}
	}
	spot := aggregate.Mean(spots)

	summaries := make([]model.ExpirySummary, 0, len(expiries))
	for _, exp := range expiries {
		exp = model.Day(exp)
		candidates := byExpiry[exp]
		if len(candidates) == 0 {
			logrus.WithField("expiry", exp.Format(model.DateLayout)).Debug("No usable IV for expiry")
			continue
		}

		central := candidates[0]
		for _, q := range candidates[1:] {
			if *q.IV < *central.IV || (*q.IV == *central.IV && q.Strike.LessThan(central.Strike)) {
				central = q
			}
		}

		summaries = append(summaries, model.ExpirySummary{
			Expiry:        exp,
			Spot:          spot,
			CentralStrike: central.Strike,
		})
	}

	return summaries
}
