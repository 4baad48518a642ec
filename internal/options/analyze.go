package options

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/juancg00ginversiones/ingecapital-data-api/internal/model"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/validation"
)

// Analyze runs the full pipeline for one underlying: quote filtering, monthly
// expiry selection, fusion, central strikes, forward curve and classification.
// An unusable chain yields a curve with no points.
func Analyze(chain model.OptionChain, today time.Time, horizon int) model.ForwardCurve {
	if horizon <= 0 {
		horizon = DefaultHorizonMonths
	}
	today = model.Day(today)

	chain.Quotes = validation.FilterQuotes(chain.Quotes, today, validation.DefaultValidationOptions())
	expiries := PickMonthly(Expiries(chain.Quotes), horizon, today)
	fused := RestrictTo(FuseChain(chain), expiries)
	summaries := Summarize(fused, expiries)
	points := BuildForwardCurve(fused, summaries, today)

	spot := validation.FinitePtr(chain.Spot)
	if spot == nil && len(summaries) > 0 {
		spot = validation.FinitePtr(summaries[0].Spot)
	}

	logrus.WithFields(logrus.Fields{
		"ticker":   chain.Underlying,
		"source":   chain.Source,
		"quotes":   len(chain.Quotes),
		"expiries": len(expiries),
		"points":   len(points),
	}).Debug("Forward curve built")

	return model.ForwardCurve{
		Ticker:         strings.ToUpper(strings.TrimSpace(chain.Underlying)),
		Spot:           spot,
		Points:         points,
		Classification: Classify(points),
	}
}
