package options

import (
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/aggregate"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/model"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/types"
)

// Classification thresholds, in percent
const (
	TrendDeadbandPct = 3.0
	VolLowPct        = 2.0
	VolMediumPct     = 5.0
)

// Classify labels a forward curve by the change between its first and last
// anchor and by the average expected move relative to the anchor.
func Classify(points []model.ForwardCurvePoint) model.CurveClassification {
	neutral := model.CurveClassification{
		Trend:      types.TrendNeutral,
		Volatility: types.VolatilityUnknown,
	}
	if len(points) < 2 {
		return neutral
	}

	first := points[0].CentralStrike
	last := points[len(points)-1].CentralStrike
	if first == 0 {
		return neutral
	}

	change := (last/first - 1) * 100
	trend := types.TrendNeutral
	switch {
	case change > TrendDeadbandPct:
		trend = types.TrendBullish
	case change < -TrendDeadbandPct:
		trend = types.TrendBearish
	}

	ratios := make([]*float64, 0, len(points))
	for _, p := range points {
		if p.ExpectedMove != nil && p.CentralStrike != 0 {
			ratios = append(ratios, model.Float(*p.ExpectedMove/p.CentralStrike*100))
		}
	}

	vol := types.VolatilityUnknown
	if avg := aggregate.Mean(ratios); avg != nil {
		switch {
		case *avg < VolLowPct:
			vol = types.VolatilityLow
		case *avg < VolMediumPct:
			vol = types.VolatilityMedium
		default:
			vol = types.VolatilityHigh
		}
	}

	return model.CurveClassification{
		Trend:          trend,
		TotalChangePct: change,
		Volatility:     vol,
	}
}
