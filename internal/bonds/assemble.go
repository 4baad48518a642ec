// Package bonds assembles per-instrument yield, duration and parity metrics
// from cash-flow schedules and live prices.
package bonds

import (
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/juancg00ginversiones/ingecapital-data-api/internal/model"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/types"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/validation"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/yield"
)

// curvePrefixes maps ticker prefixes to their curve family, checked in order
var curvePrefixes = []types.CurveFamily{types.CurveAL, types.CurveGD}

// CurveFamilyOf tags a ticker by strict prefix match (AL30 -> AL, GD35 -> GD)
func CurveFamilyOf(ticker string) types.CurveFamily {
	for _, family := range curvePrefixes {
		if strings.HasPrefix(ticker, string(family)) {
			return family
		}
	}
	return types.CurveNone
}

// Assemble evaluates every instrument that has both a live price and at least
// one cash flow strictly after today. Everything else is silently skipped.
// The result is sorted by ticker.
func Assemble(schedules map[string]model.Schedule, prices []model.LivePrice, today time.Time) []model.BondMetric {
	today = model.Day(today)

	priceByTicker := make(map[string]model.LivePrice, len(prices))
	for _, p := range prices {
		priceByTicker[strings.TrimSpace(p.Ticker)] = p
	}

	metrics := make([]model.BondMetric, 0, len(schedules))
	skipped := 0

	for ticker, schedule := range schedules {
		ticker = strings.TrimSpace(ticker)
		price, ok := priceByTicker[ticker]
		if !ok {
			skipped++
			continue
		}

		m, ok := Evaluate(schedule, price, today)
		if !ok {
			skipped++
			continue
		}
		metrics = append(metrics, m)
	}

	sort.Slice(metrics, func(i, j int) bool {
		return metrics[i].Ticker < metrics[j].Ticker
	})

	logrus.WithFields(logrus.Fields{
		"evaluated": len(metrics),
		"skipped":   skipped,
	}).Debug("Bond metrics assembled")

	return metrics
}

// Evaluate computes the metric of one instrument. ok is false when the
// schedule has no flows after today.
func Evaluate(schedule model.Schedule, price model.LivePrice, today time.Time) (model.BondMetric, bool) {
	future := schedule.Future(today)
	if len(future) == 0 {
		return model.BondMetric{}, false
	}

	cfs := make([]float64, 0, len(future)+1)
	dates := make([]time.Time, 0, len(future)+1)
	cfs = append(cfs, -price.Price)
	dates = append(dates, today)
	for _, cf := range future {
		cfs = append(cfs, cf.Amount)
		dates = append(dates, cf.Date)
	}

	rate := yield.SolveRate(cfs, dates)
	duration := yield.Durations(rate, cfs[1:], dates[1:], today)

	var yieldPct *float64
	if rate != nil {
		yieldPct = validation.Finite(*rate * 100)
	}

	var parity *float64
	if nominal := future[len(future)-1].Amount; nominal != 0 {
		parity = validation.Finite(price.Price / nominal * 100)
	}

	ticker := strings.TrimSpace(schedule.Ticker)
	class := Classify(price.Group, ticker)

	return model.BondMetric{
		Ticker:      ticker,
		Type:        schedule.Type,
		AssetType:   class.AssetType,
		Currency:    class.Currency,
		Curve:       CurveFamilyOf(ticker),
		Price:       validation.Finite(price.Price),
		PctChange:   validation.Finite(price.PctChange),
		YieldPct:    yieldPct,
		Parity:      parity,
		DurationMod: validation.FinitePtr(duration.Modified),
	}, true
}

// Filter returns the metrics tagged with the given curve family, preserving order
func Filter(metrics []model.BondMetric, family types.CurveFamily) []model.BondMetric {
	out := make([]model.BondMetric, 0)
	for _, m := range metrics {
		if m.Curve == family {
			out = append(out, m)
		}
	}
	return out
}
