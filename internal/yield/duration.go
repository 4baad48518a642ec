package yield

import (
	"math"
	"time"

	"github.com/juancg00ginversiones/ingecapital-data-api/internal/model"
)

// Macaulay is the present-value weighted average time, in years from t0, of
// the future flows at the given rate. Nil when rate is nil or the flows have
// zero present value.
func Macaulay(rate *float64, cashflows []float64, dates []time.Time, t0 time.Time) *float64 {
	if rate == nil || len(cashflows) != len(dates) {
		return nil
	}

	var pvTotal, weighted float64
	for i, cf := range cashflows {
		t := YearFraction(t0, dates[i])
		pv := cf / math.Pow(1+*rate, t)
		pvTotal += pv
		weighted += t * pv
	}

	if pvTotal == 0 {
		return nil
	}
	return model.Float(weighted / pvTotal)
}

// Modified adjusts Macaulay duration by the rate: mac / (1 + rate)
func Modified(macaulay, rate *float64) *float64 {
	if macaulay == nil || rate == nil {
		return nil
	}
	return model.Float(*macaulay / (1 + *rate))
}

// Durations computes both durations in one pass over the inputs
func Durations(rate *float64, cashflows []float64, dates []time.Time, t0 time.Time) model.Duration {
	mac := Macaulay(rate, cashflows, dates, t0)
	return model.Duration{
		Macaulay: mac,
		Modified: Modified(mac, rate),
	}
}
