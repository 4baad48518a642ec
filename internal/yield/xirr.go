// Package yield solves the internal rate of return of irregularly dated cash
// flows and derives duration from it. Day count is fixed at ACT/365.
package yield

import (
	"math"
	"time"

	"github.com/juancg00ginversiones/ingecapital-data-api/internal/model"
)

// Solver defaults
const (
	DefaultLo      = -0.99
	DefaultHi      = 5.0
	DefaultTol     = 1e-8
	DefaultMaxIter = 200

	daysPerYear = 365.0
)

// Result is the outcome of a rate solve. Rate is nil when the bracket holds
// no sign change or an evaluation was not finite. Converged is false when the
// iteration budget ran out and Rate is only the last midpoint.
type Result struct {
	Rate      *float64
	Converged bool
}

type solverOptions struct {
	lo, hi  float64
	tol     float64
	maxIter int
}

// Option customizes the bisection search
type Option func(*solverOptions)

// WithBracket sets the search bracket [lo, hi]
func WithBracket(lo, hi float64) Option {
	return func(o *solverOptions) {
		o.lo, o.hi = lo, hi
	}
}

// WithTolerance sets the |NPV| threshold that ends the search
func WithTolerance(tol float64) Option {
	return func(o *solverOptions) {
		o.tol = tol
	}
}

// WithMaxIter bounds the number of bisection steps
func WithMaxIter(n int) Option {
	return func(o *solverOptions) {
		o.maxIter = n
	}
}

// YearFraction is ACT/365 between two dates
func YearFraction(start, end time.Time) float64 {
	return float64(model.DaysBetween(start, end)) / daysPerYear
}

// NPV discounts every flow back to dates[0]. It returns NaN for rate <= -1,
// where the discount factor is undefined.
func NPV(rate float64, cashflows []float64, dates []time.Time) float64 {
	if rate <= -1 || len(cashflows) == 0 || len(cashflows) != len(dates) {
		return math.NaN()
	}

	t0 := dates[0]
	total := 0.0
	for i, cf := range cashflows {
		t := YearFraction(t0, dates[i])
		total += cf / math.Pow(1+rate, t)
	}
	return total
}

// SolveRate returns the XIRR of the flows, or nil when it cannot be bracketed.
// cashflows[0] is the (negative) price paid at dates[0], the valuation date.
func SolveRate(cashflows []float64, dates []time.Time, opts ...Option) *float64 {
	return Solve(cashflows, dates, opts...).Rate
}

// Solve runs bisection on NPV over the configured bracket
func Solve(cashflows []float64, dates []time.Time, opts ...Option) Result {
	o := solverOptions{lo: DefaultLo, hi: DefaultHi, tol: DefaultTol, maxIter: DefaultMaxIter}
	for _, opt := range opts {
		opt(&o)
	}

	if len(cashflows) < 2 || len(cashflows) != len(dates) {
		return Result{}
	}

	f := func(r float64) float64 { return NPV(r, cashflows, dates) }

	lo, hi := o.lo, o.hi
	fLo, fHi := f(lo), f(hi)
	if !finite(fLo) || !finite(fHi) || fLo*fHi >= 0 {
		return Result{}
	}

	mid := lo
	for i := 0; i < o.maxIter; i++ {
		mid = (lo + hi) / 2
		fm := f(mid)
		if !finite(fm) {
			return Result{}
		}
		if math.Abs(fm) < o.tol {
			return Result{Rate: model.Float(mid), Converged: true}
		}
		if fLo*fm > 0 {
			lo, fLo = mid, fm
		} else {
			hi = mid
		}
	}

	if o.maxIter <= 0 {
		return Result{}
	}
	return Result{Rate: model.Float(mid), Converged: false}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
