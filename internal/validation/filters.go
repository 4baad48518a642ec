// Package validation provides boundary sanitation and input filtering for the analytics engine.
package validation

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/juancg00ginversiones/ingecapital-data-api/internal/model"
)

// ValidationOptions holds configuration for raw input filtering
type ValidationOptions struct {
	// MaxAge bounds how far in the future a quote expiry may lie
	MaxAge time.Duration

	// MinPrice is the lowest live price accepted as a real trade
	MinPrice float64

	// RequireTicker drops records whose identifier is blank after trimming
	RequireTicker bool
}

// DefaultValidationOptions returns the filtering defaults
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{
		MaxAge:        10 * 365 * 24 * time.Hour,
		MinPrice:      0,
		RequireTicker: true,
	}
}

// Finite returns a pointer to v, or nil when v is NaN or infinite.
// It is the single gate every externalized number goes through.
func Finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// FinitePtr applies Finite to an optional value
func FinitePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return Finite(*v)
}

// Sanitize converts a loosely typed record into JSON-safe primitives.
// Non-finite floats become nil; values that are not JSON primitives are
// rendered with fmt.
func Sanitize(record map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(record))
	for k, v := range record {
		out[k] = sanitizeValue(v)
	}
	return out
}

// SanitizeAll applies Sanitize to every record
func SanitizeAll(records []map[string]interface{}) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(records))
	for _, r := range records {
		out = append(out, Sanitize(r))
	}
	return out
}

func sanitizeValue(v interface{}) interface{} {
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		if f := Finite(x); f != nil {
			return *f
		}
		return nil
	case float32:
		if f := Finite(float64(x)); f != nil {
			return *f
		}
		return nil
	case *float64:
		if f := FinitePtr(x); f != nil {
			return *f
		}
		return nil
	case int, int32, int64, string, bool:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// FilterLivePrices drops prices that cannot anchor a valuation: blank
// tickers, non-finite or non-positive prices. Tickers are trimmed, case kept.
func FilterLivePrices(prices []model.LivePrice, opts ValidationOptions) []model.LivePrice {
	valid := make([]model.LivePrice, 0, len(prices))
	for _, p := range prices {
		p.Ticker = strings.TrimSpace(p.Ticker)
		if opts.RequireTicker && p.Ticker == "" {
			continue
		}
		if Finite(p.Price) == nil || p.Price <= opts.MinPrice {
			logrus.WithFields(logrus.Fields{
				"ticker": p.Ticker,
				"price":  p.Price,
			}).Debug("Filtered invalid live price")
			continue
		}
		if Finite(p.PctChange) == nil {
			p.PctChange = 0
		}
		valid = append(valid, p)
	}
	return valid
}

// FilterCashFlows drops records that cannot belong to a schedule: blank
// tickers, zero dates and non-finite amounts.
func FilterCashFlows(records []model.CashFlowRecord, opts ValidationOptions) []model.CashFlowRecord {
	valid := make([]model.CashFlowRecord, 0, len(records))
	for _, r := range records {
		r.Ticker = strings.TrimSpace(r.Ticker)
		if (opts.RequireTicker && r.Ticker == "") || r.Date.IsZero() || Finite(r.Amount) == nil {
			logrus.WithFields(logrus.Fields{
				"ticker": r.Ticker,
				"date":   r.Date,
				"amount": r.Amount,
			}).Debug("Filtered invalid cash flow")
			continue
		}
		valid = append(valid, r)
	}
	return valid
}

// FilterQuotes drops option quotes with a non-positive strike, no expiry, or
// an expiry implausibly far from today. Non-finite bid/ask/spot readings are
// cleared rather than dropping the quote.
func FilterQuotes(quotes []model.RawOptionQuote, today time.Time, opts ValidationOptions) []model.RawOptionQuote {
	horizon := model.Day(today).Add(opts.MaxAge)
	valid := make([]model.RawOptionQuote, 0, len(quotes))
	for _, q := range quotes {
		if q.Expiry.IsZero() || !q.Strike.IsPositive() || q.Expiry.After(horizon) {
			logrus.WithFields(logrus.Fields{
				"expiry": q.Expiry,
				"strike": q.Strike.String(),
			}).Debug("Filtered invalid option quote")
			continue
		}
		q.IV = FinitePtr(q.IV)
		q.Bid = FinitePtr(q.Bid)
		q.Ask = FinitePtr(q.Ask)
		q.Spot = FinitePtr(q.Spot)
		valid = append(valid, q)
	}
	return valid
}
