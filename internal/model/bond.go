package model

import (
	"time"

	"github.com/juancg00ginversiones/ingecapital-data-api/internal/types"
)

// CashFlowRecord is one raw (instrument, date, amount) row as delivered by a
// cash-flow source, before grouping.
type CashFlowRecord struct {
	Ticker string
	// Type is the instrument category from the source (e.g. "Bono", "ON")
	Type   string
	Date   time.Time
	Amount float64
}

// CashFlow is a single dated payment of one instrument
type CashFlow struct {
	Date   time.Time
	Amount float64
}

// Schedule is the date-ordered sequence of cash flows of one instrument.
// Same-day payments are kept as separate entries.
type Schedule struct {
	Ticker string
	Type   string
	Flows  []CashFlow
}

// Future returns the flows dated strictly after t0, preserving order
func (s Schedule) Future(t0 time.Time) []CashFlow {
	t0 = Day(t0)
	out := make([]CashFlow, 0, len(s.Flows))
	for _, cf := range s.Flows {
		if Day(cf.Date).After(t0) {
			out = append(out, cf)
		}
	}
	return out
}

// LivePrice is the last traded price of an instrument on a live feed
type LivePrice struct {
	Ticker    string                `json:"symbol"`
	Group     types.InstrumentGroup `json:"group"`
	Price     float64               `json:"price"`
	PctChange float64               `json:"pct_change"`
}

// Duration holds Macaulay and modified duration in years; both nil when
// the rate could not be solved or the present value of the flows is zero.
type Duration struct {
	Macaulay *float64
	Modified *float64
}

// BondMetric is the per-instrument output of one bond evaluation cycle.
// Numeric fields are nil when undefined; they are never NaN or Inf.
type BondMetric struct {
	Ticker      string            `json:"ticker"`
	Type        string            `json:"type,omitempty"`
	AssetType   string            `json:"asset_type,omitempty"`
	Currency    string            `json:"currency,omitempty"`
	Curve       types.CurveFamily `json:"curva,omitempty"`
	Price       *float64          `json:"precio"`
	PctChange   *float64          `json:"pct_change"`
	YieldPct    *float64          `json:"tir_pct"`
	Parity      *float64          `json:"paridad"`
	DurationMod *float64          `json:"duration_mod"`
}
