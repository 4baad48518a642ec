package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/juancg00ginversiones/ingecapital-data-api/internal/types"
)

// RawOptionQuote is a single option observation as delivered by a chain feed.
// IV is already normalized to a fraction (nil when unusable).
type RawOptionQuote struct {
	Expiry time.Time
	Strike decimal.Decimal
	Side   types.OptionSide
	IV     *float64
	Bid    *float64
	Ask    *float64
	Spot   *float64
}

// OptionChain is the raw chain of one underlying from one feed
type OptionChain struct {
	Underlying string
	Source     types.QuoteSource
	// Spot is the last traded underlying price; order-book feeds report it per quote instead
	Spot   *float64
	Quotes []RawOptionQuote
}

// FusedQuote carries one IV per (expiry, strike) after call/put fusion
type FusedQuote struct {
	Expiry time.Time
	Strike decimal.Decimal
	IV     *float64
	Spot   *float64
}

// ExpirySummary anchors one selected expiry on its minimum-IV strike
type ExpirySummary struct {
	Expiry        time.Time
	Spot          *float64
	CentralStrike decimal.Decimal
}

// ForwardCurvePoint is the projected expected-move band for one expiry
type ForwardCurvePoint struct {
	Expiry        time.Time `json:"-"`
	CentralStrike float64   `json:"central_strike"`
	Spot          *float64  `json:"spot"`
	PctVsSpot     *float64  `json:"pct_vs_spot"`
	ATMIV         *float64  `json:"atm_iv"`
	DaysToExpiry  int       `json:"days_to_expiry"`
	ExpectedMove  *float64  `json:"expected_move"`
	MoveUp        *float64  `json:"em_up"`
	MoveDown      *float64  `json:"em_down"`
}

// MarshalJSON renders the expiry as a calendar date
func (p ForwardCurvePoint) MarshalJSON() ([]byte, error) {
	type alias ForwardCurvePoint
	return json.Marshal(struct {
		Expiry string `json:"expiry"`
		alias
	}{
		Expiry: p.Expiry.Format(DateLayout),
		alias:  alias(p),
	})
}

// CurveClassification summarizes a forward curve into trend and volatility labels
type CurveClassification struct {
	Trend          types.Trend           `json:"trend"`
	TotalChangePct float64               `json:"total_change_pct"`
	Volatility     types.VolatilityLabel `json:"volatility"`
}

// ForwardCurve is the per-ticker output of the options pipeline
type ForwardCurve struct {
	Ticker         string              `json:"ticker"`
	Spot           *float64            `json:"spot"`
	Points         []ForwardCurvePoint `json:"forward_curve"`
	Classification CurveClassification `json:"classification"`
}
