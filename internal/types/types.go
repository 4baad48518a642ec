// Package types contains shared enumerations used across the analytics packages
package types

// CurveFamily tags a sovereign bond with the yield curve it belongs to
type CurveFamily string

// Known curve families. Bonds outside these families are untagged.
const (
	CurveNone CurveFamily = ""
	CurveAL   CurveFamily = "AL" // local-law dollar bonds
	CurveGD   CurveFamily = "GD" // foreign-law dollar bonds
)

// InstrumentGroup is the live-price feed an instrument was quoted on
type InstrumentGroup string

// Feed groups published by the live price source
const (
	GroupBonds InstrumentGroup = "bonds"
	GroupCorp  InstrumentGroup = "corp"
	GroupNotes InstrumentGroup = "notes"
)

// QuoteSource identifies the structural shape of an option-chain feed
type QuoteSource string

const (
	// SourceOrderBook quotes carry a single combined IV per contract (Deribit book summary)
	SourceOrderBook QuoteSource = "orderbook"
	// SourceListed quotes arrive split into call and put records with bid/ask (CBOE)
	SourceListed QuoteSource = "listed"
)

// OptionSide is the contract side a raw quote was observed on
type OptionSide string

const (
	SideCall     OptionSide = "call"
	SidePut      OptionSide = "put"
	SideCombined OptionSide = "combined"
)

// Trend is the directional label of a forward curve
type Trend string

const (
	TrendBullish Trend = "BULLISH"
	TrendBearish Trend = "BEARISH"
	TrendNeutral Trend = "NEUTRAL"
)

// VolatilityLabel buckets the average relative expected move of a curve
type VolatilityLabel string

const (
	VolatilityLow     VolatilityLabel = "LOW"
	VolatilityMedium  VolatilityLabel = "MEDIUM"
	VolatilityHigh    VolatilityLabel = "HIGH"
	VolatilityUnknown VolatilityLabel = "UNKNOWN"
)
