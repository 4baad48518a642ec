package validation

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juancg00ginversiones/ingecapital-data-api/internal/model"
)

func TestFinite(t *testing.T) {
	assert.Nil(t, Finite(math.NaN()))
	assert.Nil(t, Finite(math.Inf(1)))
	assert.Nil(t, Finite(math.Inf(-1)))

	got := Finite(1.25)
	require.NotNil(t, got)
	assert.Equal(t, 1.25, *got)

	assert.Nil(t, FinitePtr(nil))
	nan := math.NaN()
	assert.Nil(t, FinitePtr(&nan))
}

type opaque struct{ A int }

func TestSanitize(t *testing.T) {
	nan := math.NaN()
	record := map[string]interface{}{
		"ticker":   "AL30",
		"precio":   100.5,
		"tir_pct":  math.NaN(),
		"paridad":  math.Inf(1),
		"duration": &nan,
		"small":    float32(1.5),
		"count":    3,
		"ok":       true,
		"missing":  nil,
		"other":    opaque{A: 1},
	}

	got := Sanitize(record)
	assert.Equal(t, "AL30", got["ticker"])
	assert.Equal(t, 100.5, got["precio"])
	assert.Nil(t, got["tir_pct"])
	assert.Nil(t, got["paridad"])
	assert.Nil(t, got["duration"])
	assert.Equal(t, 1.5, got["small"])
	assert.Equal(t, 3, got["count"])
	assert.Equal(t, true, got["ok"])
	assert.Nil(t, got["missing"])
	assert.Equal(t, "{1}", got["other"])

	_, err := json.Marshal(got)
	require.NoError(t, err, "sanitized records must always encode")

	all := SanitizeAll([]map[string]interface{}{record, {"x": math.Inf(-1)}})
	require.Len(t, all, 2)
	assert.Nil(t, all[1]["x"])
}

func TestFilterLivePrices(t *testing.T) {
	prices := []model.LivePrice{
		{Ticker: " AL30 ", Price: 100, PctChange: 1},
		{Ticker: "", Price: 100},
		{Ticker: "GD30", Price: 0},
		{Ticker: "GD35", Price: math.NaN()},
		{Ticker: "AE38", Price: 80, PctChange: math.Inf(1)},
	}

	got := FilterLivePrices(prices, DefaultValidationOptions())
	require.Len(t, got, 2)
	assert.Equal(t, "AL30", got[0].Ticker)
	assert.Equal(t, "AE38", got[1].Ticker)
	assert.Equal(t, 0.0, got[1].PctChange)
}

func TestFilterCashFlows(t *testing.T) {
	d := time.Date(2027, 1, 9, 0, 0, 0, 0, time.UTC)
	records := []model.CashFlowRecord{
		{Ticker: "AL30", Date: d, Amount: 4},
		{Ticker: " ", Date: d, Amount: 4},
		{Ticker: "AL30", Amount: 4},
		{Ticker: "AL30", Date: d, Amount: math.NaN()},
	}

	got := FilterCashFlows(records, DefaultValidationOptions())
	assert.Len(t, got, 1)
}

func TestFilterQuotes(t *testing.T) {
	today := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	exp := today.AddDate(0, 1, 0)
	inf := math.Inf(1)
	iv := 0.3

	quotes := []model.RawOptionQuote{
		{Expiry: exp, Strike: decimal.NewFromInt(100), IV: &iv, Bid: &inf},
		{Expiry: exp, Strike: decimal.Zero, IV: &iv},
		{Expiry: exp, Strike: decimal.NewFromInt(-5), IV: &iv},
		{Strike: decimal.NewFromInt(100), IV: &iv},
		{Expiry: today.AddDate(50, 0, 0), Strike: decimal.NewFromInt(100), IV: &iv},
	}

	got := FilterQuotes(quotes, today, DefaultValidationOptions())
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Bid)
	require.NotNil(t, got[0].IV)
	assert.Equal(t, 0.3, *got[0].IV)
}
