package bonds

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juancg00ginversiones/ingecapital-data-api/internal/model"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/types"
)

var today = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

func schedule(ticker string, flows ...model.CashFlow) model.Schedule {
	return model.Schedule{Ticker: ticker, Type: "Bono", Flows: flows}
}

func flow(daysFromToday int, amount float64) model.CashFlow {
	return model.CashFlow{Date: today.AddDate(0, 0, daysFromToday), Amount: amount}
}

func TestCurveFamilyOf(t *testing.T) {
	tests := []struct {
		ticker string
		want   types.CurveFamily
	}{
		{"AL30", types.CurveAL},
		{"AL30D", types.CurveAL},
		{"GD35", types.CurveGD},
		{"AE38", types.CurveNone},
		{"al30", types.CurveNone},
		{"XAL30", types.CurveNone},
	}

	for _, tt := range tests {
		t.Run(tt.ticker, func(t *testing.T) {
			assert.Equal(t, tt.want, CurveFamilyOf(tt.ticker))
		})
	}
}

func TestAssemble(t *testing.T) {
	schedules := map[string]model.Schedule{
		"AL30": schedule("AL30", flow(-30, 5), flow(182, 6), flow(365, 106)),
		"GD30": schedule("GD30", flow(200, 50), flow(400, 50)),
		// no future flows
		"AE38": schedule("AE38", flow(-10, 100)),
		// no live price
		"TX26": schedule("TX26", flow(100, 100)),
		// zero final flow
		"ZERO": schedule("ZERO", flow(100, 5), flow(200, 0)),
	}
	prices := []model.LivePrice{
		{Ticker: "AL30", Group: types.GroupBonds, Price: 100, PctChange: 1.5},
		{Ticker: "GD30", Group: types.GroupBonds, Price: 90, PctChange: -0.4},
		{Ticker: "AE38", Group: types.GroupBonds, Price: 80},
		{Ticker: "ZERO", Group: types.GroupCorp, Price: 4},
	}

	metrics := Assemble(schedules, prices, today)
	require.Len(t, metrics, 3)
	assert.Equal(t, "AL30", metrics[0].Ticker)
	assert.Equal(t, "GD30", metrics[1].Ticker)
	assert.Equal(t, "ZERO", metrics[2].Ticker)

	al := metrics[0]
	assert.Equal(t, types.CurveAL, al.Curve)
	assert.Equal(t, "Bono", al.Type)
	assert.Equal(t, AssetBonoARS, al.AssetType)
	require.NotNil(t, al.YieldPct)
	assert.InDelta(t, 12.36, *al.YieldPct, 0.1)
	require.NotNil(t, al.Parity)
	assert.InDelta(t, 100.0/106.0*100, *al.Parity, 1e-9)
	require.NotNil(t, al.DurationMod)
	assert.Less(t, *al.DurationMod, 1.0)
	assert.Greater(t, *al.DurationMod, 0.0)
	require.NotNil(t, al.PctChange)
	assert.Equal(t, 1.5, *al.PctChange)

	gd := metrics[1]
	assert.Equal(t, types.CurveGD, gd.Curve)
	require.NotNil(t, gd.YieldPct)
	assert.Greater(t, *gd.YieldPct, 0.0)

	zero := metrics[2]
	assert.Equal(t, types.CurveNone, zero.Curve)
	assert.Nil(t, zero.Parity, "parity is undefined for a zero final flow")
	assert.Equal(t, AssetON, zero.AssetType)
}

func TestAssemble_UnsolvableRate(t *testing.T) {
	// price far above every future flow: no sign change in the bracket
	schedules := map[string]model.Schedule{
		"AL29": schedule("AL29", flow(100, 1), flow(200, 1)),
	}
	prices := []model.LivePrice{{Ticker: "AL29", Price: 1000}}

	metrics := Assemble(schedules, prices, today)
	require.Len(t, metrics, 1)
	assert.Nil(t, metrics[0].YieldPct)
	assert.Nil(t, metrics[0].DurationMod)
	require.NotNil(t, metrics[0].Parity)
	assert.InDelta(t, 100000.0, *metrics[0].Parity, 1e-9)
}

func TestAssemble_EmptyInputs(t *testing.T) {
	assert.Empty(t, Assemble(nil, nil, today))
	assert.Empty(t, Assemble(map[string]model.Schedule{"AL30": schedule("AL30", flow(10, 100))}, nil, today))
}

func TestBondMetric_JSONHasNoNonFiniteNumbers(t *testing.T) {
	schedules := map[string]model.Schedule{
		"AL29": schedule("AL29", flow(100, 1), flow(200, 1)),
	}
	metrics := Assemble(schedules, []model.LivePrice{{Ticker: "AL29", Price: 1000}}, today)

	raw, err := json.Marshal(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"tir_pct":null`)
	assert.Contains(t, string(raw), `"duration_mod":null`)
	assert.NotContains(t, string(raw), "NaN")
}

func TestFilter(t *testing.T) {
	metrics := []model.BondMetric{
		{Ticker: "AL30", Curve: types.CurveAL},
		{Ticker: "GD30", Curve: types.CurveGD},
		{Ticker: "AL35", Curve: types.CurveAL},
		{Ticker: "AE38"},
	}

	al := Filter(metrics, types.CurveAL)
	require.Len(t, al, 2)
	assert.Equal(t, "AL35", al[1].Ticker)
	assert.Len(t, Filter(metrics, types.CurveGD), 1)
	assert.Empty(t, Filter(nil, types.CurveGD))
}
