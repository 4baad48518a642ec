package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juancg00ginversiones/ingecapital-data-api/internal/model"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/types"
)

func TestRenderBonds(t *testing.T) {
	var buf bytes.Buffer
	renderBonds(&buf, []model.BondMetric{
		{Ticker: "AL30", Curve: types.CurveAL, Price: model.Float(70.25), YieldPct: model.Float(12.3456)},
		{Ticker: "TX26"},
	})

	out := buf.String()
	assert.Contains(t, out, "AL30")
	assert.Contains(t, out, "70.25")
	assert.Contains(t, out, "12.35")
	assert.Contains(t, out, "TX26")
	assert.Contains(t, out, "-")
}

func TestRenderCurve(t *testing.T) {
	var buf bytes.Buffer
	renderCurve(&buf, model.ForwardCurve{
		Ticker: "SPY",
		Spot:   model.Float(600),
		Points: []model.ForwardCurvePoint{{
			Expiry:        time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC),
			CentralStrike: 605,
			DaysToExpiry:  32,
			ATMIV:         model.Float(0.18),
		}},
		Classification: model.CurveClassification{Trend: types.TrendNeutral, Volatility: types.VolatilityUnknown},
	})

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "SPY  spot 600.00"))
	assert.Contains(t, out, "2026-11-20")
	assert.Contains(t, out, "0.1800")
	assert.Contains(t, out, "trend NEUTRAL (0.00%)  volatility UNKNOWN")
}

func TestParseFamily(t *testing.T) {
	tests := []struct {
		raw     string
		want    types.CurveFamily
		wantErr bool
	}{
		{"", types.CurveNone, false},
		{"al", types.CurveAL, false},
		{" GD ", types.CurveGD, false},
		{"XX", types.CurveNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			cmd := &cobra.Command{}
			cmd.Flags().String("curve", "", "")
			require.NoError(t, cmd.Flags().Set("curve", tt.raw))

			got, err := parseFamily(cmd)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]int{"a": 1}))
	assert.JSONEq(t, `{"a":1}`, buf.String())
}
