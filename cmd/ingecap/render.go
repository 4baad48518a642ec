package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/juancg00ginversiones/ingecapital-data-api/internal/model"
)

// renderBonds prints one row per bond
func renderBonds(w io.Writer, metrics []model.BondMetric) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Ticker", "Curve", "Price", "Chg %", "TIR %", "Dur mod", "Parity %"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, m := range metrics {
		table.Append([]string{
			m.Ticker,
			string(m.Curve),
			formatOpt(m.Price, 2),
			formatOpt(m.PctChange, 2),
			formatOpt(m.YieldPct, 2),
			formatOpt(m.DurationMod, 2),
			formatOpt(m.Parity, 1),
		})
	}
	table.Render()
}

// renderCurve prints the forward curve followed by its classification
func renderCurve(w io.Writer, curve model.ForwardCurve) {
	fmt.Fprintf(w, "%s  spot %s\n", curve.Ticker, formatOpt(curve.Spot, 2))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Expiry", "DTE", "Central", "vs Spot %", "ATM IV", "Exp move", "Down", "Up"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, p := range curve.Points {
		table.Append([]string{
			p.Expiry.Format(model.DateLayout),
			strconv.Itoa(p.DaysToExpiry),
			strconv.FormatFloat(p.CentralStrike, 'f', -1, 64),
			formatOpt(p.PctVsSpot, 2),
			formatOpt(p.ATMIV, 4),
			formatOpt(p.ExpectedMove, 2),
			formatOpt(p.MoveDown, 2),
			formatOpt(p.MoveUp, 2),
		})
	}
	table.Render()

	c := curve.Classification
	fmt.Fprintf(w, "trend %s (%.2f%%)  volatility %s\n", c.Trend, c.TotalChangePct, c.Volatility)
}

func formatOpt(v *float64, prec int) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}
