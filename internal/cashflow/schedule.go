// Package cashflow groups raw cash-flow records into per-instrument schedules.
package cashflow

import (
	"sort"
	"strings"

	"github.com/juancg00ginversiones/ingecapital-data-api/internal/model"
)

// Build groups records by trimmed ticker and orders each schedule ascending by
// date. Same-day records are both kept, in input order. The instrument type is
// the first non-empty type seen for the ticker.
func Build(records []model.CashFlowRecord) map[string]model.Schedule {
	schedules := make(map[string]model.Schedule)

	for _, r := range records {
		ticker := strings.TrimSpace(r.Ticker)
		if ticker == "" {
			continue
		}
		s := schedules[ticker]
		s.Ticker = ticker
		if s.Type == "" {
			s.Type = strings.TrimSpace(r.Type)
		}
		s.Flows = append(s.Flows, model.CashFlow{
			Date:   model.Day(r.Date),
			Amount: r.Amount,
		})
		schedules[ticker] = s
	}

	for ticker, s := range schedules {
		sort.SliceStable(s.Flows, func(i, j int) bool {
			return s.Flows[i].Date.Before(s.Flows[j].Date)
		})
		schedules[ticker] = s
	}

	return schedules
}
