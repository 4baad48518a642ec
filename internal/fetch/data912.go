package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/juancg00ginversiones/ingecapital-data-api/internal/model"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/types"
)

// data912Endpoints maps each live-price endpoint to the group it quotes
var data912Endpoints = []struct {
	path  string
	group types.InstrumentGroup
}{
	{"/live/arg_bonds", types.GroupBonds},
	{"/live/arg_corp", types.GroupCorp},
	{"/live/arg_notes", types.GroupNotes},
}

// data912Row is one instrument of a live-price endpoint
type data912Row struct {
	Symbol    string   `json:"symbol"`
	Close     *float64 `json:"c"`
	PctChange *float64 `json:"pct_change"`
	DP        *float64 `json:"dp"`
}

// Data912Client reads live Argentine bond and corporate prices
type Data912Client struct {
	baseClient
}

// NewData912Client creates a live-price client against baseURL
func NewData912Client(baseURL string, opts ...Option) *Data912Client {
	return &Data912Client{baseClient: newBaseClient("data912", baseURL, opts...)}
}

// Prices fetches every group concurrently. Rows from healthy endpoints are
// returned alongside the joined errors of the failing ones.
func (c *Data912Client) Prices(ctx context.Context) ([]model.LivePrice, error) {
	results := make([][]model.LivePrice, len(data912Endpoints))
	errs := make([]error, len(data912Endpoints))

	var wg sync.WaitGroup
	for i, ep := range data912Endpoints {
		wg.Add(1)
		go func(i int, path string, group types.InstrumentGroup) {
			defer wg.Done()
			var rows []data912Row
			if err := c.getJSON(ctx, path, nil, &rows); err != nil {
				errs[i] = fmt.Errorf("%s: %w", path, err)
				return
			}
			results[i] = convertData912(rows, group)
		}(i, ep.path, ep.group)
	}
	wg.Wait()

	var prices []model.LivePrice
	for _, r := range results {
		prices = append(prices, r...)
	}
	err := errors.Join(errs...)

	if err != nil {
		logrus.WithError(err).WithField("prices", len(prices)).Warn("Live price endpoints failed")
	}
	if len(prices) == 0 {
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("data912: %w", ErrEmptyResponse)
	}
	return prices, err
}

func convertData912(rows []data912Row, group types.InstrumentGroup) []model.LivePrice {
	prices := make([]model.LivePrice, 0, len(rows))
	for _, r := range rows {
		symbol := strings.TrimSpace(r.Symbol)
		if symbol == "" || r.Close == nil {
			continue
		}
		pct := 0.0
		switch {
		case r.PctChange != nil:
			pct = *r.PctChange
		case r.DP != nil:
			pct = *r.DP
		}
		prices = append(prices, model.LivePrice{
			Ticker:    symbol,
			Group:     group,
			Price:     *r.Close,
			PctChange: pct,
		})
	}
	return prices
}
