package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/juancg00ginversiones/ingecapital-data-api/internal/config"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/fetch"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/model"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/options"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/otel"
)

// cryptoUnderlyings are served from the order-book feed
var cryptoUnderlyings = map[string]bool{
	"BTC": true,
	"ETH": true,
}

// OptionsService serves implied-volatility forward curves per ticker
type OptionsService struct {
	orderBook fetch.ChainSource
	listed    fetch.ChainSource
	tickers   []string
	horizon   int
	cache     *Cache[model.ForwardCurve]
	now       func() time.Time
}

// NewOptionsService creates the service. orderBook serves crypto
// underlyings and listed serves everything else.
func NewOptionsService(orderBook, listed fetch.ChainSource, tickers []string, horizon int, ttl time.Duration) *OptionsService {
	return &OptionsService{
		orderBook: orderBook,
		listed:    listed,
		tickers:   config.NormalizeTickers(tickers),
		horizon:   horizon,
		cache:     NewCache[model.ForwardCurve](ttl),
		now:       model.Today,
	}
}

// Tickers returns the allow-list
func (s *OptionsService) Tickers() []string {
	return append([]string(nil), s.tickers...)
}

// Allowed reports whether ticker may be requested
func (s *OptionsService) Allowed(ticker string) bool {
	return config.Config{Tickers: s.tickers}.Allowed(ticker)
}

// Curve returns the cached forward curve of ticker, rebuilding it when stale
func (s *OptionsService) Curve(ctx context.Context, ticker string) (model.ForwardCurve, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if !s.Allowed(ticker) {
		return model.ForwardCurve{}, fmt.Errorf("%w: %s", ErrTickerNotAllowed, ticker)
	}

	return s.cache.GetOrLoad(ctx, ticker, func(ctx context.Context) (model.ForwardCurve, error) {
		return s.build(ctx, ticker)
	})
}

func (s *OptionsService) build(ctx context.Context, ticker string) (model.ForwardCurve, error) {
	source := s.listed
	if cryptoUnderlyings[ticker] {
		source = s.orderBook
	}

	ctx, span := otel.StartSpan(ctx, "options.curve", "ticker", ticker)
	defer span.End()

	chain, err := source.Chain(ctx, ticker)
	if err != nil {
		otel.RecordError(ctx, err)
		return model.ForwardCurve{}, fmt.Errorf("error fetching %s option chain: %w", ticker, err)
	}

	curve := options.Analyze(chain, s.now(), s.horizon)
	logrus.WithContext(ctx).WithFields(logrus.Fields{
		"ticker": ticker,
		"points": len(curve.Points),
		"trend":  curve.Classification.Trend,
	}).Info("Forward curve refreshed")

	if len(curve.Points) == 0 {
		return model.ForwardCurve{}, fmt.Errorf("%s: %w", ticker, ErrNoData)
	}
	return curve, nil
}
