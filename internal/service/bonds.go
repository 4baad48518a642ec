package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/juancg00ginversiones/ingecapital-data-api/internal/bonds"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/cashflow"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/circuitbreaker"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/fetch"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/model"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/otel"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/types"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/validation"
)

const bondsCacheKey = "bonds"

// BondService serves yield, duration and parity metrics for every bond
// with both a live price and future cash flows
type BondService struct {
	prices  fetch.PriceSource
	flows   fetch.CashFlowSource
	breaker *circuitbreaker.CircuitBreaker
	cache   *Cache[[]model.BondMetric]
	now     func() time.Time
}

// NewBondService creates the service. breaker may be nil.
func NewBondService(prices fetch.PriceSource, flows fetch.CashFlowSource, breaker *circuitbreaker.CircuitBreaker, ttl time.Duration) *BondService {
	return &BondService{
		prices:  prices,
		flows:   flows,
		breaker: breaker,
		cache:   NewCache[[]model.BondMetric](ttl),
		now:     model.Today,
	}
}

// Metrics returns the cached bond metrics, refreshing them when stale
func (s *BondService) Metrics(ctx context.Context) ([]model.BondMetric, error) {
	return s.cache.GetOrLoad(ctx, bondsCacheKey, s.refresh)
}

// Curve returns the metrics of one curve family
func (s *BondService) Curve(ctx context.Context, family types.CurveFamily) ([]model.BondMetric, error) {
	metrics, err := s.Metrics(ctx)
	if err != nil {
		return nil, err
	}
	return bonds.Filter(metrics, family), nil
}

// Invalidate forces the next call to refresh
func (s *BondService) Invalidate() {
	s.cache.Invalidate(bondsCacheKey)
}

func (s *BondService) refresh(ctx context.Context) ([]model.BondMetric, error) {
	ctx, span := otel.StartSpan(ctx, "bonds.refresh")
	defer span.End()

	var (
		records  []model.CashFlowRecord
		prices   []model.LivePrice
		priceErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.flows.CashFlows(gctx)
		if err != nil {
			return fmt.Errorf("error loading cash flows: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		prices, priceErr = s.prices.Prices(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		otel.RecordError(ctx, err)
		return nil, err
	}

	prices, err := s.guard(ctx, validation.FilterLivePrices(prices, validation.DefaultValidationOptions()), priceErr)
	if err != nil {
		otel.RecordError(ctx, err)
		return nil, err
	}

	schedules := cashflow.Build(validation.FilterCashFlows(records, validation.DefaultValidationOptions()))
	metrics := bonds.Assemble(schedules, prices, s.now())

	logrus.WithContext(ctx).WithFields(logrus.Fields{
		"schedules": len(schedules),
		"prices":    len(prices),
		"metrics":   len(metrics),
	}).Info("Bond metrics refreshed")

	if len(metrics) == 0 {
		return nil, ErrNoData
	}
	return metrics, nil
}

// guard runs the snapshot through the circuit breaker, falling back to the
// last good snapshot when the fresh one is missing or rejected
func (s *BondService) guard(ctx context.Context, prices []model.LivePrice, fetchErr error) ([]model.LivePrice, error) {
	if fetchErr != nil {
		logrus.WithContext(ctx).WithError(fetchErr).Warn("Live price fetch incomplete")
	}
	if s.breaker == nil {
		if len(prices) == 0 {
			return nil, fmt.Errorf("no live prices: %w", firstErr(fetchErr, ErrNoData))
		}
		return prices, nil
	}

	if len(prices) > 0 {
		err := s.breaker.Check(prices)
		if err == nil {
			return prices, nil
		}
		fetchErr = err
	}

	if fallback := s.breaker.LastGoodPrices(); len(fallback) > 0 {
		logrus.WithContext(ctx).WithFields(logrus.Fields{
			"reason": firstErr(fetchErr, ErrNoData).Error(),
			"prices": len(fallback),
		}).Warn("Serving last good live-price snapshot")
		return fallback, nil
	}
	return nil, fmt.Errorf("live prices rejected: %w", firstErr(fetchErr, ErrNoData))
}

func firstErr(err, fallback error) error {
	if err != nil {
		return err
	}
	return fallback
}
