package options

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/juancg00ginversiones/ingecapital-data-api/internal/aggregate"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/model"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/types"
)

// Side is one side of a listed strike: its cleaned IV and quoted market
type Side struct {
	IV  *float64
	Bid *float64
	Ask *float64
}

// Fuse merges the call and put IV of one strike. A single valid side is used
// as is; two valid sides are blended by inverse bid/ask spread.
func Fuse(call, put Side) *float64 {
	switch {
	case call.IV == nil && put.IV == nil:
		return nil
	case call.IV == nil:
		return model.Float(*put.IV)
	case put.IV == nil:
		return model.Float(*call.IV)
	}

	fused := aggregate.InverseSpreadWeighted(
		*call.IV, aggregate.Spread(call.Bid, call.Ask),
		*put.IV, aggregate.Spread(put.Bid, put.Ask),
	)
	return &fused
}

type strikeKey struct {
	expiry time.Time
	strike string
}

type strikeSides struct {
	expiry time.Time
	strike decimal.Decimal
	spot   *float64
	call   Side
	put    Side
}

// FuseChain produces one IV per (expiry, strike). Listed chains are outer
// joined on (expiry, strike) and fused side by side; order-book quotes are
// already combined and pass through. Output is ordered by expiry then strike.
func FuseChain(chain model.OptionChain) []model.FusedQuote {
	fused := make([]model.FusedQuote, 0, len(chain.Quotes))
	joined := make(map[strikeKey]*strikeSides)

	for _, q := range chain.Quotes {
		spot := q.Spot
		if spot == nil {
			spot = chain.Spot
		}

		if chain.Source == types.SourceOrderBook || q.Side == types.SideCombined {
			fused = append(fused, model.FusedQuote{
				Expiry: model.Day(q.Expiry),
				Strike: q.Strike,
				IV:     q.IV,
				Spot:   spot,
			})
			continue
		}

		key := strikeKey{expiry: model.Day(q.Expiry), strike: q.Strike.String()}
		row, ok := joined[key]
		if !ok {
			row = &strikeSides{expiry: key.expiry, strike: q.Strike}
			joined[key] = row
		}
		if row.spot == nil {
			row.spot = spot
		}
		side := Side{IV: q.IV, Bid: q.Bid, Ask: q.Ask}
		if q.Side == types.SidePut {
			row.put = side
		} else {
			row.call = side
		}
	}

	for _, row := range joined {
		fused = append(fused, model.FusedQuote{
			Expiry: row.expiry,
			Strike: row.strike,
			IV:     Fuse(row.call, row.put),
			Spot:   row.spot,
		})
	}

	sort.SliceStable(fused, func(i, j int) bool {
		if !fused[i].Expiry.Equal(fused[j].Expiry) {
			return fused[i].Expiry.Before(fused[j].Expiry)
		}
		return fused[i].Strike.LessThan(fused[j].Strike)
	})

	return fused
}

// Expiries lists the distinct expiries present in the quotes
func Expiries(quotes []model.RawOptionQuote) []time.Time {
	seen := make(map[time.Time]struct{})
	out := make([]time.Time, 0)
	for _, q := range quotes {
		d := model.Day(q.Expiry)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}

// RestrictTo keeps the quotes whose expiry is one of expiries
func RestrictTo(quotes []model.FusedQuote, expiries []time.Time) []model.FusedQuote {
	allowed := make(map[time.Time]struct{}, len(expiries))
	for _, e := range expiries {
		allowed[model.Day(e)] = struct{}{}
	}
	out := make([]model.FusedQuote, 0, len(quotes))
	for _, q := range quotes {
		if _, ok := allowed[model.Day(q.Expiry)]; ok {
			out = append(out, q)
		}
	}
	return out
}
