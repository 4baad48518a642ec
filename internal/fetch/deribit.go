package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/juancg00ginversiones/ingecapital-data-api/internal/model"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/options"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/types"
)

// deribitExpiryLayout matches the expiry segment of an instrument name (27DEC24)
const deribitExpiryLayout = "2Jan06"

type deribitBookSummary struct {
	InstrumentName  string   `json:"instrument_name"`
	MarkIV          *float64 `json:"mark_iv"`
	UnderlyingPrice *float64 `json:"underlying_price"`
	BidPrice        *float64 `json:"bid_price"`
	AskPrice        *float64 `json:"ask_price"`
}

type deribitResponse struct {
	Result []deribitBookSummary `json:"result"`
}

// DeribitClient reads crypto option book summaries. Each instrument carries a
// single mark IV, so quotes are already combined across sides.
type DeribitClient struct {
	baseClient
}

// NewDeribitClient creates an order-book chain client against baseURL
func NewDeribitClient(baseURL string, opts ...Option) *DeribitClient {
	return &DeribitClient{baseClient: newBaseClient("deribit", baseURL, opts...)}
}

// Chain fetches the option book summary of a currency such as BTC
func (c *DeribitClient) Chain(ctx context.Context, currency string) (model.OptionChain, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	q := url.Values{}
	q.Set("currency", currency)
	q.Set("kind", "option")

	var resp deribitResponse
	if err := c.getJSON(ctx, "/api/v2/public/get_book_summary_by_currency?"+q.Encode(), nil, &resp); err != nil {
		return model.OptionChain{}, err
	}

	chain := model.OptionChain{
		Underlying: currency,
		Source:     types.SourceOrderBook,
		Quotes:     make([]model.RawOptionQuote, 0, len(resp.Result)),
	}
	skipped := 0
	for _, row := range resp.Result {
		expiry, strike, err := ParseDeribitInstrument(row.InstrumentName)
		if err != nil {
			skipped++
			continue
		}
		chain.Quotes = append(chain.Quotes, model.RawOptionQuote{
			Expiry: expiry,
			Strike: strike,
			Side:   types.SideCombined,
			IV:     options.CleanIV(row.MarkIV),
			Bid:    row.BidPrice,
			Ask:    row.AskPrice,
			Spot:   row.UnderlyingPrice,
		})
	}

	logrus.WithFields(logrus.Fields{
		"currency": currency,
		"quotes":   len(chain.Quotes),
		"skipped":  skipped,
	}).Debug("Parsed Deribit book summary")

	if len(chain.Quotes) == 0 {
		return chain, fmt.Errorf("deribit %s: %w", currency, ErrEmptyResponse)
	}
	return chain, nil
}

// ParseDeribitInstrument extracts expiry and strike from a name like BTC-27DEC24-60000-C
func ParseDeribitInstrument(name string) (time.Time, decimal.Decimal, error) {
	parts := strings.Split(strings.TrimSpace(name), "-")
	if len(parts) < 3 {
		return time.Time{}, decimal.Zero, fmt.Errorf("invalid instrument name %q", name)
	}

	expiry, err := time.Parse(deribitExpiryLayout, parts[1])
	if err != nil {
		return time.Time{}, decimal.Zero, fmt.Errorf("invalid expiry in %q: %w", name, err)
	}

	// fractional strikes are written with a 'd' separator (e.g. 1d5)
	strike, err := decimal.NewFromString(strings.ReplaceAll(parts[2], "d", "."))
	if err != nil {
		return time.Time{}, decimal.Zero, fmt.Errorf("invalid strike in %q: %w", name, err)
	}

	return model.Day(expiry), strike, nil
}
