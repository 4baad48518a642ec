package fetch

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/juancg00ginversiones/ingecapital-data-api/internal/model"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/options"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/types"
)

// occSymbolRE parses OCC contract symbols such as AAPL240119C00150000
var occSymbolRE = regexp.MustCompile(`^([A-Z]+)(\d{6})([CP])(\d{8})$`)

// cboeIndexSymbols are quoted under an underscore-prefixed path
var cboeIndexSymbols = map[string]bool{
	"VIX": true,
	"VXN": true,
	"SPX": true,
	"NDX": true,
	"RUT": true,
}

type cboeOptionRecord struct {
	Option string   `json:"option"`
	Bid    *float64 `json:"bid"`
	Ask    *float64 `json:"ask"`
	IV     *float64 `json:"iv"`
}

type cboeOptionsResponse struct {
	Data struct {
		CurrentPrice *float64           `json:"current_price"`
		Options      []cboeOptionRecord `json:"options"`
	} `json:"data"`
}

// CBOEClient reads delayed listed option chains with per-side bid/ask
type CBOEClient struct {
	baseClient
}

// NewCBOEClient creates a listed chain client against baseURL
func NewCBOEClient(baseURL string, opts ...Option) *CBOEClient {
	return &CBOEClient{baseClient: newBaseClient("cboe", baseURL, opts...)}
}

// Chain fetches the delayed option chain of ticker
func (c *CBOEClient) Chain(ctx context.Context, ticker string) (model.OptionChain, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	var resp cboeOptionsResponse
	if err := c.getJSON(ctx, "/api/global/delayed_quotes/options/"+cboeSymbolPath(ticker)+".json", nil, &resp); err != nil {
		return model.OptionChain{}, err
	}

	chain := model.OptionChain{
		Underlying: ticker,
		Source:     types.SourceListed,
		Spot:       resp.Data.CurrentPrice,
		Quotes:     make([]model.RawOptionQuote, 0, len(resp.Data.Options)),
	}
	skipped := 0
	for _, rec := range resp.Data.Options {
		expiry, side, strike, err := ParseOCCSymbol(rec.Option)
		if err != nil {
			skipped++
			continue
		}
		chain.Quotes = append(chain.Quotes, model.RawOptionQuote{
			Expiry: expiry,
			Strike: strike,
			Side:   side,
			IV:     options.CleanIV(rec.IV),
			Bid:    rec.Bid,
			Ask:    rec.Ask,
		})
	}

	logrus.WithFields(logrus.Fields{
		"ticker":  ticker,
		"quotes":  len(chain.Quotes),
		"skipped": skipped,
	}).Debug("Parsed CBOE option chain")

	if len(chain.Quotes) == 0 {
		return chain, fmt.Errorf("cboe %s: %w", ticker, ErrEmptyResponse)
	}
	return chain, nil
}

func cboeSymbolPath(ticker string) string {
	if cboeIndexSymbols[ticker] {
		return "_" + ticker
	}
	return ticker
}

// ParseOCCSymbol extracts expiry, side and strike from an OCC contract symbol.
// The strike field is in thousandths.
func ParseOCCSymbol(symbol string) (time.Time, types.OptionSide, decimal.Decimal, error) {
	parts := occSymbolRE.FindStringSubmatch(strings.TrimSpace(symbol))
	if parts == nil {
		return time.Time{}, "", decimal.Zero, fmt.Errorf("invalid option symbol %q", symbol)
	}

	expiry, err := time.Parse("060102", parts[2])
	if err != nil {
		return time.Time{}, "", decimal.Zero, fmt.Errorf("invalid expiry in %q: %w", symbol, err)
	}

	side := types.SideCall
	if parts[3] == "P" {
		side = types.SidePut
	}

	raw, err := strconv.ParseInt(parts[4], 10, 64)
	if err != nil {
		return time.Time{}, "", decimal.Zero, fmt.Errorf("invalid strike in %q: %w", symbol, err)
	}

	return model.Day(expiry), side, decimal.New(raw, -3), nil
}
