// Package fetch provides clients for the upstream market-data feeds: live
// Argentine bond prices, option chains and bond cash-flow schedules.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/juancg00ginversiones/ingecapital-data-api/internal/model"
)

// ErrEmptyResponse is returned when a feed answers successfully with no usable rows
var ErrEmptyResponse = errors.New("empty response")

// PriceSource delivers the live-price snapshot of listed instruments
type PriceSource interface {
	Prices(ctx context.Context) ([]model.LivePrice, error)
}

// ChainSource delivers the raw option chain of one underlying
type ChainSource interface {
	Chain(ctx context.Context, ticker string) (model.OptionChain, error)
}

// CashFlowSource delivers bond cash-flow records
type CashFlowSource interface {
	CashFlows(ctx context.Context) ([]model.CashFlowRecord, error)
}

// Option customizes a feed client
type Option func(*baseClient)

// WithHTTPClient replaces the retrying HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(b *baseClient) {
		b.httpClient = c
	}
}

// WithRateLimit caps outbound requests per second
func WithRateLimit(rps float64, burst int) Option {
	return func(b *baseClient) {
		if rps <= 0 {
			b.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		b.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithTimeout bounds every request
func WithTimeout(d time.Duration) Option {
	return func(b *baseClient) {
		b.timeout = d
	}
}

// baseClient holds the transport shared by every feed client
type baseClient struct {
	name       string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
}

func newBaseClient(name, baseURL string, opts ...Option) baseClient {
	b := baseClient{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: StandardClient(newRetryClient()),
		limiter:    rate.NewLimiter(rate.Limit(5), 5),
		timeout:    20 * time.Second,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// newRetryClient creates a new HTTP client with retry capabilities
func newRetryClient() *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 3
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 3 * time.Second
	c.Logger = nil
	return c
}

// StandardClient converts a retryablehttp.Client to a standard http.Client
func StandardClient(retryClient *retryablehttp.Client) *http.Client {
	return retryClient.StandardClient()
}

// do sends req after waiting for the rate limiter and decodes a 200 JSON body into out
func (b *baseClient) do(req *http.Request, out interface{}) error {
	if b.limiter != nil {
		if err := b.limiter.Wait(req.Context()); err != nil {
			return fmt.Errorf("%s rate limiter: %w", b.name, err)
		}
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error fetching data from %s: %w", b.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s API error: status %d, body: %s", b.name, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding %s response: %w", b.name, err)
	}
	return nil
}

// getJSON issues a GET against path relative to the base URL
func (b *baseClient) getJSON(ctx context.Context, path string, header http.Header, out interface{}) error {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	logrus.WithFields(logrus.Fields{
		"source": b.name,
		"path":   path,
	}).Debug("Fetching upstream data")
	return b.do(req, out)
}

func (b *baseClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.timeout)
}
