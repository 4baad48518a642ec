package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/juancg00ginversiones/ingecapital-data-api/internal/cashflow"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/model"
)

// minTokenLifetime is the shortest cache lifetime granted to a token
const minTokenLifetime = 60 * time.Second

// tokenExpiryMargin is subtracted from the advertised lifetime
const tokenExpiryMargin = 60 * time.Second

// TokenCache holds one bearer token until it expires
type TokenCache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
	now       func() time.Time
}

// NewTokenCache creates an empty token cache
func NewTokenCache() *TokenCache {
	return &TokenCache{now: time.Now}
}

// Get returns the cached token while it is still valid
func (t *TokenCache) Get() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.token == "" || !t.now().Before(t.expiresAt) {
		return "", false
	}
	return t.token, true
}

// Set stores token for max(60s, expiresIn-60s)
func (t *TokenCache) Set(token string, expiresIn time.Duration) {
	lifetime := expiresIn - tokenExpiryMargin
	if lifetime < minTokenLifetime {
		lifetime = minTokenLifetime
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = token
	t.expiresAt = t.now().Add(lifetime)
}

// Invalidate drops the cached token
func (t *TokenCache) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = ""
	t.expiresAt = time.Time{}
}

type doctaTokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Scope        string `json:"scope,omitempty"`
}

type doctaTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   *int   `json:"expires_in"`
}

// DoctaClient authenticates against the Docta Capital API with client credentials
type DoctaClient struct {
	baseClient
	clientID     string
	clientSecret string
	scope        string
	cache        *TokenCache
}

// NewDoctaClient creates a client; cache may be shared between clients
func NewDoctaClient(baseURL, clientID, clientSecret, scope string, cache *TokenCache, opts ...Option) *DoctaClient {
	if cache == nil {
		cache = NewTokenCache()
	}
	return &DoctaClient{
		baseClient:   newBaseClient("docta", baseURL, opts...),
		clientID:     clientID,
		clientSecret: clientSecret,
		scope:        scope,
		cache:        cache,
	}
}

// Token returns a valid bearer token, requesting a new one when the cached
// token has expired. Both the bare and the trailing-slash token paths are tried.
func (c *DoctaClient) Token(ctx context.Context) (string, error) {
	if token, ok := c.cache.Get(); ok {
		return token, nil
	}
	if c.clientID == "" || c.clientSecret == "" {
		return "", errors.New("docta credentials not configured")
	}

	body, err := json.Marshal(doctaTokenRequest{
		GrantType:    "client_credentials",
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		Scope:        c.scope,
	})
	if err != nil {
		return "", fmt.Errorf("error encoding token request: %w", err)
	}

	var lastErr error
	for _, path := range []string{"/auth/token", "/auth/token/"} {
		token, expiresIn, err := c.requestToken(ctx, path, body)
		if err != nil {
			lastErr = err
			logrus.WithError(err).WithField("path", path).Debug("Docta token request failed")
			continue
		}
		c.cache.Set(token, expiresIn)
		return token, nil
	}

	return "", fmt.Errorf("docta auth failed: %w", lastErr)
}

func (c *DoctaClient) requestToken(ctx context.Context, path string, body []byte) (string, time.Duration, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp doctaTokenResponse
	if err := c.do(req, &resp); err != nil {
		return "", 0, err
	}
	if resp.AccessToken == "" {
		return "", 0, errors.New("token response missing access_token")
	}

	expiresIn := time.Hour
	if resp.ExpiresIn != nil {
		expiresIn = time.Duration(*resp.ExpiresIn) * time.Second
	}
	return resp.AccessToken, expiresIn, nil
}

// authHeader builds the bearer header for an authenticated call
func (c *DoctaClient) authHeader(ctx context.Context) (http.Header, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	return h, nil
}

type doctaCashFlowRow struct {
	Ticker      string      `json:"ticker"`
	Type        string      `json:"type"`
	PaymentDate string      `json:"payment_date"`
	CashFlow    json.Number `json:"cash_flow"`
}

// DoctaCashFlowSource serves bond cash flows from the Docta Capital API
type DoctaCashFlowSource struct {
	client *DoctaClient
	path   string
}

// NewDoctaCashFlowSource creates a source reading path with client's credentials
func NewDoctaCashFlowSource(client *DoctaClient, path string) *DoctaCashFlowSource {
	return &DoctaCashFlowSource{client: client, path: path}
}

// CashFlows fetches every cash-flow record. The endpoint may answer with a
// bare array or with the rows wrapped under "data".
func (s *DoctaCashFlowSource) CashFlows(ctx context.Context) ([]model.CashFlowRecord, error) {
	header, err := s.client.authHeader(ctx)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := s.client.getJSON(ctx, s.path, header, &raw); err != nil {
		return nil, err
	}

	rows, err := decodeDoctaRows(raw)
	if err != nil {
		return nil, err
	}

	records := make([]model.CashFlowRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := cashflow.RecordDTO{
			Ticker:      row.Ticker,
			Type:        row.Type,
			PaymentDate: row.PaymentDate,
			CashFlow:    row.CashFlow.String(),
		}.ToModel()
		if err != nil {
			logrus.WithField("ticker", row.Ticker).Warnf("Skipping cash flow row: %v", err)
			continue
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("docta cash flows: %w", ErrEmptyResponse)
	}
	return records, nil
}

func decodeDoctaRows(raw json.RawMessage) ([]doctaCashFlowRow, error) {
	var rows []doctaCashFlowRow
	if err := json.Unmarshal(raw, &rows); err == nil {
		return rows, nil
	}

	var wrapped struct {
		Data []doctaCashFlowRow `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("error decoding docta cash flows: %w", err)
	}
	return wrapped.Data, nil
}
