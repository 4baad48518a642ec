package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juancg00ginversiones/ingecapital-data-api/internal/types"
)

func testOpts(srv *httptest.Server) []Option {
	return []Option{WithHTTPClient(srv.Client()), WithRateLimit(0, 0), WithTimeout(5 * time.Second)}
}

func TestData912Client_Prices(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/live/arg_bonds", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"symbol":"AL30","c":70.5,"pct_change":1.2},
			{"symbol":"GD30","c":72.1,"dp":-0.5},
			{"symbol":"","c":10},
			{"symbol":"AE38","c":null}
		]`))
	})
	mux.HandleFunc("/live/arg_corp", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"symbol":"YCA6O","c":101}]`))
	})
	mux.HandleFunc("/live/arg_notes", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadRequest)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewData912Client(srv.URL, testOpts(srv)...)
	prices, err := client.Prices(context.Background())

	require.Error(t, err, "failing endpoint is reported")
	assert.Contains(t, err.Error(), "/live/arg_notes")
	require.Len(t, prices, 3)

	byTicker := map[string]float64{}
	for _, p := range prices {
		byTicker[p.Ticker] = p.PctChange
	}
	assert.Equal(t, 1.2, byTicker["AL30"])
	assert.Equal(t, -0.5, byTicker["GD30"])
	assert.Equal(t, 0.0, byTicker["YCA6O"])
	assert.Equal(t, types.GroupCorp, prices[2].Group)
}

func TestData912Client_AllEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := NewData912Client(srv.URL, testOpts(srv)...).Prices(context.Background())
	assert.True(t, errors.Is(err, ErrEmptyResponse))
}

func TestParseDeribitInstrument(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		strike  string
		wantErr bool
	}{
		{name: "BTC-27DEC24-60000-C", want: "2024-12-27", strike: "60000"},
		{name: "BTC-5JAN25-95000-P", want: "2025-01-05", strike: "95000"},
		{name: "XRP-28MAR25-1d5-C", want: "2025-03-28", strike: "1.5"},
		{name: "BTC-PERPETUAL", wantErr: true},
		{name: "BTC-31FOO24-1-C", wantErr: true},
		{name: "BTC-27DEC24-abc-C", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expiry, strike, err := ParseDeribitInstrument(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, expiry.Format("2006-01-02"))
			assert.Equal(t, tt.strike, strike.String())
		})
	}
}

func TestDeribitClient_Chain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/public/get_book_summary_by_currency", r.URL.Path)
		assert.Equal(t, "BTC", r.URL.Query().Get("currency"))
		assert.Equal(t, "option", r.URL.Query().Get("kind"))
		w.Write([]byte(`{"result":[
			{"instrument_name":"BTC-27DEC30-60000-C","mark_iv":55.2,"underlying_price":61000},
			{"instrument_name":"BTC-27DEC30-60000-P","mark_iv":null,"underlying_price":61000},
			{"instrument_name":"garbage","mark_iv":50}
		]}`))
	}))
	defer srv.Close()

	chain, err := NewDeribitClient(srv.URL, testOpts(srv)...).Chain(context.Background(), "btc")
	require.NoError(t, err)
	assert.Equal(t, "BTC", chain.Underlying)
	assert.Equal(t, types.SourceOrderBook, chain.Source)
	require.Len(t, chain.Quotes, 2)
	assert.Equal(t, types.SideCombined, chain.Quotes[0].Side)
	require.NotNil(t, chain.Quotes[0].IV)
	assert.InDelta(t, 0.552, *chain.Quotes[0].IV, 1e-12)
	assert.Nil(t, chain.Quotes[1].IV)
	assert.Equal(t, 61000.0, *chain.Quotes[0].Spot)
}

func TestParseOCCSymbol(t *testing.T) {
	expiry, side, strike, err := ParseOCCSymbol("AAPL240119C00150000")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-19", expiry.Format("2006-01-02"))
	assert.Equal(t, types.SideCall, side)
	assert.Equal(t, "150", strike.String())

	_, side, strike, err = ParseOCCSymbol("SPY261218P00612500")
	require.NoError(t, err)
	assert.Equal(t, types.SidePut, side)
	assert.Equal(t, "612.5", strike.String())

	for _, bad := range []string{"", "AAPL", "aapl240119C00150000", "AAPL241319C00150000", "AAPL240119X00150000"} {
		_, _, _, err := ParseOCCSymbol(bad)
		assert.Error(t, err, bad)
	}
}

func TestCBOEClient_Chain(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte(`{"data":{"current_price":612.3,"options":[
			{"option":"SPY301220C00600000","bid":20.1,"ask":20.5,"iv":0.18},
			{"option":"SPY301220P00600000","bid":8.0,"ask":8.6,"iv":19.5},
			{"option":"broken","bid":1,"ask":2,"iv":0.2}
		]}}`))
	}))
	defer srv.Close()

	client := NewCBOEClient(srv.URL, testOpts(srv)...)
	chain, err := client.Chain(context.Background(), "spy")
	require.NoError(t, err)
	assert.Equal(t, types.SourceListed, chain.Source)
	require.NotNil(t, chain.Spot)
	assert.Equal(t, 612.3, *chain.Spot)
	require.Len(t, chain.Quotes, 2)
	assert.Equal(t, types.SidePut, chain.Quotes[1].Side)
	assert.InDelta(t, 0.195, *chain.Quotes[1].IV, 1e-12)

	_, err = client.Chain(context.Background(), "VIX")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/api/global/delayed_quotes/options/SPY.json",
		"/api/global/delayed_quotes/options/_VIX.json",
	}, paths)
}

func TestCBOEClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/global/delayed_quotes/options/EMPTY.json" {
			w.Write([]byte(`{"data":{"options":[]}}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := NewCBOEClient(srv.URL, testOpts(srv)...)
	_, err := client.Chain(context.Background(), "EMPTY")
	assert.True(t, errors.Is(err, ErrEmptyResponse))

	_, err = client.Chain(context.Background(), "NOPE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestTokenCache(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	cache := NewTokenCache()
	cache.now = func() time.Time { return now }

	_, ok := cache.Get()
	assert.False(t, ok)

	cache.Set("abc", 3600*time.Second)
	token, ok := cache.Get()
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	now = now.Add(3540 * time.Second)
	_, ok = cache.Get()
	assert.False(t, ok, "expires 60s before the advertised lifetime")

	cache.Set("short", 30*time.Second)
	now = now.Add(59 * time.Second)
	_, ok = cache.Get()
	assert.True(t, ok, "lifetime is floored at 60s")

	cache.Invalidate()
	_, ok = cache.Get()
	assert.False(t, ok)
}

func TestDoctaClient_TokenFallsBackToSlashPath(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"detail":"no token here"}`))
	})
	mux.HandleFunc("/auth/token/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		var body doctaTokenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "client_credentials", body.GrantType)
		assert.Equal(t, "id", body.ClientID)
		w.Write([]byte(`{"access_token":"tok-1","expires_in":3600}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewDoctaClient(srv.URL, "id", "secret", "", nil, testOpts(srv)...)
	token, err := client.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	token, err = client.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "second call served from cache")
}

func TestDoctaClient_TokenFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewDoctaClient(srv.URL, "id", "secret", "", nil, testOpts(srv)...).Token(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "docta auth failed")
	assert.Contains(t, err.Error(), "bad credentials")

	_, err = NewDoctaClient(srv.URL, "", "", "", nil, testOpts(srv)...).Token(context.Background())
	assert.Error(t, err)
}

func TestDoctaCashFlowSource(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"tok","expires_in":600}`))
	})
	mux.HandleFunc("/bonds/cashflows", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":[
			{"ticker":"AL30","type":"bond","payment_date":"2027-01-09","cash_flow":4.5},
			{"ticker":"AL30","type":"bond","payment_date":"not a date","cash_flow":1},
			{"ticker":"GD30","type":"bond","payment_date":"2027-07-09","cash_flow":"8.25"}
		]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewDoctaClient(srv.URL, "id", "secret", "", nil, testOpts(srv)...)
	records, err := NewDoctaCashFlowSource(client, "/bonds/cashflows").CashFlows(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "AL30", records[0].Ticker)
	assert.Equal(t, 4.5, records[0].Amount)
	assert.Equal(t, 8.25, records[1].Amount)
}

func TestDecodeDoctaRows_BareArray(t *testing.T) {
	rows, err := decodeDoctaRows(json.RawMessage(`[{"ticker":"AL30","payment_date":"2027-01-09","cash_flow":1}]`))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "AL30", rows[0].Ticker)

	_, err = decodeDoctaRows(json.RawMessage(`"nope"`))
	assert.Error(t, err)
}
