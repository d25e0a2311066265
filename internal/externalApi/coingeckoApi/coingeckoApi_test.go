package coingeckoApi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KotFed0t/crypto_trading_sandbox/config"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/externalApi"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/model"
	"github.com/shopspring/decimal"
)

func newTestApi(t *testing.T, handler http.HandlerFunc) *CoingeckoApi {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.API.Timeout = 5 * time.Second
	cfg.API.Coingecko.Url = srv.URL

	return New(cfg)
}

func TestGetCurrentQuotes(t *testing.T) {
	api := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/simple/price" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("ids"); got != "bitcoin,ethereum" {
			t.Errorf("ids = %s, want bitcoin,ethereum", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"bitcoin": {"usd": 50000.5, "usd_24h_change": 1.2, "usd_24h_vol": 100, "usd_market_cap": 900},
			"ethereum": {"usd": 2500}
		}`))
	})

	cryptos := []model.Crypto{
		{Symbol: "BTC", CoingeckoID: "bitcoin"},
		{Symbol: "ETH", CoingeckoID: "ethereum"},
		{Symbol: "SOL", CoingeckoID: "solana"},
	}

	quotes, err := api.GetCurrentQuotes(context.Background(), cryptos)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(quotes) != 2 {
		t.Fatalf("quotes = %d, want 2", len(quotes))
	}

	btc := quotes["bitcoin"]
	if btc.Symbol != "BTC" {
		t.Errorf("symbol = %s, want BTC", btc.Symbol)
	}
	if !btc.Price.Equal(decimal.NewFromFloat(50000.5)) {
		t.Errorf("price = %s, want 50000.5", btc.Price)
	}

	// solana отсутствует в ответе
	if _, ok := quotes["solana"]; ok {
		t.Errorf("got quote for asset missing in response")
	}
}

func TestGetCurrentQuotesUpstreamError(t *testing.T) {
	api := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := api.GetCurrentQuotes(context.Background(), []model.Crypto{{Symbol: "BTC", CoingeckoID: "bitcoin"}})
	if !errors.Is(err, externalApi.ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
}

func TestGetHistoricalPrices(t *testing.T) {
	api := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/bitcoin/market_chart" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("days"); got != "7" {
			t.Errorf("days = %s, want 7", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"prices": [[1700000000000, 37000.1], [1700003600000, 37100.2]]}`))
	})

	points, err := api.GetHistoricalPrices(context.Background(), "bitcoin", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(points) != 2 {
		t.Fatalf("points = %d, want 2", len(points))
	}
	if points[0].Timestamp != time.UnixMilli(1700000000000).UTC() {
		t.Errorf("timestamp = %s", points[0].Timestamp)
	}
	if !points[1].Price.Equal(decimal.NewFromFloat(37100.2)) {
		t.Errorf("price = %s, want 37100.2", points[1].Price)
	}
}

func TestGetHistoricalPricesNotFound(t *testing.T) {
	api := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := api.GetHistoricalPrices(context.Background(), "unknown-coin", 7)
	if !errors.Is(err, externalApi.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
