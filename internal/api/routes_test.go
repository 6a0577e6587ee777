package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/papervest-project/backend/internal/config"
	"github.com/papervest-project/backend/internal/portfolio"
	"github.com/papervest-project/backend/internal/quotes"
	"github.com/papervest-project/backend/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticProvider map[string]*quotes.Quote

func (p staticProvider) GetQuote(ctx context.Context, symbol string) (*quotes.Quote, error) {
	return p[symbol], nil
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	cfg := &config.Config{
		Trading: config.TradingConfig{
			StartingCash:       100000,
			HistoryInterval:    time.Minute,
			HistoryMaxPoints:   100,
			LeaderboardMaxSize: 50,
		},
		Auth: config.AuthConfig{
			JWTSecret: "integration-test-secret",
			TokenTTL:  time.Hour,
		},
	}

	st := store.NewMemoryStore()
	provider := staticProvider{
		"AAPL": {Symbol: "AAPL", CurrentPrice: 180, Change: 2, ChangePercent: 1.1},
	}
	engine := portfolio.NewEngine(st, provider, cfg)

	app := fiber.New()
	SetupRoutes(app, st, nil, provider, engine, cfg)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, raw
}

func registerAccount(t *testing.T, app *fiber.App, username string) string {
	t.Helper()

	resp, raw := doJSON(t, app, "POST", "/api/v1/auth/register", "", fiber.Map{
		"username": username,
		"email":    username + "@example.com",
		"password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	require.NotEmpty(t, body.Token)
	return body.Token
}

type tradeResponse struct {
	Cash     decimal.Decimal `json:"cash"`
	Position *struct {
		Symbol       string          `json:"symbol"`
		Quantity     int64           `json:"quantity"`
		AveragePrice decimal.Decimal `json:"average_price"`
	} `json:"position"`
}

func TestTradeLifecycleOverHTTP(t *testing.T) {
	app := newTestApp(t)
	token := registerAccount(t, app, "httptrader")

	// Buy 10 AAPL @ 150
	resp, raw := doJSON(t, app, "POST", "/api/v1/trades/buy", token, fiber.Map{
		"symbol": "AAPL", "quantity": 10, "price": 150,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var buy tradeResponse
	require.NoError(t, json.Unmarshal(raw, &buy))
	assert.True(t, buy.Cash.Equal(decimal.NewFromInt(98500)), "cash: %s", buy.Cash)
	require.NotNil(t, buy.Position)
	assert.Equal(t, int64(10), buy.Position.Quantity)

	// Second buy moves the average
	resp, raw = doJSON(t, app, "POST", "/api/v1/trades/buy", token, fiber.Map{
		"symbol": "AAPL", "quantity": 5, "price": 160,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	require.NoError(t, json.Unmarshal(raw, &buy))
	assert.Equal(t, int64(15), buy.Position.Quantity)
	assert.Equal(t, "153.33", buy.Position.AveragePrice.Round(2).String())

	// Sell everything
	resp, raw = doJSON(t, app, "POST", "/api/v1/trades/sell", token, fiber.Map{
		"symbol": "AAPL", "quantity": 15, "price": 170,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var sell tradeResponse
	require.NoError(t, json.Unmarshal(raw, &sell))
	assert.True(t, sell.Cash.Equal(decimal.NewFromInt(100250)), "cash: %s", sell.Cash)
	assert.Nil(t, sell.Position)

	// Ledger has all three trades, newest first
	resp, raw = doJSON(t, app, "GET", "/api/v1/trades", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var trades []struct {
		Action string `json:"action"`
	}
	require.NoError(t, json.Unmarshal(raw, &trades))
	require.Len(t, trades, 3)
	assert.Equal(t, "sell", trades[0].Action)
}

func TestTradeRejectionStatusCodes(t *testing.T) {
	app := newTestApp(t)
	token := registerAccount(t, app, "rejected")

	// Admission failure: bad quantity
	resp, _ := doJSON(t, app, "POST", "/api/v1/trades/buy", token, fiber.Map{
		"symbol": "AAPL", "quantity": 0, "price": 150,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Balance failure: order larger than starting cash
	resp, _ = doJSON(t, app, "POST", "/api/v1/trades/buy", token, fiber.Map{
		"symbol": "AAPL", "quantity": 1000, "price": 150,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Share failure: selling what is not held
	resp, _ = doJSON(t, app, "POST", "/api/v1/trades/sell", token, fiber.Map{
		"symbol": "AAPL", "quantity": 1, "price": 150,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestOptionTradeOverHTTP(t *testing.T) {
	app := newTestApp(t)
	token := registerAccount(t, app, "optionstrader")

	resp, raw := doJSON(t, app, "POST", "/api/v1/trades/options", token, fiber.Map{
		"symbol":     "AAPL",
		"kind":       "call",
		"strike":     190,
		"expiration": "2026-12-18",
		"contracts":  2,
		"premium":    3.5,
		"action":     "buy",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var result struct {
		Cash decimal.Decimal `json:"cash"`
		Lot  *struct {
			Kind string `json:"kind"`
		} `json:"lot"`
	}
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.True(t, result.Cash.Equal(decimal.NewFromInt(99300)), "cash: %s", result.Cash)
	require.NotNil(t, result.Lot)
	assert.Equal(t, "call", result.Lot.Kind)

	resp, raw = doJSON(t, app, "GET", "/api/v1/portfolio/options", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var lots []json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &lots))
	assert.Len(t, lots, 1)
}

func TestPortfolioSummaryOverHTTP(t *testing.T) {
	app := newTestApp(t)
	token := registerAccount(t, app, "summarized")

	resp, raw := doJSON(t, app, "POST", "/api/v1/trades/buy", token, fiber.Map{
		"symbol": "AAPL", "quantity": 10, "price": 150,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	resp, raw = doJSON(t, app, "GET", "/api/v1/portfolio", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var summary struct {
		Cash        decimal.Decimal `json:"cash"`
		StocksValue decimal.Decimal `json:"stocks_value"`
		TotalValue  decimal.Decimal `json:"total_value"`
		DayChange   decimal.Decimal `json:"day_change"`
	}
	require.NoError(t, json.Unmarshal(raw, &summary))

	// The quote provider marks AAPL at 180
	assert.True(t, summary.StocksValue.Equal(decimal.NewFromInt(1800)))
	assert.True(t, summary.TotalValue.Equal(summary.Cash.Add(summary.StocksValue)))
	assert.True(t, summary.DayChange.Equal(decimal.NewFromInt(300)))

	// The summary read recorded a history point
	resp, raw = doJSON(t, app, "GET", "/api/v1/portfolio/history", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history []json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &history))
	assert.Len(t, history, 1)
}

func TestWatchlistOverHTTP(t *testing.T) {
	app := newTestApp(t)
	token := registerAccount(t, app, "watcher")

	resp, _ := doJSON(t, app, "POST", "/api/v1/watchlist", token, fiber.Map{
		"symbol": "aapl", "name": "Apple Inc.",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw := doJSON(t, app, "GET", "/api/v1/watchlist", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var items []struct {
		Symbol       string  `json:"symbol"`
		CurrentPrice float64 `json:"current_price"`
	}
	require.NoError(t, json.Unmarshal(raw, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "AAPL", items[0].Symbol)
	assert.Equal(t, 180.0, items[0].CurrentPrice)

	resp, _ = doJSON(t, app, "DELETE", "/api/v1/watchlist/AAPL", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw = doJSON(t, app, "GET", "/api/v1/watchlist", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &items))
	assert.Empty(t, items)
}

func TestAuthFlowOverHTTP(t *testing.T) {
	app := newTestApp(t)
	registerAccount(t, app, "authuser")

	// Duplicate registration conflicts
	resp, _ := doJSON(t, app, "POST", "/api/v1/auth/register", "", fiber.Map{
		"username": "authuser", "password": "hunter2hunter2",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Login and use the token against a protected route
	resp, raw := doJSON(t, app, "POST", "/api/v1/auth/login", "", fiber.Map{
		"username": "authuser", "password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(raw, &login))

	resp, raw = doJSON(t, app, "GET", "/api/v1/me", login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me struct {
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(raw, &me))
	assert.Equal(t, "authuser", me.Username)

	// Wrong password
	resp, _ = doJSON(t, app, "POST", "/api/v1/auth/login", "", fiber.Map{
		"username": "authuser", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRoutesRejectAnonymous(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/api/v1/me", "/api/v1/portfolio", "/api/v1/trades", "/api/v1/watchlist"} {
		resp, _ := doJSON(t, app, "GET", path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}

	resp, _ := doJSON(t, app, "GET", "/api/v1/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLeaderboardOverHTTP(t *testing.T) {
	app := newTestApp(t)
	for i := 0; i < 3; i++ {
		registerAccount(t, app, fmt.Sprintf("ranked%d", i))
	}

	resp, raw := doJSON(t, app, "GET", "/api/v1/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []struct {
		Rank     int    `json:"rank"`
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(raw, &entries))
	require.Len(t, entries, 3)
	assert.Equal(t, 1, entries[0].Rank)
}

func TestQuoteEndpoint(t *testing.T) {
	app := newTestApp(t)

	resp, raw := doJSON(t, app, "GET", "/api/v1/quotes/AAPL", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var quote struct {
		Symbol       string  `json:"symbol"`
		CurrentPrice float64 `json:"current_price"`
	}
	require.NoError(t, json.Unmarshal(raw, &quote))
	assert.Equal(t, "AAPL", quote.Symbol)
	assert.Equal(t, 180.0, quote.CurrentPrice)

	resp, _ = doJSON(t, app, "GET", "/api/v1/quotes/ZZZZ", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
