/**
 * @description
 * HTTP client for the upstream quote API (Finnhub-style /quote endpoint).
 * Fetches current price and OHLC data for a symbol.
 *
 * @dependencies
 * - net/http
 * - encoding/json
 * - backend/internal/config
 *
 * @notes
 * - An unknown symbol is reported as (nil, nil), not an error: the provider
 *   returns an all-zero payload for symbols it does not recognize.
 */

package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/papervest-project/backend/internal/config"
)

const (
	DefaultTimeout = 10 * time.Second
)

// Provider is the lookup interface consumed by the valuation engine.
// Implementations return (nil, nil) when the symbol is unknown so callers can
// degrade to stale data instead of failing.
type Provider interface {
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
}

// Client fetches quotes over HTTP
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a quote API client from configuration
func NewClient(cfg *config.Config) *Client {
	return &Client{
		BaseURL: cfg.Quotes.BaseURL,
		APIKey:  cfg.Quotes.APIKey,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// GetQuote fetches the current quote for a symbol.
// Returns (nil, nil) when the provider does not know the symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	u, err := url.Parse(fmt.Sprintf("%s/quote", c.BaseURL))
	if err != nil {
		return nil, err
	}

	q := u.Query()
	q.Set("symbol", symbol)
	if c.APIKey != "" {
		q.Set("token", c.APIKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote api error: status %d", resp.StatusCode)
	}

	var payload quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode quote response: %w", err)
	}

	// The upstream API reports unknown symbols as an all-zero quote
	if payload.Current == 0 && payload.PreviousClose == 0 && payload.Timestamp == 0 {
		return nil, nil
	}

	return &Quote{
		Symbol:        symbol,
		CurrentPrice:  payload.Current,
		Change:        payload.Change,
		ChangePercent: payload.ChangePercent,
		High:          payload.High,
		Low:           payload.Low,
		Open:          payload.Open,
		PreviousClose: payload.PreviousClose,
		Timestamp:     time.Unix(payload.Timestamp, 0).UTC(),
	}, nil
}
