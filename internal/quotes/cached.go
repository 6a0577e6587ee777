/**
 * @description
 * Redis-cached quote provider.
 * Wraps the HTTP client with a short-TTL cache to bound upstream call volume,
 * and publishes refreshed quotes for the SSE stream.
 *
 * @dependencies
 * - github.com/redis/go-redis/v9
 * - backend/internal/logger
 */

package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/papervest-project/backend/internal/logger"
	"github.com/redis/go-redis/v9"
)

const (
	// QuoteUpdateChannel carries freshly fetched quotes for SSE consumers
	QuoteUpdateChannel = "quotes:updates"

	cacheKeyPrefix = "quotes:symbol:"
	DefaultCacheTTL = 60 * time.Second
)

// CachedProvider caches quotes in Redis in front of an inner Provider.
type CachedProvider struct {
	Inner Provider
	Redis *redis.Client
	TTL   time.Duration
}

// NewCachedProvider creates a CachedProvider with the given TTL.
// A zero TTL falls back to DefaultCacheTTL.
func NewCachedProvider(inner Provider, rdb *redis.Client, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedProvider{
		Inner: inner,
		Redis: rdb,
		TTL:   ttl,
	}
}

// GetQuote returns a cached quote when fresh, otherwise fetches from the inner
// provider, caches the result, and publishes it on QuoteUpdateChannel.
// Cache failures degrade to a direct fetch, never to an error.
func (p *CachedProvider) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	key := cacheKeyPrefix + symbol

	if p.Redis != nil {
		cached, err := p.Redis.Get(ctx, key).Result()
		if err == nil {
			var quote Quote
			if jsonErr := json.Unmarshal([]byte(cached), &quote); jsonErr == nil {
				return &quote, nil
			}
		} else if err != redis.Nil {
			logger.Error("CachedProvider: cache read failed for %s: %v", symbol, err)
		}
	}

	quote, err := p.Inner.GetQuote(ctx, symbol)
	if err != nil || quote == nil {
		return quote, err
	}

	if p.Redis != nil {
		payload, jsonErr := json.Marshal(quote)
		if jsonErr == nil {
			if err := p.Redis.Set(ctx, key, payload, p.TTL).Err(); err != nil {
				logger.Error("CachedProvider: cache write failed for %s: %v", symbol, err)
			}
			if err := p.Redis.Publish(ctx, QuoteUpdateChannel, payload).Err(); err != nil {
				logger.Error("CachedProvider: publish failed for %s: %v", symbol, err)
			}
		}
	}

	return quote, nil
}

// Lookup is a point-in-time snapshot of quotes for a set of symbols,
// used by the valuation engine to refresh positions in one pass.
type Lookup map[string]*Quote

// Snapshot fetches quotes for the given symbols. Symbols the provider cannot
// resolve are simply absent from the result; individual failures are logged
// and degrade that one symbol, never the whole snapshot.
func Snapshot(ctx context.Context, provider Provider, symbols []string) Lookup {
	lookup := make(Lookup, len(symbols))
	for _, symbol := range symbols {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" {
			continue
		}
		if _, seen := lookup[symbol]; seen {
			continue
		}
		quote, err := provider.GetQuote(ctx, symbol)
		if err != nil {
			logger.Error("quotes: lookup failed for %s: %v", symbol, err)
			continue
		}
		if quote == nil {
			continue
		}
		lookup[symbol] = quote
	}
	return lookup
}

// String implements fmt.Stringer for debug logging
func (l Lookup) String() string {
	return fmt.Sprintf("quotes.Lookup(%d symbols)", len(l))
}
