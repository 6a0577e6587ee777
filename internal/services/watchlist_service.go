/**
 * @description
 * Watchlist Service for symbol tracking operations.
 * Manages the user's tracked symbols and decorates them with live quotes.
 *
 * @dependencies
 * - backend/internal/store
 * - backend/internal/quotes
 * - backend/internal/portfolio: symbol validation
 */

package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/papervest-project/backend/internal/logger"
	"github.com/papervest-project/backend/internal/models"
	"github.com/papervest-project/backend/internal/portfolio"
	"github.com/papervest-project/backend/internal/quotes"
	"github.com/papervest-project/backend/internal/store"
)

// WatchlistService handles symbol tracking operations
type WatchlistService struct {
	store  store.Store
	quotes quotes.Provider
}

// NewWatchlistService creates a new WatchlistService
func NewWatchlistService(st store.Store, provider quotes.Provider) *WatchlistService {
	return &WatchlistService{
		store:  st,
		quotes: provider,
	}
}

// WatchedSymbol is a watchlist entry decorated with the latest quote data
type WatchedSymbol struct {
	models.WatchlistItem
	CurrentPrice  float64 `json:"current_price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
}

// AddSymbol adds a symbol to the user's watchlist.
// Adding an already-tracked symbol is a no-op.
func (s *WatchlistService) AddSymbol(ctx context.Context, accountID uuid.UUID, symbol, name string) error {
	normalized, err := portfolio.ValidateSymbol(symbol)
	if err != nil {
		return err
	}

	item := &models.WatchlistItem{
		AccountID: accountID,
		Symbol:    normalized,
		Name:      strings.TrimSpace(name),
	}
	if err := s.store.AddWatchlistItem(ctx, item); err != nil {
		if err == store.ErrDuplicate {
			return nil
		}
		logger.Error("WatchlistService: failed to add %s: %v", normalized, err)
		return err
	}
	return nil
}

// RemoveSymbol removes a symbol from the user's watchlist
func (s *WatchlistService) RemoveSymbol(ctx context.Context, accountID uuid.UUID, symbol string) error {
	normalized, err := portfolio.ValidateSymbol(symbol)
	if err != nil {
		return err
	}
	if err := s.store.RemoveWatchlistItem(ctx, accountID, normalized); err != nil && err != store.ErrNotFound {
		logger.Error("WatchlistService: failed to remove %s: %v", normalized, err)
		return err
	}
	return nil
}

// GetWatchlist returns the user's tracked symbols with live quote data.
// Symbols the provider cannot resolve are returned with zero quote fields.
func (s *WatchlistService) GetWatchlist(ctx context.Context, accountID uuid.UUID) ([]WatchedSymbol, error) {
	items, err := s.store.GetWatchlist(ctx, accountID)
	if err != nil {
		return nil, err
	}

	watched := make([]WatchedSymbol, 0, len(items))
	for _, item := range items {
		entry := WatchedSymbol{WatchlistItem: item}
		quote, err := s.quotes.GetQuote(ctx, item.Symbol)
		if err != nil {
			logger.Error("WatchlistService: quote lookup failed for %s: %v", item.Symbol, err)
		} else if quote != nil {
			entry.CurrentPrice = quote.CurrentPrice
			entry.Change = quote.Change
			entry.ChangePercent = quote.ChangePercent
		}
		watched = append(watched, entry)
	}
	return watched, nil
}
