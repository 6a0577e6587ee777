/**
 * @description
 * Portfolio history sampler.
 * Bounds the growth of the per-account value series while keeping a usable
 * chart: one point per portfolio read, bursts coalesced into the latest point,
 * and the series capped at the most recent N points.
 *
 * @dependencies
 * - backend/internal/store
 * - backend/internal/models
 * - github.com/shopspring/decimal
 */

package portfolio

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/papervest-project/backend/internal/models"
	"github.com/papervest-project/backend/internal/store"
	"github.com/shopspring/decimal"
)

// RecordPortfolioValue appends a history point for the given total value.
// If the latest point is younger than the coalescing interval it is
// overwritten in place instead, collapsing bursts of reads into one sample.
// The series is pruned to the configured cap on every write.
func (e *Engine) RecordPortfolioValue(ctx context.Context, accountID uuid.UUID, totalValue decimal.Decimal) error {
	now := e.now()

	latest, err := e.store.LatestHistoryPoint(ctx, accountID)
	switch {
	case err == nil && now.Sub(latest.Timestamp) < e.historyInterval:
		latest.TotalValue = totalValue
		latest.Timestamp = now
		if err := e.store.UpdateHistoryPoint(ctx, latest); err != nil {
			return fmt.Errorf("failed to coalesce history point: %w", err)
		}
	case err == nil || errors.Is(err, store.ErrNotFound):
		point := &models.PortfolioHistoryPoint{
			AccountID:  accountID,
			TotalValue: totalValue,
			Timestamp:  now,
		}
		if err := e.store.AppendHistoryPoint(ctx, point); err != nil {
			return fmt.Errorf("failed to append history point: %w", err)
		}
	default:
		return fmt.Errorf("failed to read latest history point: %w", err)
	}

	return e.store.PruneHistory(ctx, accountID, e.historyCap)
}
