/**
 * @description
 * Leaderboard aggregator.
 * Ranks accounts by total portfolio value from the valuation engine and
 * caches the ranked result in Redis.
 *
 * @dependencies
 * - backend/internal/portfolio
 * - backend/internal/store
 * - github.com/redis/go-redis/v9
 */

package services

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/papervest-project/backend/internal/logger"
	"github.com/papervest-project/backend/internal/portfolio"
	"github.com/papervest-project/backend/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	CacheKeyLeaderboard = "leaderboard:top"
	LeaderboardCacheTTL = 5 * time.Minute
)

// LeaderboardService ranks accounts by valuation engine output
type LeaderboardService struct {
	store   store.Store
	engine  *portfolio.Engine
	redis   *redis.Client
	maxSize int
}

// NewLeaderboardService creates a new LeaderboardService
func NewLeaderboardService(st store.Store, engine *portfolio.Engine, rdb *redis.Client, maxSize int) *LeaderboardService {
	if maxSize <= 0 {
		maxSize = 50
	}
	return &LeaderboardService{
		store:   st,
		engine:  engine,
		redis:   rdb,
		maxSize: maxSize,
	}
}

// LeaderboardEntry is one ranked account
type LeaderboardEntry struct {
	Rank                   int             `json:"rank"`
	AccountID              uuid.UUID       `json:"account_id"`
	Username               string          `json:"username"`
	TotalValue             decimal.Decimal `json:"total_value"`
	TotalProfitLoss        decimal.Decimal `json:"total_profit_loss"`
	TotalProfitLossPercent decimal.Decimal `json:"total_profit_loss_percent"`
}

// GetLeaderboard returns ranked accounts, serving from cache when fresh
func (s *LeaderboardService) GetLeaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	if s.redis != nil {
		cached, err := s.redis.Get(ctx, CacheKeyLeaderboard).Result()
		if err == nil {
			var entries []LeaderboardEntry
			if jsonErr := json.Unmarshal([]byte(cached), &entries); jsonErr == nil {
				return entries, nil
			}
		} else if err != redis.Nil {
			logger.Error("LeaderboardService: cache read failed: %v", err)
		}
	}

	entries, err := s.computeLeaderboard(ctx)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if payload, jsonErr := json.Marshal(entries); jsonErr == nil {
			if err := s.redis.Set(ctx, CacheKeyLeaderboard, payload, LeaderboardCacheTTL).Err(); err != nil {
				logger.Error("LeaderboardService: cache write failed: %v", err)
			}
		}
	}

	return entries, nil
}

func (s *LeaderboardService) computeLeaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(accounts))
	for _, account := range accounts {
		summary, err := s.engine.ComputeSummary(ctx, account.ID)
		if err != nil {
			// One broken account shouldn't sink the whole board
			logger.Error("LeaderboardService: failed to value account %s: %v", account.ID, err)
			continue
		}
		entries = append(entries, LeaderboardEntry{
			AccountID:              account.ID,
			Username:               account.Username,
			TotalValue:             summary.TotalValue,
			TotalProfitLoss:        summary.TotalProfitLoss,
			TotalProfitLossPercent: summary.TotalProfitLossPercent,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].TotalValue.GreaterThan(entries[j].TotalValue)
	})
	if len(entries) > s.maxSize {
		entries = entries[:s.maxSize]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
