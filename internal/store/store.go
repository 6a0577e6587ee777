/**
 * @description
 * Ledger store contract.
 * Defines the persistence operations for accounts, positions, trade ledgers,
 * watchlists, and portfolio history. Two interchangeable backends implement it:
 * GormStore (PostgreSQL) and MemoryStore (in-process maps). The backend is
 * selected at startup by configuration.
 *
 * @dependencies
 * - backend/internal/models
 * - github.com/google/uuid
 * - github.com/shopspring/decimal
 *
 * @notes
 * - Implementations must be safe for concurrent use.
 * - WithAccountLock is the single serialization point for trade settlement:
 *   cash debit, position mutation, and ledger append happen inside it as one
 *   atomic unit. Plain reads never block on it.
 */

package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/papervest-project/backend/internal/models"
	"github.com/shopspring/decimal"
)

// Store is the contract all ledger backends satisfy.
type Store interface {
	// Accounts
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	UpdateAccountCash(ctx context.Context, id uuid.UUID, cash decimal.Decimal) error

	// Stock positions
	GetPositions(ctx context.Context, accountID uuid.UUID) ([]models.Position, error)
	GetPosition(ctx context.Context, accountID uuid.UUID, symbol string) (*models.Position, error)
	SavePosition(ctx context.Context, position *models.Position) error
	UpdatePositionPrice(ctx context.Context, accountID uuid.UUID, symbol string, price decimal.Decimal) error
	DeletePosition(ctx context.Context, accountID uuid.UUID, symbol string) error

	// Option positions (independent lots, one per buy)
	GetOptionPositions(ctx context.Context, accountID uuid.UUID) ([]models.OptionPosition, error)
	GetOptionPosition(ctx context.Context, accountID, lotID uuid.UUID) (*models.OptionPosition, error)
	CreateOptionPosition(ctx context.Context, lot *models.OptionPosition) error
	UpdateOptionPremium(ctx context.Context, accountID, lotID uuid.UUID, premium decimal.Decimal) error

	// Trade ledgers (append-only; rows are never mutated or deleted)
	AppendTrade(ctx context.Context, trade *models.Trade) error
	GetTrades(ctx context.Context, accountID uuid.UUID, limit int) ([]models.Trade, error)
	AppendOptionTrade(ctx context.Context, trade *models.OptionTrade) error
	GetOptionTrades(ctx context.Context, accountID uuid.UUID, limit int) ([]models.OptionTrade, error)

	// Watchlist
	AddWatchlistItem(ctx context.Context, item *models.WatchlistItem) error
	RemoveWatchlistItem(ctx context.Context, accountID uuid.UUID, symbol string) error
	GetWatchlist(ctx context.Context, accountID uuid.UUID) ([]models.WatchlistItem, error)

	// Portfolio history
	LatestHistoryPoint(ctx context.Context, accountID uuid.UUID) (*models.PortfolioHistoryPoint, error)
	AppendHistoryPoint(ctx context.Context, point *models.PortfolioHistoryPoint) error
	UpdateHistoryPoint(ctx context.Context, point *models.PortfolioHistoryPoint) error
	GetPortfolioHistory(ctx context.Context, accountID uuid.UUID, limit int) ([]models.PortfolioHistoryPoint, error)
	PruneHistory(ctx context.Context, accountID uuid.UUID, keep int) error

	// WithAccountLock runs fn with exclusive write access to the account's
	// rows. The Store passed to fn operates inside the critical section;
	// for the Postgres backend that is a transaction holding a row lock on
	// the account, for the memory backend a per-account mutex.
	WithAccountLock(ctx context.Context, accountID uuid.UUID, fn func(Store) error) error
}

// Ensure both backends implement Store
var (
	_ Store = (*GormStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
