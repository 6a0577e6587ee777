/**
 * @description
 * PostgreSQL ledger store backed by GORM.
 * Implements the Store contract over the relational schema in internal/models.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/jackc/pgconn: Postgres error-code inspection
 * - backend/internal/models
 *
 * @notes
 * - WithAccountLock opens a transaction and takes a SELECT ... FOR UPDATE row
 *   lock on the account, so concurrent trades for the same account serialize
 *   at the database instead of racing on a stale read.
 */

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/papervest-project/backend/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const pgUniqueViolation = "23505"

// GormStore persists ledger state in PostgreSQL
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a GormStore over an open GORM connection
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicate
	}
	return err
}

// CreateAccount stores a new account
func (s *GormStore) CreateAccount(ctx context.Context, account *models.Account) error {
	return translateError(s.db.WithContext(ctx).Create(account).Error)
}

// GetAccount returns an account by id
func (s *GormStore) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		return nil, translateError(err)
	}
	return &account, nil
}

// GetAccountByUsername returns an account by username
func (s *GormStore) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Where("LOWER(username) = LOWER(?)", username).First(&account).Error; err != nil {
		return nil, translateError(err)
	}
	return &account, nil
}

// ListAccounts returns all accounts
func (s *GormStore) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&accounts).Error; err != nil {
		return nil, translateError(err)
	}
	return accounts, nil
}

// UpdateAccountCash overwrites the account's cash balance
func (s *GormStore) UpdateAccountCash(ctx context.Context, id uuid.UUID, cash decimal.Decimal) error {
	result := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", id).
		Update("cash", cash)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetPositions returns all stock positions for an account
func (s *GormStore) GetPositions(ctx context.Context, accountID uuid.UUID) ([]models.Position, error) {
	var positions []models.Position
	if err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("symbol ASC").
		Find(&positions).Error; err != nil {
		return nil, translateError(err)
	}
	return positions, nil
}

// GetPosition returns one position by account and symbol
func (s *GormStore) GetPosition(ctx context.Context, accountID uuid.UUID, symbol string) (*models.Position, error) {
	var position models.Position
	if err := s.db.WithContext(ctx).
		Where("account_id = ? AND symbol = ?", accountID, normalizeSymbol(symbol)).
		First(&position).Error; err != nil {
		return nil, translateError(err)
	}
	return &position, nil
}

// SavePosition inserts or updates a position row keyed by (account, symbol)
func (s *GormStore) SavePosition(ctx context.Context, position *models.Position) error {
	position.Symbol = normalizeSymbol(position.Symbol)
	return translateError(s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account_id"}, {Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"quantity",
			"average_price",
			"current_price",
			"updated_at",
		}),
	}).Create(position).Error)
}

// UpdatePositionPrice persists a refreshed reference price
func (s *GormStore) UpdatePositionPrice(ctx context.Context, accountID uuid.UUID, symbol string, price decimal.Decimal) error {
	result := s.db.WithContext(ctx).Model(&models.Position{}).
		Where("account_id = ? AND symbol = ?", accountID, normalizeSymbol(symbol)).
		Update("current_price", price)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePosition removes a position row
func (s *GormStore) DeletePosition(ctx context.Context, accountID uuid.UUID, symbol string) error {
	result := s.db.WithContext(ctx).
		Where("account_id = ? AND symbol = ?", accountID, normalizeSymbol(symbol)).
		Delete(&models.Position{})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetOptionPositions returns all option lots for an account in creation order
func (s *GormStore) GetOptionPositions(ctx context.Context, accountID uuid.UUID) ([]models.OptionPosition, error) {
	var lots []models.OptionPosition
	if err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at ASC").
		Find(&lots).Error; err != nil {
		return nil, translateError(err)
	}
	return lots, nil
}

// GetOptionPosition returns one option lot by id
func (s *GormStore) GetOptionPosition(ctx context.Context, accountID, lotID uuid.UUID) (*models.OptionPosition, error) {
	var lot models.OptionPosition
	if err := s.db.WithContext(ctx).
		Where("account_id = ? AND id = ?", accountID, lotID).
		First(&lot).Error; err != nil {
		return nil, translateError(err)
	}
	return &lot, nil
}

// CreateOptionPosition appends a new option lot
func (s *GormStore) CreateOptionPosition(ctx context.Context, lot *models.OptionPosition) error {
	lot.Symbol = normalizeSymbol(lot.Symbol)
	return translateError(s.db.WithContext(ctx).Create(lot).Error)
}

// UpdateOptionPremium overwrites the lot's current premium
func (s *GormStore) UpdateOptionPremium(ctx context.Context, accountID, lotID uuid.UUID, premium decimal.Decimal) error {
	result := s.db.WithContext(ctx).Model(&models.OptionPosition{}).
		Where("account_id = ? AND id = ?", accountID, lotID).
		Update("current_premium", premium)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendTrade records an executed stock trade
func (s *GormStore) AppendTrade(ctx context.Context, trade *models.Trade) error {
	trade.Symbol = normalizeSymbol(trade.Symbol)
	return translateError(s.db.WithContext(ctx).Create(trade).Error)
}

// GetTrades returns trades for an account, most recent first
func (s *GormStore) GetTrades(ctx context.Context, accountID uuid.UUID, limit int) ([]models.Trade, error) {
	query := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var trades []models.Trade
	if err := query.Find(&trades).Error; err != nil {
		return nil, translateError(err)
	}
	return trades, nil
}

// AppendOptionTrade records an executed option trade
func (s *GormStore) AppendOptionTrade(ctx context.Context, trade *models.OptionTrade) error {
	trade.Symbol = normalizeSymbol(trade.Symbol)
	return translateError(s.db.WithContext(ctx).Create(trade).Error)
}

// GetOptionTrades returns option trades for an account, most recent first
func (s *GormStore) GetOptionTrades(ctx context.Context, accountID uuid.UUID, limit int) ([]models.OptionTrade, error) {
	query := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var trades []models.OptionTrade
	if err := query.Find(&trades).Error; err != nil {
		return nil, translateError(err)
	}
	return trades, nil
}

// AddWatchlistItem stores a watchlist entry; the unique index on
// (account_id, symbol) rejects duplicates, surfaced as ErrDuplicate
func (s *GormStore) AddWatchlistItem(ctx context.Context, item *models.WatchlistItem) error {
	item.Symbol = normalizeSymbol(item.Symbol)
	return translateError(s.db.WithContext(ctx).Create(item).Error)
}

// RemoveWatchlistItem deletes a watchlist entry
func (s *GormStore) RemoveWatchlistItem(ctx context.Context, accountID uuid.UUID, symbol string) error {
	result := s.db.WithContext(ctx).
		Where("account_id = ? AND symbol = ?", accountID, normalizeSymbol(symbol)).
		Delete(&models.WatchlistItem{})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetWatchlist returns watchlist entries, most recently added first
func (s *GormStore) GetWatchlist(ctx context.Context, accountID uuid.UUID) ([]models.WatchlistItem, error) {
	var items []models.WatchlistItem
	if err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&items).Error; err != nil {
		return nil, translateError(err)
	}
	return items, nil
}

// LatestHistoryPoint returns the most recent history point, or ErrNotFound
func (s *GormStore) LatestHistoryPoint(ctx context.Context, accountID uuid.UUID) (*models.PortfolioHistoryPoint, error) {
	var point models.PortfolioHistoryPoint
	if err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("timestamp DESC, id DESC").
		First(&point).Error; err != nil {
		return nil, translateError(err)
	}
	return &point, nil
}

// AppendHistoryPoint appends a new history point
func (s *GormStore) AppendHistoryPoint(ctx context.Context, point *models.PortfolioHistoryPoint) error {
	return translateError(s.db.WithContext(ctx).Create(point).Error)
}

// UpdateHistoryPoint overwrites an existing history point in place
func (s *GormStore) UpdateHistoryPoint(ctx context.Context, point *models.PortfolioHistoryPoint) error {
	result := s.db.WithContext(ctx).Model(&models.PortfolioHistoryPoint{}).
		Where("id = ? AND account_id = ?", point.ID, point.AccountID).
		Updates(map[string]interface{}{
			"total_value": point.TotalValue,
			"timestamp":   point.Timestamp,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetPortfolioHistory returns the most recent points in chronological order
func (s *GormStore) GetPortfolioHistory(ctx context.Context, accountID uuid.UUID, limit int) ([]models.PortfolioHistoryPoint, error) {
	query := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("timestamp DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var points []models.PortfolioHistoryPoint
	if err := query.Find(&points).Error; err != nil {
		return nil, translateError(err)
	}
	// Reverse into chronological order for chart consumers
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points, nil
}

// PruneHistory discards all but the most recent keep points
func (s *GormStore) PruneHistory(ctx context.Context, accountID uuid.UUID, keep int) error {
	if keep <= 0 {
		return nil
	}
	recent := s.db.Model(&models.PortfolioHistoryPoint{}).
		Select("id").
		Where("account_id = ?", accountID).
		Order("timestamp DESC, id DESC").
		Limit(keep)
	return translateError(s.db.WithContext(ctx).
		Where("account_id = ? AND id NOT IN (?)", accountID, recent).
		Delete(&models.PortfolioHistoryPoint{}).Error)
}

// WithAccountLock runs fn inside a transaction holding a FOR UPDATE lock on
// the account row, serializing settlement against concurrent trades
func (s *GormStore) WithAccountLock(ctx context.Context, accountID uuid.UUID, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account models.Account
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", accountID).
			First(&account).Error; err != nil {
			return translateError(err)
		}
		return fn(&GormStore{db: tx})
	})
}
