/**
 * @description
 * In-memory ledger store.
 * Map-based backend used for local development and tests. State is scoped to
 * the store instance (no package-level globals) so isolated accounts and
 * parallel tests don't leak into each other.
 *
 * @dependencies
 * - backend/internal/models
 * - github.com/google/uuid
 * - github.com/shopspring/decimal
 *
 * @notes
 * - All returned records are copies; callers never observe internal state.
 * - WithAccountLock uses one mutex per account, created lazily.
 */

package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/papervest-project/backend/internal/models"
	"github.com/shopspring/decimal"
)

// MemoryStore keeps all ledger state in process memory.
type MemoryStore struct {
	mu              sync.RWMutex
	accounts        map[uuid.UUID]*models.Account
	positions       map[uuid.UUID]map[string]*models.Position
	optionPositions map[uuid.UUID][]*models.OptionPosition
	trades          map[uuid.UUID][]models.Trade
	optionTrades    map[uuid.UUID][]models.OptionTrade
	watchlists      map[uuid.UUID]map[string]*models.WatchlistItem
	history         map[uuid.UUID][]models.PortfolioHistoryPoint
	nextHistoryID   uint64

	lockMu       sync.Mutex
	accountLocks map[uuid.UUID]*sync.Mutex
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:        make(map[uuid.UUID]*models.Account),
		positions:       make(map[uuid.UUID]map[string]*models.Position),
		optionPositions: make(map[uuid.UUID][]*models.OptionPosition),
		trades:          make(map[uuid.UUID][]models.Trade),
		optionTrades:    make(map[uuid.UUID][]models.OptionTrade),
		watchlists:      make(map[uuid.UUID]map[string]*models.WatchlistItem),
		history:         make(map[uuid.UUID][]models.PortfolioHistoryPoint),
		accountLocks:    make(map[uuid.UUID]*sync.Mutex),
	}
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// CreateAccount stores a new account
func (s *MemoryStore) CreateAccount(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if strings.EqualFold(existing.Username, account.Username) {
			return ErrDuplicate
		}
	}

	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	copied := *account
	s.accounts[account.ID] = &copied
	return nil
}

// GetAccount returns an account by id
func (s *MemoryStore) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *account
	return &copied, nil
}

// GetAccountByUsername returns an account by username (case-insensitive)
func (s *MemoryStore) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, account := range s.accounts {
		if strings.EqualFold(account.Username, username) {
			copied := *account
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

// ListAccounts returns all accounts
func (s *MemoryStore) ListAccounts(ctx context.Context) ([]models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]models.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		accounts = append(accounts, *account)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts, nil
}

// UpdateAccountCash overwrites the account's cash balance
func (s *MemoryStore) UpdateAccountCash(ctx context.Context, id uuid.UUID, cash decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	account.Cash = cash
	account.UpdatedAt = time.Now()
	return nil
}

// GetPositions returns all stock positions for an account, sorted by symbol
func (s *MemoryStore) GetPositions(ctx context.Context, accountID uuid.UUID) ([]models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bySymbol := s.positions[accountID]
	positions := make([]models.Position, 0, len(bySymbol))
	for _, position := range bySymbol {
		positions = append(positions, *position)
	}
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Symbol < positions[j].Symbol
	})
	return positions, nil
}

// GetPosition returns one position by account and symbol
func (s *MemoryStore) GetPosition(ctx context.Context, accountID uuid.UUID, symbol string) (*models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	position, ok := s.positions[accountID][normalizeSymbol(symbol)]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *position
	return &copied, nil
}

// SavePosition inserts or replaces a position row
func (s *MemoryStore) SavePosition(ctx context.Context, position *models.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if position.ID == uuid.Nil {
		position.ID = uuid.New()
	}
	position.Symbol = normalizeSymbol(position.Symbol)
	now := time.Now()
	if position.CreatedAt.IsZero() {
		position.CreatedAt = now
	}
	position.UpdatedAt = now

	bySymbol, ok := s.positions[position.AccountID]
	if !ok {
		bySymbol = make(map[string]*models.Position)
		s.positions[position.AccountID] = bySymbol
	}
	copied := *position
	bySymbol[position.Symbol] = &copied
	return nil
}

// UpdatePositionPrice persists a refreshed reference price.
// Last-writer-wins is acceptable here; quantity and cash are not touched.
func (s *MemoryStore) UpdatePositionPrice(ctx context.Context, accountID uuid.UUID, symbol string, price decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	position, ok := s.positions[accountID][normalizeSymbol(symbol)]
	if !ok {
		return ErrNotFound
	}
	position.CurrentPrice = price
	position.UpdatedAt = time.Now()
	return nil
}

// DeletePosition removes a position row
func (s *MemoryStore) DeletePosition(ctx context.Context, accountID uuid.UUID, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	symbol = normalizeSymbol(symbol)
	if _, ok := s.positions[accountID][symbol]; !ok {
		return ErrNotFound
	}
	delete(s.positions[accountID], symbol)
	return nil
}

// GetOptionPositions returns all option lots for an account in creation order
func (s *MemoryStore) GetOptionPositions(ctx context.Context, accountID uuid.UUID) ([]models.OptionPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lots := make([]models.OptionPosition, 0, len(s.optionPositions[accountID]))
	for _, lot := range s.optionPositions[accountID] {
		lots = append(lots, *lot)
	}
	return lots, nil
}

// GetOptionPosition returns one option lot by id
func (s *MemoryStore) GetOptionPosition(ctx context.Context, accountID, lotID uuid.UUID) (*models.OptionPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, lot := range s.optionPositions[accountID] {
		if lot.ID == lotID {
			copied := *lot
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

// CreateOptionPosition appends a new option lot
func (s *MemoryStore) CreateOptionPosition(ctx context.Context, lot *models.OptionPosition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lot.ID == uuid.Nil {
		lot.ID = uuid.New()
	}
	lot.Symbol = normalizeSymbol(lot.Symbol)
	now := time.Now()
	if lot.CreatedAt.IsZero() {
		lot.CreatedAt = now
	}
	lot.UpdatedAt = now

	copied := *lot
	s.optionPositions[lot.AccountID] = append(s.optionPositions[lot.AccountID], &copied)
	return nil
}

// UpdateOptionPremium overwrites the lot's current premium
func (s *MemoryStore) UpdateOptionPremium(ctx context.Context, accountID, lotID uuid.UUID, premium decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, lot := range s.optionPositions[accountID] {
		if lot.ID == lotID {
			lot.CurrentPremium = premium
			lot.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrNotFound
}

// AppendTrade records an executed stock trade
func (s *MemoryStore) AppendTrade(ctx context.Context, trade *models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if trade.ID == uuid.Nil {
		trade.ID = uuid.New()
	}
	trade.Symbol = normalizeSymbol(trade.Symbol)
	if trade.CreatedAt.IsZero() {
		trade.CreatedAt = time.Now()
	}
	s.trades[trade.AccountID] = append(s.trades[trade.AccountID], *trade)
	return nil
}

// GetTrades returns trades for an account, most recent first
func (s *MemoryStore) GetTrades(ctx context.Context, accountID uuid.UUID, limit int) ([]models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.trades[accountID]
	trades := make([]models.Trade, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		trades = append(trades, stored[i])
		if limit > 0 && len(trades) >= limit {
			break
		}
	}
	return trades, nil
}

// AppendOptionTrade records an executed option trade
func (s *MemoryStore) AppendOptionTrade(ctx context.Context, trade *models.OptionTrade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if trade.ID == uuid.Nil {
		trade.ID = uuid.New()
	}
	trade.Symbol = normalizeSymbol(trade.Symbol)
	if trade.CreatedAt.IsZero() {
		trade.CreatedAt = time.Now()
	}
	s.optionTrades[trade.AccountID] = append(s.optionTrades[trade.AccountID], *trade)
	return nil
}

// GetOptionTrades returns option trades for an account, most recent first
func (s *MemoryStore) GetOptionTrades(ctx context.Context, accountID uuid.UUID, limit int) ([]models.OptionTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.optionTrades[accountID]
	trades := make([]models.OptionTrade, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		trades = append(trades, stored[i])
		if limit > 0 && len(trades) >= limit {
			break
		}
	}
	return trades, nil
}

// AddWatchlistItem stores a watchlist entry, rejecting duplicates per (account, symbol)
func (s *MemoryStore) AddWatchlistItem(ctx context.Context, item *models.WatchlistItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item.Symbol = normalizeSymbol(item.Symbol)
	bySymbol, ok := s.watchlists[item.AccountID]
	if !ok {
		bySymbol = make(map[string]*models.WatchlistItem)
		s.watchlists[item.AccountID] = bySymbol
	}
	if _, exists := bySymbol[item.Symbol]; exists {
		return ErrDuplicate
	}

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	copied := *item
	bySymbol[item.Symbol] = &copied
	return nil
}

// RemoveWatchlistItem deletes a watchlist entry
func (s *MemoryStore) RemoveWatchlistItem(ctx context.Context, accountID uuid.UUID, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	symbol = normalizeSymbol(symbol)
	if _, ok := s.watchlists[accountID][symbol]; !ok {
		return ErrNotFound
	}
	delete(s.watchlists[accountID], symbol)
	return nil
}

// GetWatchlist returns watchlist entries for an account, most recently added first
func (s *MemoryStore) GetWatchlist(ctx context.Context, accountID uuid.UUID) ([]models.WatchlistItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]models.WatchlistItem, 0, len(s.watchlists[accountID]))
	for _, item := range s.watchlists[accountID] {
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

// LatestHistoryPoint returns the most recent history point, or ErrNotFound
func (s *MemoryStore) LatestHistoryPoint(ctx context.Context, accountID uuid.UUID) (*models.PortfolioHistoryPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := s.history[accountID]
	if len(points) == 0 {
		return nil, ErrNotFound
	}
	copied := points[len(points)-1]
	return &copied, nil
}

// AppendHistoryPoint appends a new history point
func (s *MemoryStore) AppendHistoryPoint(ctx context.Context, point *models.PortfolioHistoryPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if point.ID == 0 {
		s.nextHistoryID++
		point.ID = s.nextHistoryID
	}
	if point.Timestamp.IsZero() {
		point.Timestamp = time.Now()
	}
	s.history[point.AccountID] = append(s.history[point.AccountID], *point)
	return nil
}

// UpdateHistoryPoint overwrites an existing history point in place
func (s *MemoryStore) UpdateHistoryPoint(ctx context.Context, point *models.PortfolioHistoryPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	points := s.history[point.AccountID]
	for i := range points {
		if points[i].ID == point.ID {
			points[i] = *point
			return nil
		}
	}
	return ErrNotFound
}

// GetPortfolioHistory returns the most recent points in chronological order
func (s *MemoryStore) GetPortfolioHistory(ctx context.Context, accountID uuid.UUID, limit int) ([]models.PortfolioHistoryPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.history[accountID]
	start := 0
	if limit > 0 && len(stored) > limit {
		start = len(stored) - limit
	}
	points := make([]models.PortfolioHistoryPoint, len(stored)-start)
	copy(points, stored[start:])
	return points, nil
}

// PruneHistory discards all but the most recent keep points
func (s *MemoryStore) PruneHistory(ctx context.Context, accountID uuid.UUID, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	points := s.history[accountID]
	if keep <= 0 || len(points) <= keep {
		return nil
	}
	trimmed := make([]models.PortfolioHistoryPoint, keep)
	copy(trimmed, points[len(points)-keep:])
	s.history[accountID] = trimmed
	return nil
}

// WithAccountLock serializes settlement work per account with a lazily
// created mutex. The same store instance is handed to fn; the per-account
// mutex is independent of the data mutex, so fn can call store methods freely.
func (s *MemoryStore) WithAccountLock(ctx context.Context, accountID uuid.UUID, fn func(Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.lockMu.Lock()
	lock, ok := s.accountLocks[accountID]
	if !ok {
		lock = &sync.Mutex{}
		s.accountLocks[accountID] = lock
	}
	s.lockMu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	return fn(s)
}
