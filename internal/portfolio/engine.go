/**
 * @description
 * Valuation engine: the money core of the simulator.
 * Derives position values and portfolio aggregates from stored state plus
 * fresh quotes, and gates trade execution behind the admission policy and the
 * store's per-account critical section.
 *
 * @dependencies
 * - backend/internal/store
 * - backend/internal/quotes
 * - backend/internal/models
 * - github.com/shopspring/decimal
 *
 * @notes
 * - Money math uses fixed-point decimals throughout; rounding to 2 decimals
 *   happens only at presentation boundaries.
 * - Trade execution trusts the caller-supplied price. Prices are not
 *   re-verified against the quote provider at settlement time.
 */

package portfolio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/papervest-project/backend/internal/config"
	"github.com/papervest-project/backend/internal/logger"
	"github.com/papervest-project/backend/internal/models"
	"github.com/papervest-project/backend/internal/quotes"
	"github.com/papervest-project/backend/internal/store"
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Engine computes valuations and settles trades for one ledger store.
type Engine struct {
	store           store.Store
	quotes          quotes.Provider
	startingCash    decimal.Decimal
	historyInterval time.Duration
	historyCap      int

	// now is swappable for tests
	now func() time.Time
}

// NewEngine creates a valuation engine over a store and quote provider
func NewEngine(st store.Store, provider quotes.Provider, cfg *config.Config) *Engine {
	return &Engine{
		store:           st,
		quotes:          provider,
		startingCash:    decimal.NewFromFloat(cfg.Trading.StartingCash),
		historyInterval: cfg.Trading.HistoryInterval,
		historyCap:      cfg.Trading.HistoryMaxPoints,
		now:             time.Now,
	}
}

// StartingCash returns the configured starting balance for new accounts
func (e *Engine) StartingCash() decimal.Decimal {
	return e.startingCash
}

// Summary is the portfolio-level aggregate returned by GetPortfolioSummary.
type Summary struct {
	Cash                   decimal.Decimal `json:"cash"`
	StocksValue            decimal.Decimal `json:"stocks_value"`
	OptionsValue           decimal.Decimal `json:"options_value"`
	TotalValue             decimal.Decimal `json:"total_value"`
	TotalProfitLoss        decimal.Decimal `json:"total_profit_loss"`
	TotalProfitLossPercent decimal.Decimal `json:"total_profit_loss_percent"`
	// DayChange sums each position's lifetime unrealized P&L. The name is
	// kept for chart compatibility even though it is not a close-to-now delta.
	DayChange        decimal.Decimal         `json:"day_change"`
	DayChangePercent decimal.Decimal         `json:"day_change_percent"`
	Positions        []models.Position       `json:"positions"`
	OptionPositions  []models.OptionPosition `json:"option_positions"`
}

// revalue recomputes a position's derived fields from its current price
func revalue(position *models.Position) {
	quantity := decimal.NewFromInt(position.Quantity)
	position.TotalValue = position.CurrentPrice.Mul(quantity)
	costBasis := position.AveragePrice.Mul(quantity)
	position.ProfitLoss = position.TotalValue.Sub(costBasis)
	if costBasis.IsZero() {
		position.ProfitLossPercent = decimal.Zero
	} else {
		position.ProfitLossPercent = position.ProfitLoss.Div(costBasis).Mul(oneHundred)
	}
}

// RefreshPositions refreshes every stock position from the quote provider.
// Symbols the provider cannot resolve keep their last-known price; a provider
// miss degrades that one position, never the whole call. Refreshed prices are
// persisted back as the new reference until the next refresh.
func (e *Engine) RefreshPositions(ctx context.Context, accountID uuid.UUID) ([]models.Position, error) {
	positions, err := e.store.GetPositions(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}

	symbols := make([]string, 0, len(positions))
	for _, position := range positions {
		symbols = append(symbols, position.Symbol)
	}
	lookup := quotes.Snapshot(ctx, e.quotes, symbols)

	for i := range positions {
		position := &positions[i]
		if quote, ok := lookup[position.Symbol]; ok {
			position.CurrentPrice = decimal.NewFromFloat(quote.CurrentPrice)
			if err := e.store.UpdatePositionPrice(ctx, accountID, position.Symbol, position.CurrentPrice); err != nil {
				// A lost price write only means a slightly staler reference
				logger.Error("Engine: failed to persist refreshed price for %s: %v", position.Symbol, err)
			}
		}
		revalue(position)
	}

	return positions, nil
}

// GetPortfolioSummary computes the account's full valuation snapshot and
// records a portfolio-history point as a side effect. Deterministic for a
// fixed store state and quote set.
func (e *Engine) GetPortfolioSummary(ctx context.Context, accountID uuid.UUID) (*Summary, error) {
	summary, err := e.ComputeSummary(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := e.RecordPortfolioValue(ctx, accountID, summary.TotalValue); err != nil {
		return nil, fmt.Errorf("failed to record portfolio value: %w", err)
	}
	return summary, nil
}

// ComputeSummary values the account without recording history.
// Used by GetPortfolioSummary and by the leaderboard aggregator.
func (e *Engine) ComputeSummary(ctx context.Context, accountID uuid.UUID) (*Summary, error) {
	account, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	positions, err := e.RefreshPositions(ctx, accountID)
	if err != nil {
		return nil, err
	}

	lots, err := e.store.GetOptionPositions(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load option positions: %w", err)
	}

	summary := &Summary{
		Cash:            account.Cash,
		StocksValue:     decimal.Zero,
		OptionsValue:    decimal.Zero,
		DayChange:       decimal.Zero,
		Positions:       positions,
		OptionPositions: lots,
	}

	for _, position := range positions {
		summary.StocksValue = summary.StocksValue.Add(position.TotalValue)
		summary.DayChange = summary.DayChange.Add(position.ProfitLoss)
	}
	for _, lot := range lots {
		summary.OptionsValue = summary.OptionsValue.Add(lot.NotionalValue())
	}

	summary.TotalValue = account.Cash.Add(summary.StocksValue).Add(summary.OptionsValue)
	summary.TotalProfitLoss = summary.TotalValue.Sub(e.startingCash)
	summary.TotalProfitLossPercent = summary.TotalProfitLoss.Div(e.startingCash).Mul(oneHundred)
	if summary.StocksValue.IsZero() {
		summary.DayChangePercent = decimal.Zero
	} else {
		summary.DayChangePercent = summary.DayChange.Div(summary.StocksValue).Mul(oneHundred)
	}

	return summary, nil
}

// TradeResult reports the outcome of a settled stock trade
type TradeResult struct {
	Trade models.Trade `json:"trade"`
	Cash  decimal.Decimal `json:"cash"`
	// Position is nil when the trade closed it out
	Position *models.Position `json:"position,omitempty"`
}

// ExecuteBuy settles a stock buy: cash debit, weighted-average position
// upsert, and trade append as one atomic unit inside the account lock.
func (e *Engine) ExecuteBuy(ctx context.Context, accountID uuid.UUID, symbol string, quantity int64, price decimal.Decimal) (*TradeResult, error) {
	symbol, err := ValidateStockOrder(symbol, quantity, price)
	if err != nil {
		return nil, err
	}
	total := price.Mul(decimal.NewFromInt(quantity))

	var result TradeResult
	err = e.store.WithAccountLock(ctx, accountID, func(tx store.Store) error {
		account, err := tx.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		if total.GreaterThan(account.Cash) {
			return ErrInsufficientFunds
		}

		position, err := tx.GetPosition(ctx, accountID, symbol)
		switch {
		case err == nil:
			// Weighted-average cost basis across buys
			oldQuantity := decimal.NewFromInt(position.Quantity)
			newQuantity := position.Quantity + quantity
			combined := position.AveragePrice.Mul(oldQuantity).Add(total)
			position.AveragePrice = combined.Div(decimal.NewFromInt(newQuantity))
			position.Quantity = newQuantity
		case errors.Is(err, store.ErrNotFound):
			position = &models.Position{
				AccountID:    accountID,
				Symbol:       symbol,
				Quantity:     quantity,
				AveragePrice: price,
				CurrentPrice: price,
			}
		default:
			return err
		}

		if err := tx.UpdateAccountCash(ctx, accountID, account.Cash.Sub(total)); err != nil {
			return err
		}
		if err := tx.SavePosition(ctx, position); err != nil {
			return err
		}

		trade := models.Trade{
			AccountID: accountID,
			Symbol:    symbol,
			Action:    models.TradeActionBuy,
			Quantity:  quantity,
			Price:     price,
			Total:     total,
		}
		if err := tx.AppendTrade(ctx, &trade); err != nil {
			return err
		}

		revalue(position)
		result = TradeResult{
			Trade:    trade,
			Cash:     account.Cash.Sub(total),
			Position: position,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ExecuteSell settles a stock sell: cash credit, quantity decrement (the row
// is deleted at zero; cost basis is never recomputed on sells), and trade
// append as one atomic unit inside the account lock.
func (e *Engine) ExecuteSell(ctx context.Context, accountID uuid.UUID, symbol string, quantity int64, price decimal.Decimal) (*TradeResult, error) {
	symbol, err := ValidateStockOrder(symbol, quantity, price)
	if err != nil {
		return nil, err
	}
	total := price.Mul(decimal.NewFromInt(quantity))

	var result TradeResult
	err = e.store.WithAccountLock(ctx, accountID, func(tx store.Store) error {
		account, err := tx.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}

		position, err := tx.GetPosition(ctx, accountID, symbol)
		if errors.Is(err, store.ErrNotFound) {
			return ErrInsufficientShares
		}
		if err != nil {
			return err
		}
		if position.Quantity < quantity {
			return ErrInsufficientShares
		}

		if err := tx.UpdateAccountCash(ctx, accountID, account.Cash.Add(total)); err != nil {
			return err
		}

		position.Quantity -= quantity
		if position.Quantity == 0 {
			if err := tx.DeletePosition(ctx, accountID, symbol); err != nil {
				return err
			}
			position = nil
		} else {
			if err := tx.SavePosition(ctx, position); err != nil {
				return err
			}
		}

		trade := models.Trade{
			AccountID: accountID,
			Symbol:    symbol,
			Action:    models.TradeActionSell,
			Quantity:  quantity,
			Price:     price,
			Total:     total,
		}
		if err := tx.AppendTrade(ctx, &trade); err != nil {
			return err
		}

		if position != nil {
			revalue(position)
		}
		result = TradeResult{
			Trade:    trade,
			Cash:     account.Cash.Add(total),
			Position: position,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// OptionTradeResult reports the outcome of a settled option trade
type OptionTradeResult struct {
	Trade models.OptionTrade `json:"trade"`
	Cash  decimal.Decimal    `json:"cash"`
	// Lot is the newly created position on buys; nil on sells
	Lot *models.OptionPosition `json:"lot,omitempty"`
}

// ExecuteOptionTrade settles an option buy or sell.
// Buys require sufficient cash and create a new independent lot. Sells credit
// the premium unconditionally without checking or reducing any held lot — the
// simulator permits uncovered option writing.
func (e *Engine) ExecuteOptionTrade(ctx context.Context, accountID uuid.UUID, req OptionTradeRequest) (*OptionTradeResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	total := req.Total()

	var result OptionTradeResult
	err := e.store.WithAccountLock(ctx, accountID, func(tx store.Store) error {
		account, err := tx.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}

		var newCash decimal.Decimal
		var lot *models.OptionPosition
		if req.Action == models.TradeActionBuy {
			if total.GreaterThan(account.Cash) {
				return ErrInsufficientFunds
			}
			newCash = account.Cash.Sub(total)
			lot = &models.OptionPosition{
				AccountID:      accountID,
				Symbol:         req.Symbol,
				Kind:           req.Kind,
				Strike:         req.Strike,
				Expiration:     req.Expiration,
				Contracts:      req.Contracts,
				EntryPremium:   req.Premium,
				CurrentPremium: req.Premium,
			}
		} else {
			newCash = account.Cash.Add(total)
		}

		if err := tx.UpdateAccountCash(ctx, accountID, newCash); err != nil {
			return err
		}
		if lot != nil {
			if err := tx.CreateOptionPosition(ctx, lot); err != nil {
				return err
			}
		}

		trade := models.OptionTrade{
			AccountID:  accountID,
			Symbol:     req.Symbol,
			Kind:       req.Kind,
			Strike:     req.Strike,
			Expiration: req.Expiration,
			Action:     req.Action,
			Contracts:  req.Contracts,
			Premium:    req.Premium,
			Total:      total,
		}
		if err := tx.AppendOptionTrade(ctx, &trade); err != nil {
			return err
		}

		result = OptionTradeResult{
			Trade: trade,
			Cash:  newCash,
			Lot:   lot,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateOptionPremium is the operator path for marking a lot to a new premium.
// Premiums are otherwise static after entry; no live option quote source is wired.
func (e *Engine) UpdateOptionPremium(ctx context.Context, accountID, lotID uuid.UUID, premium decimal.Decimal) error {
	if !premium.IsPositive() {
		return fmt.Errorf("%w: premium must be positive", ErrInvalidInput)
	}
	return e.store.UpdateOptionPremium(ctx, accountID, lotID, premium)
}

// GetCash returns the account's cash balance
func (e *Engine) GetCash(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	account, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Cash, nil
}

// GetPositions returns stored positions revalued at their last-known prices,
// without calling the quote provider
func (e *Engine) GetPositions(ctx context.Context, accountID uuid.UUID) ([]models.Position, error) {
	positions, err := e.store.GetPositions(ctx, accountID)
	if err != nil {
		return nil, err
	}
	for i := range positions {
		revalue(&positions[i])
	}
	return positions, nil
}

// GetOptionPositions returns all option lots for the account
func (e *Engine) GetOptionPositions(ctx context.Context, accountID uuid.UUID) ([]models.OptionPosition, error) {
	return e.store.GetOptionPositions(ctx, accountID)
}

// GetTrades returns the stock trade ledger, most recent first
func (e *Engine) GetTrades(ctx context.Context, accountID uuid.UUID, limit int) ([]models.Trade, error) {
	return e.store.GetTrades(ctx, accountID, limit)
}

// GetOptionTrades returns the option trade ledger, most recent first
func (e *Engine) GetOptionTrades(ctx context.Context, accountID uuid.UUID, limit int) ([]models.OptionTrade, error) {
	return e.store.GetOptionTrades(ctx, accountID, limit)
}

// GetWatchlist returns the account's watchlist
func (e *Engine) GetWatchlist(ctx context.Context, accountID uuid.UUID) ([]models.WatchlistItem, error) {
	return e.store.GetWatchlist(ctx, accountID)
}

// GetPortfolioHistory returns the retained history window in chronological order
func (e *Engine) GetPortfolioHistory(ctx context.Context, accountID uuid.UUID) ([]models.PortfolioHistoryPoint, error) {
	return e.store.GetPortfolioHistory(ctx, accountID, e.historyCap)
}
