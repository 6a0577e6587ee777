package portfolio

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/papervest-project/backend/internal/config"
	"github.com/papervest-project/backend/internal/models"
	"github.com/papervest-project/backend/internal/quotes"
	"github.com/papervest-project/backend/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider serves canned quotes; symbols not present resolve to (nil, nil)
// the way the real provider reports unknown symbols.
type stubProvider struct {
	quotes map[string]*quotes.Quote
	calls  int
}

func (s *stubProvider) GetQuote(ctx context.Context, symbol string) (*quotes.Quote, error) {
	s.calls++
	quote, ok := s.quotes[symbol]
	if !ok {
		return nil, nil
	}
	return quote, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Trading: config.TradingConfig{
			StartingCash:     100000,
			HistoryInterval:  time.Minute,
			HistoryMaxPoints: 100,
		},
	}
}

func newTestEngine(t *testing.T, provider quotes.Provider) (*Engine, *store.MemoryStore, uuid.UUID) {
	t.Helper()
	if provider == nil {
		provider = &stubProvider{}
	}
	st := store.NewMemoryStore()
	engine := NewEngine(st, provider, testConfig())

	account := &models.Account{
		Username: "trader",
		Cash:     decimal.NewFromInt(100000),
	}
	require.NoError(t, st.CreateAccount(context.Background(), account))
	return engine, st, account.ID
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	want := decimal.RequireFromString(expected)
	assert.True(t, actual.Equal(want), "expected %s, got %s", want, actual)
}

func TestExecuteBuySellScenario(t *testing.T) {
	engine, st, accountID := newTestEngine(t, nil)
	ctx := context.Background()

	result, err := engine.ExecuteBuy(ctx, accountID, "AAPL", 10, decimal.NewFromInt(150))
	require.NoError(t, err)
	assertDecimal(t, "98500", result.Cash)
	require.NotNil(t, result.Position)
	assert.Equal(t, int64(10), result.Position.Quantity)
	assertDecimal(t, "150", result.Position.AveragePrice)

	result, err = engine.ExecuteBuy(ctx, accountID, "AAPL", 5, decimal.NewFromInt(160))
	require.NoError(t, err)
	assertDecimal(t, "97700", result.Cash)
	assert.Equal(t, int64(15), result.Position.Quantity)
	assertDecimal(t, "153.33", result.Position.AveragePrice.Round(2))

	result, err = engine.ExecuteSell(ctx, accountID, "AAPL", 15, decimal.NewFromInt(170))
	require.NoError(t, err)
	assertDecimal(t, "100250", result.Cash)
	assert.Nil(t, result.Position)

	// Selling the full quantity leaves no position row
	_, err = st.GetPosition(ctx, accountID, "AAPL")
	assert.ErrorIs(t, err, store.ErrNotFound)

	trades, err := engine.GetTrades(ctx, accountID, 0)
	require.NoError(t, err)
	require.Len(t, trades, 3)
	assert.Equal(t, models.TradeActionSell, trades[0].Action)
}

func TestWeightedAverageIsOrderIndependent(t *testing.T) {
	ctx := context.Background()

	buy := func(first, second decimal.Decimal) decimal.Decimal {
		engine, _, accountID := newTestEngine(t, nil)
		_, err := engine.ExecuteBuy(ctx, accountID, "MSFT", 5, first)
		require.NoError(t, err)
		result, err := engine.ExecuteBuy(ctx, accountID, "MSFT", 5, second)
		require.NoError(t, err)
		return result.Position.AveragePrice
	}

	forward := buy(decimal.NewFromInt(100), decimal.NewFromInt(110))
	reverse := buy(decimal.NewFromInt(110), decimal.NewFromInt(100))

	assertDecimal(t, "105", forward)
	assert.True(t, forward.Equal(reverse), "average should not depend on buy order")
}

func TestExecuteBuyInsufficientFundsLeavesStateUntouched(t *testing.T) {
	engine, st, _ := newTestEngine(t, nil)
	ctx := context.Background()

	poor := &models.Account{Username: "poor", Cash: decimal.NewFromInt(100)}
	require.NoError(t, st.CreateAccount(ctx, poor))

	_, err := engine.ExecuteBuy(ctx, poor.ID, "X", 1, decimal.NewFromInt(150))
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	cash, err := engine.GetCash(ctx, poor.ID)
	require.NoError(t, err)
	assertDecimal(t, "100", cash)

	positions, err := engine.GetPositions(ctx, poor.ID)
	require.NoError(t, err)
	assert.Empty(t, positions)

	trades, err := engine.GetTrades(ctx, poor.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestExecuteSellInsufficientShares(t *testing.T) {
	engine, _, accountID := newTestEngine(t, nil)
	ctx := context.Background()

	// No position at all
	_, err := engine.ExecuteSell(ctx, accountID, "AAPL", 1, decimal.NewFromInt(150))
	assert.ErrorIs(t, err, ErrInsufficientShares)

	_, err = engine.ExecuteBuy(ctx, accountID, "AAPL", 5, decimal.NewFromInt(150))
	require.NoError(t, err)

	// More than held
	_, err = engine.ExecuteSell(ctx, accountID, "AAPL", 6, decimal.NewFromInt(150))
	assert.ErrorIs(t, err, ErrInsufficientShares)

	// State unchanged by the rejected sell
	cash, err := engine.GetCash(ctx, accountID)
	require.NoError(t, err)
	assertDecimal(t, "99250", cash)

	positions, err := engine.GetPositions(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, int64(5), positions[0].Quantity)

	trades, err := engine.GetTrades(ctx, accountID, 0)
	require.NoError(t, err)
	assert.Len(t, trades, 1)
}

func TestExecuteBuyRejectsInvalidInput(t *testing.T) {
	engine, _, accountID := newTestEngine(t, nil)
	ctx := context.Background()

	cases := []struct {
		name     string
		symbol   string
		quantity int64
		price    decimal.Decimal
	}{
		{"empty symbol", "", 1, decimal.NewFromInt(10)},
		{"zero quantity", "AAPL", 0, decimal.NewFromInt(10)},
		{"negative quantity", "AAPL", -5, decimal.NewFromInt(10)},
		{"zero price", "AAPL", 1, decimal.Zero},
		{"negative price", "AAPL", 1, decimal.NewFromInt(-10)},
		{"overlong symbol", "TOOLONGSYMBOLX", 1, decimal.NewFromInt(10)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.ExecuteBuy(ctx, accountID, tc.symbol, tc.quantity, tc.price)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRefreshPositionsDegradesOnQuoteMiss(t *testing.T) {
	provider := &stubProvider{quotes: map[string]*quotes.Quote{
		"AAPL": {Symbol: "AAPL", CurrentPrice: 180},
	}}
	engine, st, accountID := newTestEngine(t, provider)
	ctx := context.Background()

	_, err := engine.ExecuteBuy(ctx, accountID, "AAPL", 10, decimal.NewFromInt(150))
	require.NoError(t, err)
	_, err = engine.ExecuteBuy(ctx, accountID, "GME", 4, decimal.NewFromInt(25))
	require.NoError(t, err)

	positions, err := engine.RefreshPositions(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, positions, 2)

	byName := map[string]models.Position{}
	for _, position := range positions {
		byName[position.Symbol] = position
	}

	// AAPL refreshed and revalued
	assertDecimal(t, "180", byName["AAPL"].CurrentPrice)
	assertDecimal(t, "1800", byName["AAPL"].TotalValue)
	assertDecimal(t, "300", byName["AAPL"].ProfitLoss)
	assertDecimal(t, "20", byName["AAPL"].ProfitLossPercent)

	// GME has no quote and keeps its last-known (entry) price
	assertDecimal(t, "25", byName["GME"].CurrentPrice)
	assertDecimal(t, "0", byName["GME"].ProfitLoss)

	// The refreshed price was persisted as the new reference
	stored, err := st.GetPosition(ctx, accountID, "AAPL")
	require.NoError(t, err)
	assertDecimal(t, "180", stored.CurrentPrice)
}

func TestPortfolioSummaryIdentity(t *testing.T) {
	provider := &stubProvider{quotes: map[string]*quotes.Quote{
		"AAPL": {Symbol: "AAPL", CurrentPrice: 180},
	}}
	engine, _, accountID := newTestEngine(t, provider)
	ctx := context.Background()

	_, err := engine.ExecuteBuy(ctx, accountID, "AAPL", 10, decimal.NewFromInt(150))
	require.NoError(t, err)

	_, err = engine.ExecuteOptionTrade(ctx, accountID, OptionTradeRequest{
		Symbol:     "AAPL",
		Kind:       models.OptionKindCall,
		Strike:     decimal.NewFromInt(190),
		Expiration: "2026-12-18",
		Contracts:  2,
		Premium:    decimal.NewFromFloat(3.50),
		Action:     models.TradeActionBuy,
	})
	require.NoError(t, err)

	summary, err := engine.GetPortfolioSummary(ctx, accountID)
	require.NoError(t, err)

	// totalValue = cash + stocksValue + optionsValue, exactly
	assert.True(t, summary.TotalValue.Equal(
		summary.Cash.Add(summary.StocksValue).Add(summary.OptionsValue)))

	assertDecimal(t, "1800", summary.StocksValue)
	assertDecimal(t, "700", summary.OptionsValue) // 3.50 × 2 × 100
	assertDecimal(t, "300", summary.DayChange)

	// totalProfitLoss measured against starting cash
	assert.True(t, summary.TotalProfitLoss.Equal(summary.TotalValue.Sub(decimal.NewFromInt(100000))))

	// Idempotent: a second read with unchanged state and quotes matches
	again, err := engine.GetPortfolioSummary(ctx, accountID)
	require.NoError(t, err)
	assert.True(t, summary.TotalValue.Equal(again.TotalValue))
}

func TestPortfolioSummaryEmptyAccount(t *testing.T) {
	engine, _, accountID := newTestEngine(t, nil)
	ctx := context.Background()

	summary, err := engine.GetPortfolioSummary(ctx, accountID)
	require.NoError(t, err)

	assertDecimal(t, "100000", summary.TotalValue)
	assertDecimal(t, "0", summary.TotalProfitLoss)
	assertDecimal(t, "0", summary.DayChange)
	// Division guards: both percentages defined as zero
	assertDecimal(t, "0", summary.DayChangePercent)
	assertDecimal(t, "0", summary.TotalProfitLossPercent)
}

func TestOptionBuyCreatesIndependentLots(t *testing.T) {
	engine, _, accountID := newTestEngine(t, nil)
	ctx := context.Background()

	req := OptionTradeRequest{
		Symbol:     "SPY",
		Kind:       models.OptionKindPut,
		Strike:     decimal.NewFromInt(500),
		Expiration: "2026-09-18",
		Contracts:  1,
		Premium:    decimal.NewFromInt(4),
		Action:     models.TradeActionBuy,
	}

	first, err := engine.ExecuteOptionTrade(ctx, accountID, req)
	require.NoError(t, err)
	assertDecimal(t, "99600", first.Cash)
	require.NotNil(t, first.Lot)

	// A second identical buy creates a second lot, not an averaged one
	second, err := engine.ExecuteOptionTrade(ctx, accountID, req)
	require.NoError(t, err)
	assertDecimal(t, "99200", second.Cash)

	lots, err := engine.GetOptionPositions(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, lots, 2)
	assert.NotEqual(t, lots[0].ID, lots[1].ID)
	assertDecimal(t, "4", lots[0].EntryPremium)
	assertDecimal(t, "4", lots[0].CurrentPremium)
}

func TestOptionBuyInsufficientFunds(t *testing.T) {
	engine, st, _ := newTestEngine(t, nil)
	ctx := context.Background()

	poor := &models.Account{Username: "broke", Cash: decimal.NewFromInt(100)}
	require.NoError(t, st.CreateAccount(ctx, poor))

	_, err := engine.ExecuteOptionTrade(ctx, poor.ID, OptionTradeRequest{
		Symbol:     "SPY",
		Kind:       models.OptionKindCall,
		Strike:     decimal.NewFromInt(500),
		Expiration: "2026-09-18",
		Contracts:  1,
		Premium:    decimal.NewFromInt(4), // total 400 > 100 cash
		Action:     models.TradeActionBuy,
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	lots, err := engine.GetOptionPositions(ctx, poor.ID)
	require.NoError(t, err)
	assert.Empty(t, lots)
}

func TestOptionSellCreditsWithoutHoldingCheck(t *testing.T) {
	engine, _, accountID := newTestEngine(t, nil)
	ctx := context.Background()

	// No lot is held; the sell still settles and credits the premium
	result, err := engine.ExecuteOptionTrade(ctx, accountID, OptionTradeRequest{
		Symbol:     "TSLA",
		Kind:       models.OptionKindPut,
		Strike:     decimal.NewFromInt(200),
		Expiration: "2026-10-16",
		Contracts:  3,
		Premium:    decimal.NewFromInt(2),
		Action:     models.TradeActionSell,
	})
	require.NoError(t, err)
	assertDecimal(t, "100600", result.Cash) // 100000 + 2 × 3 × 100
	assert.Nil(t, result.Lot)

	lots, err := engine.GetOptionPositions(ctx, accountID)
	require.NoError(t, err)
	assert.Empty(t, lots)

	trades, err := engine.GetOptionTrades(ctx, accountID, 0)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, models.TradeActionSell, trades[0].Action)
}

func TestUpdateOptionPremiumMovesUnrealizedValue(t *testing.T) {
	engine, _, accountID := newTestEngine(t, nil)
	ctx := context.Background()

	result, err := engine.ExecuteOptionTrade(ctx, accountID, OptionTradeRequest{
		Symbol:     "AAPL",
		Kind:       models.OptionKindCall,
		Strike:     decimal.NewFromInt(190),
		Expiration: "2026-12-18",
		Contracts:  1,
		Premium:    decimal.NewFromInt(3),
		Action:     models.TradeActionBuy,
	})
	require.NoError(t, err)

	require.NoError(t, engine.UpdateOptionPremium(ctx, accountID, result.Lot.ID, decimal.NewFromInt(5)))

	summary, err := engine.GetPortfolioSummary(ctx, accountID)
	require.NoError(t, err)
	assertDecimal(t, "500", summary.OptionsValue)

	// Premiums must stay positive
	err = engine.UpdateOptionPremium(ctx, accountID, result.Lot.ID, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
