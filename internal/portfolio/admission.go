/**
 * @description
 * Trade admission policy: pure input validation.
 * Shape checks (symbol length, positive numeric fields, valid enums) run
 * before any state is read. Balance and share-sufficiency checks live inside
 * the settlement critical section in engine.go, so no caller can bypass them.
 *
 * @dependencies
 * - backend/internal/models
 * - github.com/shopspring/decimal
 */

package portfolio

import (
	"fmt"
	"strings"
	"time"

	"github.com/papervest-project/backend/internal/models"
	"github.com/shopspring/decimal"
)

const (
	maxSymbolLength = 12
	expirationLayout = "2006-01-02"
)

// ValidateSymbol normalizes and validates a ticker symbol
func ValidateSymbol(symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", fmt.Errorf("%w: symbol is required", ErrInvalidInput)
	}
	if len(symbol) > maxSymbolLength {
		return "", fmt.Errorf("%w: symbol %q exceeds %d characters", ErrInvalidInput, symbol, maxSymbolLength)
	}
	for _, r := range symbol {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '.' && r != '-' {
			return "", fmt.Errorf("%w: symbol %q contains invalid characters", ErrInvalidInput, symbol)
		}
	}
	return symbol, nil
}

// ValidateStockOrder checks a buy/sell order's shape.
// Returns the normalized symbol.
func ValidateStockOrder(symbol string, quantity int64, price decimal.Decimal) (string, error) {
	normalized, err := ValidateSymbol(symbol)
	if err != nil {
		return "", err
	}
	if quantity <= 0 {
		return "", fmt.Errorf("%w: quantity must be a positive integer", ErrInvalidInput)
	}
	if !price.IsPositive() {
		return "", fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}
	return normalized, nil
}

// OptionTradeRequest describes a proposed option trade
type OptionTradeRequest struct {
	Symbol     string             `json:"symbol"`
	Kind       models.OptionKind  `json:"kind"`
	Strike     decimal.Decimal    `json:"strike"`
	Expiration string             `json:"expiration"` // YYYY-MM-DD
	Contracts  int64              `json:"contracts"`
	Premium    decimal.Decimal    `json:"premium"`
	Action     models.TradeAction `json:"action"`
}

// Validate checks the option order's shape and normalizes the symbol in place
func (r *OptionTradeRequest) Validate() error {
	normalized, err := ValidateSymbol(r.Symbol)
	if err != nil {
		return err
	}
	r.Symbol = normalized

	if !r.Kind.Valid() {
		return fmt.Errorf("%w: kind must be call or put", ErrInvalidInput)
	}
	if !r.Action.Valid() {
		return fmt.Errorf("%w: action must be buy or sell", ErrInvalidInput)
	}
	if r.Contracts <= 0 {
		return fmt.Errorf("%w: contracts must be a positive integer", ErrInvalidInput)
	}
	if !r.Strike.IsPositive() {
		return fmt.Errorf("%w: strike must be positive", ErrInvalidInput)
	}
	if !r.Premium.IsPositive() {
		return fmt.Errorf("%w: premium must be positive", ErrInvalidInput)
	}
	if _, err := time.Parse(expirationLayout, r.Expiration); err != nil {
		return fmt.Errorf("%w: expiration must be a YYYY-MM-DD date", ErrInvalidInput)
	}
	return nil
}

// Total returns contracts × premium × 100
func (r *OptionTradeRequest) Total() decimal.Decimal {
	return r.Premium.
		Mul(decimal.NewFromInt(r.Contracts)).
		Mul(decimal.NewFromInt(models.SharesPerContract))
}
