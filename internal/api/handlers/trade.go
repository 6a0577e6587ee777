/**
 * @description
 * HTTP Handlers for trade execution.
 * Maps trade admission failures to client error codes so a rejected trade
 * reads as a rejection, not a server fault.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/portfolio
 * - backend/internal/api/middleware
 */

package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/papervest-project/backend/internal/api/middleware"
	"github.com/papervest-project/backend/internal/logger"
	"github.com/papervest-project/backend/internal/portfolio"
	"github.com/papervest-project/backend/internal/store"
	"github.com/shopspring/decimal"
)

const (
	defaultTradeLimit = 50
	maxTradeLimit     = 200
)

type TradeHandler struct {
	Engine *portfolio.Engine
}

func NewTradeHandler(engine *portfolio.Engine) *TradeHandler {
	return &TradeHandler{Engine: engine}
}

// StockTradeRequest is the payload for buy and sell orders
type StockTradeRequest struct {
	Symbol   string          `json:"symbol"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

func respondTradeError(c *fiber.Ctx, accountID uuid.UUID, err error) error {
	switch {
	case errors.Is(err, portfolio.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, portfolio.ErrInsufficientFunds):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Insufficient funds"})
	case errors.Is(err, portfolio.ErrInsufficientShares):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Insufficient shares"})
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Account not found"})
	default:
		logger.Error("TradeHandler: trade failed for %s: %v", accountID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Trade execution failed"})
	}
}

// ExecuteBuy places a stock buy order
// POST /api/v1/trades/buy
func (h *TradeHandler) ExecuteBuy(c *fiber.Ctx) error {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req StockTradeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	result, err := h.Engine.ExecuteBuy(c.Context(), accountID, req.Symbol, req.Quantity, req.Price)
	if err != nil {
		return respondTradeError(c, accountID, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// ExecuteSell places a stock sell order
// POST /api/v1/trades/sell
func (h *TradeHandler) ExecuteSell(c *fiber.Ctx) error {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req StockTradeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	result, err := h.Engine.ExecuteSell(c.Context(), accountID, req.Symbol, req.Quantity, req.Price)
	if err != nil {
		return respondTradeError(c, accountID, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// ExecuteOptionTrade places an option buy or sell order
// POST /api/v1/trades/options
func (h *TradeHandler) ExecuteOptionTrade(c *fiber.Ctx) error {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req portfolio.OptionTradeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	result, err := h.Engine.ExecuteOptionTrade(c.Context(), accountID, req)
	if err != nil {
		return respondTradeError(c, accountID, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func clampTradeLimit(limit int) int {
	if limit <= 0 {
		return defaultTradeLimit
	}
	if limit > maxTradeLimit {
		return maxTradeLimit
	}
	return limit
}

// ListTrades returns the stock trade ledger, most recent first
// GET /api/v1/trades
func (h *TradeHandler) ListTrades(c *fiber.Ctx) error {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	limit := clampTradeLimit(c.QueryInt("limit", 0))
	trades, err := h.Engine.GetTrades(c.Context(), accountID, limit)
	if err != nil {
		logger.Error("TradeHandler: failed to list trades for %s: %v", accountID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch trades"})
	}
	return c.JSON(trades)
}

// ListOptionTrades returns the option trade ledger, most recent first
// GET /api/v1/trades/options
func (h *TradeHandler) ListOptionTrades(c *fiber.Ctx) error {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	limit := clampTradeLimit(c.QueryInt("limit", 0))
	trades, err := h.Engine.GetOptionTrades(c.Context(), accountID, limit)
	if err != nil {
		logger.Error("TradeHandler: failed to list option trades for %s: %v", accountID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch option trades"})
	}
	return c.JSON(trades)
}
