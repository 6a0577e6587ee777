/**
 * @description
 * Watchlist API Handlers.
 * Handles symbol tracking operations.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 * - backend/internal/api/middleware
 */

package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/papervest-project/backend/internal/api/middleware"
	"github.com/papervest-project/backend/internal/logger"
	"github.com/papervest-project/backend/internal/portfolio"
	"github.com/papervest-project/backend/internal/services"
)

// WatchlistHandler handles watchlist-related requests
type WatchlistHandler struct {
	Service *services.WatchlistService
}

// NewWatchlistHandler creates a new WatchlistHandler
func NewWatchlistHandler(service *services.WatchlistService) *WatchlistHandler {
	return &WatchlistHandler{Service: service}
}

// AddSymbolRequest represents an add-to-watchlist request body
type AddSymbolRequest struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// GetWatchlist returns the tracked symbols with live quote data
// GET /api/v1/watchlist
func (h *WatchlistHandler) GetWatchlist(c *fiber.Ctx) error {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	watched, err := h.Service.GetWatchlist(c.Context(), accountID)
	if err != nil {
		logger.Error("WatchlistHandler: failed to load watchlist: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load watchlist"})
	}
	return c.JSON(watched)
}

// AddSymbol adds a symbol to the watchlist
// POST /api/v1/watchlist
func (h *WatchlistHandler) AddSymbol(c *fiber.Ctx) error {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req AddSymbolRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := h.Service.AddSymbol(c.Context(), accountID, req.Symbol, req.Name); err != nil {
		if errors.Is(err, portfolio.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		logger.Error("WatchlistHandler: failed to add symbol: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to add symbol"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"symbol":  req.Symbol,
	})
}

// RemoveSymbol removes a symbol from the watchlist
// DELETE /api/v1/watchlist/:symbol
func (h *WatchlistHandler) RemoveSymbol(c *fiber.Ctx) error {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	symbol := c.Params("symbol")
	if err := h.Service.RemoveSymbol(c.Context(), accountID, symbol); err != nil {
		if errors.Is(err, portfolio.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		logger.Error("WatchlistHandler: failed to remove symbol: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to remove symbol"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"symbol":  symbol,
	})
}
