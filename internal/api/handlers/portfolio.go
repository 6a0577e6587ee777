/**
 * @description
 * Portfolio API Handlers.
 * Exposes the valuation engine's read operations: summary, positions,
 * option lots, and value history.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/portfolio
 * - backend/internal/api/middleware
 */

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/papervest-project/backend/internal/api/middleware"
	"github.com/papervest-project/backend/internal/logger"
	"github.com/papervest-project/backend/internal/portfolio"
)

type PortfolioHandler struct {
	Engine *portfolio.Engine
}

func NewPortfolioHandler(engine *portfolio.Engine) *PortfolioHandler {
	return &PortfolioHandler{Engine: engine}
}

// GetSummary returns the full portfolio valuation snapshot
// GET /api/v1/portfolio
func (h *PortfolioHandler) GetSummary(c *fiber.Ctx) error {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	summary, err := h.Engine.GetPortfolioSummary(c.Context(), accountID)
	if err != nil {
		logger.Error("PortfolioHandler: summary failed for %s: %v", accountID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to compute portfolio summary"})
	}

	return c.JSON(summary)
}

// GetPositions returns refreshed stock positions
// GET /api/v1/portfolio/positions
func (h *PortfolioHandler) GetPositions(c *fiber.Ctx) error {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	positions, err := h.Engine.RefreshPositions(c.Context(), accountID)
	if err != nil {
		logger.Error("PortfolioHandler: positions failed for %s: %v", accountID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load positions"})
	}

	return c.JSON(positions)
}

// GetOptionPositions returns all option lots
// GET /api/v1/portfolio/options
func (h *PortfolioHandler) GetOptionPositions(c *fiber.Ctx) error {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	lots, err := h.Engine.GetOptionPositions(c.Context(), accountID)
	if err != nil {
		logger.Error("PortfolioHandler: option lots failed for %s: %v", accountID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load option positions"})
	}

	return c.JSON(lots)
}

// GetHistory returns the retained portfolio value series
// GET /api/v1/portfolio/history
func (h *PortfolioHandler) GetHistory(c *fiber.Ctx) error {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	history, err := h.Engine.GetPortfolioHistory(c.Context(), accountID)
	if err != nil {
		logger.Error("PortfolioHandler: history failed for %s: %v", accountID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load portfolio history"})
	}

	return c.JSON(history)
}
