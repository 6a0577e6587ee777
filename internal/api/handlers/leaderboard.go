/**
 * @description
 * Leaderboard API Handler.
 * Exposes the ranked accounts computed by the leaderboard aggregator.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 */

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/papervest-project/backend/internal/logger"
	"github.com/papervest-project/backend/internal/services"
)

type LeaderboardHandler struct {
	Service *services.LeaderboardService
}

func NewLeaderboardHandler(service *services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{Service: service}
}

// GetLeaderboard returns accounts ranked by total portfolio value
// GET /api/v1/leaderboard
func (h *LeaderboardHandler) GetLeaderboard(c *fiber.Ctx) error {
	entries, err := h.Service.GetLeaderboard(c.Context())
	if err != nil {
		logger.Error("LeaderboardHandler: failed to compute leaderboard: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to compute leaderboard"})
	}
	return c.JSON(entries)
}
