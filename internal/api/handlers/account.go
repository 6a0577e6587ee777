/**
 * @description
 * Account API Handlers.
 * Handles registration, login, and profile retrieval.
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
	"github.com/papervest-project/backend/internal/services"
	"github.com/papervest-project/backend/internal/store"
)

type AccountHandler struct {
	Service *services.AccountService
	Store   store.Store
}

func NewAccountHandler(service *services.AccountService, st store.Store) *AccountHandler {
	return &AccountHandler{Service: service, Store: st}
}

// RegisterRequest defines the payload for account creation
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest defines the payload for login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates a new account with the starting cash balance
// POST /api/v1/auth/register
func (h *AccountHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	account, err := h.Service.Register(c.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrUsernameTaken) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Username already taken"})
		}
		logger.Error("AccountHandler: registration failed: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	token, err := h.Service.IssueToken(account)
	if err != nil {
		logger.Error("AccountHandler: token issue failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to issue token"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"account": account,
		"token":   token,
	})
}

// Login verifies credentials and returns a signed token
// POST /api/v1/auth/login
func (h *AccountHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	account, token, err := h.Service.Login(c.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid credentials"})
		}
		logger.Error("AccountHandler: login failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Login failed"})
	}

	return c.JSON(fiber.Map{
		"account": account,
		"token":   token,
	})
}

// GetMe returns the authenticated account
// GET /api/v1/me
func (h *AccountHandler) GetMe(c *fiber.Ctx) error {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	account, err := h.Store.GetAccount(c.Context(), accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Account not found"})
		}
		logger.Error("AccountHandler: failed to load account: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load account"})
	}

	return c.JSON(account)
}
