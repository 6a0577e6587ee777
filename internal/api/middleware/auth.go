/**
 * @description
 * Authentication middleware using self-issued HS256 JWTs.
 * Validates Bearer tokens signed by the account service.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2: HTTP Context
 * - github.com/golang-jwt/jwt/v5: JWT parsing
 *
 * @notes
 * - Requires AUTH_JWT_SECRET to be set in configuration.
 */

package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/papervest-project/backend/internal/config"
	"github.com/papervest-project/backend/internal/logger"
)

// AuthMiddlewareConfig holds the verification key
type AuthMiddlewareConfig struct {
	Secret []byte
}

var mwConfig *AuthMiddlewareConfig

// InitAuthMiddleware loads the signing secret. Should be called at startup.
func InitAuthMiddleware(cfg *config.Config) error {
	if cfg.Auth.JWTSecret == "" {
		// In dev/test we might not have this, but it's required for real auth
		logger.Info("⚠️ Warning: AUTH_JWT_SECRET is empty. Auth validation will fail if not mocked.")
		return nil
	}

	mwConfig = &AuthMiddlewareConfig{
		Secret: []byte(cfg.Auth.JWTSecret),
	}
	logger.Info("✅ Auth Middleware Initialized")
	return nil
}

// Protected protects routes requiring authentication
func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if mwConfig == nil || len(mwConfig.Secret) == 0 {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Auth configuration not initialized",
			})
		}

		// 1. Get Token from Header
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing authorization header"})
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token format"})
		}

		// 2. Parse and Validate Token
		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return mwConfig.Secret, nil
		})
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token: " + err.Error()})
		}

		// 3. Validate Claims
		if !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
		}

		// 4. Extract Account ID (sub)
		sub, ok := claims["sub"].(string)
		if !ok || sub == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token missing subject"})
		}
		accountID, err := uuid.Parse(sub)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token subject is not a valid account id"})
		}

		// 5. Set Account ID in Context
		c.Locals("account_id", accountID)

		return c.Next()
	}
}

// GetAccountID returns the authenticated account's id from context
func GetAccountID(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := c.Locals("account_id").(uuid.UUID)
	if !ok {
		return uuid.Nil, errors.New("account id not found in context")
	}
	return id, nil
}
