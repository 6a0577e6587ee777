/**
 * @description
 * Account service for registration, login, and token issuing.
 * New accounts start with the configured virtual cash balance.
 *
 * @dependencies
 * - backend/internal/store
 * - github.com/golang-jwt/jwt/v5: Token signing
 * - golang.org/x/crypto/bcrypt: Password hashing
 */

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/papervest-project/backend/internal/config"
	"github.com/papervest-project/backend/internal/logger"
	"github.com/papervest-project/backend/internal/models"
	"github.com/papervest-project/backend/internal/store"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUsernameTaken indicates a registration with an existing username
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidCredentials indicates a failed login
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// AccountService manages account lifecycle and authentication
type AccountService struct {
	store        store.Store
	startingCash decimal.Decimal
	jwtSecret    []byte
	tokenTTL     time.Duration
}

// NewAccountService creates an AccountService from configuration
func NewAccountService(st store.Store, cfg *config.Config) *AccountService {
	return &AccountService{
		store:        st,
		startingCash: decimal.NewFromFloat(cfg.Trading.StartingCash),
		jwtSecret:    []byte(cfg.Auth.JWTSecret),
		tokenTTL:     cfg.Auth.TokenTTL,
	}
}

// Register creates a new account funded with the starting cash balance
func (s *AccountService) Register(ctx context.Context, username, email, password string) (*models.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		Username:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: string(hash),
		Cash:         s.startingCash,
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	logger.Info("AccountService: registered account %s (%s)", account.Username, account.ID)
	return account, nil
}

// Login verifies credentials and returns the account with a signed token
func (s *AccountService) Login(ctx context.Context, username, password string) (*models.Account, string, error) {
	account, err := s.store.GetAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.IssueToken(account)
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

// IssueToken signs an HS256 JWT with the account id as subject
func (s *AccountService) IssueToken(account *models.Account) (string, error) {
	if len(s.jwtSecret) == 0 {
		return "", fmt.Errorf("AUTH_JWT_SECRET is not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": account.ID.String(),
		"iat": now.Unix(),
		"exp": now.Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
