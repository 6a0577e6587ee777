/**
 * @description
 * Configuration loader for the Papervest backend.
 * Responsible for reading environment variables, setting defaults, and performing strict validation.
 *
 * @dependencies
 * - github.com/joho/godotenv: For loading .env files
 * - standard "os": For reading env vars
 * - standard "fmt": For error reporting
 *
 * @notes
 * - Fails fast if the postgres backend is selected without a DATABASE_URL.
 * - Uses a Singleton-like pattern where Load() returns a Config struct.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backend selectors
const (
	StorageBackendPostgres = "postgres"
	StorageBackendMemory   = "memory"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Redis   RedisConfig
	Quotes  QuotesConfig
	Auth    AuthConfig
	Trading TradingConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
	Env  string // "development" or "production"
}

// DBConfig holds persistence settings
type DBConfig struct {
	URL     string
	Backend string // "postgres" or "memory"
}

// RedisConfig holds Redis settings
type RedisConfig struct {
	URL string
}

// QuotesConfig holds quote provider settings
type QuotesConfig struct {
	BaseURL  string
	APIKey   string
	CacheTTL time.Duration
}

// AuthConfig holds token signing settings
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// TradingConfig holds simulation parameters
type TradingConfig struct {
	StartingCash       float64
	HistoryInterval    time.Duration // coalescing window for portfolio history points
	HistoryMaxPoints   int
	LeaderboardMaxSize int
}

// Load reads .env file and populates the Config struct
func Load() (*Config, error) {
	// Attempt to load .env, but don't crash if it fails (prod might inject env vars directly)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("GO_ENV", "development"),
		},
		DB: DBConfig{
			URL:     getEnv("DATABASE_URL", ""),
			Backend: strings.ToLower(getEnv("STORAGE_BACKEND", StorageBackendPostgres)),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Quotes: QuotesConfig{
			BaseURL:  getEnv("QUOTE_API_URL", "https://finnhub.io/api/v1"),
			APIKey:   sanitizeCredential(getEnv("QUOTE_API_KEY", "")),
			CacheTTL: time.Duration(getEnvAsInt("QUOTE_CACHE_TTL_SECONDS", 60)) * time.Second,
		},
		Auth: AuthConfig{
			JWTSecret: sanitizeCredential(getEnv("AUTH_JWT_SECRET", "")),
			TokenTTL:  time.Duration(getEnvAsInt("AUTH_TOKEN_TTL_MINUTES", 24*60)) * time.Minute,
		},
		Trading: TradingConfig{
			StartingCash:       getEnvAsFloat("TRADING_STARTING_CASH", 100000),
			HistoryInterval:    time.Duration(getEnvAsInt("HISTORY_INTERVAL_SECONDS", 60)) * time.Second,
			HistoryMaxPoints:   getEnvAsInt("HISTORY_MAX_POINTS", 100),
			LeaderboardMaxSize: getEnvAsInt("LEADERBOARD_MAX_SIZE", 50),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks for required variables
func validate(cfg *Config) error {
	switch cfg.DB.Backend {
	case StorageBackendPostgres:
		if cfg.DB.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND=postgres")
		}
	case StorageBackendMemory:
		// No persistence requirements
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q (expected postgres or memory)", cfg.DB.Backend)
	}
	if cfg.Auth.JWTSecret == "" && cfg.Server.Env != "test" {
		fmt.Println("Warning: AUTH_JWT_SECRET is missing. Auth middleware will reject all tokens.")
	}
	if cfg.Trading.StartingCash <= 0 {
		return fmt.Errorf("TRADING_STARTING_CASH must be positive")
	}
	if cfg.Trading.HistoryMaxPoints <= 0 {
		return fmt.Errorf("HISTORY_MAX_POINTS must be positive")
	}
	return nil
}

// Helper to get env var with default
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func sanitizeCredential(value string) string {
	trimmed := strings.TrimSpace(value)
	return strings.Trim(trimmed, "\"")
}

// Helper to get env var as int
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

// Helper to get env var as float
func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return fallback
}
