/**
 * @description
 * Main entry point for the Papervest Backend API.
 * Initializes the Fiber web server, loads configuration, and sets up routes.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2: Web framework
 * - backend/internal/config: Config loader
 * - backend/internal/db: Database connections
 *
 * @notes
 * - Connects to Redis on startup; Postgres only when STORAGE_BACKEND=postgres.
 * - Sets up basic middleware (CORS, Logger, Recover).
 */

package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/papervest-project/backend/internal/api"
	"github.com/papervest-project/backend/internal/config"
	"github.com/papervest-project/backend/internal/db"
	"github.com/papervest-project/backend/internal/portfolio"
	"github.com/papervest-project/backend/internal/quotes"
	"github.com/papervest-project/backend/internal/store"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize the Ledger Store
	var ledger store.Store
	switch cfg.DB.Backend {
	case config.StorageBackendPostgres:
		pgDB, err := db.ConnectPostgres(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		if err := db.Migrate(pgDB); err != nil {
			log.Fatalf("Failed to migrate schema: %v", err)
		}
		ledger = store.NewGormStore(pgDB)
	case config.StorageBackendMemory:
		log.Println("Using in-memory ledger store; state is lost on restart")
		ledger = store.NewMemoryStore()
	default:
		log.Fatalf("Unknown storage backend %q", cfg.DB.Backend)
	}

	// 3. Redis (Quote cache, leaderboard cache, SSE pub/sub)
	redisClient, err := db.ConnectRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// 4. Quote Provider and Valuation Engine
	provider := quotes.NewCachedProvider(quotes.NewClient(cfg), redisClient, cfg.Quotes.CacheTTL)
	engine := portfolio.NewEngine(ledger, provider, cfg)

	// 5. Initialize Fiber App
	app := fiber.New(fiber.Config{
		AppName:       "Papervest Trading Simulator",
		StrictRouting: false,
		CaseSensitive: true,
	})

	// 6. Global Middleware
	app.Use(recover.New()) // Panic recovery
	app.Use(logger.New())  // Request logging
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*", // TODO: Lock this down in production
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// 7. Routes
	api.SetupRoutes(app, ledger, redisClient, provider, engine, cfg)

	// 8. Start Server
	log.Printf("🚀 Starting Papervest Backend on port %s", cfg.Server.Port)
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
