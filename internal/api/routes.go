/**
 * @description
 * API Route definitions.
 * Sets up the router groups and assigns handlers.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/api/handlers
 * - backend/internal/api/middleware
 * - backend/internal/services
 * - backend/internal/portfolio
 */

package api

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/papervest-project/backend/internal/api/handlers"
	"github.com/papervest-project/backend/internal/api/middleware"
	"github.com/papervest-project/backend/internal/config"
	"github.com/papervest-project/backend/internal/portfolio"
	"github.com/papervest-project/backend/internal/quotes"
	"github.com/papervest-project/backend/internal/services"
	"github.com/papervest-project/backend/internal/store"
	"github.com/redis/go-redis/v9"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, st store.Store, rdb *redis.Client, provider quotes.Provider, engine *portfolio.Engine, cfg *config.Config) {
	// 1. Initialize Middleware
	if err := middleware.InitAuthMiddleware(cfg); err != nil {
		log.Printf("Failed to init auth middleware: %v", err)
		// We don't panic here to allow app to start in dev modes without valid keys,
		// but protected routes will fail.
	}

	// 2. Initialize Services
	accountService := services.NewAccountService(st, cfg)
	watchlistService := services.NewWatchlistService(st, provider)
	leaderboardService := services.NewLeaderboardService(st, engine, rdb, cfg.Trading.LeaderboardMaxSize)

	// 3. Initialize Handlers
	accountHandler := handlers.NewAccountHandler(accountService, st)
	portfolioHandler := handlers.NewPortfolioHandler(engine)
	tradeHandler := handlers.NewTradeHandler(engine)
	watchlistHandler := handlers.NewWatchlistHandler(watchlistService)
	quoteHandler := handlers.NewQuoteHandler(provider, rdb)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)

	// 4. Define Routes
	apiGroup := app.Group("/api")
	v1 := apiGroup.Group("/v1")

	// Public Routes
	v1.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	auth := v1.Group("/auth")
	auth.Post("/register", accountHandler.Register)
	auth.Post("/login", accountHandler.Login)

	// Quote Routes (Public)
	quotesGroup := v1.Group("/quotes")
	quotesGroup.Get("/stream", quoteHandler.StreamQuotes)
	quotesGroup.Get("/:symbol", quoteHandler.GetQuote)

	// Leaderboard (Public)
	v1.Get("/leaderboard", leaderboardHandler.GetLeaderboard)

	// Account Routes (Protected)
	v1.Get("/me", middleware.Protected(), accountHandler.GetMe)

	// Portfolio Routes (Protected)
	portfolioGroup := v1.Group("/portfolio", middleware.Protected())
	portfolioGroup.Get("/", portfolioHandler.GetSummary)
	portfolioGroup.Get("/positions", portfolioHandler.GetPositions)
	portfolioGroup.Get("/options", portfolioHandler.GetOptionPositions)
	portfolioGroup.Get("/history", portfolioHandler.GetHistory)

	// Trade Routes (Protected)
	trades := v1.Group("/trades", middleware.Protected())
	trades.Get("/", tradeHandler.ListTrades)
	trades.Post("/buy", tradeHandler.ExecuteBuy)
	trades.Post("/sell", tradeHandler.ExecuteSell)
	trades.Get("/options", tradeHandler.ListOptionTrades)
	trades.Post("/options", tradeHandler.ExecuteOptionTrade)

	// Watchlist Routes (Protected)
	watchlist := v1.Group("/watchlist", middleware.Protected())
	watchlist.Get("/", watchlistHandler.GetWatchlist)
	watchlist.Post("/", watchlistHandler.AddSymbol)
	watchlist.Delete("/:symbol", watchlistHandler.RemoveSymbol)
}
