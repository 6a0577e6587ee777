/**
 * @description
 * Quote API Handlers.
 * Exposes single-symbol quote lookup and a live SSE stream of quote updates.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - github.com/redis/go-redis/v9
 * - backend/internal/quotes
 */

package handlers

import (
	"bufio"
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/papervest-project/backend/internal/logger"
	"github.com/papervest-project/backend/internal/portfolio"
	"github.com/papervest-project/backend/internal/quotes"
	"github.com/redis/go-redis/v9"
)

type QuoteHandler struct {
	Provider quotes.Provider
	Redis    *redis.Client
}

func NewQuoteHandler(provider quotes.Provider, rdb *redis.Client) *QuoteHandler {
	return &QuoteHandler{
		Provider: provider,
		Redis:    rdb,
	}
}

// GetQuote returns the current quote for one symbol
// GET /api/v1/quotes/:symbol
func (h *QuoteHandler) GetQuote(c *fiber.Ctx) error {
	symbol, err := portfolio.ValidateSymbol(c.Params("symbol"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	quote, err := h.Provider.GetQuote(c.Context(), symbol)
	if err != nil {
		logger.Error("QuoteHandler: lookup failed for %s: %v", symbol, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Quote provider unavailable"})
	}
	if quote == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Unknown symbol"})
	}
	return c.JSON(quote)
}

// StreamQuotes streams live quote updates over SSE
// GET /api/v1/quotes/stream
func (h *QuoteHandler) StreamQuotes(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	requestCtx := c.Context()

	ctx, cancel := context.WithCancel(context.Background())

	pubsub := h.Redis.Subscribe(ctx, quotes.QuoteUpdateChannel)
	ch := pubsub.Channel()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			cancel()
			_ = pubsub.Close()
		}()

		requestDone := requestCtx.Done()

		for {
			select {
			case <-requestDone:
				return
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				fmt.Fprintf(w, "data: %s\n\n", msg.Payload)
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})

	return nil
}
