package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/papervest-project/backend/internal/config"
	"github.com/papervest-project/backend/internal/quotes"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Display credential status (without showing actual values)
	fmt.Println("=== Quote Provider Check ===")
	fmt.Printf("Quote API URL: %s\n", cfg.Quotes.BaseURL)

	apiKeySet := cfg.Quotes.APIKey != ""
	fmt.Printf("Quote API Key: %s\n", statusString(apiKeySet))
	fmt.Println()

	if !apiKeySet {
		fmt.Println("❌ Missing QUOTE_API_KEY. Please check your .env file.")
		os.Exit(1)
	}

	client := quotes.NewClient(cfg)

	symbol := "AAPL"
	if len(os.Args) > 1 {
		symbol = os.Args[1]
	}

	fmt.Printf("Fetching quote for %s...\n", symbol)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	quote, err := client.GetQuote(ctx, symbol)
	if err != nil {
		log.Fatalf("❌ Quote fetch failed: %v", err)
	}
	if quote == nil {
		log.Fatalf("❌ Provider does not recognize symbol %q", symbol)
	}

	fmt.Println("✅ Quote provider reachable")
	fmt.Printf("  Symbol:         %s\n", quote.Symbol)
	fmt.Printf("  Current Price:  %.2f\n", quote.CurrentPrice)
	fmt.Printf("  Change:         %.2f (%.2f%%)\n", quote.Change, quote.ChangePercent)
	fmt.Printf("  Previous Close: %.2f\n", quote.PreviousClose)
	fmt.Printf("  Timestamp:      %s\n", quote.Timestamp.Format(time.RFC3339))
}

func statusString(set bool) string {
	if set {
		return "✅ Set"
	}
	return "❌ Not Set"
}
