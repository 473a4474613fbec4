package main

import (
	"fmt"
	"log"
	"os"

	"github.com/pricelens/backend/config"
	httpDelivery "github.com/pricelens/backend/internal/delivery/http"
	"github.com/pricelens/backend/internal/infrastructure/cache"
	"github.com/pricelens/backend/internal/infrastructure/provider"
	"github.com/pricelens/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting PriceLens Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Cache TTL: %s", cfg.Cache.TTL)

	// Initialize infrastructure dependencies
	memoryCache := cache.NewMemoryCache()

	providerClient := provider.NewClient(cfg.Provider.APIKey, cfg.Provider.BaseURL, cfg.Provider.RequestsPerHour)

	// Enable debug mode in development environment
	debug := cfg.Server.Environment == "development"
	if debug {
		providerClient.SetDebug(true)
		log.Printf("Provider client debug mode enabled")
	}

	log.Printf("Provider API configured: %s", cfg.Provider.BaseURL)

	// Initialize usecase layer
	searchService := usecase.NewSearchService(
		providerClient,
		memoryCache,
		usecase.SearchServiceConfig{
			CacheTTL: cfg.Cache.TTL,
			Ranking: usecase.RankingConfig{
				GroupCap:  cfg.Display.GroupCap,
				PageSize:  cfg.Display.PageSize,
				PriceBand: cfg.Display.PriceBand,
			},
			Batch: usecase.BatchConfig{
				MaxAttempts: cfg.Batch.MaxAttempts,
				Backoff:     cfg.Batch.Backoff,
			},
			EnableDebugLogging: debug,
		},
	)

	log.Printf("Display: group_cap=%d, page_size=%d | Batch: max_attempts=%d, backoff=%s",
		cfg.Display.GroupCap,
		cfg.Display.PageSize,
		cfg.Batch.MaxAttempts,
		cfg.Batch.Backoff)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(searchService, cfg.Batch.MaxItems)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
