package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/portfoliq/holdings-backend/internal/api"
	"github.com/portfoliq/holdings-backend/internal/config"
	"github.com/portfoliq/holdings-backend/internal/database"
	"github.com/portfoliq/holdings-backend/internal/marketdata"
	"github.com/portfoliq/holdings-backend/internal/parser"
	"github.com/portfoliq/holdings-backend/internal/pricecache"
	"github.com/portfoliq/holdings-backend/internal/repository"
	"github.com/portfoliq/holdings-backend/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	log.Printf("Connected to database: %s", cfg.Database.Path)

	// Create repositories
	holdingRepo := repository.NewHoldingRepository(db)
	importRepo := repository.NewImportRepository(db)

	// Create market data clients
	stockClient := marketdata.NewStockClient(cfg.MarketData.YahooBaseURL)
	fundClient := marketdata.NewFundClient(cfg.MarketData.MFAPIBaseURL)
	priceCache := pricecache.New(cfg.MarketData.CacheTTL)

	// Create services
	systemService := service.NewSystemService(db)
	priceService := service.NewPriceService(holdingRepo, stockClient, fundClient, priceCache)
	importService := service.NewImportService(db, holdingRepo, importRepo, priceService)
	holdingService := service.NewHoldingService(holdingRepo, importRepo)

	classifier := parser.NewClassifier(parser.DefaultClassifierConfig())

	// Scheduled price refresh
	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.MarketData.RefreshCron, func() {
		updated, err := priceService.RefreshAll(context.Background())
		if err != nil {
			log.Printf("Scheduled price refresh failed: %v", err)
			return
		}
		log.Printf("Scheduled price refresh updated %d holdings", updated)
	})
	if err != nil {
		log.Fatalf("Invalid price refresh schedule %q: %v", cfg.MarketData.RefreshCron, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	if cfg.MarketData.RefreshOnBoot {
		go func() {
			if _, err := priceService.RefreshAll(context.Background()); err != nil {
				log.Printf("Startup price refresh failed: %v", err)
			}
		}()
	}

	// Create router
	router := api.NewRouter(systemService, importService, holdingService, classifier, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
