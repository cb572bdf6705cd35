package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/portfoliq/holdings-backend/internal/api/handlers"
	custommiddleware "github.com/portfoliq/holdings-backend/internal/api/middleware"
	"github.com/portfoliq/holdings-backend/internal/config"
	"github.com/portfoliq/holdings-backend/internal/parser"
	"github.com/portfoliq/holdings-backend/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	systemService *service.SystemService,
	importService *service.ImportService,
	holdingService *service.HoldingService,
	classifier *parser.Classifier,
	cfg *config.Config,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(systemService)
			r.Get("/health", systemHandler.Health)
		})

		holdingHandler := handlers.NewHoldingHandler(holdingService)
		r.Get("/holdings", holdingHandler.Holdings)

		r.Route("/uploads", func(r chi.Router) {
			uploadHandler := handlers.NewUploadHandler(importService, classifier)
			r.Post("/zerodha/holdings", uploadHandler.ZerodhaHoldings)
			r.Post("/generic/holdings", uploadHandler.GenericHoldings)
			r.Post("/excel/holdings", uploadHandler.ExcelHoldings)
			r.Post("/pdf/holdings", uploadHandler.PDFHoldings)
			r.Get("/history", holdingHandler.ImportHistory)
		})
	})

	return r
}
