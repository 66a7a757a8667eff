package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hbeck/ledgersync/internal/adapter/http/handler"
	"github.com/hbeck/ledgersync/internal/adapter/http/middleware"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	TransactionHandler *handler.TransactionHandler
	AccountHandler     *handler.AccountHandler
	SyncHandler        *handler.SyncHandler
	HealthHandler      *handler.HealthHandler
	RateLimiter        *middleware.RateLimiter
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)

	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", cfg.TransactionHandler.List)
			r.Get("/{id}", cfg.TransactionHandler.Get)
			r.Post("/{id}/category", cfg.TransactionHandler.UpdateCategory)
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", cfg.AccountHandler.List)
			r.Post("/{id}/ledger-account", cfg.AccountHandler.Rename)
		})

		r.Route("/sync", func(r chi.Router) {
			r.Post("/splitwise", cfg.SyncHandler.SyncSplitwise)
			r.Post("/bank", cfg.SyncHandler.SyncBank)
			r.Post("/backfill", cfg.SyncHandler.Backfill)
		})

		r.Post("/reconcile", cfg.SyncHandler.Reconcile)
		r.Post("/export", cfg.SyncHandler.Export)
	})

	return r
}
