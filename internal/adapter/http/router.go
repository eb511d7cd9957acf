package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/acctledger/internal/adapter/http/handler"
	"github.com/iho/acctledger/internal/adapter/http/middleware"
)

// RouterConfig holds dependencies for the router. Optional fields left nil
// disable the feature they back.
type RouterConfig struct {
	AccountHandler     *handler.AccountHandler
	TransactionHandler *handler.TransactionHandler
	ImportHandler      *handler.ImportHandler
	LedgerHandler      *handler.LedgerHandler
	HealthHandler      *handler.HealthHandler

	Logger zerolog.Logger

	IdempotencyMiddleware *middleware.IdempotencyMiddleware
	RateLimiter           *middleware.RateLimiter
	Metrics               middleware.RequestMetrics
	MetricsHandler        http.Handler
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))

	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyMiddleware != nil {
			r.Use(cfg.IdempotencyMiddleware.Wrap)
		}

		// Accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/search", cfg.AccountHandler.Search)
			r.Get("/export", cfg.AccountHandler.Export)
			r.Post("/import", cfg.ImportHandler.Import)
			r.Get("/{key}", cfg.AccountHandler.Get)
			r.Put("/{key}", cfg.AccountHandler.Upsert)
			r.Delete("/{key}", cfg.AccountHandler.Delete)
			r.Get("/{key}/transactions", cfg.TransactionHandler.ListByAccount)
		})

		// Transactions
		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", cfg.TransactionHandler.Create)
			r.Get("/", cfg.TransactionHandler.List)
			r.Get("/{id}", cfg.TransactionHandler.Get)
		})

		r.Get("/ledger/summary", cfg.LedgerHandler.Summary)
	})

	return r
}
