/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     zerolog request logging (see middleware.go)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for a frontend

ROUTE GROUPS:
  /api/restaurants/{rid}/*  Per-restaurant ledger
  /api/scenarios/*          Demo scenarios
  /api/scans                Anomaly scan history and manual trigger
  /api/health               Liveness

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured. origins is the
// CORS allow-list.
func NewRouter(h *Handler, origins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/restaurants/{rid}", func(r chi.Router) {
			r.Get("/snapshot", h.GetSnapshot)
			r.Put("/snapshot", h.ReplaceSnapshot)

			// Product routes
			r.Route("/products", func(r chi.Router) {
				r.Get("/", h.ListProducts)
				r.Post("/", h.CreateProduct)
				r.Get("/{id}", h.GetProduct)
				r.Put("/{id}", h.UpdateProduct)
				r.Delete("/{id}", h.DeleteProduct)
				r.Get("/{id}/timeline", h.GetTimeline)
				r.Get("/{id}/cost", h.GetProductCost)
				r.Post("/{id}/restocks", h.RecordRestock)
				r.Post("/{id}/resets", h.RecordReset)
			})

			// Recipe routes
			r.Route("/recipes", func(r chi.Router) {
				r.Get("/", h.ListRecipes)
				r.Post("/", h.CreateRecipe)
				r.Get("/{id}", h.GetRecipe)
				r.Put("/{id}", h.UpdateRecipe)
				r.Delete("/{id}", h.DeleteRecipe)
				r.Get("/{id}/cost", h.GetRecipeCost)
			})

			r.Get("/sales", h.ListSales)
			r.Post("/sales", h.RecordSale)

			r.Route("/expenses", func(r chi.Router) {
				r.Get("/", h.ListExpenses)
				r.Post("/", h.CreateExpense)
				r.Put("/{id}", h.UpdateExpense)
				r.Delete("/{id}", h.DeleteExpense)
			})

			// Reports
			r.Get("/cogs/daily", h.GetDailyCOGS)
			r.Get("/breakeven", h.GetBreakeven)
			r.Get("/anomalies", h.GetAnomalies)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})

		r.Get("/scans", h.ListScanRuns)
		r.Post("/scans", h.TriggerScan)
	})

	return r
}
