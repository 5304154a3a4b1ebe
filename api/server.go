/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the dashboard

ROUTE GROUPS:
  /importar, /importacoes   Workbook import and history
  /reservas/*               Listing and monthly bookings
  /destinos/*               Destination aggregations
  /clientes/*               Customer aggregations
  /analytics/*              Aggregations by name
  /scenarios/*              Demo workbooks
  /health                   Liveness

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
	"github.com/op/go-logging"
	"github.com/viajante/agency-analytics/agency"
)

var log = logging.MustGetLogger("api")

// DefaultOrigins are the local dashboard origins.
var DefaultOrigins = []string{
	"http://localhost:5173",
	"http://localhost:5174",
	"http://localhost:3000",
	"http://localhost:8080",
	"http://localhost",
}

// NewRouter creates a new router with all routes configured. An empty
// origins list falls back to DefaultOrigins.
func NewRouter(h *Handler, origins []string) *chi.Mux {
	if len(origins) == 0 {
		origins = DefaultOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", h.Health)

	// Import routes
	r.Post("/importar", h.ImportWorkbook)
	r.Get("/importacoes", h.ListImportRuns)

	// Reservation routes
	r.Route("/reservas", func(r chi.Router) {
		r.Get("/listar", h.ListReservations)
		r.Get("/mensal", h.Aggregation(agency.MonthlyBookings))
	})

	// Destination routes
	r.Route("/destinos", func(r chi.Router) {
		r.Get("/top-margem", h.Aggregation(agency.TopMarginDestinations))
		r.Get("/rentabilidade", h.Aggregation(agency.DestinationProfitability))
	})

	// Customer routes
	r.Route("/clientes", func(r chi.Router) {
		r.Get("/receita_canal", h.Aggregation(agency.RevenueByChannel))
		r.Get("/crescimento", h.Aggregation(agency.CustomerGrowth))
		r.Get("/fidelidade", h.Aggregation(agency.CustomerLoyalty))
	})

	// Aggregations by name
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/", h.ListAggregations)
		r.Get("/{name}", h.GetAggregation)
	})

	// Scenario routes
	r.Route("/scenarios", func(r chi.Router) {
		r.Get("/", h.ListScenarios)
		r.Get("/current", h.GetCurrentScenario)
		r.Post("/load", h.LoadScenario)
	})

	return r
}
