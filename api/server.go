/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, the middleware stack and the route table. This
  is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request, echoed in logs
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. Logging:    One slog line per request (logging.Middleware)
  4. Metrics:    Prometheus counters by route pattern
  5. CORS:       Cross-origin requests for the frontend
  6. Auth:       /api only; bearer JWT or X-Actor-ID in dev mode

ROUTE GROUPS:
  /healthz              Liveness (no auth)
  /metrics              Prometheus scrape endpoint (no auth)
  /api/employees/*      Employees, balances, per-employee periods
  /api/policies/*       Month policies
  /api/periods/*        Vacation lifecycle
  /api/modifications/*  Modification review
  /api/suspensions/*    Suspension review
  /api/holidays/*       Holiday calendar
  /api/settings         Calendar toggles
  /api/reports/*        HR reports

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Authentication middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warp/vacation-engine/logging"
)

// Options configures NewRouter.
type Options struct {
	AllowedOrigins []string
	Auth           *Authenticator
	Logger         *slog.Logger
	// Registry receives HTTP metrics and backs /metrics. Nil disables both.
	Registry *prometheus.Registry
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts Options) *chi.Mux {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Auth == nil {
		opts.Auth = NewAuthenticator("", "")
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	// Browsers refuse credentialed responses for a wildcard origin.
	credentials := !slices.Contains(origins, "*")

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logging.Middleware(opts.Logger))
	if opts.Registry != nil {
		r.Use(newHTTPMetrics(opts.Registry).middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", ActorHeader},
		AllowCredentials: credentials,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(opts.Auth.Middleware)

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.SaveEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Put("/{id}/manager", h.AssignManager)
			r.Get("/{id}/balance", h.GetBalance)
			r.Get("/{id}/periods", h.ListPeriods)
		})

		r.Route("/policies", func(r chi.Router) {
			r.Get("/", h.ListPolicies)
			r.Post("/", h.SavePolicy)
		})

		r.Route("/periods", func(r chi.Router) {
			r.Post("/", h.CreatePeriod)
			r.Post("/calculate", h.Calculate)
			r.Post("/submit-batch", h.SubmitBatch)
			r.Get("/{id}", h.GetPeriod)
			r.Put("/{id}", h.EditPeriod)
			r.Delete("/{id}", h.DeletePeriod)
			r.Post("/{id}/submit", h.SubmitPeriod)
			r.Post("/{id}/approve", h.ApprovePeriod)
			r.Post("/{id}/reject", h.RejectPeriod)
			r.Post("/{id}/modifications", h.RequestModification)
			r.Post("/{id}/suspensions", h.RequestSuspension)
			r.Post("/{id}/comments", h.AddComment)
			r.Get("/{id}/audit", h.History)
		})

		r.Route("/modifications", func(r chi.Router) {
			r.Post("/{id}/approve", h.ApproveModification)
			r.Post("/{id}/reject", h.RejectModification)
		})

		r.Route("/suspensions", func(r chi.Router) {
			r.Post("/{id}/approve", h.ApproveSuspension)
			r.Post("/{id}/reject", h.RejectSuspension)
		})

		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
			r.Delete("/{id}", h.DeleteHoliday)
		})

		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.UpdateSettings)

		r.Route("/reports", func(r chi.Router) {
			r.Get("/alerts", h.Alerts)
			r.Get("/planned", h.Planned)
		})
	})

	return r
}
