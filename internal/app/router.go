package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/godown-ops/godown/internal/access"
	"github.com/godown-ops/godown/internal/auth"
	"github.com/godown-ops/godown/internal/billing"
	"github.com/godown-ops/godown/internal/fleet"
	"github.com/godown-ops/godown/internal/inventory"
	"github.com/godown-ops/godown/internal/observability"
	"github.com/godown-ops/godown/internal/platform/httpx"
	"github.com/godown-ops/godown/internal/pricing"
	"github.com/godown-ops/godown/internal/shared"
	"github.com/godown-ops/godown/internal/trips"
	"github.com/godown-ops/godown/jobs"
)

// HealthCheck reports whether a backing dependency answers.
type HealthCheck func(ctx context.Context) error

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	// Authenticate guards every domain route. It must store a principal
	// in the request context.
	Authenticate func(http.Handler) http.Handler

	AccessHandler    *access.Handler
	FleetHandler     *fleet.Handler
	InventoryHandler *inventory.Handler
	PricingHandler   *pricing.Handler
	TripsHandler     *trips.Handler
	BillingHandler   *billing.Handler
	JobHandler       *jobs.Handler

	Health map[string]HealthCheck
}

// NewRouter constructs the chi.Router with service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Error(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", healthHandler(params.Health))
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		if params.Authenticate != nil {
			r.Use(params.Authenticate)
		}
		if params.TripsHandler != nil {
			r.Route("/trips", params.TripsHandler.MountRoutes)
		}
		if params.BillingHandler != nil {
			r.Route("/bills", params.BillingHandler.MountRoutes)
		}
		if params.InventoryHandler != nil {
			r.Route("/products", params.InventoryHandler.MountRoutes)
		}
		if params.FleetHandler != nil {
			r.Route("/vehicles", params.FleetHandler.MountRoutes)
		}
		if params.PricingHandler != nil {
			r.Route("/daily-pricing", params.PricingHandler.MountRoutes)
		}
		if params.AccessHandler != nil {
			params.AccessHandler.MountRoutes(r)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", func(r chi.Router) {
				r.Use(auth.RequireRole(shared.RoleAdmin))
				params.JobHandler.MountRoutes(r)
			})
		}
	})

	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		status := http.StatusOK
		components := make(map[string]string, len(checks))
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check(ctx); err != nil {
				components[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			components[name] = "ok"
		}
		body := map[string]any{"status": "ok"}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		if len(components) > 0 {
			body["components"] = components
		}
		httpx.JSON(w, status, body)
	}
}
