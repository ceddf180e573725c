package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/pharmsight/pharmsight/internal/alerts"
	"github.com/pharmsight/pharmsight/internal/forecast"
	"github.com/pharmsight/pharmsight/internal/narrative"
	"github.com/pharmsight/pharmsight/internal/observability"
	"github.com/pharmsight/pharmsight/internal/replenish"
	"github.com/pharmsight/pharmsight/internal/reporting"
	"github.com/pharmsight/pharmsight/internal/simulation"
	"github.com/pharmsight/pharmsight/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	ForecastHandler   *forecast.Handler
	AlertsHandler     *alerts.Handler
	ReportingHandler  *reporting.Handler
	ReplenishHandler  *replenish.Handler
	SimulationHandler *simulation.Handler
	NarrativeHandler  *narrative.Handler
	JobsHandler       *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.ForecastHandler != nil {
		params.ForecastHandler.MountRoutes(r)
	}
	if params.AlertsHandler != nil {
		params.AlertsHandler.MountRoutes(r)
	}
	if params.ReportingHandler != nil {
		params.ReportingHandler.MountRoutes(r)
	}
	if params.ReplenishHandler != nil {
		params.ReplenishHandler.MountRoutes(r)
	}
	if params.NarrativeHandler != nil {
		params.NarrativeHandler.MountRoutes(r)
	}
	if params.SimulationHandler != nil {
		// Simulation rewrites the whole store; keep it behind a much
		// tighter per-IP limit than the read endpoints.
		limit := 2
		if params.Config != nil && params.Config.SimulationRateLimit > 0 {
			limit = params.Config.SimulationRateLimit
		}
		r.Group(func(r chi.Router) {
			r.Use(httprate.Limit(limit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
			params.SimulationHandler.MountRoutes(r)
		})
	}
	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
