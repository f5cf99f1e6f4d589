// Package httpapi exposes the router's HTTP surface: a POST /v1/route
// endpoint that turns a Task into a Decision (without ever calling an
// upstream provider itself), a POST /v1/outcomes endpoint callers use to
// report back what actually happened, and a read-only admin/inspection
// surface over the provider registry, recent decisions, tenant budget
// status, and Prometheus metrics.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jordanhubbard/federation/internal/cost"
	"github.com/jordanhubbard/federation/internal/events"
	"github.com/jordanhubbard/federation/internal/logging"
	"github.com/jordanhubbard/federation/internal/metrics"
	"github.com/jordanhubbard/federation/internal/outcomes"
	"github.com/jordanhubbard/federation/internal/registry"
	"github.com/jordanhubbard/federation/internal/router"
)

// Deps bundles the dependencies the HTTP surface reads from and writes to.
type Deps struct {
	Registry  *registry.Registry
	Router    *router.Router
	Tracker   *outcomes.Tracker
	Decisions *DecisionLog
	Cost      *cost.Estimator
	Metrics   *metrics.Registry
	Bus       *events.Bus
	Logger    *slog.Logger

	// RateLimitRPS and RateLimitBurst bound the write endpoints per tenant.
	// RateLimitRPS <= 0 disables rate limiting entirely.
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter builds the chi router for the routing and admin surface. It
// reuses the caller's logger rather than reinitializing global logging, so
// the process's configured log level isn't silently overridden.
func NewRouter(d Deps, corsOrigins []string) chi.Router {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if d.Metrics != nil {
		r.Get("/metrics", d.Metrics.Handler().ServeHTTP)
	}

	var limiters *tenantLimiters
	if d.RateLimitRPS > 0 {
		burst := d.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		limiters = newTenantLimiters(d.RateLimitRPS, burst)
	}

	r.Route("/v1", func(r chi.Router) {
		r.With(limiters.middleware).Post("/route", routeHandler(d))
		r.With(limiters.middleware).Post("/outcomes", outcomeHandler(d))
		r.Get("/providers", providersHandler(d))
		r.Get("/decisions/recent", decisionsHandler(d))
		r.Get("/budget/{tenant}", budgetHandler(d))
	})

	return r
}

func routeHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Router == nil {
			http.Error(w, "router not configured", http.StatusServiceUnavailable)
			return
		}
		var task router.Task
		if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}

		decision := d.Router.Route(r.Context(), task)

		if d.Decisions != nil {
			d.Decisions.Record(decision)
		}
		if d.Metrics != nil {
			d.Metrics.DecisionsTotal.WithLabelValues(decision.ProviderID, decisionReason(decision)).Inc()
			d.Metrics.RoutedCostUSD.WithLabelValues(decision.ProviderID).Add(decision.EstimatedCost)
		}
		if d.Bus != nil {
			evtType := events.EventRouteDecided
			if decision.Confidence == 0 {
				evtType = events.EventRouteFallback
			}
			d.Bus.Publish(events.Event{
				Type:             evtType,
				TaskID:           decision.TaskID,
				DecisionID:       decision.DecisionID,
				ProviderID:       decision.ProviderID,
				Intent:           string(task.Intent),
				EstimatedCostUSD: decision.EstimatedCost,
				Reason:           decision.Reasoning,
			})
		}

		writeJSON(w, http.StatusOK, decision)
	}
}

// decisionReason reports whether a decision reflects the fallback path or a
// real candidate selection; the optimizer's own reason code isn't carried
// on router.Decision, so this distinguishes only fallback vs selected.
func decisionReason(d router.Decision) string {
	if d.Confidence == 0 && d.ProviderID == "ollama" {
		return "fallback"
	}
	return "selected"
}

func outcomeHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Tracker == nil {
			http.Error(w, "outcome tracker not configured", http.StatusServiceUnavailable)
			return
		}
		var o outcomes.Outcome
		if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		d.Tracker.Record(o)
		if d.Metrics != nil {
			d.Metrics.OutcomesTotal.WithLabelValues(o.ProviderID, string(o.Status)).Inc()
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func providersHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Registry == nil {
			writeJSON(w, http.StatusOK, []registry.Provider{})
			return
		}
		writeJSON(w, http.StatusOK, d.Registry.GetAllSorted())
	}
}

func decisionsHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if q := r.URL.Query().Get("limit"); q != "" {
			if n, err := strconv.Atoi(q); err == nil && n > 0 {
				limit = n
			}
		}
		if d.Decisions == nil {
			writeJSON(w, http.StatusOK, []router.Decision{})
			return
		}
		writeJSON(w, http.StatusOK, d.Decisions.Recent(limit))
	}
}

func budgetHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant := chi.URLParam(r, "tenant")
		if tenant == "" {
			http.Error(w, "tenant is required", http.StatusBadRequest)
			return
		}
		if d.Cost == nil {
			writeJSON(w, http.StatusOK, map[string]float64{})
			return
		}
		now := time.Now()
		writeJSON(w, http.StatusOK, map[string]float64{
			"day":   d.Cost.GetSpend(tenant, "day", now),
			"month": d.Cost.GetSpend(tenant, "month", now),
		})
	}
}
