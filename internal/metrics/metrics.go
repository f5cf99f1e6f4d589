package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	DecisionsTotal     *prometheus.CounterVec
	DecisionLatencyMs  prometheus.Histogram
	RoutedCostUSD      *prometheus.CounterVec
	CircuitTripsTotal  *prometheus.CounterVec
	CircuitState       *prometheus.GaugeVec // 0=closed, 1=open
	BudgetAlertsTotal  *prometheus.CounterVec
	StoreQueueDropped  prometheus.Counter
	OutcomesTotal      *prometheus.CounterVec
}

func New() *Registry {
	reg := prometheus.NewRegistry()
	m := &Registry{
		reg: reg,
		DecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "federation_decisions_total",
			Help: "Total routing decisions, labeled by selected provider and reason (fallback or selected)",
		}, []string{"provider", "reason"}),
		DecisionLatencyMs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "federation_decision_latency_ms",
			Help:    "Time to produce a routing decision in milliseconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		RoutedCostUSD: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "federation_routed_cost_usd_total",
			Help: "Estimated USD cost of routed requests",
		}, []string{"provider"}),
		CircuitTripsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "federation_circuit_trips_total",
			Help: "Total times a provider's circuit breaker tripped open",
		}, []string{"provider"}),
		CircuitState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "federation_circuit_state",
			Help: "Provider circuit breaker state (0=closed, 1=open)",
		}, []string{"provider"}),
		BudgetAlertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "federation_budget_alerts_total",
			Help: "Total budget threshold alerts raised, labeled by level",
		}, []string{"tenant", "level"}),
		StoreQueueDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "federation_store_queue_dropped_total",
			Help: "Total store writes dropped because the async write queue was full",
		}),
		OutcomesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "federation_outcomes_total",
			Help: "Total recorded task outcomes, labeled by provider and status",
		}, []string{"provider", "status"}),
	}
	reg.MustRegister(
		m.DecisionsTotal, m.DecisionLatencyMs, m.RoutedCostUSD,
		m.CircuitTripsTotal, m.CircuitState, m.BudgetAlertsTotal,
		m.StoreQueueDropped, m.OutcomesTotal,
	)
	return m
}

func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
