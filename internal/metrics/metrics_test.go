package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNew(t *testing.T) {
	r := New()
	if r == nil {
		t.Fatal("expected non-nil Registry")
	}
	if r.reg == nil {
		t.Fatal("expected non-nil prometheus registry")
	}
	if r.DecisionsTotal == nil {
		t.Fatal("expected non-nil DecisionsTotal counter")
	}
	if r.DecisionLatencyMs == nil {
		t.Fatal("expected non-nil DecisionLatencyMs histogram")
	}
	if r.RoutedCostUSD == nil {
		t.Fatal("expected non-nil RoutedCostUSD counter")
	}
}

func TestHandlerNonNil(t *testing.T) {
	r := New()
	h := r.Handler()
	if h == nil {
		t.Fatal("expected non-nil http.Handler from Handler()")
	}
}

func TestMetricsCanBeCollected(t *testing.T) {
	r := New()

	r.DecisionsTotal.WithLabelValues("groq", "ucb_optimization").Inc()
	r.RoutedCostUSD.WithLabelValues("groq").Add(0.01)
	r.DecisionLatencyMs.Observe(1.5)
	r.CircuitState.WithLabelValues("groq").Set(0)

	mfs, err := r.reg.Gather()
	if err != nil {
		t.Fatalf("unexpected error gathering metrics: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatal("expected at least one metric family after recording values")
	}

	names := make(map[string]bool)
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}

	want := []string{
		"federation_decisions_total",
		"federation_decision_latency_ms",
		"federation_routed_cost_usd_total",
		"federation_circuit_state",
	}
	for _, name := range want {
		if !names[name] {
			t.Errorf("expected metric %q in gathered metrics", name)
		}
	}
}

func TestMultipleRegistriesAreIndependent(t *testing.T) {
	r1 := New()
	r2 := New()

	r1.DecisionsTotal.WithLabelValues("groq", "ucb_optimization").Inc()

	mfs, err := r2.reg.Gather()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			if m.GetCounter() != nil && m.GetCounter().GetValue() > 0 {
				t.Error("r2 should not have any non-zero counters")
			}
		}
	}
}

func TestRegisteredMetricDescriptions(t *testing.T) {
	r := New()

	ch := make(chan *prometheus.Desc, 10)
	go func() {
		r.DecisionsTotal.Describe(ch)
		r.RoutedCostUSD.Describe(ch)
		r.CircuitState.Describe(ch)
		close(ch)
	}()

	count := 0
	for range ch {
		count++
	}
	if count != 3 {
		t.Errorf("expected 3 metric descriptors, got %d", count)
	}
}
