package registry

import (
	"testing"
	"time"
)

func TestSaveAndGet_PreservesFields(t *testing.T) {
	r := New()
	p := DefaultProviders()[0]
	r.Save(p)

	got, ok := r.Get(p.ID)
	if !ok {
		t.Fatal("expected provider to be present")
	}
	if got.Tier != p.Tier || got.Cost != p.Cost {
		t.Fatalf("fields not preserved: got %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatal("expected UpdatedAt to be set")
	}
}

func TestGetAll_SnapshotIsolation(t *testing.T) {
	r := New()
	r.Save(Provider{ID: "a", Enabled: true})

	snap := r.GetAll()
	r.Save(Provider{ID: "b", Enabled: true})

	if _, ok := snap["b"]; ok {
		t.Fatal("snapshot should not observe a write that happened after it was taken")
	}
	if len(r.GetAll()) != 2 {
		t.Fatal("expected the live registry to see both providers")
	}
}

func TestIsAvailable_RequiresEnabledAndHealthy(t *testing.T) {
	r := New()
	r.Save(Provider{ID: "p", Enabled: false, Health: Health{Status: StatusHealthy}})
	if r.IsAvailable("p") {
		t.Fatal("disabled provider must not be available")
	}

	r.Save(Provider{ID: "p", Enabled: true, Health: Health{Status: StatusUnhealthy}})
	if r.IsAvailable("p") {
		t.Fatal("unhealthy provider must not be available")
	}

	r.Save(Provider{ID: "p", Enabled: true, Health: Health{Status: StatusDegraded}})
	if !r.IsAvailable("p") {
		t.Fatal("degraded provider should still be available")
	}
}

func TestCircuitBreaker_TripsAndRecovers(t *testing.T) {
	now := time.Now()
	r := New(WithClock(func() time.Time { return now }), WithConfig(Config{
		FailureThreshold: 5,
		CooldownDuration: 60 * time.Second,
		LatencyEMAAlpha:  0.1,
	}))
	r.Save(Provider{ID: "p", Enabled: true, Health: Health{Status: StatusHealthy, ConsecutiveFailures: 4}})

	r.RecordFailure("p")
	p, _ := r.Get("p")
	if !p.Health.CircuitOpen {
		t.Fatal("expected circuit to open on the 5th consecutive failure")
	}
	if r.IsAvailable("p") {
		t.Fatal("provider must be unavailable while the circuit is open")
	}

	// Still within the cooldown window.
	now = now.Add(59 * time.Second)
	if r.IsAvailable("p") {
		t.Fatal("provider must remain unavailable before circuit_open_until")
	}

	// Cooldown elapsed.
	now = now.Add(2 * time.Second)
	if !r.IsAvailable("p") {
		t.Fatal("provider should become available once circuit_open_until has passed")
	}

	r.Sweep()
	p, _ = r.Get("p")
	if p.Health.CircuitOpen || p.Health.ConsecutiveFailures != 0 {
		t.Fatalf("sweep should clear circuit state, got %+v", p.Health)
	}
}

func TestRecordSuccess_StaysOpenDuringCooldown(t *testing.T) {
	now := time.Now()
	r := New(WithClock(func() time.Time { return now }))
	r.Save(Provider{ID: "p", Enabled: true, Health: Health{
		Status:           StatusHealthy,
		CircuitOpen:      true,
		CircuitOpenUntil: now.Add(30 * time.Second),
	}})

	r.RecordSuccess("p")
	p, _ := r.Get("p")
	if !p.Health.CircuitOpen {
		t.Fatal("a success while open should not close the circuit before cooldown elapses")
	}
}

func TestUpdateHealth_LatencyEMA(t *testing.T) {
	r := New()
	r.Save(Provider{ID: "p", Enabled: true, Health: Health{Status: StatusHealthy, AvgLatencyMs: 1000}})

	r.UpdateHealth("p", 2000, StatusHealthy)
	p, _ := r.Get("p")

	want := 1000.0*0.9 + 2000.0*0.1
	if diff := p.Health.AvgLatencyMs - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected EMA %.4f, got %.4f", want, p.Health.AvgLatencyMs)
	}
}

func TestCostEstimate_RoundsAndLinear(t *testing.T) {
	c := Cost{InputPer1M: 2.50, OutputPer1M: 10.00}
	got := c.Estimate(100, 300)
	want := roundTo(100.0/1e6*2.50+300.0/1e6*10.00, 4)
	if got != want {
		t.Fatalf("expected %v got %v", want, got)
	}

	a := c.Estimate(100, 300)
	b := c.Estimate(50, 150)
	sum := c.Estimate(150, 450)
	if diff := (a + b) - sum; diff > 1e-9 || diff < -1e-9 {
		// Estimate() rounds each call, so exact equality isn't guaranteed at
		// the rounding boundary; this checks they agree to within 0.001 USD.
		if diff > 1e-3 || diff < -1e-3 {
			t.Fatalf("cost estimate should be approximately linear: %v + %v != %v", a, b, sum)
		}
	}
}
