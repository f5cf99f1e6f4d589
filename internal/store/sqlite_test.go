package store

import (
	"context"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
}

func TestProvidersCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	q := 0.95
	p := ProviderRecord{
		ID: "openai", Tier: "premium", Status: "healthy",
		CapsJSON: `{"specialties":["code"]}`, CostJSON: `{"input_per_1m":2.5}`,
		QualityScore: &q, Enabled: true, UpdatedAt: time.Now().UTC(),
	}
	if err := s.SaveProvider(ctx, p); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := s.GetProvider(ctx, "openai")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil || got.Tier != "premium" || got.QualityScore == nil || *got.QualityScore != 0.95 {
		t.Fatalf("unexpected record: %+v", got)
	}

	p.Tier = "standard"
	if err := s.SaveProvider(ctx, p); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	got, _ = s.GetProvider(ctx, "openai")
	if got.Tier != "standard" {
		t.Fatalf("expected updated tier, got %s", got.Tier)
	}

	all, err := s.GetAllProviders(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 provider, got %d", len(all))
	}
}

func TestGetProvider_Missing(t *testing.T) {
	s := newTestStore(t)
	got, err := s.GetProvider(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing provider, got %+v", got)
	}
}

func TestHealthHistory_OrderedMostRecentFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 3; i++ {
		h := HealthCheckRecord{
			ProviderID: "groq",
			CheckedAt:  base.Add(time.Duration(i) * time.Minute),
			Status:     "healthy",
		}
		if err := s.SaveHealth(ctx, h); err != nil {
			t.Fatalf("save health failed: %v", err)
		}
	}

	history, err := s.GetHealthHistory(ctx, "groq", 10)
	if err != nil {
		t.Fatalf("get history failed: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(history))
	}
	if !history[0].CheckedAt.After(history[1].CheckedAt) {
		t.Fatalf("expected descending checked_at order")
	}
}

func TestRoutingStats_AggregatesSuccessRateAndAverages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	outcomes := []RoutingOutcomeRecord{
		{OutcomeID: "o1", ProviderID: "groq", Status: "success", ActualCost: 0.01, ActualLatencyMs: 300, CreatedAt: now},
		{OutcomeID: "o2", ProviderID: "groq", Status: "error", ActualCost: 0.02, ActualLatencyMs: 500, CreatedAt: now},
	}
	for _, o := range outcomes {
		if err := s.SaveRoutingOutcome(ctx, o); err != nil {
			t.Fatalf("save outcome failed: %v", err)
		}
	}

	stats, err := s.GetRoutingStats(ctx, "groq", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("get stats failed: %v", err)
	}
	if stats.TotalCount != 2 || stats.SuccessCount != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.AvgCost != 0.015 {
		t.Fatalf("expected avg cost 0.015, got %v", stats.AvgCost)
	}
}
