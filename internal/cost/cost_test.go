package cost

import (
	"testing"
	"time"

	"github.com/jordanhubbard/federation/internal/registry"
)

func providers() []registry.Provider {
	return registry.DefaultProviders()
}

func byID(id string) registry.Provider {
	for _, p := range providers() {
		if p.ID == id {
			return p
		}
	}
	panic("not found: " + id)
}

func TestEstimate_MatchesFormula(t *testing.T) {
	p := byID("openai")
	got := Estimate(p, 100, 300)
	want := 100.0/1e6*2.50 + 300.0/1e6*10.00
	if diff := got - round(want); diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("got %v want %v", got, want)
	}
}

func round(v float64) float64 {
	return float64(int(v*10000+0.5)) / 10000
}

func TestEstimate_LocalProviderIsFree(t *testing.T) {
	p := byID("ollama")
	if got := Estimate(p, 1000, 1000); got != 0 {
		t.Fatalf("expected 0 cost for ollama, got %v", got)
	}
}

func TestCompare_SortsAscending(t *testing.T) {
	cmp := Compare(providers(), 100, 300)
	for i := 1; i < len(cmp); i++ {
		if cmp[i-1].Cost > cmp[i].Cost {
			t.Fatalf("not sorted ascending: %+v", cmp)
		}
	}
}

func TestRecommend_FiltersByQualityAndReturnsCheapest(t *testing.T) {
	id, costEst, savings := Recommend(providers(), 100, 300, 0.90)
	if id == "" {
		t.Fatal("expected a recommendation")
	}
	if costEst < 0 || savings < 0 {
		t.Fatalf("unexpected negative values: cost=%v savings=%v", costEst, savings)
	}
}

func TestBudget_WarningAndCriticalThresholds(t *testing.T) {
	e := New()
	now := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
	e.Track("tenant-a", 80, now)

	limit := 100.0
	alerts := e.CheckBudget("tenant-a", &limit, nil, now)
	if len(alerts) != 1 || alerts[0].Level != AlertWarning {
		t.Fatalf("expected a warning alert at 80%%, got %+v", alerts)
	}

	e.Track("tenant-a", 20, now)
	alerts = e.CheckBudget("tenant-a", &limit, nil, now)
	if len(alerts) != 1 || alerts[0].Level != AlertCritical {
		t.Fatalf("expected a critical alert at 100%%, got %+v", alerts)
	}
}

func TestBudget_DaySpendNeverExceedsMonthSpend(t *testing.T) {
	e := New()
	now := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
	e.Track("tenant-a", 10, now)
	e.Track("tenant-a", 5, now.AddDate(0, 0, -1))

	day := e.GetSpend("tenant-a", "day", now)
	month := e.GetSpend("tenant-a", "month", now)
	if day > month {
		t.Fatalf("day spend %v must not exceed month spend %v", day, month)
	}
}
