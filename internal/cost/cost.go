// Package cost estimates call pricing and tracks per-tenant budget windows.
package cost

import (
	"sort"
	"time"

	"github.com/jordanhubbard/federation/internal/registry"
)

// retentionMonths bounds how far back budget windows are kept; the oldest
// keys are pruned on write once a tenant exceeds this horizon.
const retentionMonths = 13

// AlertLevel classifies a budget alert's severity.
type AlertLevel string

const (
	AlertWarning  AlertLevel = "warning"
	AlertCritical AlertLevel = "critical"
)

// Alert is emitted by CheckBudget when spend crosses a threshold.
type Alert struct {
	Level        AlertLevel
	Message      string
	CurrentSpend float64
	Threshold    float64
	Period       string // "day" or "month"
}

// Comparison is one entry in a Compare() result.
type Comparison struct {
	ProviderID string
	Cost       float64
}

// Estimator estimates call cost and tracks per-tenant spend.
type Estimator struct {
	locks *lockMap
	spend map[string]*tenantSpend
}

type tenantSpend struct {
	byDay   map[string]float64
	byMonth map[string]float64
}

// New creates an Estimator.
func New() *Estimator {
	return &Estimator{spend: make(map[string]*tenantSpend), locks: newLockMap()}
}

// Estimate computes the cost of a call against a provider, per §3's formula.
func Estimate(p registry.Provider, inputTokens, outputTokens int) float64 {
	return p.Cost.Estimate(inputTokens, outputTokens)
}

// Compare returns providers sorted ascending by estimated cost.
func Compare(providers []registry.Provider, inputTokens, outputTokens int) []Comparison {
	out := make([]Comparison, len(providers))
	for i, p := range providers {
		out[i] = Comparison{ProviderID: p.ID, Cost: Estimate(p, inputTokens, outputTokens)}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Cost != out[j].Cost {
			return out[i].Cost < out[j].Cost
		}
		return out[i].ProviderID < out[j].ProviderID
	})
	return out
}

// Cheapest returns the lowest-cost provider id, or "" if providers is empty.
func Cheapest(providers []registry.Provider, inputTokens, outputTokens int) string {
	cmp := Compare(providers, inputTokens, outputTokens)
	if len(cmp) == 0 {
		return ""
	}
	return cmp[0].ProviderID
}

// Savings returns the USD difference between the most expensive and the
// cheapest candidate's cost, grounded on the original calculate_savings.
func Savings(cheapest, mostExpensive float64) float64 {
	return mostExpensive - cheapest
}

// Recommend filters by minimum quality, then returns the cheapest surviving
// provider id along with its savings versus the most expensive candidate.
func Recommend(providers []registry.Provider, inputTokens, outputTokens int, minQuality float64) (providerID string, estimatedCost float64, savings float64) {
	var eligible []registry.Provider
	for _, p := range providers {
		if p.Quality() >= minQuality {
			eligible = append(eligible, p)
		}
	}
	cmp := Compare(eligible, inputTokens, outputTokens)
	if len(cmp) == 0 {
		return "", 0, 0
	}
	cheapest := cmp[0]
	mostExpensive := cmp[len(cmp)-1]
	return cheapest.ProviderID, cheapest.Cost, Savings(cheapest.Cost, mostExpensive.Cost)
}

func dayKey(t time.Time) string   { return t.UTC().Format("2006-01-02") }
func monthKey(t time.Time) string { return t.UTC().Format("2006-01") }

// Track records realized spend for a tenant against both the day and month
// windows, pruning windows older than the retention policy.
func (e *Estimator) Track(tenant string, amount float64, at time.Time) {
	lock := e.locks.get(tenant)
	lock.Lock()
	defer lock.Unlock()

	ts, ok := e.spend[tenant]
	if !ok {
		ts = &tenantSpend{byDay: map[string]float64{}, byMonth: map[string]float64{}}
		e.spend[tenant] = ts
	}
	ts.byDay[dayKey(at)] += amount
	ts.byMonth[monthKey(at)] += amount
	pruneOldMonths(ts.byMonth, at)
	pruneOldDays(ts.byDay, at)
}

func pruneOldMonths(m map[string]float64, now time.Time) {
	cutoff := now.AddDate(0, -retentionMonths, 0)
	cutoffKey := monthKey(cutoff)
	for k := range m {
		if k < cutoffKey {
			delete(m, k)
		}
	}
}

func pruneOldDays(m map[string]float64, now time.Time) {
	cutoff := now.AddDate(0, -retentionMonths, 0)
	cutoffKey := dayKey(cutoff)
	for k := range m {
		if k < cutoffKey {
			delete(m, k)
		}
	}
}

// GetSpend returns the accumulated spend for the given period ("day" or
// "month") at the given timestamp.
func (e *Estimator) GetSpend(tenant, period string, at time.Time) float64 {
	lock := e.locks.get(tenant)
	lock.Lock()
	defer lock.Unlock()

	ts, ok := e.spend[tenant]
	if !ok {
		return 0
	}
	if period == "month" {
		return ts.byMonth[monthKey(at)]
	}
	return ts.byDay[dayKey(at)]
}

// CheckBudget compares current spend against optional daily/monthly limits
// and returns any alerts that apply.
func (e *Estimator) CheckBudget(tenant string, dailyLimit, monthlyLimit *float64, at time.Time) []Alert {
	var alerts []Alert
	if dailyLimit != nil && *dailyLimit > 0 {
		spend := e.GetSpend(tenant, "day", at)
		if a, ok := checkThreshold(spend, *dailyLimit, "day"); ok {
			alerts = append(alerts, a)
		}
	}
	if monthlyLimit != nil && *monthlyLimit > 0 {
		spend := e.GetSpend(tenant, "month", at)
		if a, ok := checkThreshold(spend, *monthlyLimit, "month"); ok {
			alerts = append(alerts, a)
		}
	}
	return alerts
}

func checkThreshold(spend, limit float64, period string) (Alert, bool) {
	switch {
	case spend >= limit:
		return Alert{Level: AlertCritical, Message: "budget exceeded", CurrentSpend: spend, Threshold: limit, Period: period}, true
	case spend >= 0.8*limit:
		return Alert{Level: AlertWarning, Message: "approaching budget limit", CurrentSpend: spend, Threshold: limit, Period: period}, true
	default:
		return Alert{}, false
	}
}
