// Package store persists registry state and routing outcomes so a process
// restart doesn't lose circuit-breaker state or historical data. Writes are
// expected to run through an async Queue (queue.go); the core never blocks
// a routing decision on a database round trip.
package store

import (
	"context"
	"time"
)

// ProviderRecord is the durable form of a registry.Provider. Capabilities
// and cost are flattened to JSON text columns in the SQL backend; callers
// reconstruct the richer registry type from this record.
type ProviderRecord struct {
	ID           string    `json:"id"`
	Tier         string    `json:"tier"`
	Status       string    `json:"status"`
	CapsJSON     string    `json:"caps_json"`
	CostJSON     string    `json:"cost_json"`
	QualityScore *float64  `json:"quality_score,omitempty"`
	Enabled      bool      `json:"enabled"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HealthCheckRecord is one point-in-time health observation for a provider.
type HealthCheckRecord struct {
	ProviderID          string    `json:"provider_id"`
	CheckedAt           time.Time `json:"checked_at"`
	Status              string    `json:"status"`
	LatencyMs           *float64  `json:"latency_ms,omitempty"`
	ErrorRate24h        float64   `json:"error_rate_24h"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	CircuitOpen         bool      `json:"circuit_open"`
}

// RoutingOutcomeRecord is the durable form of an outcomes.Outcome.
type RoutingOutcomeRecord struct {
	OutcomeID       string    `json:"outcome_id"`
	DecisionID      string    `json:"decision_id"`
	TaskID          string    `json:"task_id"`
	ProviderID      string    `json:"provider_id"`
	Status          string    `json:"status"`
	ActualCost      float64   `json:"actual_cost"`
	ActualLatencyMs int64     `json:"actual_latency_ms"`
	TaskIntent      string    `json:"task_intent"`
	CreatedAt       time.Time `json:"created_at"`
}

// ProviderStats aggregates routing_outcomes for the admin surface, so a
// caller doesn't need to load raw rows to show a success rate.
type ProviderStats struct {
	ProviderID   string  `json:"provider_id"`
	TotalCount   int64   `json:"total_count"`
	SuccessCount int64   `json:"success_count"`
	AvgCost      float64 `json:"avg_cost"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// Store is the persistence contract. Implementations must be safe for
// concurrent use.
type Store interface {
	SaveProvider(ctx context.Context, p ProviderRecord) error
	GetProvider(ctx context.Context, id string) (*ProviderRecord, error)
	GetAllProviders(ctx context.Context) ([]ProviderRecord, error)

	SaveHealth(ctx context.Context, h HealthCheckRecord) error
	GetHealthHistory(ctx context.Context, providerID string, limit int) ([]HealthCheckRecord, error)

	SaveRoutingOutcome(ctx context.Context, o RoutingOutcomeRecord) error
	GetRoutingStats(ctx context.Context, providerID string, since time.Time) (ProviderStats, error)

	Migrate(ctx context.Context) error
	Close() error
}
