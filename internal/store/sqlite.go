package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite (pure-Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens or creates a SQLite database at the given DSN.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite pragmas: %w", err)
	}
	// SQLite only supports one writer at a time. Limit connections to avoid
	// contention and keep a small idle pool for read concurrency.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	return &SQLiteStore{db: db}, nil
}

// DB returns the underlying sql.DB handle.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS providers (
			id TEXT PRIMARY KEY,
			tier TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'healthy',
			caps_json TEXT NOT NULL DEFAULT '{}',
			cost_json TEXT NOT NULL DEFAULT '{}',
			quality_score REAL,
			enabled BOOLEAN NOT NULL DEFAULT 1,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS health_checks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			provider_id TEXT NOT NULL,
			checked_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			status TEXT NOT NULL,
			latency_ms REAL,
			error_rate_24h REAL NOT NULL DEFAULT 0,
			consecutive_failures INTEGER NOT NULL DEFAULT 0,
			circuit_open BOOLEAN NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_health_checks_provider_time ON health_checks(provider_id, checked_at)`,
		`CREATE TABLE IF NOT EXISTS routing_outcomes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			outcome_id TEXT NOT NULL,
			decision_id TEXT NOT NULL,
			task_id TEXT NOT NULL,
			provider_id TEXT NOT NULL,
			status TEXT NOT NULL,
			actual_cost REAL NOT NULL DEFAULT 0,
			actual_latency_ms INTEGER NOT NULL DEFAULT 0,
			task_intent TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_routing_outcomes_provider_time ON routing_outcomes(provider_id, created_at)`,
	}
	for _, q := range queries {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Providers

func (s *SQLiteStore) SaveProvider(ctx context.Context, p ProviderRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO providers (id, tier, status, caps_json, cost_json, quality_score, enabled, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   tier=excluded.tier,
		   status=excluded.status,
		   caps_json=excluded.caps_json,
		   cost_json=excluded.cost_json,
		   quality_score=excluded.quality_score,
		   enabled=excluded.enabled,
		   updated_at=excluded.updated_at`,
		p.ID, p.Tier, p.Status, p.CapsJSON, p.CostJSON, p.QualityScore, p.Enabled, p.UpdatedAt.UTC().Format(time.RFC3339))
	return err
}

func (s *SQLiteStore) GetProvider(ctx context.Context, id string) (*ProviderRecord, error) {
	var p ProviderRecord
	var updatedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, tier, status, caps_json, cost_json, quality_score, enabled, updated_at FROM providers WHERE id = ?`, id).
		Scan(&p.ID, &p.Tier, &p.Status, &p.CapsJSON, &p.CostJSON, &p.QualityScore, &p.Enabled, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}

func (s *SQLiteStore) GetAllProviders(ctx context.Context) ([]ProviderRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tier, status, caps_json, cost_json, quality_score, enabled, updated_at FROM providers`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []ProviderRecord
	for rows.Next() {
		var p ProviderRecord
		var updatedAt string
		if err := rows.Scan(&p.ID, &p.Tier, &p.Status, &p.CapsJSON, &p.CostJSON, &p.QualityScore, &p.Enabled, &updatedAt); err != nil {
			return nil, err
		}
		p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Health checks

func (s *SQLiteStore) SaveHealth(ctx context.Context, h HealthCheckRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO health_checks (provider_id, checked_at, status, latency_ms, error_rate_24h, consecutive_failures, circuit_open)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.ProviderID, h.CheckedAt.UTC().Format(time.RFC3339), h.Status, h.LatencyMs, h.ErrorRate24h, h.ConsecutiveFailures, h.CircuitOpen)
	return err
}

func (s *SQLiteStore) GetHealthHistory(ctx context.Context, providerID string, limit int) ([]HealthCheckRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT provider_id, checked_at, status, latency_ms, error_rate_24h, consecutive_failures, circuit_open
		 FROM health_checks WHERE provider_id = ? ORDER BY checked_at DESC LIMIT ?`, providerID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []HealthCheckRecord
	for rows.Next() {
		var h HealthCheckRecord
		var checkedAt string
		if err := rows.Scan(&h.ProviderID, &checkedAt, &h.Status, &h.LatencyMs, &h.ErrorRate24h, &h.ConsecutiveFailures, &h.CircuitOpen); err != nil {
			return nil, err
		}
		h.CheckedAt, _ = time.Parse(time.RFC3339, checkedAt)
		out = append(out, h)
	}
	return out, rows.Err()
}

// Routing outcomes

func (s *SQLiteStore) SaveRoutingOutcome(ctx context.Context, o RoutingOutcomeRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO routing_outcomes (outcome_id, decision_id, task_id, provider_id, status, actual_cost, actual_latency_ms, task_intent, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.OutcomeID, o.DecisionID, o.TaskID, o.ProviderID, o.Status, o.ActualCost, o.ActualLatencyMs, o.TaskIntent, o.CreatedAt.UTC().Format(time.RFC3339))
	return err
}

func (s *SQLiteStore) GetRoutingStats(ctx context.Context, providerID string, since time.Time) (ProviderStats, error) {
	stats := ProviderStats{ProviderID: providerID}
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END),
		        COALESCE(AVG(actual_cost), 0),
		        COALESCE(AVG(actual_latency_ms), 0)
		 FROM routing_outcomes WHERE provider_id = ? AND created_at >= ?`,
		providerID, since.UTC().Format(time.RFC3339)).
		Scan(&stats.TotalCount, &stats.SuccessCount, &stats.AvgCost, &stats.AvgLatencyMs)
	if err != nil {
		return ProviderStats{}, err
	}
	return stats, nil
}
