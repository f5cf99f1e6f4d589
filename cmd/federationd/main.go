package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jordanhubbard/federation/internal/classifier"
	"github.com/jordanhubbard/federation/internal/cost"
	"github.com/jordanhubbard/federation/internal/events"
	"github.com/jordanhubbard/federation/internal/httpapi"
	"github.com/jordanhubbard/federation/internal/logging"
	"github.com/jordanhubbard/federation/internal/metrics"
	"github.com/jordanhubbard/federation/internal/optimizer"
	"github.com/jordanhubbard/federation/internal/outcomes"
	"github.com/jordanhubbard/federation/internal/registry"
	"github.com/jordanhubbard/federation/internal/router"
	"github.com/jordanhubbard/federation/internal/store"
)

// version is set at build time via -ldflags.
var version = "dev"

func runHealthCheck(addr string) error {
	resp, err := http.Get(fmt.Sprintf("http://localhost%s/healthz", addr))
	if err != nil {
		return fmt.Errorf("health check request failed: %w", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

func main() {
	// Built-in health check mode for Docker HEALTHCHECK (distroless has no curl).
	if len(os.Args) > 1 && os.Args[1] == "-healthcheck" {
		addr := os.Getenv("FEDERATION_LISTEN_ADDR")
		if addr == "" {
			addr = ":8080"
		}
		if err := runHealthCheck(addr); err != nil {
			os.Exit(1)
		}
		os.Exit(0)
	}

	cfg := loadConfig()
	logger := logging.Setup(cfg.LogLevel)
	logger.Info("federationd starting", slog.String("version", version))

	m := metrics.New()

	st, err := newStore(cfg)
	if err != nil {
		log.Fatalf("store init error: %v", err)
	}
	queue := store.NewQueue(st, 1024, logger, store.WithDropHook(m.StoreQueueDropped.Inc))

	reg := registry.New(registry.WithStore(&queuedStore{q: queue}))
	for _, p := range registry.DefaultProviders() {
		reg.Save(p)
	}

	bus := events.NewBus()
	classif := classifier.New()
	costEstimator := cost.New()
	tracker := outcomes.New()
	opt := optimizer.New()
	rtr := router.New(reg, classif, opt, tracker)

	decisions := httpapi.NewDecisionLog(500)

	handler := httpapi.NewRouter(httpapi.Deps{
		Registry:       reg,
		Router:         rtr,
		Tracker:        tracker,
		Decisions:      decisions,
		Cost:           costEstimator,
		Metrics:        m,
		Bus:            bus,
		Logger:         logger,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}, cfg.CORSOrigins)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	sweepStop := make(chan struct{})
	go runSweepLoop(reg, sweepStop)

	go func() {
		logger.Info("listening", slog.String("addr", cfg.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down")

	close(sweepStop)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warn("http shutdown error", slog.String("error", err.Error()))
	}
	queue.Close()
	if err := st.Close(); err != nil {
		logger.Warn("store close error", slog.String("error", err.Error()))
	}
	logger.Info("shutdown complete")
}

func runSweepLoop(reg *registry.Registry, stop <-chan struct{}) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			reg.Sweep()
		case <-stop:
			return
		}
	}
}

func newStore(cfg Config) (store.Store, error) {
	if cfg.SQLitePath == "" {
		return store.NewKV(), nil
	}
	s, err := store.NewSQLite(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// queuedStore adapts the store.Queue's flat record shape to registry.Store,
// so registry writes never block a routing decision on disk I/O.
type queuedStore struct {
	q *store.Queue
}

func (s *queuedStore) SaveProvider(p registry.Provider) error {
	caps, _ := json.Marshal(p.Capabilities)
	costJSON, _ := json.Marshal(p.Cost)
	s.q.SaveProvider(store.ProviderRecord{
		ID: p.ID, Tier: string(p.Tier), Status: string(p.Health.Status),
		CapsJSON: string(caps), CostJSON: string(costJSON),
		QualityScore: p.QualityScore, Enabled: p.Enabled, UpdatedAt: p.UpdatedAt,
	})
	return nil
}

func (s *queuedStore) SaveHealth(id string, h registry.Health) error {
	latency := h.AvgLatencyMs
	s.q.SaveHealth(store.HealthCheckRecord{
		ProviderID: id, CheckedAt: time.Now(), Status: string(h.Status),
		LatencyMs: &latency, ErrorRate24h: h.ErrorRate24h,
		ConsecutiveFailures: h.ConsecutiveFailures, CircuitOpen: h.CircuitOpen,
	})
	return nil
}
