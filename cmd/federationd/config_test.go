package main

import (
	"os"
	"testing"

	"github.com/jordanhubbard/federation/internal/store"
)

func TestLoadConfig_Defaults(t *testing.T) {
	os.Unsetenv("FEDERATION_LISTEN_ADDR")
	os.Unsetenv("FEDERATION_LOG_LEVEL")
	os.Unsetenv("FEDERATION_SQLITE_PATH")
	os.Unsetenv("FEDERATION_CORS_ORIGINS")
	os.Unsetenv("FEDERATION_RATE_LIMIT_RPS")
	os.Unsetenv("FEDERATION_RATE_LIMIT_BURST")

	cfg := loadConfig()
	if cfg.ListenAddr != ":8080" {
		t.Errorf("expected default listen addr, got %s", cfg.ListenAddr)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level, got %s", cfg.LogLevel)
	}
	if cfg.SQLitePath != "" {
		t.Errorf("expected empty sqlite path by default, got %s", cfg.SQLitePath)
	}
	if cfg.RateLimitRPS != 20 || cfg.RateLimitBurst != 40 {
		t.Errorf("expected default rate limit 20/40, got %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

func TestLoadConfig_CORSOriginsSplit(t *testing.T) {
	os.Setenv("FEDERATION_CORS_ORIGINS", "https://a.example, https://b.example")
	defer os.Unsetenv("FEDERATION_CORS_ORIGINS")

	cfg := loadConfig()
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "https://a.example" || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected CORS origins: %+v", cfg.CORSOrigins)
	}
}

func TestNewStore_DefaultsToKV(t *testing.T) {
	s, err := newStore(Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*store.KVStore); !ok {
		t.Fatalf("expected the in-memory KV store when no SQLite path is set, got %T", s)
	}
}
