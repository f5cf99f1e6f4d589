package main

import (
	"os"
	"strconv"
	"strings"
)

// Config holds federationd's runtime configuration, loaded entirely from
// environment variables.
type Config struct {
	ListenAddr     string
	LogLevel       string
	SQLitePath     string // empty means use the in-memory KV store
	CORSOrigins    []string
	RateLimitRPS   float64 // <= 0 disables rate limiting
	RateLimitBurst int
}

func loadConfig() Config {
	cfg := Config{
		ListenAddr:     getenv("FEDERATION_LISTEN_ADDR", ":8080"),
		LogLevel:       getenv("FEDERATION_LOG_LEVEL", "info"),
		SQLitePath:     os.Getenv("FEDERATION_SQLITE_PATH"),
		RateLimitRPS:   getenvFloat("FEDERATION_RATE_LIMIT_RPS", 20),
		RateLimitBurst: getenvInt("FEDERATION_RATE_LIMIT_BURST", 40),
	}
	if origins := os.Getenv("FEDERATION_CORS_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}
	return cfg
}

func getenvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
