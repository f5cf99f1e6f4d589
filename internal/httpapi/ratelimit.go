package httpapi

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// tenantLimiters hands out one token-bucket limiter per tenant key (the
// X-Tenant-ID header, falling back to remote addr), expiring idle entries so
// the map doesn't grow unbounded under many distinct callers.
type tenantLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	seen     map[string]time.Time
	rps      rate.Limit
	burst    int
	ttl      time.Duration
}

func newTenantLimiters(rps float64, burst int) *tenantLimiters {
	return &tenantLimiters{
		limiters: make(map[string]*rate.Limiter),
		seen:     make(map[string]time.Time),
		rps:      rate.Limit(rps),
		burst:    burst,
		ttl:      10 * time.Minute,
	}
}

func (t *tenantLimiters) get(key string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	if l, ok := t.limiters[key]; ok {
		t.seen[key] = time.Now()
		return l
	}
	l := rate.NewLimiter(t.rps, t.burst)
	t.limiters[key] = l
	t.seen[key] = time.Now()
	t.evictStale()
	return l
}

// evictStale must be called with mu held.
func (t *tenantLimiters) evictStale() {
	cutoff := time.Now().Add(-t.ttl)
	for key, last := range t.seen {
		if last.Before(cutoff) {
			delete(t.limiters, key)
			delete(t.seen, key)
		}
	}
}

// middleware rejects requests over the per-tenant rate with 429, and is a
// no-op when t is nil so tests can opt out of rate limiting entirely.
func (t *tenantLimiters) middleware(next http.Handler) http.Handler {
	if t == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-Tenant-ID")
		if key == "" {
			key = r.RemoteAddr
		}
		if !t.get(key).Allow() {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
