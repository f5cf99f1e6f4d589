package httpapi

import (
	"sync"

	"github.com/jordanhubbard/federation/internal/router"
)

// DecisionLog is a bounded ring buffer of recent routing decisions, kept in
// memory so the admin surface can answer GET /v1/decisions/recent without
// touching the store.
type DecisionLog struct {
	mu       sync.Mutex
	capacity int
	items    []router.Decision
}

// NewDecisionLog returns a log that retains at most capacity decisions.
func NewDecisionLog(capacity int) *DecisionLog {
	if capacity <= 0 {
		capacity = 200
	}
	return &DecisionLog{capacity: capacity}
}

// Record appends a decision, evicting the oldest entry once capacity is
// reached.
func (l *DecisionLog) Record(d router.Decision) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, d)
	if len(l.items) > l.capacity {
		l.items = l.items[len(l.items)-l.capacity:]
	}
}

// Recent returns up to n decisions, most recent first.
func (l *DecisionLog) Recent(n int) []router.Decision {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 || n > len(l.items) {
		n = len(l.items)
	}
	out := make([]router.Decision, n)
	for i := 0; i < n; i++ {
		out[i] = l.items[len(l.items)-1-i]
	}
	return out
}
