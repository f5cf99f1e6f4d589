// Package outcomes records the results of routing decisions and derives
// per-provider, per-intent statistics that feed the bandit optimizer.
package outcomes

import (
	"sort"
	"sync"
	"time"

	"github.com/jordanhubbard/federation/internal/classifier"
)

// Status is the terminal state of a routed request.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusPartial   Status = "partial"
	StatusFailure   Status = "failure"
	StatusTimeout   Status = "timeout"
	StatusError     Status = "error"
	StatusCancelled Status = "cancelled"
)

// Outcome is the learning feedback for a single routed request.
type Outcome struct {
	OutcomeID  string
	DecisionID string
	TaskID     string
	ProviderID string
	Status     Status

	ActualCost      float64
	ActualLatencyMs int64
	InputTokens     int
	OutputTokens    int

	QualityScore      *float64
	CorrectnessScore  *float64
	HelpfulnessScore  *float64

	EstimatedCost      float64
	EstimatedLatencyMs int64

	TaskIntent     classifier.Intent
	TaskComplexity string
	ErrorType      string
	ErrorMessage   string

	RoutedAt    time.Time
	CompletedAt time.Time
}

// CostDelta is actual minus estimated cost.
func (o Outcome) CostDelta() float64 { return o.ActualCost - o.EstimatedCost }

// LatencyDelta is actual minus estimated latency.
func (o Outcome) LatencyDelta() int64 { return o.ActualLatencyMs - o.EstimatedLatencyMs }

func isSuccess(s Status) bool { return s == StatusSuccess }
func isFailed(s Status) bool {
	return s == StatusFailure || s == StatusError || s == StatusTimeout
}

type intentStats struct {
	count   int
	success int
}

type providerStats struct {
	mu sync.Mutex

	totalRequests    int
	successRequests  int
	failedRequests   int
	totalCost        float64
	totalLatencyMs   int64
	qualityScores    []float64
	perIntent        map[classifier.Intent]*intentStats
}

func newProviderStats() *providerStats {
	return &providerStats{perIntent: make(map[classifier.Intent]*intentStats)}
}

// Performance is the derived view returned by Performance().
type Performance struct {
	SuccessRate        float64
	ErrorRate          float64
	AvgCost            float64
	AvgLatencyMs       float64
	AvgQualityScore    *float64
	IntentSuccessRate  *float64 // set only when an intent filter was given
	TotalRequests      int
}

// Tracker is the append-only outcome log plus derived per-provider stats.
type Tracker struct {
	mu  sync.Mutex
	log []Outcome

	statsMu sync.RWMutex
	stats   map[string]*providerStats
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{stats: make(map[string]*providerStats)}
}

// Record appends an outcome to the log and updates derived statistics.
func (t *Tracker) Record(o Outcome) {
	t.mu.Lock()
	t.log = append(t.log, o)
	t.mu.Unlock()

	t.statsMu.RLock()
	ps, ok := t.stats[o.ProviderID]
	t.statsMu.RUnlock()
	if !ok {
		t.statsMu.Lock()
		ps, ok = t.stats[o.ProviderID]
		if !ok {
			ps = newProviderStats()
			t.stats[o.ProviderID] = ps
		}
		t.statsMu.Unlock()
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.totalRequests++
	if isSuccess(o.Status) {
		ps.successRequests++
	} else if isFailed(o.Status) {
		ps.failedRequests++
	}
	ps.totalCost += o.ActualCost
	ps.totalLatencyMs += o.ActualLatencyMs
	if o.QualityScore != nil {
		ps.qualityScores = append(ps.qualityScores, *o.QualityScore)
	}

	is, ok := ps.perIntent[o.TaskIntent]
	if !ok {
		is = &intentStats{}
		ps.perIntent[o.TaskIntent] = is
	}
	is.count++
	if isSuccess(o.Status) {
		is.success++
	}
}

// Performance returns derived statistics for a provider, optionally filtered
// to a single intent's success rate.
func (t *Tracker) Performance(providerID string, intent *classifier.Intent) (Performance, bool) {
	t.statsMu.RLock()
	ps, ok := t.stats[providerID]
	t.statsMu.RUnlock()
	if !ok {
		return Performance{}, false
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.totalRequests == 0 {
		return Performance{}, false
	}

	perf := Performance{
		SuccessRate:   float64(ps.successRequests) / float64(ps.totalRequests),
		ErrorRate:     float64(ps.failedRequests) / float64(ps.totalRequests),
		AvgCost:       ps.totalCost / float64(ps.totalRequests),
		AvgLatencyMs:  float64(ps.totalLatencyMs) / float64(ps.totalRequests),
		TotalRequests: ps.totalRequests,
	}
	if len(ps.qualityScores) > 0 {
		sum := 0.0
		for _, q := range ps.qualityScores {
			sum += q
		}
		avg := sum / float64(len(ps.qualityScores))
		perf.AvgQualityScore = &avg
	}
	if intent != nil {
		if is, ok := ps.perIntent[*intent]; ok && is.count > 0 {
			rate := float64(is.success) / float64(is.count)
			perf.IntentSuccessRate = &rate
		}
	}
	return perf, true
}

// TrialsAndSuccesses returns the (trials, successes) pair for a
// (providerID, intent) combination, used directly by the bandit optimizer.
func (t *Tracker) TrialsAndSuccesses(providerID string, intent classifier.Intent) (trials, successes int) {
	t.statsMu.RLock()
	ps, ok := t.stats[providerID]
	t.statsMu.RUnlock()
	if !ok {
		return 0, 0
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	is, ok := ps.perIntent[intent]
	if !ok {
		return 0, 0
	}
	return is.count, is.success
}

// BestForIntent returns the provider with the highest intent-specific
// success rate among providers with at least minSamples trials for that
// intent. Returns ("", false) if none qualify.
func (t *Tracker) BestForIntent(intent classifier.Intent, minSamples int) (string, bool) {
	t.statsMu.RLock()
	defer t.statsMu.RUnlock()

	best := ""
	bestRate := -1.0
	// Deterministic iteration: collect then sort provider ids.
	ids := make([]string, 0, len(t.stats))
	for id := range t.stats {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		ps := t.stats[id]
		ps.mu.Lock()
		is, ok := ps.perIntent[intent]
		var count, success int
		if ok {
			count, success = is.count, is.success
		}
		ps.mu.Unlock()
		if count < minSamples {
			continue
		}
		rate := float64(success) / float64(count)
		if rate > bestRate {
			bestRate = rate
			best = id
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}

// SuccessRate adapts Performance to the narrower signature abtest.Runner
// expects of a PerformanceSource.
func (t *Tracker) SuccessRate(providerID string, intent *classifier.Intent) (float64, bool) {
	perf, ok := t.Performance(providerID, intent)
	if !ok {
		return 0, false
	}
	return perf.SuccessRate, true
}
