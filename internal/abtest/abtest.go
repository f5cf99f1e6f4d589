// Package abtest runs traffic-split experiments between two candidate
// providers and analyzes results once enough samples have accumulated.
package abtest

import (
	"math/rand"
	"sync"
	"time"

	"github.com/jordanhubbard/federation/internal/classifier"
)

// Rand is the injectable randomness source for variant assignment.
type Rand interface {
	Float64() float64
}

// PerformanceSource supplies success rates for a provider/intent, normally
// backed by the outcome tracker.
type PerformanceSource interface {
	SuccessRate(providerID string, intent *classifier.Intent) (rate float64, ok bool)
}

// Test is a single running or completed A/B experiment.
type Test struct {
	ProviderA     string
	ProviderB     string
	TrafficSplit  float64
	MinSamples    int
	SamplesA      int
	SamplesB      int
	StartedAt     time.Time
}

// Status reports whether a test has enough data to declare a winner.
type Status string

const (
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
)

// Analysis is the result of Analyze.
type Analysis struct {
	Status   Status
	SamplesA int
	SamplesB int
	Needed   int
	Winner   string
}

// Runner manages a set of named A/B tests.
type Runner struct {
	rand Rand
	now  func() time.Time

	mu    sync.Mutex
	tests map[string]*Test
}

// Option configures a Runner.
type Option func(*Runner)

// WithRand overrides the randomness source (tests only).
func WithRand(r Rand) Option { return func(rn *Runner) { rn.rand = r } }

// WithClock overrides the time source (tests only).
func WithClock(now func() time.Time) Option { return func(rn *Runner) { rn.now = now } }

// New creates a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{
		rand:  rand.New(rand.NewSource(1)),
		now:   time.Now,
		tests: make(map[string]*Test),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// StartTest registers a new experiment.
func (r *Runner) StartTest(testID, providerA, providerB string, trafficSplit float64, minSamples int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tests[testID] = &Test{
		ProviderA:    providerA,
		ProviderB:    providerB,
		TrafficSplit: trafficSplit,
		MinSamples:   minSamples,
		StartedAt:    r.now(),
	}
}

// Variant returns "a" or "b" for the given test, or "" if the test is
// unknown. It does not record a sample; call RecordSample separately.
func (r *Runner) Variant(testID string) string {
	r.mu.Lock()
	test, ok := r.tests[testID]
	r.mu.Unlock()
	if !ok {
		return ""
	}
	if r.rand.Float64() < test.TrafficSplit {
		return "b"
	}
	return "a"
}

// RecordSample increments the sample count for the given variant ("a" or "b").
func (r *Runner) RecordSample(testID, variant string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	test, ok := r.tests[testID]
	if !ok {
		return
	}
	switch variant {
	case "a":
		test.SamplesA++
	case "b":
		test.SamplesB++
	}
}

// Analyze returns the running/complete status of a test. Once complete, the
// winner is the provider with the higher success rate per src; ties go to
// provider_a.
func (r *Runner) Analyze(testID string, intent *classifier.Intent, src PerformanceSource) (Analysis, bool) {
	r.mu.Lock()
	test, ok := r.tests[testID]
	r.mu.Unlock()
	if !ok {
		return Analysis{}, false
	}

	total := test.SamplesA + test.SamplesB
	if total < test.MinSamples {
		return Analysis{Status: StatusRunning, SamplesA: test.SamplesA, SamplesB: test.SamplesB, Needed: test.MinSamples}, true
	}

	rateA, _ := src.SuccessRate(test.ProviderA, intent)
	rateB, _ := src.SuccessRate(test.ProviderB, intent)
	winner := test.ProviderA
	if rateB > rateA {
		winner = test.ProviderB
	}
	return Analysis{Status: StatusComplete, SamplesA: test.SamplesA, SamplesB: test.SamplesB, Needed: test.MinSamples, Winner: winner}, true
}
