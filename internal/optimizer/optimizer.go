// Package optimizer selects among scored candidate providers using UCB1,
// deferring to the base multi-criteria score until enough outcome data has
// accumulated, and occasionally exploring at random.
package optimizer

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/jordanhubbard/federation/internal/classifier"
)

// Config tunes the bandit's exploration/exploitation balance.
type Config struct {
	ExplorationConstant   float64       // c in the UCB1 formula, default 1.414
	ExplorationRate       float64       // epsilon for pure-random picks, default 0.05
	MinSamplesBeforeExploit int         // default 10
	RefreshInterval       time.Duration // cache-gate for stats refresh, default 5m
}

// DefaultConfig returns the standard bandit tuning.
func DefaultConfig() Config {
	return Config{
		ExplorationConstant:     1.414,
		ExplorationRate:         0.05,
		MinSamplesBeforeExploit: 10,
		RefreshInterval:         5 * time.Minute,
	}
}

// Rand is the injectable randomness source, so exploration and test
// expectations can be made deterministic.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Candidate is a scored candidate provider as computed by the router.
type Candidate struct {
	ProviderID string
	BaseScore  float64
}

// Reason explains why a particular candidate was selected.
type Reason string

const (
	ReasonInsufficientData Reason = "insufficient_data_for_optimization"
	ReasonExploration      Reason = "exploration"
	ReasonUCBOptimization  Reason = "ucb_optimization"
)

// Decision is the optimizer's selection among candidates.
type Decision struct {
	ProviderID string
	Reason     Reason
}

// StatsSource supplies trial/success counts, normally backed by the outcome
// tracker.
type StatsSource interface {
	TrialsAndSuccesses(providerID string, intent classifier.Intent) (trials, successes int)
}

type arm struct {
	trials    int
	successes int
}

// Optimizer implements the UCB1 selection rule over per-(provider,intent)
// statistics refreshed from a StatsSource at most once per RefreshInterval.
type Optimizer struct {
	cfg  Config
	rand Rand
	now  func() time.Time

	mu         sync.RWMutex
	arms       map[armKey]arm
	lastRefresh time.Time
}

type armKey struct {
	providerID string
	intent     classifier.Intent
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithConfig overrides the default tuning.
func WithConfig(cfg Config) Option { return func(o *Optimizer) { o.cfg = cfg } }

// WithRand overrides the randomness source (tests only).
func WithRand(r Rand) Option { return func(o *Optimizer) { o.rand = r } }

// WithClock overrides the time source (tests only).
func WithClock(now func() time.Time) Option { return func(o *Optimizer) { o.now = now } }

// New creates an Optimizer.
func New(opts ...Option) *Optimizer {
	o := &Optimizer{
		cfg:  DefaultConfig(),
		rand: rand.New(rand.NewSource(1)),
		now:  time.Now,
		arms: make(map[armKey]arm),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Refresh pulls fresh trial/success counts for the given candidates from
// src, coalescing refreshes within cfg.RefreshInterval.
func (o *Optimizer) Refresh(src StatsSource, intent classifier.Intent, candidates []Candidate) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.lastRefresh.IsZero() && o.now().Sub(o.lastRefresh) < o.cfg.RefreshInterval {
		return
	}
	for _, c := range candidates {
		trials, successes := src.TrialsAndSuccesses(c.ProviderID, intent)
		o.arms[armKey{c.ProviderID, intent}] = arm{trials: trials, successes: successes}
	}
	o.lastRefresh = o.now()
}

func ucbScore(successes, trials, totalTrials int, c float64) float64 {
	if trials == 0 {
		return math.Inf(1)
	}
	winRate := float64(successes) / float64(trials)
	return winRate + c*math.Sqrt((2*math.Sqrt(float64(totalTrials)))/math.Sqrt(float64(trials)))
}

// Select runs minimum-sample forcing (base-score arg-max), exploration-rate
// override, and UCB1 ranking in that order over the given candidates, which
// must already carry their base multi-criteria score. UCB1 ties go to the
// earliest candidate in the list.
func (o *Optimizer) Select(intent classifier.Intent, candidates []Candidate) Decision {
	if len(candidates) == 0 {
		return Decision{}
	}

	o.mu.RLock()
	arms := make(map[string]arm, len(candidates))
	for _, c := range candidates {
		arms[c.ProviderID] = o.arms[armKey{c.ProviderID, intent}]
	}
	totalTrials := 0
	for k, a := range o.arms {
		if k.intent == intent {
			totalTrials += a.trials
		}
	}
	o.mu.RUnlock()

	if totalTrials < o.cfg.MinSamplesBeforeExploit {
		return Decision{ProviderID: argMaxBaseScore(candidates), Reason: ReasonInsufficientData}
	}

	if o.rand.Float64() < o.cfg.ExplorationRate {
		idx := o.rand.Intn(len(candidates))
		return Decision{ProviderID: candidates[idx].ProviderID, Reason: ReasonExploration}
	}

	return Decision{ProviderID: argMaxUCB(candidates, arms, totalTrials, o.cfg.ExplorationConstant), Reason: ReasonUCBOptimization}
}

// argMaxBaseScore returns the candidate with the highest base score,
// keeping the first one seen on ties (stable order from the candidate list).
func argMaxBaseScore(candidates []Candidate) string {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.BaseScore > best.BaseScore {
			best = c
		}
	}
	return best.ProviderID
}

func argMaxUCB(candidates []Candidate, arms map[string]arm, totalTrials int, c float64) string {
	best := candidates[0].ProviderID
	bestScore := math.Inf(-1)
	for _, cand := range candidates {
		a := arms[cand.ProviderID]
		s := ucbScore(a.successes, a.trials, totalTrials, c)
		if s > bestScore {
			bestScore = s
			best = cand.ProviderID
		}
	}
	return best
}
