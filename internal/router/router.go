// Package router orchestrates intent classification, candidate filtering,
// multi-criteria scoring, and bandit-based selection into a single
// RoutingDecision. It never calls an adapter and never names more than one
// provider in a decision.
package router

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jordanhubbard/federation/internal/classifier"
	"github.com/jordanhubbard/federation/internal/cost"
	"github.com/jordanhubbard/federation/internal/optimizer"
	"github.com/jordanhubbard/federation/internal/registry"
)

const fallbackProviderID = "ollama"

// weights are fixed constants; they are not mode-switchable.
const (
	weightQuality     = 0.50
	weightSpeed       = 0.30
	weightCost        = 0.10
	weightReliability = 0.10
)

// intentSpecialty maps an intent to the provider specialty tag it rewards.
var intentSpecialty = map[classifier.Intent]string{
	classifier.IntentCodeImplementation: "code",
	classifier.IntentCodeReview:         "code",
	classifier.IntentResearch:           "reasoning",
	classifier.IntentAnalysis:           "reasoning",
	classifier.IntentDocumentation:      "documentation",
}

// Requirements are the hard constraints a task places on candidate providers.
type Requirements struct {
	MaxCost             *float64
	MaxLatencyMs        *int
	StreamingRequired   bool
	MinQualityScore     *float64
	MinContext          int
	SpecialtiesRequired []string
	DataResidency       string
	SOC2Required        bool
	GDPRRequired        bool
	HIPAARequired       bool
	FunctionsRequired   bool
	VisionRequired      bool
	JSONModeRequired    bool
	GovernancePolicy    string
}

// Task is the router's input.
type Task struct {
	ID        string
	SessionID string
	TenantID  string
	UserID    string

	Prompt       string
	SystemPrompt string

	Intent               classifier.Intent
	EstimatedInputTokens  int
	EstimatedOutputTokens int

	Requirements Requirements

	Priority string
	Deadline *time.Time
}

// outputMultiplier scales the chars/4 input-token heuristic into an output
// estimate, varying by how verbose a given intent's typical response is.
var outputMultiplier = map[classifier.Intent]float64{
	classifier.IntentCodeImplementation: 3.0,
	classifier.IntentResearch:           4.0,
	classifier.IntentSummarization:      0.5,
}

const defaultOutputMultiplier = 2.0

// EstimateTokens fills in estimated_input_tokens/estimated_output_tokens
// from a chars/4 heuristic when the task didn't already specify them.
func EstimateTokens(t Task) (inputTokens, outputTokens int) {
	inputTokens = t.EstimatedInputTokens
	if inputTokens == 0 {
		inputTokens = (len(t.SystemPrompt) + len(t.Prompt)) / 4
	}
	outputTokens = t.EstimatedOutputTokens
	if outputTokens == 0 {
		mult, ok := outputMultiplier[t.Intent]
		if !ok {
			mult = defaultOutputMultiplier
		}
		outputTokens = int(float64(inputTokens) * mult)
	}
	return inputTokens, outputTokens
}

// ScoreVector holds the four component scores and their weighted sum.
type ScoreVector struct {
	Quality     float64
	Speed       float64
	Cost        float64
	Reliability float64
	Overall     float64
}

// Alternative is a runner-up candidate included in a RoutingDecision.
type Alternative struct {
	ProviderID string
	Scores     ScoreVector
}

// Decision is the router's externally visible output.
type Decision struct {
	ProviderID string
	Model      string

	Scores     ScoreVector
	Confidence float64

	EstimatedCost      float64
	EstimatedLatencyMs int

	Alternatives []Alternative
	Reasoning    string

	DecisionTimeMs int64
	RoutedAt       time.Time
	TaskID         string
	DecisionID     string
}

// StatsSource is the subset of the outcome tracker the optimizer needs.
type StatsSource = optimizer.StatsSource

// Router orchestrates C2 (classification) -> C1 (candidates) -> scoring ->
// C5 (bandit selection) -> C3 (cost) -> RoutingDecision.
type Router struct {
	reg       *registry.Registry
	classif   *classifier.Classifier
	opt       *optimizer.Optimizer
	stats     StatsSource
	now       func() time.Time
}

// Option configures a Router.
type Option func(*Router)

// WithClock overrides the time source (tests only).
func WithClock(now func() time.Time) Option { return func(r *Router) { r.now = now } }

// New creates a Router wired to the given registry, classifier, optimizer,
// and outcome-statistics source.
func New(reg *registry.Registry, classif *classifier.Classifier, opt *optimizer.Optimizer, stats StatsSource, opts ...Option) *Router {
	r := &Router{reg: reg, classif: classif, opt: opt, stats: stats, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route is the router's single public operation: it never returns an error
// and never calls an adapter; a Task that cannot be satisfied yields a
// fallback Decision naming the local provider with confidence 0.
func (r *Router) Route(ctx context.Context, task Task) Decision {
	start := r.now()

	if task.Intent == "" {
		res := r.classif.Classify(task.SystemPrompt, task.Prompt)
		task.Intent = res.Intent
	}

	select {
	case <-ctx.Done():
		return r.fallback(task, start)
	default:
	}

	inputTokens, outputTokens := EstimateTokens(task)

	candidates := r.eligibleCandidates(task, inputTokens, outputTokens)
	if len(candidates) == 0 {
		return r.fallback(task, start)
	}

	scored := r.score(candidates, task.Intent)
	sortByOverallThenID(scored)

	optCandidates := make([]optimizer.Candidate, len(scored))
	for i, s := range scored {
		optCandidates[i] = optimizer.Candidate{ProviderID: s.provider.ID, BaseScore: s.scores.Overall}
	}
	r.opt.Refresh(r.stats, task.Intent, optCandidates)
	pick := r.opt.Select(task.Intent, optCandidates)

	selected := findScored(scored, pick.ProviderID)
	if selected == nil {
		selected = &scored[0]
	}

	estimatedCost := cost.Estimate(selected.provider, inputTokens, outputTokens)
	estimatedLatency := 1500
	if selected.provider.Capabilities.TypicalLatencyMs != nil {
		estimatedLatency = *selected.provider.Capabilities.TypicalLatencyMs
	}

	alternatives := buildAlternatives(scored, selected.provider.ID)

	decisionTimeMs := r.now().Sub(start).Milliseconds()

	return Decision{
		ProviderID:         selected.provider.ID,
		Scores:             selected.scores,
		Confidence:         selected.scores.Overall,
		EstimatedCost:      estimatedCost,
		EstimatedLatencyMs: estimatedLatency,
		Alternatives:       alternatives,
		Reasoning:          reasoning(selected.provider, selected.scores, task.Intent),
		DecisionTimeMs:     decisionTimeMs,
		RoutedAt:           start,
		TaskID:             task.ID,
		DecisionID:         uuid.NewString(),
	}
}

func (r *Router) fallback(task Task, start time.Time) Decision {
	return Decision{
		ProviderID:     fallbackProviderID,
		Confidence:     0,
		Reasoning:      "no eligible candidate satisfied the task's constraints; falling back to the local provider",
		DecisionTimeMs: r.now().Sub(start).Milliseconds(),
		RoutedAt:       start,
		TaskID:         task.ID,
		DecisionID:     uuid.NewString(),
	}
}

// eligibleCandidates retrieves all providers, drops unavailable ones, then
// applies the task's hard constraints (compliance, residency, context window,
// budget) as a filter rather than a scoring term.
func (r *Router) eligibleCandidates(task Task, inputTokens, outputTokens int) []registry.Provider {
	now := r.now()
	var out []registry.Provider
	for _, p := range r.reg.GetAllSorted() {
		if !p.IsAvailable(now) {
			continue
		}
		if !meetsRequirements(p, task.Requirements, inputTokens, outputTokens) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func meetsRequirements(p registry.Provider, req Requirements, inputTokens, outputTokens int) bool {
	if req.MinContext > p.Capabilities.MaxContext {
		return false
	}
	if req.FunctionsRequired && !p.Capabilities.SupportsFunctions {
		return false
	}
	if req.VisionRequired && !p.Capabilities.SupportsVision {
		return false
	}
	if req.JSONModeRequired && !p.Capabilities.SupportsJSONMode {
		return false
	}
	if req.StreamingRequired && !p.Capabilities.SupportsStreaming {
		return false
	}
	if req.SOC2Required && !p.Capabilities.SOC2Compliant {
		return false
	}
	if req.GDPRRequired && !p.Capabilities.GDPRCompliant {
		return false
	}
	if req.HIPAARequired && !p.Capabilities.HIPAACompliant {
		return false
	}
	if req.MinQualityScore != nil && p.Quality() < *req.MinQualityScore {
		return false
	}
	if req.MaxLatencyMs != nil && p.Capabilities.TypicalLatencyMs != nil && *p.Capabilities.TypicalLatencyMs > *req.MaxLatencyMs {
		return false
	}
	if req.MaxCost != nil {
		estimated := p.Cost.Estimate(inputTokens, outputTokens)
		if estimated > *req.MaxCost {
			return false
		}
	}
	if req.DataResidency != "" {
		if req.DataResidency == "local" {
			// Satisfied iff local is a member of the provider's
			// data_residency set, not an exact-set match.
			if !p.Capabilities.DataResidency["local"] {
				return false
			}
		} else if !p.Capabilities.DataResidency[req.DataResidency] {
			return false
		}
	}
	if len(req.SpecialtiesRequired) > 0 {
		overlap := false
		for _, s := range req.SpecialtiesRequired {
			if p.Capabilities.HasSpecialty(s) {
				overlap = true
				break
			}
		}
		if !overlap {
			return false
		}
	}
	return true
}

type scoredProvider struct {
	provider registry.Provider
	scores   ScoreVector
}

func (r *Router) score(candidates []registry.Provider, intent classifier.Intent) []scoredProvider {
	out := make([]scoredProvider, len(candidates))
	for i, p := range candidates {
		out[i] = scoredProvider{provider: p, scores: scoreProvider(p, intent)}
	}
	return out
}

func scoreProvider(p registry.Provider, intent classifier.Intent) ScoreVector {
	quality := scoreQuality(p, intent)
	speed := scoreSpeed(p)
	costScore := scoreCost(p)
	reliability := scoreReliability(p)
	overall := weightQuality*quality + weightSpeed*speed + weightCost*costScore + weightReliability*reliability
	return ScoreVector{Quality: quality, Speed: speed, Cost: costScore, Reliability: reliability, Overall: overall}
}

func scoreQuality(p registry.Provider, intent classifier.Intent) float64 {
	base := p.Quality()
	if specialty, ok := intentSpecialty[intent]; ok && p.Capabilities.HasSpecialty(specialty) {
		base += 0.05
	}
	if base > 1.0 {
		base = 1.0
	}
	return base
}

func scoreSpeed(p registry.Provider) float64 {
	if p.Capabilities.TypicalLatencyMs == nil {
		return 0.6
	}
	lat := float64(*p.Capabilities.TypicalLatencyMs)
	switch {
	case lat < 300:
		return 1.0
	case lat > 5000:
		return 0.3
	default:
		return 1.0 - (lat-300)/4700
	}
}

func scoreCost(p registry.Provider) float64 {
	avg := (p.Cost.InputPer1M + p.Cost.OutputPer1M) / 2
	switch {
	case avg == 0:
		return 1.0
	case avg < 0.50:
		return 1.0
	case avg > 10.0:
		return 0.2
	default:
		return 1.0 - (math.Log10(avg)-math.Log10(0.5))/2
	}
}

func scoreReliability(p registry.Provider) float64 {
	base := p.Reliability()
	base -= p.Health.ErrorRate24h
	if p.Health.Status == registry.StatusDegraded {
		base -= 0.1
	}
	if p.Health.Status == registry.StatusUnhealthy {
		base = 0
	}
	return clamp(base, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// sortByOverallThenID gives deterministic ordering: stable sort by overall
// score descending, then provider id ascending for ties.
func sortByOverallThenID(scored []scoredProvider) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].scores.Overall != scored[j].scores.Overall {
			return scored[i].scores.Overall > scored[j].scores.Overall
		}
		return scored[i].provider.ID < scored[j].provider.ID
	})
}

func findScored(scored []scoredProvider, id string) *scoredProvider {
	for i := range scored {
		if scored[i].provider.ID == id {
			return &scored[i]
		}
	}
	return nil
}

func buildAlternatives(scored []scoredProvider, excludeID string) []Alternative {
	var out []Alternative
	for _, s := range scored {
		if s.provider.ID == excludeID {
			continue
		}
		out = append(out, Alternative{ProviderID: s.provider.ID, Scores: s.scores})
		if len(out) == 3 {
			break
		}
	}
	return out
}

func reasoning(p registry.Provider, s ScoreVector, intent classifier.Intent) string {
	reasons := []string{}
	if s.Quality > 0.9 {
		reasons = append(reasons, "strong quality")
	}
	if s.Speed > 0.8 {
		reasons = append(reasons, "low latency")
	}
	if s.Cost > 0.9 {
		reasons = append(reasons, "cost efficient")
	}
	if s.Reliability > 0.95 {
		reasons = append(reasons, "highly reliable")
	}
	if specialty, ok := intentSpecialty[intent]; ok && p.Capabilities.HasSpecialty(specialty) {
		reasons = append(reasons, fmt.Sprintf("specializes in %s", specialty))
	}
	if len(reasons) == 0 {
		return fmt.Sprintf("%s selected (overall score %.2f)", p.ID, s.Overall)
	}
	msg := reasons[0]
	for _, r := range reasons[1:] {
		msg += ", " + r
	}
	return fmt.Sprintf("%s selected: %s", p.ID, msg)
}
