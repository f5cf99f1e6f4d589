// Package providers defines the out-of-scope adapter boundary: the contract
// every vendor-specific client must satisfy so the router's decisions can be
// executed. No concrete vendor adapter lives in this tree; StubAdapter exists
// only to exercise the contract in tests.
package providers

import (
	"context"
	"fmt"
)

// StatusError captures an HTTP status code from a provider response. Used by
// adapters to return structured errors that callers can classify.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// AdapterRequest is the unified request schema handed to an adapter.
type AdapterRequest struct {
	Prompt       string
	SystemPrompt string
	Messages     []Message
	Model        string
	Temperature  float64
	MaxTokens    int
	Stream       bool
	JSONMode     bool
	TaskID       string
}

// Message is one turn in a multi-turn conversation.
type Message struct {
	Role    string
	Content string
}

// AdapterResponse is the unified response schema an adapter returns.
type AdapterResponse struct {
	Content      string
	Model        string
	Provider     string
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	CostUSD      float64
	ResponseID   string
	FinishReason string
	LatencyMs    int64
	Raw          []byte
}

// HealthStatus is the result of an adapter's own health probe.
type HealthStatus struct {
	Status        string // healthy | degraded | unhealthy
	LatencyMs     int64
	Authenticated bool
}

// Adapter is the boundary to out-of-scope, per-vendor provider code. The
// core only depends on this interface; it never executes an upstream call
// itself.
type Adapter interface {
	ProviderID() string
	Authenticate(ctx context.Context) (bool, error)
	Complete(ctx context.Context, req AdapterRequest) (AdapterResponse, error)
	Stream(ctx context.Context, req AdapterRequest) (<-chan AdapterResponse, error)
	HealthCheck(ctx context.Context) (HealthStatus, error)
}

// ErrStreamingUnsupported is returned by Stream when an adapter has no
// streaming support.
var ErrStreamingUnsupported = fmt.Errorf("streaming not supported by this adapter")
