package providers

import (
	"context"
)

// StubAdapter is an in-memory Adapter used only to exercise the contract in
// tests; it never makes a network call. Canned responses and errors are
// configured directly on the struct before use.
type StubAdapter struct {
	ID string

	AuthOK  bool
	AuthErr error

	Response AdapterResponse
	Err      error

	Health    HealthStatus
	HealthErr error

	StreamChunks []AdapterResponse
}

var _ Adapter = (*StubAdapter)(nil)

func (s *StubAdapter) ProviderID() string { return s.ID }

func (s *StubAdapter) Authenticate(ctx context.Context) (bool, error) {
	return s.AuthOK, s.AuthErr
}

func (s *StubAdapter) Complete(ctx context.Context, req AdapterRequest) (AdapterResponse, error) {
	if s.Err != nil {
		return AdapterResponse{}, s.Err
	}
	resp := s.Response
	if resp.Provider == "" {
		resp.Provider = s.ID
	}
	return resp, nil
}

func (s *StubAdapter) Stream(ctx context.Context, req AdapterRequest) (<-chan AdapterResponse, error) {
	if len(s.StreamChunks) == 0 {
		return nil, ErrStreamingUnsupported
	}
	ch := make(chan AdapterResponse, len(s.StreamChunks))
	for _, c := range s.StreamChunks {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func (s *StubAdapter) HealthCheck(ctx context.Context) (HealthStatus, error) {
	if s.HealthErr != nil {
		return HealthStatus{}, s.HealthErr
	}
	h := s.Health
	if h.Status == "" {
		h.Status = "healthy"
		h.LatencyMs = 10
	}
	return h, nil
}
