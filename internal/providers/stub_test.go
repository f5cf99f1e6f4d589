package providers

import (
	"context"
	"errors"
	"testing"
)

func TestStubAdapter_SatisfiesAdapter(t *testing.T) {
	var a Adapter = &StubAdapter{ID: "groq"}
	if a.ProviderID() != "groq" {
		t.Fatalf("expected provider id groq, got %s", a.ProviderID())
	}
}

func TestStubAdapter_Authenticate(t *testing.T) {
	a := &StubAdapter{AuthOK: true}
	ok, err := a.Authenticate(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected authenticated, got ok=%v err=%v", ok, err)
	}

	a.AuthErr = errors.New("bad credentials")
	if _, err := a.Authenticate(context.Background()); err == nil {
		t.Fatal("expected auth error to propagate")
	}
}

func TestStubAdapter_Complete_FillsProvider(t *testing.T) {
	a := &StubAdapter{ID: "openai", Response: AdapterResponse{Content: "hi", TotalTokens: 3}}
	resp, err := a.Complete(context.Background(), AdapterRequest{Prompt: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Provider != "openai" || resp.Content != "hi" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestStubAdapter_Complete_PropagatesErr(t *testing.T) {
	want := &StatusError{StatusCode: 429, Body: "rate limited"}
	a := &StubAdapter{Err: want}
	_, err := a.Complete(context.Background(), AdapterRequest{})
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != 429 {
		t.Fatalf("expected status error to propagate, got %v", err)
	}
}

func TestStubAdapter_Stream_UnsupportedByDefault(t *testing.T) {
	a := &StubAdapter{}
	if _, err := a.Stream(context.Background(), AdapterRequest{}); !errors.Is(err, ErrStreamingUnsupported) {
		t.Fatalf("expected ErrStreamingUnsupported, got %v", err)
	}
}

func TestStubAdapter_Stream_YieldsConfiguredChunks(t *testing.T) {
	a := &StubAdapter{StreamChunks: []AdapterResponse{{Content: "a"}, {Content: "b"}}}
	ch, err := a.Stream(context.Background(), AdapterRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []string
	for chunk := range ch {
		got = append(got, chunk.Content)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected stream output: %+v", got)
	}
}

func TestStubAdapter_HealthCheck_DefaultsToHealthy(t *testing.T) {
	a := &StubAdapter{}
	h, err := a.HealthCheck(context.Background())
	if err != nil || h.Status != "healthy" {
		t.Fatalf("expected default healthy status, got %+v err=%v", h, err)
	}
}

func TestStubAdapter_HealthCheck_PropagatesErr(t *testing.T) {
	a := &StubAdapter{HealthErr: errors.New("unreachable")}
	if _, err := a.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check error to propagate")
	}
}
