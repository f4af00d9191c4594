package ai

import (
	"context"
	"errors"
	"testing"
)

type stubService struct {
	label string
	draft string
	err   error
	calls int
}

func (s *stubService) ClassifyStatus(ctx context.Context, subject, body string) (string, error) {
	s.calls++
	return s.label, s.err
}

func (s *stubService) DraftApplicationEmail(ctx context.Context, req DraftRequest) (string, error) {
	s.calls++
	return s.draft, s.err
}

func TestFallbackClassifyUsesPrimary(t *testing.T) {
	primary := &stubService{label: "rejected"}
	local := &stubService{label: "pending"}

	label, err := NewFallbackService(primary, local).ClassifyStatus(context.Background(), "s", "b")
	if err != nil || label != "rejected" {
		t.Fatalf("label = %q, err = %v", label, err)
	}
	if local.calls != 0 {
		t.Fatal("ollama should not be called when primary succeeds")
	}
}

func TestFallbackClassifyFallsBackOnQuota(t *testing.T) {
	primary := &stubService{err: errors.New("googleapi: Error 429: RESOURCE_EXHAUSTED")}
	local := &stubService{label: "hired"}

	label, err := NewFallbackService(primary, local).ClassifyStatus(context.Background(), "s", "b")
	if err != nil || label != "hired" {
		t.Fatalf("label = %q, err = %v", label, err)
	}
}

func TestFallbackDraftPrefersOllama(t *testing.T) {
	primary := &stubService{draft: "hosted"}
	local := &stubService{err: errors.New("dial tcp 127.0.0.1:11434: connection refused")}

	draft, err := NewFallbackService(primary, local).DraftApplicationEmail(context.Background(), DraftRequest{})
	if err != nil || draft != "hosted" {
		t.Fatalf("draft = %q, err = %v", draft, err)
	}
	if local.calls != 1 || primary.calls != 1 {
		t.Fatalf("calls local=%d primary=%d", local.calls, primary.calls)
	}
}

func TestFallbackNoProviders(t *testing.T) {
	if _, err := NewFallbackService(nil, nil).ClassifyStatus(context.Background(), "s", "b"); err == nil {
		t.Fatal("expected error")
	}
}

func TestErrorClassification(t *testing.T) {
	if !isQuotaError(errors.New("rate limit exceeded")) {
		t.Fatal("rate limit should be a quota error")
	}
	if isQuotaError(errors.New("bad request")) {
		t.Fatal("bad request is not a quota error")
	}
	if !isConnectionError(errors.New("dial tcp: no such host")) {
		t.Fatal("no such host should be a connection error")
	}
}

func TestParseProvider(t *testing.T) {
	if p, err := ParseProvider(""); err != nil || p != ProviderAuto {
		t.Fatalf("empty provider = %q, %v", p, err)
	}
	if _, err := ParseProvider("claude"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
