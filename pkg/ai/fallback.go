package ai

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
)

// FallbackService routes calls to a hosted provider first and falls back to
// the local Ollama server when it is out of quota or unreachable.
type FallbackService struct {
	primary Service
	ollama  Service
}

func NewFallbackService(primary Service, ollama Service) *FallbackService {
	return &FallbackService{
		primary: primary,
		ollama:  ollama,
	}
}

// isConnectionError checks if the error is a network/connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := err.(net.Error); ok {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, indicator := range []string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection reset",
		"timeout",
		"dial tcp",
		"eof",
	} {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}

// isQuotaError checks if the error indicates API quota exhaustion (429)
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, indicator := range []string{
		"429",
		"quota",
		"rate limit",
		"too many requests",
		"resource_exhausted",
		"resource exhausted",
	} {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}

// ClassifyStatus prefers the hosted model for accuracy.
func (f *FallbackService) ClassifyStatus(ctx context.Context, subject, body string) (string, error) {
	if f.primary != nil {
		label, err := f.primary.ClassifyStatus(ctx, subject, body)
		if err == nil {
			return label, nil
		}
		if isQuotaError(err) {
			log.Printf("[AI] Primary provider quota exhausted: %v, falling back to Ollama", err)
		} else {
			log.Printf("[AI] Primary provider error: %v, falling back to Ollama", err)
		}
	}

	if f.ollama != nil {
		label, err := f.ollama.ClassifyStatus(ctx, subject, body)
		if err == nil {
			return label, nil
		}
		return "", fmt.Errorf("ollama classification failed: %w", err)
	}

	return "", fmt.Errorf("no AI provider available for classification")
}

// DraftApplicationEmail tries Ollama first (local, free) and uses the hosted
// model when Ollama is unreachable.
func (f *FallbackService) DraftApplicationEmail(ctx context.Context, req DraftRequest) (string, error) {
	if f.ollama != nil {
		draft, err := f.ollama.DraftApplicationEmail(ctx, req)
		if err == nil {
			return draft, nil
		}
		if isConnectionError(err) {
			log.Printf("[AI] Ollama connection failed: %v, falling back to primary provider", err)
		} else {
			log.Printf("[AI] Ollama error: %v, falling back to primary provider", err)
		}
	}

	if f.primary != nil {
		draft, err := f.primary.DraftApplicationEmail(ctx, req)
		if err == nil {
			return draft, nil
		}
		if isQuotaError(err) && f.ollama != nil {
			log.Printf("[AI] Primary provider quota exhausted: %v, retrying Ollama", err)
			return f.ollama.DraftApplicationEmail(ctx, req)
		}
		return "", fmt.Errorf("draft generation failed: %w", err)
	}

	return "", fmt.Errorf("no AI provider available for drafting")
}
