package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiService talks to the Gemini API through the genai SDK.
type GeminiService struct {
	client         *genai.Client
	model          string
	maxRetries     int
	baseDelay      time.Duration
	maxDelay       time.Duration
	requestTimeout time.Duration
}

func NewGeminiService(ctx context.Context, apiKey, model string) (*GeminiService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiService{
		client:         client,
		model:          model,
		maxRetries:     3,
		baseDelay:      time.Second,
		maxDelay:       30 * time.Second,
		requestTimeout: 60 * time.Second,
	}, nil
}

func (g *GeminiService) ClassifyStatus(ctx context.Context, subject, body string) (string, error) {
	reply, err := g.generate(ctx, classifySystemPrompt, classifyUserPrompt(subject, body), 0.1)
	if err != nil {
		return "", err
	}
	return parseLabel(reply)
}

func (g *GeminiService) DraftApplicationEmail(ctx context.Context, req DraftRequest) (string, error) {
	reply, err := g.generate(ctx, draftSystemPrompt, draftUserPrompt(req), 0.7)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

func (g *GeminiService) generate(ctx context.Context, system, prompt string, temperature float32) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, g.requestTimeout)
	defer cancel()

	genConfig := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(temperature),
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	}

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			delay := g.backoff(attempt)
			log.Printf("[AI] Gemini retry %d/%d after %v", attempt, g.maxRetries, delay)
			select {
			case <-time.After(delay):
			case <-timeoutCtx.Done():
				return "", fmt.Errorf("context timeout during retry: %w", timeoutCtx.Err())
			}
		}

		result, err := g.client.Models.GenerateContent(timeoutCtx, g.model, genai.Text(prompt), genConfig)
		if err == nil {
			text := result.Text()
			if strings.TrimSpace(text) == "" {
				return "", fmt.Errorf("gemini returned an empty response")
			}
			return text, nil
		}

		lastErr = err
		if !isRetryableGeminiError(err) {
			return "", fmt.Errorf("gemini generate failed: %w", err)
		}
	}

	return "", fmt.Errorf("max retries (%d) exceeded for gemini: %w", g.maxRetries, lastErr)
}

func (g *GeminiService) backoff(attempt int) time.Duration {
	delay := g.baseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
	if delay > g.maxDelay {
		delay = g.maxDelay
	}
	return delay
}

func isRetryableGeminiError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) && apiErr != nil {
		switch apiErr.Code {
		case 429, 500, 502, 503, 504:
			return true
		}
		return false
	}
	return isQuotaError(err) || isConnectionError(err)
}
