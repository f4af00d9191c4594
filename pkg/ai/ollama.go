package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// OllamaService uses a local Ollama server. Base URL and model are read
// through getters so they can be changed at runtime.
type OllamaService struct {
	client     *resty.Client
	getBaseURL func() string
	getModel   func() string
}

// NewOllamaService creates a new Ollama service
func NewOllamaService(baseURL, model string) *OllamaService {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3"
	}
	return NewOllamaServiceWithGetters(
		func() string { return baseURL },
		func() string { return model },
	)
}

// NewOllamaServiceWithGetters creates a new Ollama service with dynamic getters
func NewOllamaServiceWithGetters(getBaseURL, getModel func() string) *OllamaService {
	return &OllamaService{
		client:     resty.New().SetTimeout(2 * time.Minute),
		getBaseURL: getBaseURL,
		getModel:   getModel,
	}
}

func (o *OllamaService) ClassifyStatus(ctx context.Context, subject, body string) (string, error) {
	prompt := classifySystemPrompt + "\n\n" + classifyUserPrompt(subject, body)
	reply, err := o.generate(ctx, prompt, 0.1, 20)
	if err != nil {
		return "", err
	}
	return parseLabel(reply)
}

func (o *OllamaService) DraftApplicationEmail(ctx context.Context, req DraftRequest) (string, error) {
	prompt := draftSystemPrompt + "\n\n" + draftUserPrompt(req)
	reply, err := o.generate(ctx, prompt, 0.7, 600)
	if err != nil {
		return "", err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", fmt.Errorf("ollama returned an empty draft")
	}
	return reply, nil
}

func (o *OllamaService) generate(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	resp, err := o.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]interface{}{
			"model":  o.getModel(),
			"prompt": prompt,
			"stream": false,
			"options": map[string]interface{}{
				"temperature": temperature,
				"num_predict": maxTokens,
			},
		}).
		Post(strings.TrimRight(o.getBaseURL(), "/") + "/api/generate")
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("ollama API error (%d): %s", resp.StatusCode(), resp.String())
	}

	result := gjson.Get(resp.String(), "response")
	if !result.Exists() {
		return "", fmt.Errorf("ollama response missing text: %s", resp.String())
	}
	return result.String(), nil
}

// Ping checks that the Ollama server answers on /api/tags.
func (o *OllamaService) Ping(ctx context.Context, baseURL string) error {
	if baseURL == "" {
		baseURL = o.getBaseURL()
	}
	resp, err := o.client.R().SetContext(ctx).Get(strings.TrimRight(baseURL, "/") + "/api/tags")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode())
	}
	return nil
}
