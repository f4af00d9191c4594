package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// GatewayService calls any OpenAI-compatible chat completions endpoint
// (OpenAI itself, an LLM gateway, OpenRouter).
type GatewayService struct {
	client     openai.Client
	model      string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

func NewGatewayService(baseURL, apiKey, model string) (*GatewayService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("AI_GATEWAY_API_KEY is required for gateway provider")
	}
	if model == "" {
		model = "google/gemini-2.5-flash"
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// retries are handled below so rate limits get jittered backoff
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &GatewayService{
		client:     openai.NewClient(opts...),
		model:      model,
		maxRetries: 5,
		baseDelay:  500 * time.Millisecond,
		maxDelay:   10 * time.Second,
	}, nil
}

func generateSchema[T any]() interface{} {
	// Structured outputs accept a subset of JSON schema
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

var classificationSchema = generateSchema[Classification]()

func (g *GatewayService) ClassifyStatus(ctx context.Context, subject, body string) (string, error) {
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "application_status",
		Description: openai.String("Job application status extracted from an email"),
		Schema:      classificationSchema,
		Strict:      openai.Bool(true),
	}

	completion, err := g.executeWithRetry(ctx, func() (*openai.ChatCompletion, error) {
		return g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(classifySystemPrompt),
				openai.UserMessage(classifyUserPrompt(subject, body)),
			},
			Model:       openai.ChatModel(g.model),
			Temperature: openai.Float(0.1),
			ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schemaParam},
			},
		})
	})
	if err != nil {
		return "", err
	}
	return parseLabel(firstChoice(completion))
}

func (g *GatewayService) DraftApplicationEmail(ctx context.Context, req DraftRequest) (string, error) {
	completion, err := g.executeWithRetry(ctx, func() (*openai.ChatCompletion, error) {
		return g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(draftSystemPrompt),
				openai.UserMessage(draftUserPrompt(req)),
			},
			Model: openai.ChatModel(g.model),
		})
	})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(firstChoice(completion))
	if text == "" {
		return "", fmt.Errorf("gateway returned an empty draft")
	}
	return text, nil
}

func firstChoice(completion *openai.ChatCompletion) string {
	if completion == nil || len(completion.Choices) == 0 {
		return ""
	}
	return completion.Choices[0].Message.Content
}

func (g *GatewayService) executeWithRetry(ctx context.Context, operation func() (*openai.ChatCompletion, error)) (*openai.ChatCompletion, error) {
	for i := 0; i <= g.maxRetries; i++ {
		result, err := operation()
		if err == nil {
			return result, nil
		}

		var apiErr *openai.Error
		if errors.As(err, &apiErr) && (apiErr.StatusCode == 429 || apiErr.StatusCode >= 500) && i < g.maxRetries {
			// exponential backoff with full jitter
			backoff := time.Duration(float64(g.baseDelay) * math.Pow(2, float64(i)))
			backoff = min(backoff, g.maxDelay)
			delay := time.Duration(rand.Int63n(int64(backoff) + 1))
			log.Printf("[AI] Gateway returned %d, retry %d/%d in %v", apiErr.StatusCode, i+1, g.maxRetries, delay)
			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	return nil, fmt.Errorf("max retries (%d) reached for gateway", g.maxRetries)
}
