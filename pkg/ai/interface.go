package ai

import "context"

// DraftRequest describes the application email to write.
type DraftRequest struct {
	Position      string
	Company       string
	FromAddress   string
	CandidateName string
	Skills        []string
	Summary       string
}

// StatusClassifier labels an inbound email with an application status.
// The returned label is normalized but not guaranteed to be a known status.
type StatusClassifier interface {
	ClassifyStatus(ctx context.Context, subject, body string) (string, error)
}

// EmailDrafter writes application emails.
type EmailDrafter interface {
	DraftApplicationEmail(ctx context.Context, req DraftRequest) (string, error)
}

// Service is implemented by every AI provider (Gemini, Ollama, OpenAI-compatible gateway).
type Service interface {
	StatusClassifier
	EmailDrafter
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderGemini  ProviderType = "gemini"
	ProviderOllama  ProviderType = "ollama"
	ProviderGateway ProviderType = "gateway"
	ProviderAuto    ProviderType = "auto"
)
