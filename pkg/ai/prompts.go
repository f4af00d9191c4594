package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

const classifySystemPrompt = `You are an AI that extracts job application status from emails.
Respond with ONLY one of these statuses:
- pending (application received, under review)
- rejected (application declined)
- interview_requested (they want to schedule an interview)
- interview_scheduled (interview date/time confirmed)
- interview_completed (interview happened, awaiting decision)
- offer_received (job offer extended)
- offer_accepted (offer accepted)
- hired (contract signed/hiring complete)`

const draftSystemPrompt = "You are an expert job application writer. Generate professional, tailored application emails."

// StatusLabels is the label set offered to the model.
var StatusLabels = []string{
	"pending",
	"rejected",
	"interview_requested",
	"interview_scheduled",
	"interview_completed",
	"offer_received",
	"offer_accepted",
	"hired",
}

// Classification is the structured answer requested from providers that support JSON output.
type Classification struct {
	Status string `json:"status" jsonschema:"enum=pending,enum=rejected,enum=interview_requested,enum=interview_scheduled,enum=interview_completed,enum=offer_received,enum=offer_accepted,enum=hired" jsonschema_description:"The application status this email implies"`
	Reason string `json:"reason" jsonschema_description:"One short sentence explaining the choice"`
}

const maxPromptBodyRunes = 6000

func classifyUserPrompt(subject, body string) string {
	if r := []rune(body); len(r) > maxPromptBodyRunes {
		body = string(r[:maxPromptBodyRunes])
	}
	return fmt.Sprintf("Extract the application status from this email:\nSubject: %s\nBody: %s\nStatus:", subject, body)
}

func draftUserPrompt(req DraftRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a professional job application email for:\nPosition: %s\nCompany: %s\nFrom: %s\n", req.Position, req.Company, req.FromAddress)
	if req.CandidateName != "" {
		fmt.Fprintf(&b, "Candidate: %s\n", req.CandidateName)
	}
	if len(req.Skills) > 0 {
		fmt.Fprintf(&b, "Key skills: %s\n", strings.Join(req.Skills, ", "))
	}
	if req.Summary != "" {
		fmt.Fprintf(&b, "Background: %s\n", req.Summary)
	}
	b.WriteString("\nInclude a brief introduction, why they're a great fit, and request an interview.\nKeep it concise and professional.")
	return b.String()
}

// parseLabel pulls a status label out of a model reply. JSON replies
// ({"status": ...}) and fenced blocks are accepted as well as bare words.
func parseLabel(reply string) (string, error) {
	text := strings.TrimSpace(reply)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "{") {
		var c Classification
		if err := json.Unmarshal([]byte(text), &c); err == nil && c.Status != "" {
			text = c.Status
		}
	}

	// Models sometimes answer "Status: rejected" or add a trailing sentence
	if idx := strings.Index(text, "\n"); idx >= 0 {
		text = text[:idx]
	}
	if idx := strings.LastIndex(text, ":"); idx >= 0 {
		text = text[idx+1:]
	}

	text = strings.ToLower(strings.Trim(strings.TrimSpace(text), "\"'`.*"))
	if text == "" {
		return "", fmt.Errorf("empty classification reply")
	}
	return text, nil
}
