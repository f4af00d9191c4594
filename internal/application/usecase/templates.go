package usecase

import (
	_ "embed"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"jobmatch-backend/internal/application/domain"

	"gopkg.in/yaml.v3"
)

//go:embed templates/responses.yaml
var defaultResponseTemplates []byte

// ResponseTemplate is one canned employer reply.
type ResponseTemplate struct {
	Name    string        `yaml:"name"`
	Status  domain.Status `yaml:"status"`
	Note    string        `yaml:"note"`
	Subject string        `yaml:"subject"`
	Body    string        `yaml:"body"`
}

var templateOrder = []struct {
	name   string
	status domain.Status
}{
	{"assignment", domain.StatusInterviewRequested},
	{"interview", domain.StatusInterviewScheduled},
	{"rejection", domain.StatusRejected},
}

var interviewSlots = []string{"09:00", "10:00", "11:00", "14:00", "15:00", "16:00"}

// LoadResponseTemplates reads the template file at path, or the built-in
// templates when path is empty.
func LoadResponseTemplates(path string) ([]ResponseTemplate, error) {
	data := defaultResponseTemplates
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read response templates: %w", err)
		}
	}
	return ParseResponseTemplates(data)
}

// ParseResponseTemplates decodes and validates a template list. Exactly the
// assignment, interview and rejection templates are accepted, in that order.
func ParseResponseTemplates(data []byte) ([]ResponseTemplate, error) {
	var templates []ResponseTemplate
	if err := yaml.Unmarshal(data, &templates); err != nil {
		return nil, fmt.Errorf("invalid response templates: %w", err)
	}
	if len(templates) != len(templateOrder) {
		return nil, fmt.Errorf("expected %d response templates, got %d", len(templateOrder), len(templates))
	}
	for i, want := range templateOrder {
		t := templates[i]
		if t.Name != want.name || t.Status != want.status {
			return nil, fmt.Errorf("template %d must be %q with status %q, got %q/%q", i, want.name, want.status, t.Name, t.Status)
		}
		if strings.TrimSpace(t.Subject) == "" || strings.TrimSpace(t.Body) == "" {
			return nil, fmt.Errorf("template %q needs a subject and a body", t.Name)
		}
	}
	return templates, nil
}

// render substitutes every placeholder of t for app.
func (t ResponseTemplate) render(app *domain.Application, date, slot string) (subject, body string) {
	r := strings.NewReplacer(
		"{position}", app.Position,
		"{company}", app.Company,
		"{date}", date,
		"{time}", slot,
	)
	return r.Replace(t.Subject), r.Replace(t.Body)
}

// interviewDate picks a Monday to Friday date 3 to 9 days after now.
func interviewDate(now time.Time, rnd *rand.Rand) string {
	var days []time.Time
	for offset := 3; offset <= 9; offset++ {
		d := now.AddDate(0, 0, offset)
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			days = append(days, d)
		}
	}
	return days[rnd.Intn(len(days))].Format("Monday, January 2")
}

func interviewSlot(rnd *rand.Rand) string {
	return interviewSlots[rnd.Intn(len(interviewSlots))]
}

// careersAddress is the employer mailbox used for simulated and drafted mail.
func careersAddress(company string) string {
	return "careers@" + strings.ToLower(strings.Join(strings.Fields(company), "")) + ".com"
}
