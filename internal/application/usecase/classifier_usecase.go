package usecase

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"jobmatch-backend/internal/application/domain"
	"jobmatch-backend/internal/application/dto"
	"jobmatch-backend/internal/application/repository"
	"jobmatch-backend/pkg/ai"
)

const excerptLength = 500

type classifierUsecase struct {
	store      repository.Store
	classifier ai.StatusClassifier
	writer     *statusWriter
	notifier   Notifier
	batchSize  int

	// one batch at a time; the ticker and the endpoint share it
	mu sync.Mutex
}

func NewClassifierUsecase(store repository.Store, batchSize int) *classifierUsecase {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &classifierUsecase{
		store:     store,
		writer:    newStatusWriter(time.Now),
		batchSize: batchSize,
	}
}

func (u *classifierUsecase) SetClassifier(c ai.StatusClassifier) { u.classifier = c }
func (u *classifierUsecase) SetNotifier(n Notifier)              { u.notifier = n }
func (u *classifierUsecase) SetEventPublisher(p EventPublisher)  { u.writer.publisher = p }

// ProcessUnprocessed labels every unprocessed received message and moves
// its application accordingly. Items are independent. A message whose
// classification fails stays unprocessed and is retried on the next run,
// up to domain.MaxClassifyAttempts times.
func (u *classifierUsecase) ProcessUnprocessed(ctx context.Context) (*dto.ClassifySummary, error) {
	if u.classifier == nil {
		return nil, ErrAIUnavailable
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	msgs, err := u.store.Messages().FindUnprocessedReceived(ctx, u.batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load unprocessed messages: %w", err)
	}

	summary := &dto.ClassifySummary{Results: []dto.ClassifyResult{}}
	for _, msg := range msgs {
		result := u.classifyOne(ctx, msg)
		switch result.Outcome {
		case "applied":
			summary.EmailsProcessed++
		case "conflict":
			summary.EmailsProcessed++
			summary.Conflicts++
		case "unrecognized":
			summary.EmailsProcessed++
			summary.Unrecognized++
		default:
			summary.Failed++
		}
		summary.Results = append(summary.Results, result)
	}

	if len(msgs) > 0 {
		log.Printf("[Classifier] %d processed, %d conflicts, %d unrecognized, %d failed",
			summary.EmailsProcessed, summary.Conflicts, summary.Unrecognized, summary.Failed)
	}
	return summary, nil
}

func (u *classifierUsecase) classifyOne(ctx context.Context, msg *domain.Message) dto.ClassifyResult {
	result := dto.ClassifyResult{MessageID: msg.ID, ApplicationID: msg.ApplicationID, Outcome: "failed"}

	// the version read here is the one the write is checked against
	app, err := u.store.Applications().FindByID(ctx, msg.ApplicationID)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	if app == nil {
		result.Error = ErrApplicationNotFound.Error()
		return result
	}

	raw, err := u.classifier.ClassifyStatus(ctx, msg.Subject, msg.Body)
	if err != nil {
		log.Printf("[Classifier] AI error for message %s: %v", msg.ID, err)
		result.Error = err.Error()
		u.recordFailure(ctx, msg)
		return result
	}
	label := domain.NormalizeLabel(raw)
	if label == "" {
		result.Error = "empty label"
		u.recordFailure(ctx, msg)
		return result
	}
	result.Label = label

	status, known := domain.ParseStatus(label)
	known = known && isClassifierLabel(status)

	receivedAt := msg.ReceivedAt
	var event *domain.StatusEvent
	err = u.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Messages().MarkProcessed(ctx, msg.ID, label); err != nil {
			return fmt.Errorf("failed to mark message processed: %w", err)
		}
		if !known {
			return nil
		}
		var err error
		event, err = u.writer.write(ctx, tx, statusChange{
			App:       app,
			To:        status,
			Source:    domain.SourceClassifier,
			MessageID: msg.ID,
			Details: domain.StatusDetails{
				Message:          "Status updated from email",
				EmailReceived:    true,
				Source:           string(domain.SourceClassifier),
				LastEmailExcerpt: excerpt(msg.Body, excerptLength),
				LastEmailFrom:    msg.FromEmail,
				LastEmailAt:      &receivedAt,
			},
		})
		return err
	})
	if err != nil {
		log.Printf("[Classifier] Failed to store result for message %s: %v", msg.ID, err)
		result.Error = err.Error()
		return result
	}

	switch {
	case !known:
		log.Printf("[Classifier] Unrecognized label %q for message %s, application left unchanged", label, msg.ID)
		result.Outcome = "unrecognized"
	case event.Conflict:
		log.Printf("[Classifier] Application %s changed while message %s was classified, %s not applied", app.ID, msg.ID, label)
		result.Outcome = "conflict"
		result.Error = ErrStatusConflict.Error()
	default:
		result.Outcome = "applied"
		u.writer.publish(ctx, event)
		u.notifyChange(ctx, app, status)
	}
	return result
}

func (u *classifierUsecase) recordFailure(ctx context.Context, msg *domain.Message) {
	if err := u.store.Messages().RecordClassifyFailure(ctx, msg.ID); err != nil {
		log.Printf("[Classifier] Failed to record attempt for message %s: %v", msg.ID, err)
		return
	}
	if msg.ClassifyAttempts+1 >= domain.MaxClassifyAttempts {
		log.Printf("[Classifier] Giving up on message %s after %d attempts", msg.ID, domain.MaxClassifyAttempts)
	}
}

func (u *classifierUsecase) notifyChange(ctx context.Context, app *domain.Application, status domain.Status) {
	if u.notifier == nil || status == app.Status {
		return
	}
	u.notifier.NotifyUser(ctx, app.UserID, domain.Notification{
		Event: "status_changed",
		Title: fmt.Sprintf("Update from %s", app.Company),
		Body:  fmt.Sprintf("%s: %s", app.Position, humanStatus(status)),
		Link:  "/inbox",
		Data: map[string]interface{}{
			"application_id": app.ID,
			"status":         string(status),
		},
	})
}

func isClassifierLabel(s domain.Status) bool {
	for _, l := range domain.ClassifierLabels {
		if s == l {
			return true
		}
	}
	return false
}

func humanStatus(s domain.Status) string {
	switch s {
	case domain.StatusInterviewRequested:
		return "interview requested"
	case domain.StatusInterviewScheduled:
		return "interview scheduled"
	case domain.StatusInterviewCompleted:
		return "interview completed"
	case domain.StatusOfferReceived:
		return "offer received"
	case domain.StatusOfferAccepted:
		return "offer accepted"
	default:
		return string(s)
	}
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
