package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"jobmatch-backend/internal/application/domain"
	"jobmatch-backend/internal/application/repository"
)

// ResponseSimulator writes canned employer replies for submitted
// applications: assignment, interview and rejection in turn.
type ResponseSimulator struct {
	store            repository.Store
	templates        []ResponseTemplate
	writer           *statusWriter
	mailboxes        MailboxStore
	notifier         Notifier
	indexer          messageIndexer
	defaultRecipient string

	now   func() time.Time
	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewResponseSimulator(store repository.Store, templates []ResponseTemplate, mailboxes MailboxStore, defaultRecipient string) *ResponseSimulator {
	if defaultRecipient == "" {
		defaultRecipient = "candidate@example.com"
	}
	return &ResponseSimulator{
		store:            store,
		templates:        templates,
		writer:           newStatusWriter(time.Now),
		mailboxes:        mailboxes,
		defaultRecipient: defaultRecipient,
		now:              time.Now,
		rnd:              rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *ResponseSimulator) SetNotifier(n Notifier)             { s.notifier = n }
func (s *ResponseSimulator) SetEventPublisher(p EventPublisher) { s.writer.publisher = p }
func (s *ResponseSimulator) SetIndexer(i messageIndexer)        { s.indexer = i }

// Run replies to the applications in ids order. Items are independent: a
// failing item is recorded in the summary and the loop moves on. An error is
// returned only when nothing could be attempted.
func (s *ResponseSimulator) Run(ctx context.Context, userID string, ids []string) (*domain.SimulationSummary, error) {
	apps, err := s.store.Applications().FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load applications: %w", err)
	}
	byID := make(map[string]*domain.Application, len(apps))
	for _, app := range apps {
		if app.UserID == userID {
			byID[app.ID] = app
		}
	}

	recipient := s.recipient(userID)
	summary := &domain.SimulationSummary{Items: []domain.SimulatedItem{}}

	// the template index follows the position in the reloaded list
	index := 0
	for _, id := range ids {
		app, ok := byID[id]
		if !ok {
			continue
		}
		tmpl := s.templates[index%len(s.templates)]
		index++

		item := domain.SimulatedItem{ApplicationID: id, Template: tmpl.Name, Status: tmpl.Status}
		msg, err := s.respond(ctx, app.ID, tmpl, recipient)
		switch {
		case errors.Is(err, errAlreadyAnswered):
			item.Error = err.Error()
			summary.Items = append(summary.Items, item)
			continue
		case err != nil:
			log.Printf("[Simulator] Failed to answer application %s: %v", id, err)
			item.Error = err.Error()
			summary.Failed++
			summary.Items = append(summary.Items, item)
			continue
		}

		item.MessageID = msg.ID
		summary.Processed++
		if tmpl.Status == domain.StatusRejected {
			summary.Rejected++
		} else {
			summary.Positive++
		}
		summary.Items = append(summary.Items, item)
	}

	log.Printf("[Simulator] User %s: %d processed, %d positive, %d rejected, %d failed",
		userID, summary.Processed, summary.Positive, summary.Rejected, summary.Failed)

	if summary.Processed > 0 && s.notifier != nil {
		s.notifier.NotifyUser(ctx, userID, domain.Notification{
			Event: "responses_arrived",
			Title: "Companies Have Responded!",
			Body:  fmt.Sprintf("You have %d positive responses! Check your Inbox.", summary.Positive),
			Link:  "/inbox",
			Data: map[string]interface{}{
				"processed": summary.Processed,
				"positive":  summary.Positive,
				"rejected":  summary.Rejected,
			},
		})
	}
	return summary, nil
}

var errAlreadyAnswered = errors.New("already answered")

// respond inserts the reply and moves the application in one transaction,
// reading the application fresh so the version check is against current data.
func (s *ResponseSimulator) respond(ctx context.Context, appID string, tmpl ResponseTemplate, recipient string) (*domain.Message, error) {
	var (
		msg   *domain.Message
		event *domain.StatusEvent
		app   *domain.Application
	)
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		app, err = tx.Applications().FindByID(ctx, appID)
		if err != nil {
			return err
		}
		if app == nil {
			return ErrApplicationNotFound
		}
		// a retried job must not answer twice
		if d := app.Details(); d.Source == string(domain.SourceSimulator) && d.EmailReceived {
			return errAlreadyAnswered
		}

		date, slot := s.pick()
		subject, body := tmpl.render(app, date, slot)
		label := string(tmpl.Status)
		now := s.now()

		msg = &domain.Message{
			ApplicationID:   app.ID,
			Direction:       domain.DirectionReceived,
			FromEmail:       careersAddress(app.Company),
			ToEmail:         recipient,
			Subject:         subject,
			Body:            body,
			ReceivedAt:      now,
			Processed:       true,
			StatusExtracted: &label,
		}
		if err := tx.Messages().Create(ctx, msg); err != nil {
			return fmt.Errorf("failed to insert reply: %w", err)
		}

		event, err = s.writer.write(ctx, tx, statusChange{
			App:       app,
			To:        tmpl.Status,
			Source:    domain.SourceSimulator,
			MessageID: msg.ID,
			Details: domain.StatusDetails{
				Message:       tmpl.Note,
				EmailReceived: true,
				Source:        string(domain.SourceSimulator),
			},
		})
		if err != nil {
			return err
		}
		if event.Conflict {
			return ErrStatusConflict
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.writer.publish(ctx, event)
	if s.indexer != nil {
		s.indexer.QueueMessage(msg, app)
	}
	return msg, nil
}

func (s *ResponseSimulator) pick() (date, slot string) {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return interviewDate(s.now(), s.rnd), interviewSlot(s.rnd)
}

func (s *ResponseSimulator) recipient(userID string) string {
	if s.mailboxes == nil {
		return s.defaultRecipient
	}
	mb, err := s.mailboxes.FindByUserID(userID)
	if err != nil || mb == nil || mb.EmailAddress == "" {
		return s.defaultRecipient
	}
	return mb.EmailAddress
}
