package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"jobmatch-backend/internal/application/domain"
	"jobmatch-backend/internal/application/repository"

	"github.com/google/uuid"
)

// statusChange is a request to move an application to a new status. App is
// the application as the caller last read it; its Version is the expected one.
type statusChange struct {
	App       *domain.Application
	To        domain.Status
	Source    domain.EventSource
	MessageID string
	Details   domain.StatusDetails
}

// statusWriter is the single path through which application statuses change.
// Every write appends a StatusEvent in the same transaction as the
// version-checked update.
type statusWriter struct {
	now       func() time.Time
	publisher EventPublisher
}

func newStatusWriter(now func() time.Time) *statusWriter {
	if now == nil {
		now = time.Now
	}
	return &statusWriter{now: now}
}

// write applies ch inside tx. A lost version check is not an error here: the
// returned event has Conflict set and the application is left untouched, so
// the caller can still commit the event and its other work.
func (w *statusWriter) write(ctx context.Context, tx repository.Store, ch statusChange) (*domain.StatusEvent, error) {
	at := w.now()
	ok, err := tx.Applications().UpdateStatus(ctx, repository.StatusWrite{
		ApplicationID:   ch.App.ID,
		ExpectedVersion: ch.App.Version,
		Status:          ch.To,
		At:              at,
		Details:         ch.Details,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update status of %s: %w", ch.App.ID, err)
	}

	event := &domain.StatusEvent{
		ID:              uuid.New().String(),
		ApplicationID:   ch.App.ID,
		UserID:          ch.App.UserID,
		FromStatus:      ch.App.Status,
		ToStatus:        ch.To,
		Source:          ch.Source,
		MessageID:       ch.MessageID,
		ExpectedVersion: ch.App.Version,
		Applied:         ok,
		Conflict:        !ok,
		CreatedAt:       at,
	}
	if !ok {
		event.Reason = "application changed since it was read"
	}
	if err := tx.Events().Append(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to record status event: %w", err)
	}
	return event, nil
}

// appliedEvent records a transition performed by a bulk update that already
// changed the row.
func (w *statusWriter) appliedEvent(ctx context.Context, tx repository.Store, app *domain.Application, to domain.Status, source domain.EventSource, at time.Time) (*domain.StatusEvent, error) {
	event := &domain.StatusEvent{
		ID:              uuid.New().String(),
		ApplicationID:   app.ID,
		UserID:          app.UserID,
		FromStatus:      app.Status,
		ToStatus:        to,
		Source:          source,
		ExpectedVersion: app.Version,
		Applied:         true,
		CreatedAt:       at,
	}
	if err := tx.Events().Append(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to record status event: %w", err)
	}
	return event, nil
}

// publish forwards committed, applied events. Call it after the transaction.
func (w *statusWriter) publish(ctx context.Context, events ...*domain.StatusEvent) {
	if w.publisher == nil {
		return
	}
	for _, ev := range events {
		if ev == nil || !ev.Applied {
			continue
		}
		if err := w.publisher.PublishStatusEvent(ctx, ev); err != nil {
			log.Printf("[Status] Failed to publish event %s: %v", ev.ID, err)
		}
	}
}
