package notification

import (
	"context"
	"fmt"

	"jobmatch-backend/internal/application/domain"
)

type jsonPublisher interface {
	PublishJSON(ctx context.Context, payload interface{}, attributes map[string]string) (string, error)
}

// StatusEventPublisher forwards applied status events to a Pub/Sub topic.
type StatusEventPublisher struct {
	publisher jsonPublisher
}

func NewStatusEventPublisher(p jsonPublisher) *StatusEventPublisher {
	return &StatusEventPublisher{publisher: p}
}

func (p *StatusEventPublisher) PublishStatusEvent(ctx context.Context, ev *domain.StatusEvent) error {
	_, err := p.publisher.PublishJSON(ctx, ev, map[string]string{
		"event_type":     "application.status_changed",
		"application_id": ev.ApplicationID,
		"user_id":        ev.UserID,
		"from_status":    string(ev.FromStatus),
		"to_status":      string(ev.ToStatus),
		"source":         string(ev.Source),
	})
	if err != nil {
		return fmt.Errorf("failed to publish status event: %w", err)
	}
	return nil
}
