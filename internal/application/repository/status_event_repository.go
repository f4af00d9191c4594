package repository

import (
	"context"
	"time"

	"jobmatch-backend/internal/application/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type statusEventRepository struct {
	db *gorm.DB
}

func (r *statusEventRepository) Append(ctx context.Context, event *domain.StatusEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *statusEventRepository) ListByApplication(ctx context.Context, applicationID string) ([]*domain.StatusEvent, error) {
	var events []*domain.StatusEvent
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at ASC").
		Find(&events).Error
	return events, err
}
