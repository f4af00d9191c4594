package repository

import (
	"context"
	"errors"
	"time"

	"jobmatch-backend/internal/application/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type messageRepository struct {
	db *gorm.DB
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	msg.CreatedAt = time.Now()
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = msg.CreatedAt
	}
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *messageRepository) FindByID(ctx context.Context, id string) (*domain.Message, error) {
	var msg domain.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) FindUnprocessedReceived(ctx context.Context, limit int) ([]*domain.Message, error) {
	query := r.db.WithContext(ctx).
		Where("processed = ? AND direction = ? AND classify_attempts < ?", false, domain.DirectionReceived, domain.MaxClassifyAttempts).
		Order("received_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var msgs []*domain.Message
	if err := query.Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *messageRepository) MarkProcessed(ctx context.Context, id string, label string) error {
	return r.db.WithContext(ctx).Model(&domain.Message{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"processed":        true,
			"status_extracted": label,
		}).Error
}

func (r *messageRepository) RecordClassifyFailure(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.Message{}).
		Where("id = ?", id).
		UpdateColumn("classify_attempts", gorm.Expr("classify_attempts + 1")).Error
}

func (r *messageRepository) ListReceivedByUser(ctx context.Context, userID string) ([]*domain.InboxMessage, error) {
	var rows []*domain.InboxMessage
	err := r.db.WithContext(ctx).
		Table("messages").
		Select("messages.*, applications.user_id, applications.position, applications.company").
		Joins("JOIN applications ON applications.id = messages.application_id").
		Where("applications.user_id = ? AND messages.direction = ?", userID, domain.DirectionReceived).
		Order("messages.received_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *messageRepository) ListByApplication(ctx context.Context, applicationID string) ([]*domain.Message, error) {
	var msgs []*domain.Message
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("received_at DESC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *messageRepository) ExistsExternalID(ctx context.Context, applicationID, externalID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Message{}).
		Where("application_id = ? AND external_id = ?", applicationID, externalID).
		Count(&count).Error
	return count > 0, err
}
