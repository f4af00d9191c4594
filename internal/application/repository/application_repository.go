package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jobmatch-backend/internal/application/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type applicationRepository struct {
	db *gorm.DB
}

func (r *applicationRepository) Create(ctx context.Context, app *domain.Application) error {
	if app.ID == "" {
		app.ID = uuid.New().String()
	}
	now := time.Now()
	app.CreatedAt = now
	app.UpdatedAt = now
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *applicationRepository) FindByID(ctx context.Context, id string) (*domain.Application, error) {
	var app domain.Application
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Application, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var apps []*domain.Application
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *applicationRepository) FindLiked(ctx context.Context, userID, jobID, company, position string) (*domain.Application, error) {
	var app domain.Application
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND job_id = ? AND LOWER(company) = LOWER(?) AND LOWER(position) = LOWER(?) AND removed_at IS NULL",
			userID, jobID, company, position).
		First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) ListByUser(ctx context.Context, userID string, filter ListFilter) ([]*domain.Application, error) {
	query := r.db.WithContext(ctx).Model(&domain.Application{}).Where("user_id = ?", userID)
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if !filter.IncludeRemoved {
		query = query.Where("removed_at IS NULL")
	}

	switch filter.OrderBy {
	case "last_status_update":
		query = query.Order("last_status_update DESC NULLS LAST").Order("created_at DESC")
	default:
		query = query.Order("created_at DESC")
	}

	var apps []*domain.Application
	if err := query.Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *applicationRepository) SoftRemove(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Application{}).
		Where("id = ? AND removed_at IS NULL", id).
		Updates(map[string]interface{}{
			"removed_at": at,
			"updated_at": at,
		}).Error
}

func (r *applicationRepository) MarkApplied(ctx context.Context, userID string, ids []string, at time.Time, details domain.StatusDetails) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var updated []domain.Application
	err := r.db.WithContext(ctx).Model(&updated).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}}}).
		Where("id IN ? AND user_id = ? AND status = ? AND removed_at IS NULL", ids, userID, domain.StatusLiked).
		Updates(map[string]interface{}{
			"status":              domain.StatusApplied,
			"application_sent_at": gorm.Expr("COALESCE(application_sent_at, ?)", at),
			"last_status_update":  at,
			"status_details":      datatypes.NewJSONType(details),
			"version":             gorm.Expr("version + 1"),
			"updated_at":          at,
		}).Error
	if err != nil {
		return nil, fmt.Errorf("bulk apply: %w", err)
	}

	applied := make([]string, 0, len(updated))
	for _, app := range updated {
		applied = append(applied, app.ID)
	}
	return applied, nil
}

func (r *applicationRepository) UpdateStatus(ctx context.Context, w StatusWrite) (bool, error) {
	result := r.db.WithContext(ctx).Model(&domain.Application{}).
		Where("id = ? AND version = ?", w.ApplicationID, w.ExpectedVersion).
		Updates(map[string]interface{}{
			"status":             w.Status,
			"last_status_update": w.At,
			"status_details":     datatypes.NewJSONType(w.Details),
			"version":            gorm.Expr("version + 1"),
			"updated_at":         w.At,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
