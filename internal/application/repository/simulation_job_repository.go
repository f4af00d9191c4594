package repository

import (
	"context"
	"errors"
	"time"

	"jobmatch-backend/internal/application/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type simulationJobRepository struct {
	db *gorm.DB
}

func (r *simulationJobRepository) Create(ctx context.Context, job *domain.SimulationJob) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	now := time.Now()
	job.CreatedAt = now
	job.UpdatedAt = now
	if job.State == "" {
		job.State = domain.JobQueued
	}
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *simulationJobRepository) FindByID(ctx context.Context, id string) (*domain.SimulationJob, error) {
	var job domain.SimulationJob
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

func (r *simulationJobRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*domain.SimulationJob, error) {
	var jobs []*domain.SimulationJob
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// other instances may be polling the same rows
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("state = ? AND run_at <= ?", domain.JobQueued, now).
			Order("run_at ASC").
			Limit(limit).
			Find(&jobs).Error; err != nil {
			return err
		}
		if len(jobs) == 0 {
			return nil
		}

		ids := make([]string, len(jobs))
		for i, job := range jobs {
			ids[i] = job.ID
			job.State = domain.JobRunning
			job.Attempts++
			job.UpdatedAt = now
		}
		return tx.Model(&domain.SimulationJob{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"state":      domain.JobRunning,
				"attempts":   gorm.Expr("attempts + 1"),
				"updated_at": now,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *simulationJobRepository) Update(ctx context.Context, job *domain.SimulationJob) error {
	job.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(job).Error
}

func (r *simulationJobRepository) RequeueRunning(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.SimulationJob{}).
		Where("state = ?", domain.JobRunning).
		Updates(map[string]interface{}{
			"state":      domain.JobQueued,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}
