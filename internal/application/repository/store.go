package repository

import (
	"context"

	"gorm.io/gorm"
)

type gormStore struct {
	db *gorm.DB
}

// NewStore creates a Store backed by gorm.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Applications() ApplicationRepository {
	return &applicationRepository{db: s.db}
}

func (s *gormStore) Messages() MessageRepository {
	return &messageRepository{db: s.db}
}

func (s *gormStore) Events() StatusEventRepository {
	return &statusEventRepository{db: s.db}
}

func (s *gormStore) Jobs() SimulationJobRepository {
	return &simulationJobRepository{db: s.db}
}

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
