package repository

import (
	"time"

	authdomain "jobmatch-backend/internal/auth/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PushDeviceRepository interface {
	Register(userID, token, deviceInfo string) error
	TokensForUser(userID string) ([]string, error)
	// Remove deletes token only while it still belongs to userID.
	Remove(userID, token string) error
	// Prune drops tokens FCM reported as no longer valid, whoever owns them.
	Prune(tokens []string) error
}

type pushDeviceRepository struct {
	db *gorm.DB
}

func NewPushDeviceRepository(db *gorm.DB) PushDeviceRepository {
	return &pushDeviceRepository{db: db}
}

func (r *pushDeviceRepository) Register(userID, token, deviceInfo string) error {
	now := time.Now()
	device := &authdomain.PushDevice{
		ID:         uuid.New().String(),
		UserID:     userID,
		Token:      token,
		DeviceInfo: deviceInfo,
		LastSeenAt: now,
		CreatedAt:  now,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "device_info", "last_seen_at"}),
	}).Create(device).Error
}

func (r *pushDeviceRepository) TokensForUser(userID string) ([]string, error) {
	var tokens []string
	err := r.db.Model(&authdomain.PushDevice{}).
		Where("user_id = ?", userID).
		Order("last_seen_at DESC").
		Pluck("token", &tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *pushDeviceRepository) Remove(userID, token string) error {
	return r.db.Where("user_id = ? AND token = ?", userID, token).Delete(&authdomain.PushDevice{}).Error
}

func (r *pushDeviceRepository) Prune(tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	return r.db.Where("token IN ?", tokens).Delete(&authdomain.PushDevice{}).Error
}
