package repository

import (
	"errors"
	"time"

	authdomain "jobmatch-backend/internal/auth/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MailboxRepository interface {
	FindByUserID(userID string) (*authdomain.Mailbox, error)
	Upsert(mailbox *authdomain.Mailbox) error
	ListAll() ([]*authdomain.Mailbox, error)
	TouchLastChecked(id string, at time.Time) error
}

type mailboxRepository struct {
	db *gorm.DB
}

func NewMailboxRepository(db *gorm.DB) MailboxRepository {
	return &mailboxRepository{db: db}
}

func (r *mailboxRepository) FindByUserID(userID string) (*authdomain.Mailbox, error) {
	var mailbox authdomain.Mailbox
	err := r.db.Where("user_id = ?", userID).First(&mailbox).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &mailbox, nil
}

// Upsert keeps one mailbox per user.
func (r *mailboxRepository) Upsert(mailbox *authdomain.Mailbox) error {
	now := time.Now()
	if mailbox.ID == "" {
		mailbox.ID = uuid.New().String()
		mailbox.CreatedAt = now
	}
	mailbox.UpdatedAt = now

	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email_address", "imap_host", "imap_username", "imap_password", "updated_at"}),
	}).Create(mailbox).Error
}

func (r *mailboxRepository) ListAll() ([]*authdomain.Mailbox, error) {
	var mailboxes []*authdomain.Mailbox
	if err := r.db.Order("created_at ASC").Find(&mailboxes).Error; err != nil {
		return nil, err
	}
	return mailboxes, nil
}

func (r *mailboxRepository) TouchLastChecked(id string, at time.Time) error {
	return r.db.Model(&authdomain.Mailbox{}).Where("id = ?", id).Update("last_checked_at", at).Error
}
