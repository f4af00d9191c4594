package domain

import (
	"time"

	"gorm.io/datatypes"
)

// StatusDetails is the auxiliary context stored next to an application's status.
type StatusDetails struct {
	Message          string     `json:"message,omitempty"`
	EmailReceived    bool       `json:"email_received"`
	Source           string     `json:"source,omitempty"`
	LastEmailExcerpt string     `json:"last_email_excerpt,omitempty"`
	LastEmailFrom    string     `json:"last_email_from,omitempty"`
	LastEmailAt      *time.Time `json:"last_email_at,omitempty"`
}

// Application tracks a user's pursuit of one job listing.
type Application struct {
	ID                string                            `json:"id" gorm:"primaryKey"`
	UserID            string                            `json:"user_id" gorm:"index;not null"`
	JobID             string                            `json:"job_id" gorm:"index"`
	Company           string                            `json:"company"`
	Position          string                            `json:"position"`
	JobURL            string                            `json:"job_url,omitempty"`
	MatchScore        float64                           `json:"match_score"`
	Status            Status                            `json:"status" gorm:"index;not null;default:liked"`
	ApplicationSentAt *time.Time                        `json:"application_sent_at,omitempty"`
	LastStatusUpdate  *time.Time                        `json:"last_status_update,omitempty"`
	StatusDetails     datatypes.JSONType[StatusDetails] `json:"status_details"`
	Version           int64                             `json:"version" gorm:"not null;default:0"`
	RemovedAt         *time.Time                        `json:"removed_at,omitempty" gorm:"index"`
	CreatedAt         time.Time                         `json:"created_at"`
	UpdatedAt         time.Time                         `json:"updated_at"`
}

// Details returns the decoded status details.
func (a *Application) Details() StatusDetails {
	return a.StatusDetails.Data()
}

// Removed reports whether the application was taken off the liked list.
func (a *Application) Removed() bool {
	return a.RemovedAt != nil
}
