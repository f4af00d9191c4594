package domain

import "time"

type EventSource string

const (
	SourceApply      EventSource = "apply"
	SourceSimulator  EventSource = "simulator"
	SourceClassifier EventSource = "classifier"
	SourceManual     EventSource = "manual"
	SourceOutreach   EventSource = "outreach"
)

// StatusEvent is one entry of the append-only status log. Applied is false
// when the write lost a version check; Conflict marks that case.
type StatusEvent struct {
	ID              string      `json:"id" gorm:"primaryKey"`
	ApplicationID   string      `json:"application_id" gorm:"index;not null"`
	UserID          string      `json:"user_id" gorm:"index"`
	FromStatus      Status      `json:"from_status"`
	ToStatus        Status      `json:"to_status"`
	Source          EventSource `json:"source"`
	MessageID       string      `json:"message_id,omitempty"`
	ExpectedVersion int64       `json:"expected_version"`
	Applied         bool        `json:"applied"`
	Conflict        bool        `json:"conflict"`
	Reason          string      `json:"reason,omitempty"`
	CreatedAt       time.Time   `json:"created_at" gorm:"index"`
}
