package domain

import (
	"time"

	"gorm.io/datatypes"
)

type JobState string

const (
	JobQueued  JobState = "queued"
	JobRunning JobState = "running"
	JobDone    JobState = "done"
	JobFailed  JobState = "failed"
)

// SimulationSummary is the outcome of one simulator run.
type SimulationSummary struct {
	Processed int             `json:"processed"`
	Positive  int             `json:"positive"`
	Rejected  int             `json:"rejected"`
	Failed    int             `json:"failed"`
	Items     []SimulatedItem `json:"items"`
}

type SimulatedItem struct {
	ApplicationID string `json:"application_id"`
	Template      string `json:"template"`
	Status        Status `json:"status"`
	MessageID     string `json:"message_id,omitempty"`
	Error         string `json:"error,omitempty"`
}

// SimulationJob is a durable request to simulate employer responses for
// applications that were just submitted.
type SimulationJob struct {
	ID             string                                 `json:"id" gorm:"primaryKey"`
	UserID         string                                 `json:"user_id" gorm:"index;not null"`
	ApplicationIDs datatypes.JSONSlice[string]            `json:"application_ids"`
	RunAt          time.Time                              `json:"run_at" gorm:"index"`
	State          JobState                               `json:"state" gorm:"index;not null;default:queued"`
	Attempts       int                                    `json:"attempts"`
	MaxAttempts    int                                    `json:"max_attempts"`
	LastError      string                                 `json:"last_error,omitempty"`
	Result         datatypes.JSONType[*SimulationSummary] `json:"result"`
	CreatedAt      time.Time                              `json:"created_at"`
	UpdatedAt      time.Time                              `json:"updated_at"`
}
