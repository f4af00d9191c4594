package dto

import (
	"time"

	"jobmatch-backend/internal/application/domain"
)

type LikeRequest struct {
	JobID      string  `json:"job_id" binding:"required"`
	Company    string  `json:"company"`
	Position   string  `json:"position" binding:"required"`
	JobURL     string  `json:"job_url"`
	MatchScore float64 `json:"match_score"`
}

type ApplyRequest struct {
	ApplicationIDs []string `json:"application_ids" binding:"required"`
}

type ApplyResponse struct {
	Applied []string  `json:"applied"`
	Ignored []string  `json:"ignored"`
	JobID   string    `json:"job_id,omitempty"`
	RunAt   time.Time `json:"run_at,omitempty"`
}

type UpdateStatusRequest struct {
	Status          string `json:"status" binding:"required"`
	ExpectedVersion *int64 `json:"expected_version"`
	Note            string `json:"note"`
}

type SendEmailsRequest struct {
	ApplicationIDs []string `json:"application_ids" binding:"required"`
}

type SendEmailResult struct {
	ApplicationID string `json:"application_id"`
	Company       string `json:"company,omitempty"`
	Success       bool   `json:"success"`
	Delivered     bool   `json:"delivered"`
	Error         string `json:"error,omitempty"`
}

type InboxResponse struct {
	Messages []*domain.InboxMessage `json:"messages"`
	Counts   map[string]int         `json:"counts"`
}

type DashboardStats struct {
	TotalApplications   int     `json:"total_applications"`
	PendingResponses    int     `json:"pending_responses"`
	InterviewsScheduled int     `json:"interviews_scheduled"`
	PositiveResponses   int     `json:"positive_responses"`
	SuccessRate         float64 `json:"success_rate"`
}

type ClassifySummary struct {
	EmailsProcessed int              `json:"emails_processed"`
	Failed          int              `json:"failed"`
	Conflicts       int              `json:"conflicts"`
	Unrecognized    int              `json:"unrecognized"`
	Results         []ClassifyResult `json:"results"`
}

type ClassifyResult struct {
	MessageID     string `json:"message_id"`
	ApplicationID string `json:"application_id"`
	Label         string `json:"label,omitempty"`
	Outcome       string `json:"outcome"` // "applied", "conflict", "unrecognized", "failed"
	Error         string `json:"error,omitempty"`
}

type MonitorSummary struct {
	MailboxesChecked int `json:"mailboxes_checked"`
	MessagesInserted int `json:"messages_inserted"`
	EmailsProcessed  int `json:"emails_processed"`
}

type DigestSummary struct {
	UsersChecked  int `json:"users_checked"`
	JobsFound     int `json:"jobs_found"`
	EmailsSent    int `json:"emails_sent"`
	UsersNotified int `json:"users_notified"`
	Failed        int `json:"failed"`
}
