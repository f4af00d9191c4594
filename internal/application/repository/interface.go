package repository

import (
	"context"
	"time"

	"jobmatch-backend/internal/application/domain"
)

// ListFilter narrows ListByUser. Empty Statuses means every status.
type ListFilter struct {
	Statuses       []domain.Status
	IncludeRemoved bool
	OrderBy        string // "created_at" or "last_status_update"
}

// StatusWrite is a version-checked status update.
type StatusWrite struct {
	ApplicationID   string
	ExpectedVersion int64
	Status          domain.Status
	At              time.Time
	Details         domain.StatusDetails
}

type ApplicationRepository interface {
	Create(ctx context.Context, app *domain.Application) error
	FindByID(ctx context.Context, id string) (*domain.Application, error)
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Application, error)
	// FindLiked matches on company and position as well as job id, since
	// recommendation ids are not guaranteed to be stable upstream.
	FindLiked(ctx context.Context, userID, jobID, company, position string) (*domain.Application, error)
	ListByUser(ctx context.Context, userID string, filter ListFilter) ([]*domain.Application, error)
	SoftRemove(ctx context.Context, id string, at time.Time) error

	// MarkApplied moves the user's liked applications among ids to applied in
	// one statement and returns the ids that actually transitioned.
	MarkApplied(ctx context.Context, userID string, ids []string, at time.Time, details domain.StatusDetails) ([]string, error)

	// UpdateStatus applies w only if the stored version still equals
	// w.ExpectedVersion. It reports whether a row changed.
	UpdateStatus(ctx context.Context, w StatusWrite) (bool, error)
}

type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	FindByID(ctx context.Context, id string) (*domain.Message, error)
	// FindUnprocessedReceived skips messages that already failed
	// domain.MaxClassifyAttempts times.
	FindUnprocessedReceived(ctx context.Context, limit int) ([]*domain.Message, error)
	MarkProcessed(ctx context.Context, id string, label string) error
	RecordClassifyFailure(ctx context.Context, id string) error
	ListReceivedByUser(ctx context.Context, userID string) ([]*domain.InboxMessage, error)
	ListByApplication(ctx context.Context, applicationID string) ([]*domain.Message, error)
	ExistsExternalID(ctx context.Context, applicationID, externalID string) (bool, error)
}

type StatusEventRepository interface {
	Append(ctx context.Context, event *domain.StatusEvent) error
	ListByApplication(ctx context.Context, applicationID string) ([]*domain.StatusEvent, error)
}

type SimulationJobRepository interface {
	Create(ctx context.Context, job *domain.SimulationJob) error
	FindByID(ctx context.Context, id string) (*domain.SimulationJob, error)

	// ClaimDue marks up to limit queued jobs whose RunAt has passed as running
	// and returns them. Claimed jobs are invisible to concurrent callers.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]*domain.SimulationJob, error)
	Update(ctx context.Context, job *domain.SimulationJob) error

	// RequeueRunning puts jobs left running by a previous process back in the queue.
	RequeueRunning(ctx context.Context) (int64, error)
}

// Store groups the repositories so that multi-record writes can share one transaction.
type Store interface {
	Applications() ApplicationRepository
	Messages() MessageRepository
	Events() StatusEventRepository
	Jobs() SimulationJobRepository

	// Transaction runs fn against a Store bound to a single transaction.
	// Returning an error from fn rolls everything back.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
