package usecase

import (
	"context"
	"time"

	"jobmatch-backend/internal/application/domain"
	"jobmatch-backend/internal/application/dto"
	authdomain "jobmatch-backend/internal/auth/domain"
	"jobmatch-backend/pkg/ai"
	"jobmatch-backend/pkg/chroma"
	"jobmatch-backend/pkg/gmail"
	"jobmatch-backend/pkg/imap"
)

// ApplicationUsecase covers the liked list, submission and manual status changes.
type ApplicationUsecase interface {
	Like(ctx context.Context, userID string, req dto.LikeRequest) (*domain.Application, error)
	RemoveLiked(ctx context.Context, userID, id string) error
	ListApplications(ctx context.Context, userID, bucket string) ([]*domain.Application, error)
	GetApplication(ctx context.Context, userID, id string) (*domain.Application, error)
	GetHistory(ctx context.Context, userID, id string) ([]*domain.StatusEvent, error)
	UpdateStatus(ctx context.Context, userID, id string, req dto.UpdateStatusRequest) (*domain.Application, error)

	// ApplyToSelected submits the user's liked applications among ids and
	// schedules the simulated employer replies.
	ApplyToSelected(ctx context.Context, userID string, ids []string) (*dto.ApplyResponse, error)
	GetSimulation(ctx context.Context, userID, jobID string) (*domain.SimulationJob, error)

	SendApplicationEmails(ctx context.Context, userID string, ids []string) ([]dto.SendEmailResult, error)

	SetDrafter(drafter ai.EmailDrafter)
	SetMailSender(sender MailSender)
}

type InboxUsecase interface {
	GetInbox(ctx context.Context, userID string) (*dto.InboxResponse, error)
	GetStats(ctx context.Context, userID string) (*dto.DashboardStats, error)
	Search(ctx context.Context, userID, query string, limit int) ([]*domain.InboxMessage, error)
	SetMessageIndex(index MessageIndex)
}

type ClassifierUsecase interface {
	ProcessUnprocessed(ctx context.Context) (*dto.ClassifySummary, error)
	SetClassifier(classifier ai.StatusClassifier)
}

type MonitorUsecase interface {
	CheckMailboxes(ctx context.Context) (*dto.MonitorSummary, error)
}

// JobDigestUsecase sends each user a digest of new recommended jobs.
type JobDigestUsecase interface {
	SendJobDigests(ctx context.Context) (*dto.DigestSummary, error)
}

// Simulator produces employer replies for submitted applications.
type Simulator interface {
	Run(ctx context.Context, userID string, ids []string) (*domain.SimulationSummary, error)
}

// Notifier delivers user-facing alerts. Delivery is best effort.
type Notifier interface {
	NotifyUser(ctx context.Context, userID string, n domain.Notification)
}

// EventPublisher forwards committed status changes to other services.
type EventPublisher interface {
	PublishStatusEvent(ctx context.Context, event *domain.StatusEvent) error
}

// MessageIndex is the semantic search index over inbox messages.
type MessageIndex interface {
	UpsertMessage(ctx context.Context, doc chroma.Document) error
	SearchMessages(ctx context.Context, userID, query string, limit int) ([]string, error)
}

// MailSender sends email from the user's own account.
type MailSender interface {
	SendEmail(ctx context.Context, accessToken, refreshToken string, out gmail.Outgoing, onTokenRefresh gmail.TokenUpdateFunc) (string, error)
}

// MailFetcher reads a real mailbox.
type MailFetcher interface {
	FetchSince(ctx context.Context, acc imap.Account, since time.Time, limit int) ([]imap.Message, error)
}

// UserStore is the part of the user repository the application flows need.
type UserStore interface {
	FindByID(id string) (*authdomain.User, error)
	Update(user *authdomain.User) error
}

// MailboxStore is the part of the mailbox repository the application flows need.
type MailboxStore interface {
	FindByUserID(userID string) (*authdomain.Mailbox, error)
	ListAll() ([]*authdomain.Mailbox, error)
	TouchLastChecked(id string, at time.Time) error
}
