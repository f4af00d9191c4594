package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"jobmatch-backend/internal/application/domain"
	"jobmatch-backend/internal/application/dto"
	"jobmatch-backend/internal/application/repository"
	"jobmatch-backend/pkg/ai"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const maxPositionLength = 100

type applicationUsecase struct {
	store     repository.Store
	writer    *statusWriter
	users     UserStore
	mailboxes MailboxStore
	drafter   ai.EmailDrafter
	sender    MailSender

	simulationDelay time.Duration
	maxAttempts     int
	now             func() time.Time
}

// NewApplicationUsecase wires the application flows. Simulation jobs are
// scheduled simulationDelay after submission and retried maxAttempts times.
func NewApplicationUsecase(store repository.Store, users UserStore, mailboxes MailboxStore, simulationDelay time.Duration, maxAttempts int) *applicationUsecase {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &applicationUsecase{
		store:           store,
		writer:          newStatusWriter(time.Now),
		users:           users,
		mailboxes:       mailboxes,
		simulationDelay: simulationDelay,
		maxAttempts:     maxAttempts,
		now:             time.Now,
	}
}

func (u *applicationUsecase) SetDrafter(drafter ai.EmailDrafter) { u.drafter = drafter }
func (u *applicationUsecase) SetMailSender(sender MailSender)    { u.sender = sender }
func (u *applicationUsecase) SetEventPublisher(p EventPublisher) { u.writer.publisher = p }

func (u *applicationUsecase) Like(ctx context.Context, userID string, req dto.LikeRequest) (*domain.Application, error) {
	jobID := strings.TrimSpace(req.JobID)
	position := strings.TrimSpace(req.Position)
	if jobID == "" || position == "" {
		return nil, ErrMissingJobFields
	}

	if r := []rune(position); len(r) > maxPositionLength {
		position = string(r[:maxPositionLength])
	}
	company := strings.TrimSpace(req.Company)
	if company == "" {
		company = "Company"
	}

	existing, err := u.store.Applications().FindLiked(ctx, userID, jobID, company, position)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	app := &domain.Application{
		ID:            uuid.New().String(),
		UserID:        userID,
		JobID:         jobID,
		Company:       company,
		Position:      position,
		JobURL:        req.JobURL,
		MatchScore:    req.MatchScore,
		Status:        domain.StatusLiked,
		StatusDetails: datatypes.NewJSONType(domain.StatusDetails{}),
	}
	if err := u.store.Applications().Create(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to save liked job: %w", err)
	}
	return app, nil
}

func (u *applicationUsecase) RemoveLiked(ctx context.Context, userID, id string) error {
	app, err := u.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if app.Status != domain.StatusLiked {
		return ErrNotLiked
	}
	return u.store.Applications().SoftRemove(ctx, id, u.now())
}

func (u *applicationUsecase) ListApplications(ctx context.Context, userID, bucket string) ([]*domain.Application, error) {
	var filter repository.ListFilter
	switch bucket {
	case "liked":
		filter = repository.ListFilter{Statuses: []domain.Status{domain.StatusLiked}, OrderBy: "created_at"}
	case "active":
		filter = repository.ListFilter{Statuses: []domain.Status{domain.StatusApplied, domain.StatusPending}, OrderBy: "last_status_update"}
	case "rejected":
		filter = repository.ListFilter{Statuses: []domain.Status{domain.StatusRejected}, OrderBy: "last_status_update"}
	case "", "all":
		filter = repository.ListFilter{OrderBy: "created_at"}
	default:
		return nil, ErrInvalidBucket
	}
	apps, err := u.store.Applications().ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	if apps == nil {
		apps = []*domain.Application{}
	}
	return apps, nil
}

func (u *applicationUsecase) GetApplication(ctx context.Context, userID, id string) (*domain.Application, error) {
	return u.owned(ctx, userID, id)
}

func (u *applicationUsecase) GetHistory(ctx context.Context, userID, id string) ([]*domain.StatusEvent, error) {
	if _, err := u.owned(ctx, userID, id); err != nil {
		return nil, err
	}
	events, err := u.store.Events().ListByApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []*domain.StatusEvent{}
	}
	return events, nil
}

// UpdateStatus is a manual correction. When ExpectedVersion is given it must
// match the stored version, otherwise the change is recorded as a conflict
// and ErrStatusConflict is returned.
func (u *applicationUsecase) UpdateStatus(ctx context.Context, userID, id string, req dto.UpdateStatusRequest) (*domain.Application, error) {
	status, ok := domain.ParseStatus(req.Status)
	if !ok {
		return nil, ErrInvalidStatus
	}
	// applied carries application_sent_at and a simulation job
	if status == domain.StatusLiked || status == domain.StatusApplied {
		return nil, ErrReservedStatus
	}
	app, err := u.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if req.ExpectedVersion != nil {
		app.Version = *req.ExpectedVersion
	}

	note := strings.TrimSpace(req.Note)
	if note == "" {
		note = "Status updated manually"
	}
	details := app.Details()
	details.Message = note
	details.Source = string(domain.SourceManual)

	var event *domain.StatusEvent
	err = u.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		event, err = u.writer.write(ctx, tx, statusChange{
			App:     app,
			To:      status,
			Source:  domain.SourceManual,
			Details: details,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if event.Conflict {
		return nil, ErrStatusConflict
	}
	u.writer.publish(ctx, event)

	return u.store.Applications().FindByID(ctx, id)
}

func (u *applicationUsecase) ApplyToSelected(ctx context.Context, userID string, ids []string) (*dto.ApplyResponse, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, ErrNoApplications
	}

	now := u.now()
	resp := &dto.ApplyResponse{Applied: []string{}, Ignored: []string{}}
	var events []*domain.StatusEvent

	err := u.store.Transaction(ctx, func(tx repository.Store) error {
		before, err := tx.Applications().FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		byID := make(map[string]*domain.Application, len(before))
		for _, app := range before {
			byID[app.ID] = app
		}

		moved, err := tx.Applications().MarkApplied(ctx, userID, ids, now, domain.StatusDetails{
			Message: "Application submitted",
			Source:  string(domain.SourceApply),
		})
		if err != nil {
			return err
		}
		movedSet := make(map[string]bool, len(moved))
		for _, id := range moved {
			movedSet[id] = true
		}

		resp.Applied = resp.Applied[:0]
		resp.Ignored = resp.Ignored[:0]
		events = events[:0]
		for _, id := range ids {
			if !movedSet[id] {
				resp.Ignored = append(resp.Ignored, id)
				continue
			}
			resp.Applied = append(resp.Applied, id)
			app, ok := byID[id]
			if !ok {
				app = &domain.Application{ID: id, UserID: userID, Status: domain.StatusLiked}
			}
			ev, err := u.writer.appliedEvent(ctx, tx, app, domain.StatusApplied, domain.SourceApply, now)
			if err != nil {
				return err
			}
			events = append(events, ev)
		}

		if len(resp.Applied) == 0 {
			return nil
		}
		job := &domain.SimulationJob{
			ID:             uuid.New().String(),
			UserID:         userID,
			ApplicationIDs: datatypes.JSONSlice[string](resp.Applied),
			RunAt:          now.Add(u.simulationDelay),
			State:          domain.JobQueued,
			MaxAttempts:    u.maxAttempts,
		}
		if err := tx.Jobs().Create(ctx, job); err != nil {
			return fmt.Errorf("failed to schedule responses: %w", err)
		}
		resp.JobID = job.ID
		resp.RunAt = job.RunAt
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.writer.publish(ctx, events...)
	log.Printf("[Apply] User %s applied to %d jobs (%d ignored), simulation %s", userID, len(resp.Applied), len(resp.Ignored), resp.JobID)
	return resp, nil
}

func (u *applicationUsecase) GetSimulation(ctx context.Context, userID, jobID string) (*domain.SimulationJob, error) {
	job, err := u.store.Jobs().FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrSimulationNotFound
	}
	if job.UserID != userID {
		return nil, ErrForbidden
	}
	return job, nil
}

func (u *applicationUsecase) owned(ctx context.Context, userID, id string) (*domain.Application, error) {
	app, err := u.store.Applications().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if app == nil || app.Removed() {
		return nil, ErrApplicationNotFound
	}
	if app.UserID != userID {
		return nil, ErrForbidden
	}
	return app, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// isNotFound reports lookup failures that should not abort a batch.
func isNotFound(err error) bool {
	return errors.Is(err, ErrApplicationNotFound) || errors.Is(err, ErrForbidden)
}
