package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"jobmatch-backend/internal/application/domain"
	"jobmatch-backend/internal/application/repository"
	authdomain "jobmatch-backend/internal/auth/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// memStore is an in-memory repository.Store. Transactions are serialized and
// roll back by restoring a snapshot.
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	apps   map[string]domain.Application
	msgs   map[string]domain.Message
	events []domain.StatusEvent
	jobs   map[string]domain.SimulationJob

	failFindByIDs error
	failCreateMsg func(msg *domain.Message) error
}

func newMemStore() *memStore {
	return &memStore{
		apps: map[string]domain.Application{},
		msgs: map[string]domain.Message{},
		jobs: map[string]domain.SimulationJob{},
	}
}

func (s *memStore) Applications() repository.ApplicationRepository { return memApps{s} }
func (s *memStore) Messages() repository.MessageRepository         { return memMsgs{s} }
func (s *memStore) Events() repository.StatusEventRepository       { return memEvents{s} }
func (s *memStore) Jobs() repository.SimulationJobRepository       { return memJobs{s} }

func (s *memStore) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	apps := make(map[string]domain.Application, len(s.apps))
	for k, v := range s.apps {
		apps[k] = v
	}
	msgs := make(map[string]domain.Message, len(s.msgs))
	for k, v := range s.msgs {
		msgs[k] = v
	}
	jobs := make(map[string]domain.SimulationJob, len(s.jobs))
	for k, v := range s.jobs {
		jobs[k] = v
	}
	events := append([]domain.StatusEvent(nil), s.events...)
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.apps, s.msgs, s.jobs, s.events = apps, msgs, jobs, events
		s.mu.Unlock()
		return err
	}
	return nil
}

// seedApp stores an application and returns its id.
func (s *memStore) seedApp(userID, company, position string, status domain.Status) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New().String()
	s.apps[id] = domain.Application{
		ID:            id,
		UserID:        userID,
		JobID:         "job-" + id[:8],
		Company:       company,
		Position:      position,
		Status:        status,
		StatusDetails: datatypes.NewJSONType(domain.StatusDetails{}),
		CreatedAt:     time.Now(),
	}
	return id
}

func (s *memStore) app(id string) domain.Application {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apps[id]
}

func (s *memStore) messagesFor(appID string) []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Message
	for _, m := range s.msgs {
		if m.ApplicationID == appID {
			out = append(out, m)
		}
	}
	return out
}

func (s *memStore) eventsFor(appID string) []domain.StatusEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.StatusEvent
	for _, e := range s.events {
		if e.ApplicationID == appID {
			out = append(out, e)
		}
	}
	return out
}

type memApps struct{ s *memStore }

func (r memApps) Create(ctx context.Context, app *domain.Application) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if app.ID == "" {
		app.ID = uuid.New().String()
	}
	app.CreatedAt = time.Now()
	r.s.apps[app.ID] = *app
	return nil
}

func (r memApps) FindByID(ctx context.Context, id string) (*domain.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	app, ok := r.s.apps[id]
	if !ok {
		return nil, nil
	}
	return &app, nil
}

func (r memApps) FindByIDs(ctx context.Context, ids []string) ([]*domain.Application, error) {
	if r.s.failFindByIDs != nil {
		return nil, r.s.failFindByIDs
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Application
	// map order, like an unordered IN query
	for _, app := range r.s.apps {
		for _, id := range ids {
			if app.ID == id {
				a := app
				out = append(out, &a)
			}
		}
	}
	return out, nil
}

func (r memApps) FindLiked(ctx context.Context, userID, jobID, company, position string) (*domain.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, app := range r.s.apps {
		if app.UserID == userID && app.JobID == jobID && app.RemovedAt == nil &&
			strings.EqualFold(app.Company, company) && strings.EqualFold(app.Position, position) {
			a := app
			return &a, nil
		}
	}
	return nil, nil
}

func (r memApps) ListByUser(ctx context.Context, userID string, filter repository.ListFilter) ([]*domain.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Application
	for _, app := range r.s.apps {
		if app.UserID != userID || (!filter.IncludeRemoved && app.RemovedAt != nil) {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, st := range filter.Statuses {
				match = match || app.Status == st
			}
			if !match {
				continue
			}
		}
		a := app
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memApps) SoftRemove(ctx context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	app := r.s.apps[id]
	app.RemovedAt = &at
	r.s.apps[id] = app
	return nil
}

func (r memApps) MarkApplied(ctx context.Context, userID string, ids []string, at time.Time, details domain.StatusDetails) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var moved []string
	for _, id := range ids {
		app, ok := r.s.apps[id]
		if !ok || app.UserID != userID || app.Status != domain.StatusLiked || app.RemovedAt != nil {
			continue
		}
		app.Status = domain.StatusApplied
		if app.ApplicationSentAt == nil {
			app.ApplicationSentAt = &at
		}
		app.LastStatusUpdate = &at
		app.StatusDetails = datatypes.NewJSONType(details)
		app.Version++
		r.s.apps[id] = app
		moved = append(moved, id)
	}
	return moved, nil
}

func (r memApps) UpdateStatus(ctx context.Context, w repository.StatusWrite) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	app, ok := r.s.apps[w.ApplicationID]
	if !ok || app.Version != w.ExpectedVersion {
		return false, nil
	}
	at := w.At
	app.Status = w.Status
	app.LastStatusUpdate = &at
	app.StatusDetails = datatypes.NewJSONType(w.Details)
	app.Version++
	r.s.apps[w.ApplicationID] = app
	return true, nil
}

type memMsgs struct{ s *memStore }

func (r memMsgs) Create(ctx context.Context, msg *domain.Message) error {
	if r.s.failCreateMsg != nil {
		if err := r.s.failCreateMsg(msg); err != nil {
			return err
		}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	msg.CreatedAt = time.Now()
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = msg.CreatedAt
	}
	r.s.msgs[msg.ID] = *msg
	return nil
}

func (r memMsgs) FindByID(ctx context.Context, id string) (*domain.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.msgs[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r memMsgs) FindUnprocessedReceived(ctx context.Context, limit int) ([]*domain.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Message
	for _, m := range r.s.msgs {
		if !m.Processed && m.Direction == domain.DirectionReceived && m.ClassifyAttempts < domain.MaxClassifyAttempts {
			mm := m
			out = append(out, &mm)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedAt.Before(out[j].ReceivedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memMsgs) MarkProcessed(ctx context.Context, id string, label string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.msgs[id]
	if !ok {
		return errors.New("message not found")
	}
	m.Processed = true
	m.StatusExtracted = &label
	r.s.msgs[id] = m
	return nil
}

func (r memMsgs) RecordClassifyFailure(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.msgs[id]
	if !ok {
		return errors.New("message not found")
	}
	m.ClassifyAttempts++
	r.s.msgs[id] = m
	return nil
}

func (r memMsgs) ListReceivedByUser(ctx context.Context, userID string) ([]*domain.InboxMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.InboxMessage
	for _, m := range r.s.msgs {
		app, ok := r.s.apps[m.ApplicationID]
		if !ok || app.UserID != userID || m.Direction != domain.DirectionReceived {
			continue
		}
		out = append(out, &domain.InboxMessage{Message: m, UserID: app.UserID, Position: app.Position, Company: app.Company})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedAt.After(out[j].ReceivedAt) })
	return out, nil
}

func (r memMsgs) ListByApplication(ctx context.Context, applicationID string) ([]*domain.Message, error) {
	var out []*domain.Message
	for _, m := range r.s.messagesFor(applicationID) {
		mm := m
		out = append(out, &mm)
	}
	return out, nil
}

func (r memMsgs) ExistsExternalID(ctx context.Context, applicationID, externalID string) (bool, error) {
	for _, m := range r.s.messagesFor(applicationID) {
		if m.ExternalID == externalID {
			return true, nil
		}
	}
	return false, nil
}

type memEvents struct{ s *memStore }

func (r memEvents) Append(ctx context.Context, event *domain.StatusEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.events = append(r.s.events, *event)
	return nil
}

func (r memEvents) ListByApplication(ctx context.Context, applicationID string) ([]*domain.StatusEvent, error) {
	var out []*domain.StatusEvent
	for _, e := range r.s.eventsFor(applicationID) {
		ee := e
		out = append(out, &ee)
	}
	return out, nil
}

type memJobs struct{ s *memStore }

func (r memJobs) Create(ctx context.Context, job *domain.SimulationJob) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	r.s.jobs[job.ID] = *job
	return nil
}

func (r memJobs) FindByID(ctx context.Context, id string) (*domain.SimulationJob, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	j, ok := r.s.jobs[id]
	if !ok {
		return nil, nil
	}
	return &j, nil
}

func (r memJobs) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*domain.SimulationJob, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.SimulationJob
	for id, j := range r.s.jobs {
		if j.State != domain.JobQueued || j.RunAt.After(now) {
			continue
		}
		j.State = domain.JobRunning
		j.Attempts++
		r.s.jobs[id] = j
		jj := j
		out = append(out, &jj)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r memJobs) Update(ctx context.Context, job *domain.SimulationJob) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.jobs[job.ID] = *job
	return nil
}

func (r memJobs) RequeueRunning(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, j := range r.s.jobs {
		if j.State == domain.JobRunning {
			j.State = domain.JobQueued
			r.s.jobs[id] = j
			n++
		}
	}
	return n, nil
}

// fakeUsers and fakeMailboxes stand in for the auth repositories.
type fakeUsers struct {
	users   map[string]*authdomain.User
	updated int
}

func (f *fakeUsers) FindByID(id string) (*authdomain.User, error) { return f.users[id], nil }
func (f *fakeUsers) Update(user *authdomain.User) error {
	f.updated++
	f.users[user.ID] = user
	return nil
}

type fakeMailboxes struct {
	boxes   []*authdomain.Mailbox
	touched map[string]time.Time
}

func (f *fakeMailboxes) FindByUserID(userID string) (*authdomain.Mailbox, error) {
	for _, b := range f.boxes {
		if b.UserID == userID {
			return b, nil
		}
	}
	return nil, nil
}

func (f *fakeMailboxes) ListAll() ([]*authdomain.Mailbox, error) { return f.boxes, nil }

func (f *fakeMailboxes) TouchLastChecked(id string, at time.Time) error {
	if f.touched == nil {
		f.touched = map[string]time.Time{}
	}
	f.touched[id] = at
	return nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	sent  []domain.Notification
	users []string
}

func (n *recordingNotifier) NotifyUser(ctx context.Context, userID string, note domain.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.users = append(n.users, userID)
	n.sent = append(n.sent, note)
}

type recordingPublisher struct {
	events []*domain.StatusEvent
}

func (p *recordingPublisher) PublishStatusEvent(ctx context.Context, ev *domain.StatusEvent) error {
	p.events = append(p.events, ev)
	return nil
}
