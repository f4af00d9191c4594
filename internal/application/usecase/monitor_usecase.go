package usecase

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"jobmatch-backend/internal/application/domain"
	"jobmatch-backend/internal/application/dto"
	"jobmatch-backend/internal/application/repository"
	authdomain "jobmatch-backend/internal/auth/domain"
	"jobmatch-backend/pkg/fuzzy"
	"jobmatch-backend/pkg/imap"
)

const (
	imapFetchLimit    = 50
	imapFirstLookback = 7 * 24 * time.Hour
)

type monitorUsecase struct {
	store      repository.Store
	mailboxes  MailboxStore
	fetcher    MailFetcher
	classifier ClassifierUsecase
	indexer    messageIndexer
	replyRate  float64

	now   func() time.Time
	rndMu sync.Mutex
	rnd   *rand.Rand
}

// NewMonitorUsecase checks every configured mailbox. Mailboxes without IMAP
// settings get an acknowledgement reply with probability replyRate.
func NewMonitorUsecase(store repository.Store, mailboxes MailboxStore, fetcher MailFetcher, classifier ClassifierUsecase, replyRate float64) *monitorUsecase {
	return &monitorUsecase{
		store:      store,
		mailboxes:  mailboxes,
		fetcher:    fetcher,
		classifier: classifier,
		replyRate:  replyRate,
		now:        time.Now,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (u *monitorUsecase) SetIndexer(i messageIndexer) { u.indexer = i }

func (u *monitorUsecase) CheckMailboxes(ctx context.Context) (*dto.MonitorSummary, error) {
	mailboxes, err := u.mailboxes.ListAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list mailboxes: %w", err)
	}

	summary := &dto.MonitorSummary{}
	for _, mb := range mailboxes {
		inserted, err := u.checkMailbox(ctx, mb)
		if err != nil {
			log.Printf("[Monitor] Mailbox %s: %v", mb.EmailAddress, err)
			continue
		}
		summary.MailboxesChecked++
		summary.MessagesInserted += inserted
	}

	if summary.MessagesInserted > 0 && u.classifier != nil {
		result, err := u.classifier.ProcessUnprocessed(ctx)
		if err != nil {
			log.Printf("[Monitor] Classifier run failed: %v", err)
		} else {
			summary.EmailsProcessed = result.EmailsProcessed
		}
	}
	return summary, nil
}

func (u *monitorUsecase) checkMailbox(ctx context.Context, mb *authdomain.Mailbox) (int, error) {
	apps, err := u.store.Applications().ListByUser(ctx, mb.UserID, repository.ListFilter{
		Statuses: []domain.Status{domain.StatusApplied},
	})
	if err != nil {
		return 0, err
	}

	if mb.UsesIMAP() {
		return u.pollIMAP(ctx, mb, apps)
	}
	return u.simulateReply(ctx, mb, apps)
}

func (u *monitorUsecase) pollIMAP(ctx context.Context, mb *authdomain.Mailbox, apps []*domain.Application) (int, error) {
	if u.fetcher == nil {
		return 0, fmt.Errorf("imap fetcher not configured")
	}
	checkedAt := u.now()
	since := checkedAt.Add(-imapFirstLookback)
	if mb.LastCheckedAt != nil {
		since = *mb.LastCheckedAt
	}

	username := mb.IMAPUsername
	if username == "" {
		username = mb.EmailAddress
	}
	fetched, err := u.fetcher.FetchSince(ctx, imap.Account{Host: mb.IMAPHost, Username: username, Password: mb.IMAPPassword}, since, imapFetchLimit)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, m := range fetched {
		app := matchApplication(m, apps)
		if app == nil {
			continue
		}
		if m.MessageID != "" {
			exists, err := u.store.Messages().ExistsExternalID(ctx, app.ID, m.MessageID)
			if err != nil {
				log.Printf("[Monitor] Dedup check failed for %s: %v", m.MessageID, err)
				continue
			}
			if exists {
				continue
			}
		}
		receivedAt := m.Date
		if receivedAt.IsZero() {
			receivedAt = checkedAt
		}
		msg := &domain.Message{
			ApplicationID: app.ID,
			Direction:     domain.DirectionReceived,
			FromEmail:     m.From,
			ToEmail:       mb.EmailAddress,
			Subject:       m.Subject,
			Body:          m.Body,
			ReceivedAt:    receivedAt,
			ExternalID:    m.MessageID,
		}
		if err := u.store.Messages().Create(ctx, msg); err != nil {
			log.Printf("[Monitor] Failed to store message %s: %v", m.MessageID, err)
			continue
		}
		u.queueIndex(msg, app)
		inserted++
	}

	if err := u.mailboxes.TouchLastChecked(mb.ID, checkedAt); err != nil {
		log.Printf("[Monitor] Failed to update last check of %s: %v", mb.EmailAddress, err)
	}
	return inserted, nil
}

func (u *monitorUsecase) simulateReply(ctx context.Context, mb *authdomain.Mailbox, apps []*domain.Application) (int, error) {
	if len(apps) == 0 {
		return 0, nil
	}
	u.rndMu.Lock()
	hit := u.rnd.Float64() < u.replyRate
	app := apps[u.rnd.Intn(len(apps))]
	u.rndMu.Unlock()
	if !hit {
		return 0, nil
	}

	msg := &domain.Message{
		ApplicationID: app.ID,
		Direction:     domain.DirectionReceived,
		FromEmail:     careersAddress(app.Company),
		ToEmail:       mb.EmailAddress,
		Subject:       "RE: Application for " + app.Position,
		Body: fmt.Sprintf("Thank you for your application to %s.\n"+
			"We have received your application for the %s position and are currently reviewing it.\n"+
			"We will be in touch soon regarding next steps.", app.Company, app.Position),
		ReceivedAt: u.now(),
	}
	if err := u.store.Messages().Create(ctx, msg); err != nil {
		return 0, err
	}
	log.Printf("[Monitor] New reply for application %s", app.ID)
	u.queueIndex(msg, app)
	return 1, nil
}

func (u *monitorUsecase) queueIndex(msg *domain.Message, app *domain.Application) {
	if u.indexer != nil {
		u.indexer.QueueMessage(msg, app)
	}
}

// matchApplication finds the applied application an inbound email answers:
// first by sender domain, then by company or position in the subject.
func matchApplication(m imap.Message, apps []*domain.Application) *domain.Application {
	domainPart := ""
	if at := strings.LastIndex(m.From, "@"); at >= 0 {
		domainPart = strings.ToLower(m.From[at+1:])
	}
	for _, app := range apps {
		compact := strings.ToLower(strings.Join(strings.Fields(app.Company), ""))
		if domainPart != "" && compact != "" && strings.Contains(domainPart, compact) {
			return app
		}
	}
	for _, app := range apps {
		if app.Company != "" && fuzzy.Match(app.Company, m.Subject, 1) {
			return app
		}
	}
	for _, app := range apps {
		if app.Position != "" && strings.Contains(strings.ToLower(m.Subject), strings.ToLower(app.Position)) {
			return app
		}
	}
	return nil
}
