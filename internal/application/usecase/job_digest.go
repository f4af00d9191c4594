package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"

	"jobmatch-backend/internal/application/domain"
	"jobmatch-backend/internal/application/dto"
	"jobmatch-backend/internal/application/repository"
	authdomain "jobmatch-backend/internal/auth/domain"
	"jobmatch-backend/pkg/gmail"
	"jobmatch-backend/pkg/recommend"

	"golang.org/x/oauth2"
)

const (
	digestMaxJobs        = 10
	digestDescriptionLen = 150
)

// JobRecommender returns recommended jobs for a user, best match first.
type JobRecommender interface {
	ShowJobs(ctx context.Context, userID string) ([]recommend.Job, error)
}

type jobDigestUsecase struct {
	store       repository.Store
	users       UserStore
	mailboxes   MailboxStore
	recommender JobRecommender
	sender      MailSender
	notifier    Notifier
}

// NewJobDigestUsecase tells every user with a mailbox about recommended jobs
// they have not liked yet.
func NewJobDigestUsecase(store repository.Store, users UserStore, mailboxes MailboxStore, recommender JobRecommender) *jobDigestUsecase {
	return &jobDigestUsecase{
		store:       store,
		users:       users,
		mailboxes:   mailboxes,
		recommender: recommender,
	}
}

func (u *jobDigestUsecase) SetMailSender(sender MailSender) { u.sender = sender }
func (u *jobDigestUsecase) SetNotifier(n Notifier)          { u.notifier = n }

func (u *jobDigestUsecase) SendJobDigests(ctx context.Context) (*dto.DigestSummary, error) {
	mailboxes, err := u.mailboxes.ListAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list mailboxes: %w", err)
	}

	summary := &dto.DigestSummary{}
	for _, mb := range mailboxes {
		summary.UsersChecked++
		jobs, err := u.newJobs(ctx, mb.UserID)
		if err != nil {
			log.Printf("[Digest] User %s: %v", mb.UserID, err)
			summary.Failed++
			continue
		}
		if len(jobs) == 0 {
			continue
		}
		summary.JobsFound += len(jobs)

		emailed, err := u.email(ctx, mb, jobs)
		if err != nil {
			log.Printf("[Digest] Email to %s failed: %v", mb.EmailAddress, err)
			summary.Failed++
		}
		if emailed {
			summary.EmailsSent++
		}

		if u.notifier != nil {
			u.notifier.NotifyUser(ctx, mb.UserID, domain.Notification{
				Event: "job_matches",
				Title: "New job matches",
				Body:  digestSubject(len(jobs)),
				Link:  "/matches",
				Data:  map[string]interface{}{"count": len(jobs)},
			})
			summary.UsersNotified++
		}
	}

	log.Printf("[Digest] Checked %d users, emailed %d, notified %d", summary.UsersChecked, summary.EmailsSent, summary.UsersNotified)
	return summary, nil
}

// newJobs drops recommendations the user already has an application for.
func (u *jobDigestUsecase) newJobs(ctx context.Context, userID string) ([]recommend.Job, error) {
	if u.recommender == nil {
		return nil, fmt.Errorf("recommender not configured")
	}
	jobs, err := u.recommender.ShowJobs(ctx, userID)
	if err != nil {
		return nil, err
	}
	apps, err := u.store.Applications().ListByUser(ctx, userID, repository.ListFilter{IncludeRemoved: true})
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(apps))
	for _, app := range apps {
		known[app.JobID] = true
	}

	fresh := make([]recommend.Job, 0, len(jobs))
	for _, job := range jobs {
		if known[job.JobID] {
			continue
		}
		fresh = append(fresh, job)
		if len(fresh) == digestMaxJobs {
			break
		}
	}
	return fresh, nil
}

// email sends the digest from the user's own Gmail account to the mailbox
// address. Users without Gmail access only get the in-app notification.
func (u *jobDigestUsecase) email(ctx context.Context, mb *authdomain.Mailbox, jobs []recommend.Job) (bool, error) {
	if u.sender == nil {
		return false, nil
	}
	user, err := u.users.FindByID(mb.UserID)
	if err != nil {
		return false, err
	}
	if user == nil || !user.HasGmailAccess() {
		return false, nil
	}

	to := mb.EmailAddress
	if to == "" {
		to = user.Email
	}
	_, err = u.sender.SendEmail(ctx, user.AccessToken, user.RefreshToken, gmail.Outgoing{
		FromName:  "Job Matches",
		FromEmail: user.Email,
		To:        to,
		Subject:   digestSubject(len(jobs)),
		Body:      digestBody(jobs),
	}, func(token *oauth2.Token) error {
		user.AccessToken = token.AccessToken
		if token.RefreshToken != "" {
			user.RefreshToken = token.RefreshToken
		}
		return u.users.Update(user)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func digestSubject(n int) string {
	if n == 1 {
		return "1 new job match found"
	}
	return fmt.Sprintf("%d new job matches found", n)
}

func digestBody(jobs []recommend.Job) string {
	var b strings.Builder
	fmt.Fprintf(&b, "We found %d new job matches that fit your profile.\n\n", len(jobs))
	for _, job := range jobs {
		fmt.Fprintf(&b, "%s\n%s - %s\n%s\n", job.Title, job.Company, job.Location, job.Salary)
		if job.Description != "" {
			fmt.Fprintf(&b, "%s\n", excerpt(job.Description, digestDescriptionLen))
		}
		fmt.Fprintf(&b, "%.0f%% match\n\n", job.MatchScore)
	}
	b.WriteString("Open your matches to like the ones you want to apply to.")
	return b.String()
}
