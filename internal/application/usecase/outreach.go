package usecase

import (
	"context"
	"fmt"
	"log"

	"jobmatch-backend/internal/application/domain"
	"jobmatch-backend/internal/application/dto"
	"jobmatch-backend/internal/application/repository"
	authdomain "jobmatch-backend/internal/auth/domain"
	"jobmatch-backend/pkg/ai"
	"jobmatch-backend/pkg/gmail"

	"golang.org/x/oauth2"
)

// SendApplicationEmails drafts an application email per application and
// sends it from the user's Gmail account when it is connected. Every
// drafted email is stored as a sent message. Liked applications become
// applied; no employer replies are simulated for this path.
func (u *applicationUsecase) SendApplicationEmails(ctx context.Context, userID string, ids []string) ([]dto.SendEmailResult, error) {
	if u.drafter == nil {
		return nil, ErrAIUnavailable
	}
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, ErrNoApplications
	}

	user, err := u.users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}
	fromAddress := user.Email
	if u.mailboxes != nil {
		if mb, err := u.mailboxes.FindByUserID(userID); err == nil && mb != nil && mb.EmailAddress != "" {
			fromAddress = mb.EmailAddress
		}
	}
	profile := user.Profile.Data()

	results := make([]dto.SendEmailResult, 0, len(ids))
	for _, id := range ids {
		result := dto.SendEmailResult{ApplicationID: id}

		app, err := u.owned(ctx, userID, id)
		if err != nil {
			if !isNotFound(err) {
				log.Printf("[Outreach] Failed to load application %s: %v", id, err)
			}
			result.Error = err.Error()
			results = append(results, result)
			continue
		}
		result.Company = app.Company
		if app.Status != domain.StatusLiked && app.Status != domain.StatusApplied {
			result.Error = fmt.Sprintf("application is already %s", app.Status)
			results = append(results, result)
			continue
		}

		delivered, err := u.sendOne(ctx, user, &profile, app, fromAddress)
		if err != nil {
			log.Printf("[Outreach] Application %s (%s): %v", id, app.Company, err)
			result.Error = err.Error()
		} else {
			result.Success = true
			result.Delivered = delivered
		}
		results = append(results, result)
	}
	return results, nil
}

func (u *applicationUsecase) sendOne(ctx context.Context, user *authdomain.User, profile *authdomain.Profile, app *domain.Application, fromAddress string) (bool, error) {
	draft, err := u.drafter.DraftApplicationEmail(ctx, ai.DraftRequest{
		Position:      app.Position,
		Company:       app.Company,
		FromAddress:   fromAddress,
		CandidateName: user.Name,
		Skills:        profile.Skills,
		Summary:       profile.Summary,
	})
	if err != nil {
		return false, fmt.Errorf("failed to draft email: %w", err)
	}

	to := careersAddress(app.Company)
	subject := "Application for " + app.Position

	delivered := false
	if u.sender != nil && user.HasGmailAccess() {
		_, err := u.sender.SendEmail(ctx, user.AccessToken, user.RefreshToken, gmail.Outgoing{
			FromName:  user.Name,
			FromEmail: user.Email,
			To:        to,
			Subject:   subject,
			Body:      draft,
		}, func(token *oauth2.Token) error {
			user.AccessToken = token.AccessToken
			if token.RefreshToken != "" {
				user.RefreshToken = token.RefreshToken
			}
			return u.users.Update(user)
		})
		if err != nil {
			return false, fmt.Errorf("failed to send email: %w", err)
		}
		delivered = true
	}

	now := u.now()
	var events []*domain.StatusEvent
	err = u.store.Transaction(ctx, func(tx repository.Store) error {
		events = events[:0]
		msg := &domain.Message{
			ApplicationID: app.ID,
			Direction:     domain.DirectionSent,
			FromEmail:     fromAddress,
			ToEmail:       to,
			Subject:       subject,
			Body:          draft,
			ReceivedAt:    now,
			Processed:     true,
		}
		if err := tx.Messages().Create(ctx, msg); err != nil {
			return fmt.Errorf("failed to record sent email: %w", err)
		}
		if app.Status != domain.StatusLiked {
			return nil
		}
		moved, err := tx.Applications().MarkApplied(ctx, app.UserID, []string{app.ID}, now, domain.StatusDetails{
			Message: "Application sent successfully",
			Source:  string(domain.SourceOutreach),
		})
		if err != nil {
			return err
		}
		if len(moved) == 1 {
			ev, err := u.writer.appliedEvent(ctx, tx, app, domain.StatusApplied, domain.SourceOutreach, now)
			if err != nil {
				return err
			}
			events = append(events, ev)
		}
		return nil
	})
	if err != nil {
		return delivered, err
	}
	u.writer.publish(ctx, events...)
	return delivered, nil
}
