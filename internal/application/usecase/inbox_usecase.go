package usecase

import (
	"context"
	"log"
	"math"
	"sort"

	"jobmatch-backend/internal/application/domain"
	"jobmatch-backend/internal/application/dto"
	"jobmatch-backend/internal/application/repository"
	"jobmatch-backend/pkg/fuzzy"
)

type inboxUsecase struct {
	store   repository.Store
	index   MessageIndex
	indexer interface {
		Backfill(msgs []*domain.InboxMessage) int
	}
}

func NewInboxUsecase(store repository.Store) *inboxUsecase {
	return &inboxUsecase{store: store}
}

func (u *inboxUsecase) SetMessageIndex(index MessageIndex) { u.index = index }

// SetIndexer lets Search queue a user's messages when the index has none of them.
func (u *inboxUsecase) SetIndexer(w *IndexWorker) { u.indexer = w }

// GetInbox loads every received message of the user, newest first, with
// per-label counts computed over the loaded set.
func (u *inboxUsecase) GetInbox(ctx context.Context, userID string) (*dto.InboxResponse, error) {
	msgs, err := u.store.Messages().ListReceivedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []*domain.InboxMessage{}
	}
	return &dto.InboxResponse{Messages: msgs, Counts: countLabels(msgs)}, nil
}

func countLabels(msgs []*domain.InboxMessage) map[string]int {
	counts := make(map[string]int, len(domain.InboxCountLabels))
	for _, label := range domain.InboxCountLabels {
		counts[string(label)] = 0
	}
	for _, m := range msgs {
		if m.StatusExtracted == nil {
			continue
		}
		if _, tracked := counts[*m.StatusExtracted]; tracked {
			counts[*m.StatusExtracted]++
		}
	}
	return counts
}

// GetStats counts applications, not emails: an application with several
// positive replies is one positive response, and replies still waiting for
// a label are not counted as positive.
func (u *inboxUsecase) GetStats(ctx context.Context, userID string) (*dto.DashboardStats, error) {
	apps, err := u.store.Applications().ListByUser(ctx, userID, repository.ListFilter{})
	if err != nil {
		return nil, err
	}
	msgs, err := u.store.Messages().ListReceivedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &dto.DashboardStats{}
	for _, app := range apps {
		if app.Status == domain.StatusLiked {
			continue
		}
		stats.TotalApplications++
		if app.Status == domain.StatusApplied || app.Status == domain.StatusPending {
			stats.PendingResponses++
		}
	}
	interviews := map[string]bool{}
	positive := map[string]bool{}
	for _, m := range msgs {
		if m.StatusExtracted == nil {
			continue
		}
		if *m.StatusExtracted == string(domain.StatusInterviewScheduled) {
			interviews[m.ApplicationID] = true
		}
		if *m.StatusExtracted != string(domain.StatusRejected) {
			positive[m.ApplicationID] = true
		}
	}
	stats.InterviewsScheduled = len(interviews)
	stats.PositiveResponses = len(positive)
	if stats.TotalApplications > 0 {
		stats.SuccessRate = math.Round(float64(stats.PositiveResponses) / float64(stats.TotalApplications) * 100)
	}
	return stats, nil
}

// Search ranks the user's inbox against query, semantically when an index
// is configured and by fuzzy matching otherwise.
func (u *inboxUsecase) Search(ctx context.Context, userID, query string, limit int) ([]*domain.InboxMessage, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	msgs, err := u.store.Messages().ListReceivedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if query == "" || len(msgs) == 0 {
		return []*domain.InboxMessage{}, nil
	}

	if u.index != nil {
		if found := u.semanticSearch(ctx, userID, query, limit, msgs); len(found) > 0 {
			return found, nil
		}
	}
	return fuzzySearch(query, limit, msgs), nil
}

func (u *inboxUsecase) semanticSearch(ctx context.Context, userID, query string, limit int, msgs []*domain.InboxMessage) []*domain.InboxMessage {
	ids, err := u.index.SearchMessages(ctx, userID, query, limit)
	if err != nil {
		log.Printf("[Inbox] Semantic search failed, using fuzzy match: %v", err)
		return nil
	}
	if len(ids) == 0 {
		if u.indexer != nil {
			log.Printf("[Inbox] Index empty for user %s, queued %d messages", userID, u.indexer.Backfill(msgs))
		}
		return nil
	}

	byID := make(map[string]*domain.InboxMessage, len(msgs))
	for _, m := range msgs {
		byID[m.ID] = m
	}
	out := make([]*domain.InboxMessage, 0, len(ids))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			out = append(out, m)
		}
	}
	return out
}

func fuzzySearch(query string, limit int, msgs []*domain.InboxMessage) []*domain.InboxMessage {
	type scored struct {
		msg   *domain.InboxMessage
		score float64
	}
	var hits []scored
	for _, m := range msgs {
		if s := fuzzy.Score(query, m.Subject, m.Company, m.Position, m.Body); s > 0 {
			hits = append(hits, scored{m, s})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	out := make([]*domain.InboxMessage, 0, min(limit, len(hits)))
	for i := 0; i < len(hits) && i < limit; i++ {
		out = append(out, hits[i].msg)
	}
	return out
}
