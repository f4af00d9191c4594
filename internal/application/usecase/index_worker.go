package usecase

import (
	"context"
	"log"
	"sync"
	"time"

	"jobmatch-backend/internal/application/domain"
	"jobmatch-backend/pkg/chroma"
)

// messageIndexer accepts inbox messages for background indexing.
type messageIndexer interface {
	QueueMessage(msg *domain.Message, app *domain.Application) bool
}

// IndexWorker pushes received messages into the semantic search index in
// the background.
type IndexWorker struct {
	index       MessageIndex
	jobQueue    chan chroma.Document
	workerWg    sync.WaitGroup
	workerCount int
	started     bool
	mu          sync.Mutex
}

func NewIndexWorker(index MessageIndex, workerCount int) *IndexWorker {
	if workerCount <= 0 {
		workerCount = 2
	}
	return &IndexWorker{
		index:       index,
		jobQueue:    make(chan chroma.Document, 500),
		workerCount: workerCount,
	}
}

func (w *IndexWorker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return
	}
	for i := 0; i < w.workerCount; i++ {
		w.workerWg.Add(1)
		go w.worker(i)
	}
	w.started = true
	log.Printf("[IndexWorker] Started %d workers", w.workerCount)
}

// Stop drains the queue and waits for the workers.
func (w *IndexWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	close(w.jobQueue)
	w.workerWg.Wait()
	w.started = false
	log.Println("[IndexWorker] All workers stopped")
}

func (w *IndexWorker) worker(id int) {
	defer w.workerWg.Done()
	for doc := range w.jobQueue {
		w.process(doc)
	}
	log.Printf("[IndexWorker] Worker %d stopped", id)
}

func (w *IndexWorker) process(doc chroma.Document) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := w.index.UpsertMessage(ctx, doc); err != nil {
		log.Printf("[IndexWorker] Failed to index message %s: %v", doc.MessageID, err)
	}
}

// QueueMessage adds a received message to the queue (non-blocking).
func (w *IndexWorker) QueueMessage(msg *domain.Message, app *domain.Application) bool {
	if msg == nil || app == nil || msg.Direction != domain.DirectionReceived {
		return false
	}
	select {
	case w.jobQueue <- chroma.Document{
		MessageID:     msg.ID,
		UserID:        app.UserID,
		ApplicationID: app.ID,
		Company:       app.Company,
		Position:      app.Position,
		Subject:       msg.Subject,
		Body:          msg.Body,
	}:
		return true
	default:
		return false // Queue full
	}
}

// Backfill queues every received message of a user, for indexes created
// after the messages were stored.
func (w *IndexWorker) Backfill(msgs []*domain.InboxMessage) int {
	queued := 0
	for _, m := range msgs {
		msg := m.Message
		app := &domain.Application{ID: m.ApplicationID, UserID: m.UserID, Company: m.Company, Position: m.Position}
		if w.QueueMessage(&msg, app) {
			queued++
		}
	}
	return queued
}
