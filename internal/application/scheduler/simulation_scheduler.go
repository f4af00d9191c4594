package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"jobmatch-backend/internal/application/domain"
	"jobmatch-backend/internal/application/repository"
	"jobmatch-backend/internal/application/usecase"

	"gorm.io/datatypes"
)

const (
	claimBatch     = 10
	defaultBackoff = 5 * time.Second
	maxBackoff     = 5 * time.Minute
)

// SimulationScheduler runs queued simulation jobs once they are due.
type SimulationScheduler struct {
	store     repository.Store
	simulator usecase.Simulator
	interval  time.Duration
	backoff   time.Duration
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

func NewSimulationScheduler(store repository.Store, simulator usecase.Simulator, interval time.Duration) *SimulationScheduler {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &SimulationScheduler{
		store:     store,
		simulator: simulator,
		interval:  interval,
		backoff:   defaultBackoff,
		now:       time.Now,
		stopChan:  make(chan struct{}),
	}
}

// Start re-queues jobs a previous process left running, then begins polling.
func (s *SimulationScheduler) Start() {
	ctx := context.Background()
	if n, err := s.store.Jobs().RequeueRunning(ctx); err != nil {
		log.Printf("[Scheduler] Failed to requeue interrupted jobs: %v", err)
	} else if n > 0 {
		log.Printf("[Scheduler] Requeued %d interrupted simulation jobs", n)
	}

	log.Printf("[Scheduler] Starting simulation scheduler (interval: %v)", s.interval)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runDue(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.runDue(ctx)
			case <-s.stopChan:
				log.Println("[Scheduler] Simulation scheduler stopped")
				return
			}
		}
	}()
}

// Stop waits for the job in progress to finish.
func (s *SimulationScheduler) Stop() {
	close(s.stopChan)
	s.wg.Wait()
}

// runDue claims and runs every due job, returning how many were run.
func (s *SimulationScheduler) runDue(ctx context.Context) int {
	jobs, err := s.store.Jobs().ClaimDue(ctx, s.now(), claimBatch)
	if err != nil {
		log.Printf("[Scheduler] Error claiming due jobs: %v", err)
		return 0
	}
	for _, job := range jobs {
		s.run(ctx, job)
	}
	return len(jobs)
}

func (s *SimulationScheduler) run(ctx context.Context, job *domain.SimulationJob) {
	summary, err := s.simulator.Run(ctx, job.UserID, []string(job.ApplicationIDs))
	if err != nil {
		s.retryOrFail(ctx, job, err)
		return
	}

	job.State = domain.JobDone
	job.LastError = ""
	job.Result = datatypes.NewJSONType(summary)
	if err := s.store.Jobs().Update(ctx, job); err != nil {
		log.Printf("[Scheduler] Failed to store result of job %s: %v", job.ID, err)
		return
	}
	log.Printf("[Scheduler] Job %s done: %d processed, %d failed", job.ID, summary.Processed, summary.Failed)
}

func (s *SimulationScheduler) retryOrFail(ctx context.Context, job *domain.SimulationJob, cause error) {
	job.LastError = cause.Error()
	if job.Attempts >= job.MaxAttempts {
		job.State = domain.JobFailed
		log.Printf("[Scheduler] Job %s failed after %d attempts: %v", job.ID, job.Attempts, cause)
	} else {
		delay := s.backoffFor(job.Attempts)
		job.State = domain.JobQueued
		job.RunAt = s.now().Add(delay)
		log.Printf("[Scheduler] Job %s attempt %d/%d failed, retrying in %v: %v", job.ID, job.Attempts, job.MaxAttempts, delay, cause)
	}
	if err := s.store.Jobs().Update(ctx, job); err != nil {
		log.Printf("[Scheduler] Failed to update job %s: %v", job.ID, err)
	}
}

// backoffFor doubles the delay with every attempt, up to maxBackoff.
func (s *SimulationScheduler) backoffFor(attempt int) time.Duration {
	delay := s.backoff
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}
