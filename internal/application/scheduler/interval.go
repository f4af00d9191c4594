package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"jobmatch-backend/internal/application/usecase"
)

// IntervalJob calls a batch operation on a fixed interval. A zero interval
// disables it; the batch stays reachable through its HTTP endpoint.
type IntervalJob struct {
	name     string
	interval time.Duration
	timeout  time.Duration
	fn       func(ctx context.Context) error
	stopChan chan struct{}
	wg       sync.WaitGroup
	started  bool
}

func newIntervalJob(name string, interval time.Duration, fn func(ctx context.Context) error) *IntervalJob {
	return &IntervalJob{
		name:     name,
		interval: interval,
		timeout:  5 * time.Minute,
		fn:       fn,
		stopChan: make(chan struct{}),
	}
}

// NewMonitorJob polls mailboxes every interval.
func NewMonitorJob(monitor usecase.MonitorUsecase, interval time.Duration) *IntervalJob {
	return newIntervalJob("Monitor", interval, func(ctx context.Context) error {
		summary, err := monitor.CheckMailboxes(ctx)
		if err == nil && summary.MessagesInserted > 0 {
			log.Printf("[Monitor] %d mailboxes checked, %d new messages", summary.MailboxesChecked, summary.MessagesInserted)
		}
		return err
	})
}

// NewClassifierJob classifies unprocessed replies every interval.
func NewClassifierJob(classifier usecase.ClassifierUsecase, interval time.Duration) *IntervalJob {
	return newIntervalJob("Classifier", interval, func(ctx context.Context) error {
		_, err := classifier.ProcessUnprocessed(ctx)
		return err
	})
}

// NewDigestJob sends the new job digest every interval.
func NewDigestJob(digest usecase.JobDigestUsecase, interval time.Duration) *IntervalJob {
	return newIntervalJob("Digest", interval, func(ctx context.Context) error {
		_, err := digest.SendJobDigests(ctx)
		return err
	})
}

func (j *IntervalJob) Start() {
	if j.interval <= 0 {
		log.Printf("[%s] Interval not set, periodic runs disabled", j.name)
		return
	}
	j.started = true
	log.Printf("[%s] Running every %v", j.name, j.interval)

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				j.runOnce()
			case <-j.stopChan:
				return
			}
		}
	}()
}

func (j *IntervalJob) Stop() {
	if !j.started {
		return
	}
	close(j.stopChan)
	j.wg.Wait()
	j.started = false
}

func (j *IntervalJob) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	if err := j.fn(ctx); err != nil {
		log.Printf("[%s] Run failed: %v", j.name, err)
	}
}
