package core

import (
	"context"
	"log"
	"time"

	"github.com/webgeeksai/print-service-mcp/internal/db"
)

// Printer renders a job and pushes it to the physical device. It is expected
// to block for seconds and to enforce its own per-attempt timeout; a timeout
// surfaces as an ordinary error.
type Printer interface {
	Print(ctx context.Context, job *db.Job) error
}

// Notifier receives job lifecycle events. Deliveries must never block the
// worker for long or propagate failures back into it.
type Notifier interface {
	SendJobEvent(event string, job *db.Job, errorMsg string)
}

// Worker is the single sequential consumer of the queue. The printer accepts
// one exclusive connection and must never see interleaved jobs, so exactly
// one job is in processing at any time.
type Worker struct {
	queue        *Queue
	printer      Printer
	notifier     Notifier
	pollInterval time.Duration
	stopCh       chan struct{}
	done         chan struct{}
}

func NewWorker(queue *Queue, printer Printer, notifier Notifier, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &Worker{
		queue:        queue,
		printer:      printer,
		notifier:     notifier,
		pollInterval: pollInterval,
		stopCh:       make(chan struct{}),
		done:         make(chan struct{}),
	}
}

func (w *Worker) Start() {
	go w.run()
}

// Stop signals the loop and waits for any in-flight attempt to finish or
// fail naturally. The printer must not be cut off mid-transmission.
func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.done
}

func (w *Worker) run() {
	defer close(w.done)

	log.Printf("worker: started, polling every %s", w.pollInterval)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			log.Printf("worker: stopped")
			return
		case <-ticker.C:
			w.processNext()
		}
	}
}

// processNext runs one poll cycle: claim, print, transition. Store failures
// are logged and absorbed; the next tick retries the whole cycle, so the
// loop never busy-spins against a broken store.
func (w *Worker) processNext() {
	ctx := context.Background()

	job, err := w.queue.ClaimNext(ctx)
	if err != nil {
		log.Printf("worker: failed to claim next job: %v", err)
		return
	}
	if job == nil {
		return
	}

	log.Printf("worker: processing job %s: %s", job.JobID, job.Title)

	if err := w.queue.SetStatus(ctx, job.JobID, JobStatusProcessing, ""); err != nil {
		log.Printf("worker: failed to mark job %s processing: %v", job.JobID, err)
		return
	}

	if err := w.printer.Print(ctx, job); err != nil {
		w.handleFailure(ctx, job, err.Error())
		return
	}

	if err := w.queue.SetStatus(ctx, job.JobID, JobStatusCompleted, ""); err != nil {
		log.Printf("worker: failed to mark job %s completed: %v", job.JobID, err)
		return
	}
	log.Printf("worker: job %s completed", job.JobID)

	if w.notifier != nil {
		job.Status = string(JobStatusCompleted)
		w.notifier.SendJobEvent("job_completed", job, "")
	}
}

func (w *Worker) handleFailure(ctx context.Context, job *db.Job, errorMsg string) {
	retrying, err := w.queue.IncrementRetry(ctx, job.JobID)
	if err != nil {
		log.Printf("worker: failed to record failure for job %s: %v", job.JobID, err)
		return
	}

	if retrying {
		// IncrementRetry already flipped the status; this write records the
		// attempt's error text alongside it.
		if err := w.queue.SetStatus(ctx, job.JobID, JobStatusRetry, errorMsg); err != nil {
			log.Printf("worker: failed to record retry error for job %s: %v", job.JobID, err)
		}
		log.Printf("worker: job %s queued for retry (%d/%d): %s", job.JobID, job.RetryCount+1, job.MaxRetries, errorMsg)
		return
	}

	log.Printf("worker: job %s failed permanently: %s", job.JobID, errorMsg)

	if w.notifier != nil {
		job.Status = string(JobStatusFailed)
		w.notifier.SendJobEvent("job_failed", job, errorMsg)
	}
}
