package core

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/webgeeksai/print-service-mcp/internal/config"
	"github.com/webgeeksai/print-service-mcp/internal/db"
)

var ErrTitleRequired = errors.New("job title is required")

// Queue is the job queue API. The durable store is the queue: there is no
// in-memory mirror to diverge from it.
type Queue struct {
	config *config.QueueConfig
}

func NewQueue(cfg *config.QueueConfig) *Queue {
	if cfg == nil {
		cfg = &config.QueueConfig{
			PollInterval:    5 * time.Second,
			MaxRetries:      3,
			RetentionDays:   7,
			CleanupInterval: 24 * time.Hour,
		}
	}
	return &Queue{config: cfg}
}

// Enqueue persists a new job in pending state and returns its id.
func (q *Queue) Enqueue(ctx context.Context, job *db.Job) (string, error) {
	if job.Title == "" {
		return "", ErrTitleRequired
	}

	job.JobID = uuid.NewString()
	job.Priority = CoercePriority(job.Priority)
	job.Category = CoerceCategory(job.Category)
	job.Status = string(JobStatusPending)
	job.RetryCount = 0
	job.MaxRetries = q.config.MaxRetries
	job.ErrorMessage = ""
	job.CreatedAt = time.Now().UTC()
	job.ProcessedAt = nil

	if err := db.Jobs.CreateJob(ctx, job); err != nil {
		return "", err
	}
	return job.JobID, nil
}

// ClaimNext returns the next eligible job, or nil when the queue is drained.
func (q *Queue) ClaimNext(ctx context.Context) (*db.Job, error) {
	return db.Jobs.ClaimNext(ctx)
}

func (q *Queue) SetStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error {
	return db.Jobs.UpdateJobStatus(ctx, jobID, string(status), errorMsg)
}

// IncrementRetry reports whether the job earned another attempt. When the
// budget is spent the store has already forced the job to failed with a
// terminal error message.
func (q *Queue) IncrementRetry(ctx context.Context, jobID string) (bool, error) {
	return db.Jobs.IncrementRetry(ctx, jobID)
}

func (q *Queue) GetJob(ctx context.Context, jobID string) (*db.Job, error) {
	return db.Jobs.GetJobByID(ctx, jobID)
}

func (q *Queue) ListJobs(ctx context.Context, status string, limit, offset int) ([]*db.Job, error) {
	return db.Jobs.ListJobs(ctx, db.JobFilter{Status: status, Limit: limit, Offset: offset})
}

func (q *Queue) Stats(ctx context.Context) (*db.QueueStats, error) {
	return db.Jobs.GetStats(ctx)
}

// Cleanup deletes terminal jobs older than the configured retention window.
func (q *Queue) Cleanup(ctx context.Context) (int64, error) {
	retention := time.Duration(q.config.RetentionDays) * 24 * time.Hour
	return db.Jobs.Cleanup(ctx, retention)
}

// RecoverStale resets jobs abandoned in processing by an ungraceful shutdown
// back to retry. Run once at startup, before the worker begins claiming.
func (q *Queue) RecoverStale(ctx context.Context) (int64, error) {
	return db.Jobs.ResetStaleProcessing(ctx)
}
