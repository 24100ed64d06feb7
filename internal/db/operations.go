package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrDuplicateJob = errors.New("job id already exists")
	ErrJobNotFound  = errors.New("job not found")
)

type JobOperations struct{}

func (o *JobOperations) CreateJob(ctx context.Context, j *Job) error {
	_, err := GetDB().ExecContext(ctx, InsertJob,
		j.JobID, j.Title, nullString(j.Description), j.Priority, j.Category,
		nullString(j.EstimatedTime), nullTime(j.DueDate), j.Status,
		j.RetryCount, j.MaxRetries, nullString(j.ErrorMessage),
		j.CreatedAt, nullTime(j.ProcessedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", ErrDuplicateJob, j.JobID)
		}
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

func (o *JobOperations) GetJobByID(ctx context.Context, id string) (*Job, error) {
	j, err := scanJob(GetDB().QueryRowContext(ctx, GetJobByID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return j, nil
}

// ClaimNext selects the highest-priority, oldest eligible job. It does not
// mark the row; the worker's processing transition is the claim. Returns
// (nil, nil) when nothing is eligible.
func (o *JobOperations) ClaimNext(ctx context.Context) (*Job, error) {
	j, err := scanJob(GetDB().QueryRowContext(ctx, ClaimNextJob))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to claim next job: %w", err)
	}
	return j, nil
}

// UpdateJobStatus sets status in one statement. processed_at is stamped for
// terminal statuses and cleared otherwise. The error message is written only
// when one is given; a job that recovers after failed attempts keeps the text
// of its last failure on record. Unknown ids are a no-op.
func (o *JobOperations) UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error {
	var processedAt interface{}
	if status == "completed" || status == "failed" {
		processedAt = time.Now().UTC()
	}

	var err error
	if errorMsg == "" {
		_, err = GetDB().ExecContext(ctx, UpdateJobStatusKeepError, status, processedAt, id)
	} else {
		_, err = GetDB().ExecContext(ctx, UpdateJobStatus, status, errorMsg, processedAt, id)
	}
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return nil
}

// IncrementRetry grants another attempt while the retry budget lasts.
// The guarded update and the terminal fallback run in a single transaction,
// so a crash never leaves the counter and status disagreeing.
func (o *JobOperations) IncrementRetry(ctx context.Context, id string) (bool, error) {
	tx, err := GetDB().BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, IncrementJobRetry, id)
	if err != nil {
		return false, fmt.Errorf("failed to increment retry count: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	if affected == 0 {
		if _, err := tx.ExecContext(ctx, ForceJobFailed, time.Now().UTC(), id); err != nil {
			return false, fmt.Errorf("failed to mark job failed: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit retry transaction: %w", err)
	}

	return affected > 0, nil
}

func (o *JobOperations) ListJobs(ctx context.Context, filter JobFilter) ([]*Job, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}

	query := "SELECT " + jobColumns + " FROM print_jobs"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY CASE priority WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END DESC, created_at DESC`

	limit := 100
	if filter.Limit > 0 {
		limit = filter.Limit
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := GetDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (o *JobOperations) GetStats(ctx context.Context) (*QueueStats, error) {
	stats := &QueueStats{}

	rows, err := GetDB().QueryContext(ctx, CountJobsByStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan job count: %w", err)
		}
		stats.TotalJobs += count
		switch status {
		case "pending":
			stats.Pending = count
		case "processing":
			stats.Processing = count
		case "completed":
			stats.Completed = count
		case "failed":
			stats.Failed = count
		case "retry":
			stats.Retry = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read job counts: %w", err)
	}

	yesterday := time.Now().UTC().Add(-24 * time.Hour)
	if err := GetDB().QueryRowContext(ctx, CountJobsCreatedSince, yesterday).Scan(&stats.JobsLast24); err != nil {
		return nil, fmt.Errorf("failed to count recent jobs: %w", err)
	}

	return stats, nil
}

// Cleanup removes terminal jobs created before the cutoff. Jobs still in
// flight are never touched, whatever their age.
func (o *JobOperations) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	result, err := GetDB().ExecContext(ctx, DeleteExpiredJobs, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up jobs: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return deleted, nil
}

func (o *JobOperations) ResetStaleProcessing(ctx context.Context) (int64, error) {
	result, err := GetDB().ExecContext(ctx, ResetStaleProcessingJobs)
	if err != nil {
		return 0, fmt.Errorf("failed to reset stale jobs: %w", err)
	}
	reset, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return reset, nil
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanJob(row scannable) (*Job, error) {
	j := &Job{}
	var description, estimatedTime, errorMessage sql.NullString
	var dueDate, processedAt sql.NullTime

	err := row.Scan(
		&j.JobID, &j.Title, &description, &j.Priority, &j.Category,
		&estimatedTime, &dueDate, &j.Status, &j.RetryCount, &j.MaxRetries,
		&errorMessage, &j.CreatedAt, &processedAt)
	if err != nil {
		return nil, err
	}

	j.Description = description.String
	j.EstimatedTime = estimatedTime.String
	j.ErrorMessage = errorMessage.String
	if dueDate.Valid {
		t := dueDate.Time
		j.DueDate = &t
	}
	if processedAt.Valid {
		t := processedAt.Time
		j.ProcessedAt = &t
	}

	return j, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

var Jobs = &JobOperations{}
