package db

import (
	"time"
)

// Job is one task-print request tracked from submission to its terminal state.
// Optional fields are nil when absent and stay nil across a store round-trip.
type Job struct {
	JobID         string     `json:"job_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Priority      string     `json:"priority"`
	Category      string     `json:"category"`
	EstimatedTime string     `json:"estimated_time,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	MaxRetries    int        `json:"max_retries"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
}

type QueueStats struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
	Retry      int64 `json:"retry"`
	TotalJobs  int64 `json:"total_jobs"`
	JobsLast24 int64 `json:"jobs_last_24h"`
}

type JobFilter struct {
	Status string
	Limit  int
	Offset int
}
