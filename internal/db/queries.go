package db

const jobColumns = `job_id, title, description, priority, category, estimated_time, due_date, status, retry_count, max_retries, error_message, created_at, processed_at`

const (
	InsertJob = `
		INSERT INTO print_jobs (job_id, title, description, priority, category, estimated_time, due_date, status, retry_count, max_retries, error_message, created_at, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	GetJobByID = `
		SELECT ` + jobColumns + `
		FROM print_jobs WHERE job_id = ?
	`

	// Priority dominates, creation time breaks ties. Only pending and retry
	// rows are eligible for a claim.
	ClaimNextJob = `
		SELECT ` + jobColumns + `
		FROM print_jobs
		WHERE status IN ('pending', 'retry')
		ORDER BY CASE priority WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END DESC,
			created_at ASC
		LIMIT 1
	`

	UpdateJobStatus = `
		UPDATE print_jobs SET status = ?, error_message = ?, processed_at = ? WHERE job_id = ?
	`

	UpdateJobStatusKeepError = `
		UPDATE print_jobs SET status = ?, processed_at = ? WHERE job_id = ?
	`

	IncrementJobRetry = `
		UPDATE print_jobs SET retry_count = retry_count + 1, status = 'retry'
		WHERE job_id = ? AND retry_count < max_retries
	`

	ForceJobFailed = `
		UPDATE print_jobs
		SET status = 'failed',
			error_message = 'max retries (' || max_retries || ') exceeded',
			processed_at = ?
		WHERE job_id = ?
	`

	CountJobsByStatus = `
		SELECT status, COUNT(*) FROM print_jobs GROUP BY status
	`

	CountJobsCreatedSince = `
		SELECT COUNT(*) FROM print_jobs WHERE created_at > ?
	`

	DeleteExpiredJobs = `
		DELETE FROM print_jobs
		WHERE status IN ('completed', 'failed') AND created_at < ?
	`

	// Startup sweep: with a single worker, nothing can legitimately be
	// processing when the process comes up.
	ResetStaleProcessingJobs = `
		UPDATE print_jobs SET status = 'retry' WHERE status = 'processing'
	`
)
