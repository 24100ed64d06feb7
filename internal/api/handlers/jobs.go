package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/webgeeksai/print-service-mcp/internal/core"
	"github.com/webgeeksai/print-service-mcp/internal/db"
	"github.com/webgeeksai/print-service-mcp/internal/printer"
)

const maxBatchSize = 10

var ErrBatchTooLarge = errors.New("batch size exceeds maximum of 10 tasks")

type TaskRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Priority      string `json:"priority"`
	Category      string `json:"category"`
	EstimatedTime string `json:"estimated_time"`
	DueDate       string `json:"due_date"`
}

type BatchRequest struct {
	Tasks []TaskRequest `json:"tasks"`
}

type SubmitResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"job_id"`
	ShortID string `json:"short_id"`
	Message string `json:"message"`
}

type BatchResponse struct {
	Success   bool     `json:"success"`
	JobIDs    []string `json:"job_ids"`
	TotalJobs int      `json:"total_jobs"`
	Message   string   `json:"message"`
}

type JobStatusResponse struct {
	JobID        string     `json:"job_id"`
	Status       string     `json:"status"`
	Title        string     `json:"title"`
	Priority     string     `json:"priority"`
	Category     string     `json:"category"`
	CreatedAt    time.Time  `json:"created_at"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	RetryCount   int        `json:"retry_count"`
	MaxRetries   int        `json:"max_retries"`
}

type StatsResponse struct {
	Pending     int64  `json:"pending"`
	Processing  int64  `json:"processing"`
	Completed   int64  `json:"completed"`
	Failed      int64  `json:"failed"`
	Retry       int64  `json:"retry"`
	TotalJobs   int64  `json:"total_jobs"`
	JobsLast24h int64  `json:"jobs_last_24h"`
	QueueHealth string `json:"queue_health"`
}

type ListJobsQuery struct {
	Status string `form:"status"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

type JobHandler struct {
	queue *core.Queue
}

func NewJobHandler(queue *core.Queue) *JobHandler {
	return &JobHandler{queue: queue}
}

func (h *JobHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.POST("/tasks", h.SubmitTask)
		api.POST("/tasks/batch", h.SubmitBatch)
		api.GET("/jobs", h.ListJobs)
		api.GET("/jobs/:id", h.GetJobStatus)
		api.GET("/stats", h.GetStats)
	}
	r.GET("/healthz", h.Healthz)
}

// SubmitTask validates and enqueues one task. A missing title rejects the
// request; priority and category are coerced, never rejected.
func (h *JobHandler) SubmitTask(c *gin.Context) {
	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := taskToJob(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	jobID, err := h.queue.Enqueue(c.Request.Context(), job)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue job"})
		return
	}

	c.JSON(http.StatusCreated, SubmitResponse{
		Success: true,
		JobID:   jobID,
		ShortID: printer.ShortID(jobID),
		Message: "task queued for printing",
	})
}

// SubmitBatch enqueues up to maxBatchSize tasks. Rejection is wholesale:
// every task is validated before the first insert, so an invalid batch
// creates zero jobs.
func (h *JobHandler) SubmitBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(req.Tasks) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "batch must contain at least one task"})
		return
	}
	if len(req.Tasks) > maxBatchSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrBatchTooLarge.Error()})
		return
	}

	jobs := make([]*db.Job, 0, len(req.Tasks))
	for i := range req.Tasks {
		job, err := taskToJob(&req.Tasks[i])
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "task " + strconv.Itoa(i) + ": " + err.Error()})
			return
		}
		jobs = append(jobs, job)
	}

	jobIDs := make([]string, 0, len(jobs))
	for _, job := range jobs {
		jobID, err := h.queue.Enqueue(c.Request.Context(), job)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue batch"})
			return
		}
		jobIDs = append(jobIDs, jobID)
	}

	c.JSON(http.StatusCreated, BatchResponse{
		Success:   true,
		JobIDs:    jobIDs,
		TotalJobs: len(jobIDs),
		Message:   "batch queued for printing",
	})
}

func (h *JobHandler) GetJobStatus(c *gin.Context) {
	job, err := h.queue.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, db.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get job"})
		return
	}

	c.JSON(http.StatusOK, jobToStatusResponse(job))
}

func (h *JobHandler) ListJobs(c *gin.Context) {
	var query ListJobsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	jobs, err := h.queue.ListJobs(c.Request.Context(), query.Status, query.Limit, query.Offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list jobs"})
		return
	}

	responses := make([]JobStatusResponse, 0, len(jobs))
	for _, job := range jobs {
		responses = append(responses, jobToStatusResponse(job))
	}

	c.JSON(http.StatusOK, gin.H{"jobs": responses, "count": len(responses)})
}

func (h *JobHandler) GetStats(c *gin.Context) {
	stats, err := h.queue.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stats"})
		return
	}

	health := "healthy"
	if stats.TotalJobs >= 100 {
		health = "busy"
	}

	c.JSON(http.StatusOK, StatsResponse{
		Pending:     stats.Pending,
		Processing:  stats.Processing,
		Completed:   stats.Completed,
		Failed:      stats.Failed,
		Retry:       stats.Retry,
		TotalJobs:   stats.TotalJobs,
		JobsLast24h: stats.JobsLast24,
		QueueHealth: health,
	})
}

func (h *JobHandler) Healthz(c *gin.Context) {
	stats, err := h.queue.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "store unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"queue_size": stats.Pending + stats.Retry,
		"processing": stats.Processing,
		"last_check": time.Now().UTC(),
	})
}

func jobToStatusResponse(job *db.Job) JobStatusResponse {
	return JobStatusResponse{
		JobID:        job.JobID,
		Status:       job.Status,
		Title:        job.Title,
		Priority:     job.Priority,
		Category:     job.Category,
		CreatedAt:    job.CreatedAt,
		ProcessedAt:  job.ProcessedAt,
		ErrorMessage: job.ErrorMessage,
		RetryCount:   job.RetryCount,
		MaxRetries:   job.MaxRetries,
	}
}

func taskToJob(req *TaskRequest) (*db.Job, error) {
	if req.Title == "" {
		return nil, core.ErrTitleRequired
	}

	job := &db.Job{
		Title:         req.Title,
		Description:   req.Description,
		Priority:      core.CoercePriority(req.Priority),
		Category:      core.CoerceCategory(req.Category),
		EstimatedTime: req.EstimatedTime,
	}

	// An unparseable due date is dropped, not rejected.
	if req.DueDate != "" {
		if due, err := parseDueDate(req.DueDate); err == nil {
			job.DueDate = &due
		}
	}

	return job, nil
}

func parseDueDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unrecognized due date format")
}
