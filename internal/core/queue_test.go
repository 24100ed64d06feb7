package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/webgeeksai/print-service-mcp/internal/config"
	"github.com/webgeeksai/print-service-mcp/internal/db"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "printq-core-test")
	if err != nil {
		panic(err)
	}

	if err := db.Init(db.Config{Path: filepath.Join(dir, "test.db")}); err != nil {
		panic(err)
	}

	code := m.Run()

	db.Close()
	os.RemoveAll(dir)
	os.Exit(code)
}

func newTestQueue() *Queue {
	return NewQueue(&config.QueueConfig{
		PollInterval:    time.Millisecond,
		MaxRetries:      3,
		RetentionDays:   7,
		CleanupInterval: 24 * time.Hour,
	})
}

func clearJobs(t *testing.T) {
	t.Helper()
	if _, err := db.GetDB().Exec("DELETE FROM print_jobs"); err != nil {
		t.Fatalf("failed to clear jobs: %v", err)
	}
}

func TestEnqueueDefaults(t *testing.T) {
	clearJobs(t)
	ctx := context.Background()
	q := newTestQueue()

	jobID, err := q.Enqueue(ctx, &db.Job{Title: "Buy milk", Priority: "high"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if jobID == "" {
		t.Fatal("Enqueue returned empty job id")
	}

	job, err := q.GetJob(ctx, jobID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}

	if job.Status != string(JobStatusPending) {
		t.Errorf("new job must be pending, got %s", job.Status)
	}
	if job.Priority != PriorityHigh {
		t.Errorf("priority lost: %s", job.Priority)
	}
	if job.Category != CategoryOther {
		t.Errorf("missing category must coerce to other, got %s", job.Category)
	}
	if job.RetryCount != 0 || job.MaxRetries != 3 {
		t.Errorf("unexpected retry state: %+v", job)
	}
	if job.ProcessedAt != nil {
		t.Errorf("new job must not have processed_at: %+v", job)
	}
}

func TestEnqueueCoercesUnknownEnums(t *testing.T) {
	clearJobs(t)
	ctx := context.Background()
	q := newTestQueue()

	jobID, err := q.Enqueue(ctx, &db.Job{
		Title:    "Water plants",
		Priority: "critical",
		Category: "gardening",
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	job, _ := q.GetJob(ctx, jobID)
	if job.Priority != PriorityMedium {
		t.Errorf("unknown priority must coerce to medium, got %s", job.Priority)
	}
	if job.Category != CategoryOther {
		t.Errorf("unknown category must coerce to other, got %s", job.Category)
	}
}

func TestEnqueueRequiresTitle(t *testing.T) {
	clearJobs(t)
	q := newTestQueue()

	if _, err := q.Enqueue(context.Background(), &db.Job{}); !errors.Is(err, ErrTitleRequired) {
		t.Errorf("want ErrTitleRequired, got %v", err)
	}

	stats, err := q.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalJobs != 0 {
		t.Errorf("rejected enqueue must not persist anything, got %d jobs", stats.TotalJobs)
	}
}

func TestGetJobNotFound(t *testing.T) {
	clearJobs(t)
	q := newTestQueue()

	_, err := q.GetJob(context.Background(), "missing")
	if !errors.Is(err, db.ErrJobNotFound) {
		t.Errorf("want ErrJobNotFound, got %v", err)
	}
}

func TestStatusHelpers(t *testing.T) {
	for _, s := range []JobStatus{JobStatusCompleted, JobStatusFailed} {
		if !s.Terminal() {
			t.Errorf("%s must be terminal", s)
		}
		if s.Eligible() {
			t.Errorf("%s must not be eligible", s)
		}
	}
	for _, s := range []JobStatus{JobStatusPending, JobStatusRetry} {
		if s.Terminal() {
			t.Errorf("%s must not be terminal", s)
		}
		if !s.Eligible() {
			t.Errorf("%s must be eligible", s)
		}
	}
	if JobStatusProcessing.Terminal() || JobStatusProcessing.Eligible() {
		t.Error("processing is neither terminal nor eligible")
	}
}

func TestRecoverStale(t *testing.T) {
	clearJobs(t)
	ctx := context.Background()
	q := newTestQueue()

	jobID, err := q.Enqueue(ctx, &db.Job{Title: "Interrupted print"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := q.SetStatus(ctx, jobID, JobStatusProcessing, ""); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	recovered, err := q.RecoverStale(ctx)
	if err != nil {
		t.Fatalf("RecoverStale: %v", err)
	}
	if recovered != 1 {
		t.Errorf("want 1 recovered, got %d", recovered)
	}

	job, _ := q.GetJob(ctx, jobID)
	if job.Status != string(JobStatusRetry) {
		t.Errorf("recovered job must be retry, got %s", job.Status)
	}
}
