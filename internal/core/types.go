package core

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetry      JobStatus = "retry"
)

// Terminal reports whether no further transitions can occur.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Eligible reports whether the job can be claimed by the worker.
func (s JobStatus) Eligible() bool {
	return s == JobStatusPending || s == JobStatusRetry
}

const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

const (
	CategoryWork     = "work"
	CategoryPersonal = "personal"
	CategoryUrgent   = "urgent"
	CategoryLearning = "learning"
	CategoryHealth   = "health"
	CategoryOther    = "other"
)

// CoercePriority maps unknown or missing input to medium. Submissions are
// never rejected over priority.
func CoercePriority(p string) string {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p
	default:
		return PriorityMedium
	}
}

// CoerceCategory maps unknown or missing input to other.
func CoerceCategory(c string) string {
	switch c {
	case CategoryWork, CategoryPersonal, CategoryUrgent, CategoryLearning, CategoryHealth:
		return c
	default:
		return CategoryOther
	}
}
