package scheduler

import (
	"time"

	"github.com/google/uuid"
)

// JobType identifies the kind of work a job carries
type JobType string

const (
	JobTypeCatalogDownload JobType = "CATALOG_DOWNLOAD"
	JobTypeCatalogUpload   JobType = "CATALOG_UPLOAD"
	JobTypeOrderExport     JobType = "ORDER_EXPORT"
	JobTypeImageDownload   JobType = "IMAGE_DOWNLOAD"
	JobTypeImageConvert    JobType = "IMAGE_CONVERT"
	JobTypeSearchReindex   JobType = "SEARCH_REINDEX"
)

// JobStatus represents the status of a scheduled job
type JobStatus string

const (
	JobStatusPending   JobStatus = "PENDING"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusSuccess   JobStatus = "SUCCESS"
	JobStatusFailed    JobStatus = "FAILED"
	JobStatusCancelled JobStatus = "CANCELLED"
)

// Job represents a unit of background work
type Job struct {
	ID          uuid.UUID
	Type        JobType
	Params      map[string]string
	Status      JobStatus
	Progress    int
	Error       string
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
	NextRetryAt *time.Time
}

// NewJob creates a new job instance
func NewJob(jobType JobType, params map[string]string, maxRetries int) *Job {
	if params == nil {
		params = map[string]string{}
	}
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		Params:     params,
		Status:     JobStatusPending,
		CreatedAt:  time.Now(),
		MaxRetries: maxRetries,
	}
}

// Param returns a job parameter, empty string when absent
func (j *Job) Param(key string) string {
	return j.Params[key]
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete marks the job as successful and pins progress at 100
func (j *Job) Complete() {
	now := time.Now()
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
	j.Progress = 100
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// Cancel marks the job as cancelled. Cancelled jobs are terminal and never retried.
func (j *Job) Cancel(reason string) {
	now := time.Now()
	j.Status = JobStatusCancelled
	j.CompletedAt = &now
	j.Error = reason
}

// SetProgress advances progress. It never moves backwards and is clamped to [0, 100].
func (j *Job) SetProgress(value int) {
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	if value > j.Progress {
		j.Progress = value
	}
}

// ShouldRetry returns true if the job should be retried
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry schedules the job for retry with exponential backoff
func (j *Job) ScheduleRetry(baseDelay time.Duration) {
	j.RetryCount++
	j.Status = JobStatusPending
	delay := baseDelay * time.Duration(1<<(j.RetryCount-1))
	if delay > 30*time.Minute {
		delay = 30 * time.Minute
	}
	nextRetry := time.Now().Add(delay)
	j.NextRetryAt = &nextRetry
	j.Error = ""
}
