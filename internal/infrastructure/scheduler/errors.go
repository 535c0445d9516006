package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when trying to submit a job to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull is returned when the job queue is full
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrNoExecutor is returned when no executor is registered for a job type
	ErrNoExecutor = errors.New("no executor registered for job type")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrCancelled signals that an executor declined to run the job.
	// The job ends in CANCELLED state and is never retried.
	ErrCancelled = errors.New("job cancelled")
)
