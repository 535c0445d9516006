package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Executor runs jobs of a particular type
type Executor interface {
	Execute(ctx context.Context, job *Job) error
}

// Enqueuer is the submission side of the scheduler. Application services and
// event handlers depend on this interface rather than the scheduler itself.
type Enqueuer interface {
	Enqueue(jobType JobType, params map[string]string) (*Job, error)
}

// Config holds scheduler configuration
type Config struct {
	Workers       int
	QueueSize     int
	JobTimeout    time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Workers:       3,
		QueueSize:     100,
		JobTimeout:    30 * time.Minute,
		RetryAttempts: 0,
		RetryDelay:    time.Minute,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return ErrInvalidConfig
	}
	if c.QueueSize <= 0 {
		return ErrInvalidConfig
	}
	if c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	if c.RetryAttempts < 0 {
		return ErrInvalidConfig
	}
	return nil
}

// Scheduler dispatches background jobs to registered executors over a worker pool
type Scheduler struct {
	config Config
	logger *zap.Logger

	executorMu sync.RWMutex
	executors  map[JobType]Executor

	jobs      chan *Job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	// Job history for monitoring (in-memory, limited size)
	historyMu  sync.RWMutex
	history    []*Job
	maxHistory int

	// Index of every submitted job for status lookups
	indexMu    sync.RWMutex
	jobIndex   map[uuid.UUID]*Job
	indexOrder []uuid.UUID
	maxIndexed int
}

var _ Enqueuer = (*Scheduler)(nil)

// NewScheduler creates a new scheduler instance
func NewScheduler(config Config, logger *zap.Logger) (*Scheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Scheduler{
		config:     config,
		logger:     logger,
		executors:  make(map[JobType]Executor),
		jobs:       make(chan *Job, config.QueueSize),
		history:    make([]*Job, 0, 100),
		maxHistory: 100,
		jobIndex:   make(map[uuid.UUID]*Job),
		maxIndexed: 1000,
	}, nil
}

// Register binds an executor to a job type, replacing any previous binding
func (s *Scheduler) Register(jobType JobType, executor Executor) {
	s.executorMu.Lock()
	defer s.executorMu.Unlock()
	s.executors[jobType] = executor
}

// Start starts the worker pool
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Scheduler started",
		zap.Int("workers", s.config.Workers),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	close(s.jobs)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// Enqueue creates and submits a job for execution
func (s *Scheduler) Enqueue(jobType JobType, params map[string]string) (*Job, error) {
	s.executorMu.RLock()
	_, ok := s.executors[jobType]
	s.executorMu.RUnlock()
	if !ok {
		return nil, ErrNoExecutor
	}

	job := NewJob(jobType, params, s.config.RetryAttempts)
	if err := s.SubmitJob(job); err != nil {
		return nil, err
	}
	return job, nil
}

// SubmitJob submits an existing job for execution
func (s *Scheduler) SubmitJob(job *Job) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	select {
	case s.jobs <- job:
		s.indexJob(job)
		s.logger.Debug("Job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
		)
		return nil
	default:
		return ErrJobQueueFull
	}
}

// indexJob records a job for later status lookups, evicting the oldest
// entries past the cap
func (s *Scheduler) indexJob(job *Job) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	s.jobIndex[job.ID] = job
	s.indexOrder = append(s.indexOrder, job.ID)
	for len(s.indexOrder) > s.maxIndexed {
		delete(s.jobIndex, s.indexOrder[0])
		s.indexOrder = s.indexOrder[1:]
	}
}

// GetJob returns a submitted job by id
func (s *Scheduler) GetJob(id uuid.UUID) (*Job, bool) {
	s.indexMu.RLock()
	defer s.indexMu.RUnlock()
	job, ok := s.jobIndex[id]
	return job, ok
}

// worker processes jobs from the queue
func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	s.logger.Debug("Worker started", zap.Int("worker_id", workerID))

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Worker stopping", zap.Int("worker_id", workerID))
			return
		case job, ok := <-s.jobs:
			if !ok {
				s.logger.Debug("Job channel closed", zap.Int("worker_id", workerID))
				return
			}
			s.processJob(ctx, job, workerID)
		}
	}
}

// processJob executes a single job
func (s *Scheduler) processJob(ctx context.Context, job *Job, workerID int) {
	// Check if job is ready to run (for retries)
	if job.NextRetryAt != nil && time.Now().Before(*job.NextRetryAt) {
		select {
		case s.jobs <- job:
		default:
			s.logger.Warn("Failed to re-queue job for retry",
				zap.String("job_id", job.ID.String()),
			)
		}
		return
	}

	s.executorMu.RLock()
	executor, ok := s.executors[job.Type]
	s.executorMu.RUnlock()
	if !ok {
		job.Fail(ErrNoExecutor.Error())
		s.logger.Error("No executor for job type",
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
		)
		s.addToHistory(job)
		return
	}

	job.Start()
	s.logger.Info("Processing job",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
	)

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	err := executor.Execute(jobCtx, job)
	switch {
	case err == nil:
		job.Complete()
		s.logger.Info("Job completed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
		)
	case errors.Is(err, ErrCancelled):
		job.Cancel(err.Error())
		s.logger.Info("Job cancelled",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
			zap.String("reason", job.Error),
		)
	default:
		job.Fail(err.Error())
		s.logger.Error("Job failed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
			zap.Error(err),
		)
		if job.ShouldRetry() {
			job.ScheduleRetry(s.config.RetryDelay)
			s.logger.Info("Job scheduled for retry",
				zap.String("job_id", job.ID.String()),
				zap.Int("retry_count", job.RetryCount),
				zap.Int("max_retries", job.MaxRetries),
			)
			select {
			case s.jobs <- job:
			default:
				s.logger.Warn("Failed to re-queue job for retry",
					zap.String("job_id", job.ID.String()),
				)
			}
		}
	}

	s.addToHistory(job)
}

// addToHistory adds a completed job to history
func (s *Scheduler) addToHistory(job *Job) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]*Job{job}, s.history...)
	if len(s.history) > s.maxHistory {
		s.history = s.history[:s.maxHistory]
	}
}

// GetJobHistory returns recent job history, newest first
func (s *Scheduler) GetJobHistory(limit int) []*Job {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}

	result := make([]*Job, limit)
	copy(result, s.history[:limit])
	return result
}
