package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type funcExecutor struct {
	fn func(ctx context.Context, job *Job) error
}

func (e *funcExecutor) Execute(ctx context.Context, job *Job) error {
	return e.fn(ctx, job)
}

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Workers = 1
	cfg.JobTimeout = 5 * time.Second
	s, err := NewScheduler(cfg, zap.NewNop())
	require.NoError(t, err)
	return s
}

func waitForHistory(t *testing.T, s *Scheduler, n int) []*Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		history := s.GetJobHistory(n)
		if len(history) >= n {
			return history
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d jobs in history", n)
	return nil
}

func TestSchedulerRunsRegisteredExecutor(t *testing.T) {
	s := newTestScheduler(t)

	var mu sync.Mutex
	var got *Job
	s.Register(JobTypeCatalogDownload, &funcExecutor{fn: func(ctx context.Context, job *Job) error {
		mu.Lock()
		got = job
		mu.Unlock()
		job.SetProgress(50)
		return nil
	}})

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	job, err := s.Enqueue(JobTypeCatalogDownload, map[string]string{"source": "trademaster"})
	require.NoError(t, err)

	history := waitForHistory(t, s, 1)
	assert.Equal(t, JobStatusSuccess, history[0].Status)
	assert.Equal(t, 100, history[0].Progress, "completion pins progress at 100")

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, got)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, "trademaster", got.Param("source"))
}

func TestSchedulerEnqueueUnknownType(t *testing.T) {
	s := newTestScheduler(t)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	_, err := s.Enqueue(JobTypeOrderExport, nil)
	assert.ErrorIs(t, err, ErrNoExecutor)
}

func TestSchedulerNotRunning(t *testing.T) {
	s := newTestScheduler(t)
	s.Register(JobTypeOrderExport, &funcExecutor{fn: func(context.Context, *Job) error { return nil }})

	_, err := s.Enqueue(JobTypeOrderExport, nil)
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestSchedulerCancelledJobIsTerminal(t *testing.T) {
	s := newTestScheduler(t)
	s.Register(JobTypeOrderExport, &funcExecutor{fn: func(context.Context, *Job) error {
		return fmt.Errorf("order already exported: %w", ErrCancelled)
	}})

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	_, err := s.Enqueue(JobTypeOrderExport, nil)
	require.NoError(t, err)

	history := waitForHistory(t, s, 1)
	assert.Equal(t, JobStatusCancelled, history[0].Status)
	assert.Zero(t, history[0].RetryCount, "cancelled jobs are not retried")
}

func TestSchedulerRetriesFailedJob(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 1
	cfg.RetryAttempts = 1
	cfg.RetryDelay = time.Millisecond
	s, err := NewScheduler(cfg, zap.NewNop())
	require.NoError(t, err)

	var mu sync.Mutex
	attempts := 0
	s.Register(JobTypeCatalogUpload, &funcExecutor{fn: func(context.Context, *Job) error {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n == 1 {
			return errors.New("remote unavailable")
		}
		return nil
	}})

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	_, err = s.Enqueue(JobTypeCatalogUpload, nil)
	require.NoError(t, err)

	history := waitForHistory(t, s, 2)
	assert.Equal(t, JobStatusSuccess, history[0].Status)
	assert.Equal(t, 1, history[0].RetryCount)
}

func TestJobProgressMonotonic(t *testing.T) {
	job := NewJob(JobTypeCatalogDownload, nil, 0)
	job.SetProgress(40)
	job.SetProgress(20)
	assert.Equal(t, 40, job.Progress)
	job.SetProgress(150)
	assert.Equal(t, 100, job.Progress)
	job.SetProgress(-5)
	assert.Equal(t, 100, job.Progress)
}

func TestRescale(t *testing.T) {
	assert.Equal(t, 10, Rescale(10, 70, 0, 10))
	assert.Equal(t, 40, Rescale(10, 70, 5, 10))
	assert.Equal(t, 70, Rescale(10, 70, 10, 10))
	assert.Equal(t, 70, Rescale(10, 70, 25, 10), "overshoot is clamped")
	assert.Equal(t, 10, Rescale(10, 70, 3, 0), "empty phase reports its start")
}
