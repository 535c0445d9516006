package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// AutoUpdateTriggerConfig holds configuration for periodic catalog refresh
type AutoUpdateTriggerConfig struct {
	// Interval is how often a catalog download is enqueued
	Interval time.Duration
}

// DefaultAutoUpdateTriggerConfig returns default trigger configuration
func DefaultAutoUpdateTriggerConfig() AutoUpdateTriggerConfig {
	return AutoUpdateTriggerConfig{
		Interval: time.Hour,
	}
}

// AutoUpdateTrigger periodically enqueues catalog download jobs so the local
// catalog tracks the remote one without manual kicks.
type AutoUpdateTrigger struct {
	config   AutoUpdateTriggerConfig
	enqueuer Enqueuer
	logger   *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewAutoUpdateTrigger creates a new auto update trigger
func NewAutoUpdateTrigger(config AutoUpdateTriggerConfig, enqueuer Enqueuer, logger *zap.Logger) *AutoUpdateTrigger {
	if config.Interval <= 0 {
		config.Interval = DefaultAutoUpdateTriggerConfig().Interval
	}
	return &AutoUpdateTrigger{
		config:   config,
		enqueuer: enqueuer,
		logger:   logger,
	}
}

// Start starts the trigger loop
func (t *AutoUpdateTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Auto update trigger started",
		zap.Duration("interval", t.config.Interval),
	)
	return nil
}

// Stop stops the trigger loop
func (t *AutoUpdateTrigger) Stop() {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}
	t.wg.Wait()
	t.logger.Info("Auto update trigger stopped")
}

func (t *AutoUpdateTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.trigger()
		}
	}
}

func (t *AutoUpdateTrigger) trigger() {
	job, err := t.enqueuer.Enqueue(JobTypeCatalogDownload, nil)
	if err != nil {
		if errors.Is(err, ErrJobQueueFull) || errors.Is(err, ErrSchedulerNotRunning) {
			t.logger.Warn("Skipping scheduled catalog download", zap.Error(err))
			return
		}
		t.logger.Error("Failed to enqueue catalog download", zap.Error(err))
		return
	}
	t.logger.Info("Scheduled catalog download",
		zap.String("job_id", job.ID.String()),
	)
}
