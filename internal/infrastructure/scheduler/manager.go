// Package scheduler runs the board's periodic jobs on gocron v2.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/orris-inc/kanban/internal/shared/goroutine"
	"github.com/orris-inc/kanban/internal/shared/logger"
)

// SchedulerManager owns one gocron scheduler. Jobs receive a context that
// is cancelled when the manager stops.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	ctx    context.Context
	cancel context.CancelFunc

	// Track whether the scheduler has been started
	started   bool
	stopped   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a new SchedulerManager instance.
func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Every registers task to run every interval once the scheduler starts.
// A run that is still going when the next one is due pushes it back
// instead of overlapping.
func (m *SchedulerManager) Every(name string, interval time.Duration, task func(ctx context.Context)) error {
	if interval <= 0 {
		return fmt.Errorf("register job %s: interval must be positive, got %s", name, interval)
	}

	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if m.ctx.Err() != nil {
				return
			}
			goroutine.Recover(m.logger, name, func() {
				task(m.ctx)
			})
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("board", name),
		gocron.WithName(name),
	)
	if err != nil {
		return fmt.Errorf("register job %s: %w", name, err)
	}

	m.logger.Debugw("registered job", "name", name, "interval", interval)
	return nil
}

// Start starts the scheduler. It is a no-op when already started or stopped.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started || m.stopped {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Debugw("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop cancels the job context and waits for running jobs to return.
// Calling it more than once is safe.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.stopped {
		return nil
	}
	m.stopped = true
	m.cancel()

	if !m.started {
		return nil
	}

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Debugw("scheduler manager stopped")
	return nil
}

// IsStarted returns whether the scheduler is running.
func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}
