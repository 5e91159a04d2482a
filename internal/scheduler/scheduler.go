package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/yourusername/neoflow/campaign-service/pkg/logger"
)

// Refresher rebuilds the campaign snapshot
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Manager runs periodic background jobs
type Manager struct {
	scheduler gocron.Scheduler
	timeout   time.Duration
}

// NewManager creates a new job manager
func NewManager() (*Manager, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Manager{scheduler: s, timeout: time.Minute}, nil
}

// RegisterRefreshJob refreshes the campaign snapshot every interval. A run
// that is still busy when the next one is due delays it instead of overlapping.
func (m *Manager) RegisterRefreshJob(refresher Refresher, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %s", interval)
	}

	timeout := m.timeout
	if interval < timeout {
		timeout = interval
	}

	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := refresher.Refresh(ctx); err != nil {
				logger.Error("Scheduled campaign refresh failed", zap.Error(err))
			}
		}),
		gocron.WithName("campaign-snapshot-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to register refresh job: %w", err)
	}

	logger.Info("Registered campaign refresh job", zap.Duration("interval", interval))
	return nil
}

// Start begins running registered jobs
func (m *Manager) Start() {
	m.scheduler.Start()
	logger.Info("Job manager started")
}

// Stop waits for running jobs and shuts the scheduler down
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler", zap.Error(err))
	}
	logger.Info("Job manager stopped")
}
