package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flow-metrics/internal/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const scheduledRunTimeout = 30 * time.Minute

// Scheduler runs incremental syncs on the SYNC_SCHEDULE cron spec
type Scheduler struct {
	service  SyncService
	schedule string
	logger   *zap.Logger
	cron     *cron.Cron

	// runCtx bounds scheduled runs; Stop cancels it
	runCtx context.Context
	cancel context.CancelFunc
}

func NewScheduler(cfg *config.Config, service SyncService, logger *zap.Logger) *Scheduler {
	runCtx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		service:  service,
		schedule: cfg.SyncSchedule,
		logger:   logger,
		runCtx:   runCtx,
		cancel:   cancel,
	}
}

func (s *Scheduler) Start() error {
	if s.schedule == "" {
		s.logger.Info("Scheduled stage event sync disabled")
		return nil
	}
	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid sync schedule %q: %w", s.schedule, err)
	}

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.schedule, s.runScheduled); err != nil {
		return fmt.Errorf("failed to add sync job to scheduler: %w", err)
	}
	s.cron.Start()

	s.logger.Info("Scheduled stage event sync", zap.String("schedule", s.schedule))
	return nil
}

// Stop cancels any scheduled run in flight and waits for it to return, or
// until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	if s.cron == nil {
		return nil
	}

	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduled sync still running at shutdown")
		return ctx.Err()
	}
}

func (s *Scheduler) runScheduled() {
	ctx, cancel := context.WithTimeout(s.runCtx, scheduledRunTimeout)
	defer cancel()

	if _, err := s.service.RunSync(ctx, TriggerSchedule, false); err != nil {
		if errors.Is(err, ErrSyncInProgress) {
			s.logger.Info("Skipping scheduled sync, previous run still active")
			return
		}
		s.logger.Warn("Scheduled sync failed", zap.Error(err))
	}
}
