package sync

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	common_models "flow-metrics/internal/common/models"
	"flow-metrics/internal/connectors"
	"flow-metrics/internal/features/audit"
	"flow-metrics/internal/features/stage_event"
	"flow-metrics/internal/metrics"

	"go.uber.org/zap"
)

const upsertBatchSize = 500

var ErrSyncInProgress = errors.New("a stage event sync is already running")

type SyncService interface {
	// RunSync imports transitions changed since the last successful run, or
	// everything when full is set
	RunSync(ctx context.Context, trigger string, full bool) (*SyncLog, error)
	ListLogs(ctx context.Context, limit int64) ([]SyncLog, error)
}

type SyncServiceImpl struct {
	source    connectors.StageEventSource
	events    stage_event.StageEventRepository
	logs      SyncLogRepository
	audit     audit.AuditService
	publisher common_models.EventPublisher
	metrics   *metrics.Metrics
	logger    *zap.Logger

	running gosync.Mutex
	now     func() time.Time
}

func NewSyncService(
	source connectors.StageEventSource,
	events stage_event.StageEventRepository,
	logs SyncLogRepository,
	auditService audit.AuditService,
	publisher common_models.EventPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) SyncService {
	return &SyncServiceImpl{
		source:    source,
		events:    events,
		logs:      logs,
		audit:     auditService,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *SyncServiceImpl) ListLogs(ctx context.Context, limit int64) ([]SyncLog, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.logs.List(ctx, limit)
}

func (s *SyncServiceImpl) RunSync(ctx context.Context, trigger string, full bool) (*SyncLog, error) {
	if !s.running.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer s.running.Unlock()

	run := &SyncLog{
		Source:    s.source.Name(),
		Trigger:   trigger,
		StartTime: s.now(),
		Status:    StatusInProgress,
	}

	if !full {
		since, err := s.checkpoint(ctx, run.Source)
		if err != nil {
			return nil, err
		}
		run.Since = since
	}

	if err := s.logs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record sync start: %w", err)
	}

	upserted, err := s.importTransitions(ctx, run)
	run.EndTime = s.now()
	if err != nil {
		run.Status = StatusFailed
		run.Error = err.Error()
	} else {
		run.Status = StatusSuccess
		run.UpsertedCount = upserted
	}

	if updateErr := s.logs.Update(ctx, run); updateErr != nil {
		s.logger.Error("Failed to record sync result", zap.String("sync_id", run.ID.Hex()), zap.Error(updateErr))
	}
	s.metrics.RecordSyncRun(run.Source, err == nil, upserted)

	if err != nil {
		s.logger.Error("Stage event sync failed",
			zap.String("source", run.Source),
			zap.String("trigger", trigger),
			zap.Error(err),
		)
		return run, err
	}

	s.logger.Info("Stage event sync finished",
		zap.String("source", run.Source),
		zap.String("trigger", trigger),
		zap.Int("fetched", run.FetchedCount),
		zap.Int("upserted", upserted),
		zap.Duration("took", run.EndTime.Sub(run.StartTime)),
	)

	_ = s.audit.LogChange(ctx, common_models.AuditActionSync, "deal_stage_events", run.ID.Hex(), map[string]common_models.Change{
		"upserted": {New: upserted},
	})

	if upserted > 0 {
		s.publisher.Publish(common_models.Event{
			Type:      common_models.EventMetricsInvalidated,
			Payload:   map[string]interface{}{"source": run.Source, "upserted": upserted},
			Timestamp: run.EndTime,
		})
	}
	return run, nil
}

// checkpoint is the start of the last successful run for source. Without one,
// the newest stored stage entry is used so a store that was filled by another
// process or whose logs were purged is not re-imported from scratch. Nil means
// fetch everything.
func (s *SyncServiceImpl) checkpoint(ctx context.Context, source string) (*time.Time, error) {
	last, err := s.logs.LatestSuccessful(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to load last sync: %w", err)
	}
	if last != nil {
		since := last.StartTime
		return &since, nil
	}

	latest, err := s.events.LatestEnteredAt(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest stage entry: %w", err)
	}
	if latest.IsZero() {
		return nil, nil
	}
	return &latest, nil
}

func (s *SyncServiceImpl) importTransitions(ctx context.Context, run *SyncLog) (int, error) {
	var since time.Time
	if run.Since != nil {
		since = *run.Since
	}

	transitions, err := s.source.FetchTransitions(ctx, since)
	if err != nil {
		return 0, err
	}
	run.FetchedCount = len(transitions)

	events := make([]stage_event.StageEvent, 0, len(transitions))
	for _, t := range transitions {
		events = append(events, toStageEvent(t))
	}

	total := 0
	for start := 0; start < len(events); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(events))
		n, err := s.events.Upsert(ctx, events[start:end])
		if err != nil {
			return total, fmt.Errorf("failed to store stage events: %w", err)
		}
		total += n
	}
	return total, nil
}

func toStageEvent(t connectors.StageTransition) stage_event.StageEvent {
	e := stage_event.StageEvent{
		DealID:     t.DealID,
		PipelineID: t.PipelineID,
		StageID:    t.StageID,
		StageName:  t.StageName,
		EnteredAt:  t.EnteredAt,
	}
	if t.LeftAt != nil {
		e.Close(*t.LeftAt)
	}
	return e
}
