package sync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	gosync "sync"
	"testing"
	"time"

	common_models "flow-metrics/internal/common/models"
	"flow-metrics/internal/config"
	"flow-metrics/internal/connectors"
	"flow-metrics/internal/features/audit"
	"flow-metrics/internal/features/stage_event"
	"flow-metrics/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeSource struct {
	transitions []connectors.StageTransition
	err         error
	sinces      []time.Time
	started     chan struct{}
	block       chan struct{}
}

func (f *fakeSource) Name() string { return "fake" }
func (f *fakeSource) Close() error { return nil }

func (f *fakeSource) FetchTransitions(ctx context.Context, since time.Time) ([]connectors.StageTransition, error) {
	f.sinces = append(f.sinces, since)
	if f.block != nil {
		close(f.started)
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.transitions, f.err
}

// memoryEvents keys events like the unique index does
type memoryEvents struct {
	mu        gosync.Mutex
	events    map[string]stage_event.StageEvent
	latestErr error
}

func newMemoryEvents() *memoryEvents {
	return &memoryEvents{events: map[string]stage_event.StageEvent{}}
}

func eventKey(e stage_event.StageEvent) string {
	return fmt.Sprintf("%d/%d/%d", e.DealID, e.StageID, e.EnteredAt.UnixNano())
}

func (m *memoryEvents) FindByStageID(ctx context.Context, stageID int) ([]stage_event.StageEvent, error) {
	return nil, nil
}

func (m *memoryEvents) FindByDealID(ctx context.Context, dealID int) ([]stage_event.StageEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []stage_event.StageEvent{}
	for _, e := range m.events {
		if e.DealID == dealID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EnteredAt.Before(out[j].EnteredAt) })
	return out, nil
}

func (m *memoryEvents) Upsert(ctx context.Context, events []stage_event.StageEvent) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	changed := 0
	for _, e := range events {
		key := eventKey(e)
		prev, ok := m.events[key]
		if ok && (e.LeftAt == nil || (prev.LeftAt != nil && prev.LeftAt.Equal(*e.LeftAt))) {
			continue
		}
		m.events[key] = e
		changed++
	}
	return changed, nil
}

func (m *memoryEvents) LatestEnteredAt(ctx context.Context) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest time.Time
	for _, e := range m.events {
		if e.EnteredAt.After(latest) {
			latest = e.EnteredAt
		}
	}
	return latest, m.latestErr
}

func (m *memoryEvents) EnsureIndexes(ctx context.Context) error { return nil }

type memoryLogs struct {
	logs []SyncLog
}

func (m *memoryLogs) Create(ctx context.Context, log *SyncLog) error {
	log.ID = primitive.NewObjectID()
	m.logs = append(m.logs, *log)
	return nil
}

func (m *memoryLogs) Update(ctx context.Context, log *SyncLog) error {
	for i := range m.logs {
		if m.logs[i].ID == log.ID {
			m.logs[i] = *log
			return nil
		}
	}
	return errors.New("not found")
}

func (m *memoryLogs) List(ctx context.Context, limit int64) ([]SyncLog, error) {
	return m.logs, nil
}

func (m *memoryLogs) LatestSuccessful(ctx context.Context, source string) (*SyncLog, error) {
	for i := len(m.logs) - 1; i >= 0; i-- {
		if m.logs[i].Status == StatusSuccess && m.logs[i].Source == source {
			l := m.logs[i]
			return &l, nil
		}
	}
	return nil, nil
}

type recordingAudit struct {
	actions []common_models.AuditAction
}

func (a *recordingAudit) LogChange(ctx context.Context, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error {
	a.actions = append(a.actions, action)
	return nil
}

func (a *recordingAudit) ListLogs(ctx context.Context, filter audit.ListFilter, page, limit int64) ([]common_models.AuditLog, error) {
	return nil, nil
}

type recordingPublisher struct {
	events []common_models.Event
}

func (p *recordingPublisher) Publish(event common_models.Event) {
	p.events = append(p.events, event)
}

type fixture struct {
	source    *fakeSource
	events    *memoryEvents
	logs      *memoryLogs
	audit     *recordingAudit
	publisher *recordingPublisher
	metrics   *metrics.Metrics
	svc       *SyncServiceImpl
}

func newFixture(transitions ...connectors.StageTransition) *fixture {
	f := &fixture{
		source:    &fakeSource{transitions: transitions},
		events:    newMemoryEvents(),
		logs:      &memoryLogs{},
		audit:     &recordingAudit{},
		publisher: &recordingPublisher{},
		metrics:   metrics.NewWithRegistry(prometheus.NewRegistry()),
	}
	f.svc = NewSyncService(f.source, f.events, f.logs, f.audit, f.publisher, f.metrics, zap.NewNop()).(*SyncServiceImpl)
	return f
}

var t0 = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func TestRunSync_ImportsAndPublishes(t *testing.T) {
	f := newFixture(
		connectors.StageTransition{DealID: 1, StageID: 10, EnteredAt: t0, LeftAt: ptr(t0.Add(26 * time.Hour))},
		connectors.StageTransition{DealID: 1, StageID: 11, EnteredAt: t0.Add(26 * time.Hour)},
	)

	run, err := f.svc.RunSync(context.Background(), TriggerManual, false)
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, run.Status)
	assert.Equal(t, 2, run.FetchedCount)
	assert.Equal(t, 2, run.UpsertedCount)
	assert.Nil(t, run.Since)

	stored, _ := f.events.FindByDealID(context.Background(), 1)
	require.Len(t, stored, 2)
	require.NotNil(t, stored[0].DurationSeconds)
	assert.EqualValues(t, 26*3600, *stored[0].DurationSeconds)
	assert.Nil(t, stored[1].LeftAt)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, common_models.EventMetricsInvalidated, f.publisher.events[0].Type)
	assert.Equal(t, []common_models.AuditAction{common_models.AuditActionSync}, f.audit.actions)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SyncRuns.WithLabelValues("fake", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.SyncedStageEvents))
}

func TestRunSync_IncrementalAndIdempotent(t *testing.T) {
	f := newFixture(connectors.StageTransition{DealID: 1, StageID: 10, EnteredAt: t0})

	first, err := f.svc.RunSync(context.Background(), TriggerManual, false)
	require.NoError(t, err)

	second, err := f.svc.RunSync(context.Background(), TriggerSchedule, false)
	require.NoError(t, err)
	require.NotNil(t, second.Since)
	assert.Equal(t, first.StartTime, *second.Since)
	assert.Equal(t, 0, second.UpsertedCount)

	// nothing changed, so only the first run notifies dashboards
	assert.Len(t, f.publisher.events, 1)

	_, err = f.svc.RunSync(context.Background(), TriggerManual, true)
	require.NoError(t, err)
	assert.True(t, f.source.sinces[2].IsZero())
}

func TestRunSync_FallsBackToLatestStoredEntry(t *testing.T) {
	f := newFixture(connectors.StageTransition{DealID: 2, StageID: 10, EnteredAt: t0.Add(48 * time.Hour)})
	_, err := f.events.Upsert(context.Background(), []stage_event.StageEvent{
		{DealID: 1, StageID: 10, EnteredAt: t0},
		{DealID: 1, StageID: 11, EnteredAt: t0.Add(5 * time.Hour)},
	})
	require.NoError(t, err)

	run, err := f.svc.RunSync(context.Background(), TriggerManual, false)
	require.NoError(t, err)

	require.NotNil(t, run.Since)
	assert.Equal(t, t0.Add(5*time.Hour), *run.Since)
	assert.Equal(t, t0.Add(5*time.Hour), f.source.sinces[0])
}

func TestRunSync_CheckpointStoreError(t *testing.T) {
	f := newFixture()
	f.events.latestErr = errors.New("mongo: connection refused")

	_, err := f.svc.RunSync(context.Background(), TriggerManual, false)
	require.Error(t, err)
	assert.Empty(t, f.logs.logs)

	// a full run does not need a checkpoint
	_, err = f.svc.RunSync(context.Background(), TriggerManual, true)
	assert.NoError(t, err)
}

func TestRunSync_ClosesPreviousStage(t *testing.T) {
	f := newFixture(connectors.StageTransition{DealID: 1, StageID: 10, EnteredAt: t0})
	_, err := f.svc.RunSync(context.Background(), TriggerManual, false)
	require.NoError(t, err)

	f.source.transitions = []connectors.StageTransition{
		{DealID: 1, StageID: 10, EnteredAt: t0, LeftAt: ptr(t0.Add(time.Hour))},
		{DealID: 1, StageID: 12, EnteredAt: t0.Add(time.Hour)},
	}
	run, err := f.svc.RunSync(context.Background(), TriggerManual, false)
	require.NoError(t, err)
	assert.Equal(t, 2, run.UpsertedCount)

	stored, _ := f.events.FindByDealID(context.Background(), 1)
	require.Len(t, stored, 2)
	require.NotNil(t, stored[0].LeftAt)
	assert.EqualValues(t, 3600, *stored[0].DurationSeconds)
}

func TestRunSync_SourceFailure(t *testing.T) {
	f := newFixture()
	f.source.err = errors.New("pipedrive: status 401: unauthorized access")

	run, err := f.svc.RunSync(context.Background(), TriggerManual, false)
	require.Error(t, err)
	require.NotNil(t, run)
	assert.Equal(t, StatusFailed, run.Status)
	assert.Contains(t, run.Error, "401")

	assert.Equal(t, StatusFailed, f.logs.logs[0].Status)
	assert.Empty(t, f.publisher.events)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SyncRuns.WithLabelValues("fake", "failed")))

	// a failed run is not a checkpoint
	f.source.err = nil
	next, err := f.svc.RunSync(context.Background(), TriggerManual, false)
	require.NoError(t, err)
	assert.Nil(t, next.Since)
}

func TestRunSync_RejectsOverlappingRuns(t *testing.T) {
	f := newFixture(connectors.StageTransition{DealID: 1, StageID: 10, EnteredAt: t0})
	f.source.started = make(chan struct{})
	f.source.block = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.RunSync(context.Background(), TriggerSchedule, false)
		done <- err
	}()
	<-f.source.started

	_, err := f.svc.RunSync(context.Background(), TriggerManual, false)
	assert.ErrorIs(t, err, ErrSyncInProgress)

	close(f.source.block)
	require.NoError(t, <-done)
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := NewScheduler(&config.Config{SyncSchedule: "every tuesday"}, newFixture().svc, zap.NewNop())
	assert.Error(t, s.Start())

	disabled := NewScheduler(&config.Config{}, newFixture().svc, zap.NewNop())
	assert.NoError(t, disabled.Start())
	assert.NoError(t, disabled.Stop(context.Background()))
}

func TestScheduler_StopCancelsRunningSync(t *testing.T) {
	f := newFixture(connectors.StageTransition{DealID: 1, StageID: 10, EnteredAt: t0})
	f.source.started = make(chan struct{})
	f.source.block = make(chan struct{})

	s := NewScheduler(&config.Config{SyncSchedule: "0 3 * * *"}, f.svc, zap.NewNop())
	require.NoError(t, s.Start())

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		s.runScheduled()
	}()
	<-f.source.started

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled sync kept running after Stop")
	}
	require.Len(t, f.logs.logs, 1)
	assert.Equal(t, StatusFailed, f.logs.logs[0].Status)
	assert.Contains(t, f.logs.logs[0].Error, context.Canceled.Error())
}
