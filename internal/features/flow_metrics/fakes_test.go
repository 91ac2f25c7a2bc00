package flow_metrics

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"flow-metrics/internal/features/stage_event"
	"flow-metrics/internal/features/stage_mapping"
	"flow-metrics/internal/metrics"
	"flow-metrics/pkg/utils"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var errStoreDown = errors.New("connection refused")

type fakeMappings struct {
	mappings []stage_mapping.StageMapping
	err      error
}

func (f *fakeMappings) Create(ctx context.Context, m *stage_mapping.StageMapping) error {
	return errors.New("not implemented")
}

func (f *fakeMappings) Get(ctx context.Context, id string) (*stage_mapping.StageMapping, error) {
	return nil, stage_mapping.ErrMappingNotFound
}

func (f *fakeMappings) List(ctx context.Context, activeOnly bool) ([]stage_mapping.StageMapping, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []stage_mapping.StageMapping{}
	for _, m := range f.mappings {
		if activeOnly && !m.IsActive {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (f *fakeMappings) FindActiveByCanonicalStage(ctx context.Context, stage string) (*stage_mapping.StageMapping, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, m := range f.mappings {
		if m.IsActive && m.CanonicalStage == stage {
			m := m
			return &m, nil
		}
	}
	return nil, stage_mapping.ErrMappingNotFound
}

func (f *fakeMappings) Update(ctx context.Context, id string, updates bson.M) (*stage_mapping.StageMapping, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeMappings) Delete(ctx context.Context, id string) error {
	return errors.New("not implemented")
}

func (f *fakeMappings) EnsureIndexes(ctx context.Context) error { return nil }

type fakeEvents struct {
	events []stage_event.StageEvent
	err    error
}

func (f *fakeEvents) FindByStageID(ctx context.Context, stageID int) ([]stage_event.StageEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []stage_event.StageEvent{}
	for _, e := range f.events {
		if e.StageID == stageID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEvents) FindByDealID(ctx context.Context, dealID int) ([]stage_event.StageEvent, error) {
	out := []stage_event.StageEvent{}
	for _, e := range f.events {
		if e.DealID == dealID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEvents) Upsert(ctx context.Context, events []stage_event.StageEvent) (int, error) {
	f.events = append(f.events, events...)
	return len(events), nil
}

func (f *fakeEvents) LatestEnteredAt(ctx context.Context) (time.Time, error) {
	return time.Time{}, nil
}

func (f *fakeEvents) EnsureIndexes(ctx context.Context) error { return nil }

func mapping(stage string, start, end int) stage_mapping.StageMapping {
	return stage_mapping.StageMapping{
		ID:             primitive.NewObjectID(),
		MetricKey:      utils.Slugify(stage),
		DisplayTitle:   stage,
		CanonicalStage: stage,
		StartStageID:   start,
		EndStageID:     end,
		IsActive:       true,
	}
}

// entered builds a closed stage event; left is entry plus one hour
func entered(dealID, stageID int, at time.Time) stage_event.StageEvent {
	e := stage_event.StageEvent{DealID: dealID, StageID: stageID, EnteredAt: at}
	e.Close(at.Add(time.Hour))
	return e
}

type harness struct {
	mappings *fakeMappings
	events   *fakeEvents
	metrics  *metrics.Metrics
	logs     *observer.ObservedLogs
	resolver *Resolver
}

func newHarness(t *testing.T, mappings []stage_mapping.StageMapping, events []stage_event.StageEvent) *harness {
	t.Helper()
	core, logs := observer.New(zap.WarnLevel)
	h := &harness{
		mappings: &fakeMappings{mappings: mappings},
		events:   &fakeEvents{events: events},
		metrics:  metrics.NewWithRegistry(prometheus.NewRegistry()),
		logs:     logs,
	}
	h.resolver = NewResolver(h.mappings, h.events, h.metrics, zap.New(core))
	return h
}

func dealsWithDays(start time.Time, days ...float64) []CanonicalStageDeal {
	out := make([]CanonicalStageDeal, 0, len(days))
	for i, d := range days {
		secs := int64(d * secondsPerDay)
		out = append(out, CanonicalStageDeal{
			DealID:          i + 1,
			StartDate:       start,
			EndDate:         start.Add(time.Duration(secs) * time.Second),
			DurationSeconds: secs,
		})
	}
	return out
}
