package stage_mapping

import (
	"context"
	"sort"
	"sync"

	common_models "flow-metrics/internal/common/models"
	"flow-metrics/internal/features/audit"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memoryRepo struct {
	mu       sync.Mutex
	mappings map[string]StageMapping
	calls    map[string]int
}

func newMemoryRepo(seed ...StageMapping) *memoryRepo {
	r := &memoryRepo{mappings: map[string]StageMapping{}, calls: map[string]int{}}
	for _, m := range seed {
		if m.ID.IsZero() {
			m.ID = primitive.NewObjectID()
		}
		r.mappings[m.ID.Hex()] = m
	}
	return r
}

func (r *memoryRepo) Create(ctx context.Context, mapping *StageMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["Create"]++
	for _, m := range r.mappings {
		if m.MetricKey == mapping.MetricKey || (m.IsActive && mapping.IsActive && m.CanonicalStage == mapping.CanonicalStage) {
			return ErrDuplicateMapping
		}
	}
	mapping.ID = primitive.NewObjectID()
	r.mappings[mapping.ID.Hex()] = *mapping
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, id string) (*StageMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["Get"]++
	m, ok := r.mappings[id]
	if !ok {
		return nil, ErrMappingNotFound
	}
	return &m, nil
}

func (r *memoryRepo) List(ctx context.Context, activeOnly bool) ([]StageMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["List"]++
	out := []StageMapping{}
	for _, m := range r.mappings {
		if activeOnly && !m.IsActive {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (r *memoryRepo) FindActiveByCanonicalStage(ctx context.Context, canonicalStage string) (*StageMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["FindActiveByCanonicalStage"]++
	for _, m := range r.mappings {
		if m.IsActive && m.CanonicalStage == canonicalStage {
			return &m, nil
		}
	}
	return nil, ErrMappingNotFound
}

func (r *memoryRepo) Update(ctx context.Context, id string, updates bson.M) (*StageMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["Update"]++
	m, ok := r.mappings[id]
	if !ok {
		return nil, ErrMappingNotFound
	}
	for k, v := range updates {
		switch k {
		case "metric_key":
			m.MetricKey = v.(string)
		case "display_title":
			m.DisplayTitle = v.(string)
		case "canonical_stage":
			m.CanonicalStage = v.(string)
		case "start_stage_id":
			m.StartStageID = v.(int)
		case "end_stage_id":
			m.EndStageID = v.(int)
		case "avg_min_days":
			f := v.(float64)
			m.AvgMinDays = &f
		case "avg_max_days":
			f := v.(float64)
			m.AvgMaxDays = &f
		case "comment":
			s := v.(string)
			m.Comment = &s
		case "is_active":
			m.IsActive = v.(bool)
		case "sort_order":
			m.SortOrder = v.(int)
		}
	}
	r.mappings[id] = m
	return &m, nil
}

func (r *memoryRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["Delete"]++
	if _, ok := r.mappings[id]; !ok {
		return ErrMappingNotFound
	}
	delete(r.mappings, id)
	return nil
}

func (r *memoryRepo) EnsureIndexes(ctx context.Context) error { return nil }

func (r *memoryRepo) count(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[method]
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
