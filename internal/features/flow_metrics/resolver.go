package flow_metrics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"flow-metrics/internal/features/stage_event"
	"flow-metrics/internal/features/stage_mapping"
	"flow-metrics/internal/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoMappingFound  = errors.New("no active mapping for canonical stage")
	ErrDataUnavailable = errors.New("stage data unavailable")
)

// Reasons attached to an empty resolution
const (
	ReasonNoMapping         = "no_mapping"
	ReasonIncompleteMapping = "incomplete_mapping"
)

type Resolution struct {
	Mapping *stage_mapping.StageMapping
	Deals   []CanonicalStageDeal
	Reason  string
}

type Resolver struct {
	mappings stage_mapping.StageMappingRepository
	events   stage_event.StageEventRepository
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewResolver(mappings stage_mapping.StageMappingRepository, events stage_event.StageEventRepository, m *metrics.Metrics, logger *zap.Logger) *Resolver {
	return &Resolver{
		mappings: mappings,
		events:   events,
		metrics:  m,
		logger:   logger,
	}
}

// Resolve returns one row per deal that entered both the start and end stage
// of the active mapping for canonicalStage. A missing mapping is an empty
// result, a store failure is ErrDataUnavailable.
func (r *Resolver) Resolve(ctx context.Context, canonicalStage string) (*Resolution, error) {
	mapping, err := r.lookup(ctx, canonicalStage)
	if err != nil {
		if errors.Is(err, ErrNoMappingFound) {
			return &Resolution{Deals: []CanonicalStageDeal{}, Reason: ReasonNoMapping}, nil
		}
		r.metrics.RecordResolveFailure(canonicalStage)
		return nil, err
	}

	deals, err := r.ResolveMapping(ctx, mapping)
	if err != nil {
		return nil, err
	}

	res := &Resolution{Mapping: mapping, Deals: deals}
	if !mapping.CanResolve() {
		res.Reason = ReasonIncompleteMapping
	}
	return res, nil
}

func (r *Resolver) lookup(ctx context.Context, canonicalStage string) (*stage_mapping.StageMapping, error) {
	mapping, err := r.mappings.FindActiveByCanonicalStage(ctx, canonicalStage)
	if err != nil {
		if errors.Is(err, stage_mapping.ErrMappingNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNoMappingFound, canonicalStage)
		}
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	return mapping, nil
}

// ResolveMapping resolves deals for an already loaded mapping
func (r *Resolver) ResolveMapping(ctx context.Context, mapping *stage_mapping.StageMapping) ([]CanonicalStageDeal, error) {
	if !mapping.CanResolve() {
		return []CanonicalStageDeal{}, nil
	}

	var starts, ends []stage_event.StageEvent
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		starts, err = r.events.FindByStageID(gctx, mapping.StartStageID)
		return err
	})
	g.Go(func() error {
		var err error
		ends, err = r.events.FindByStageID(gctx, mapping.EndStageID)
		return err
	})
	if err := g.Wait(); err != nil {
		r.metrics.RecordResolveFailure(mapping.CanonicalStage)
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	firstStart := r.earliestEntries(starts)
	endEntries := r.entriesByDeal(ends)

	deals := make([]CanonicalStageDeal, 0, len(firstStart))
	for dealID, start := range firstStart {
		end, ok := firstAtOrAfter(endEntries[dealID], start)
		if !ok {
			continue
		}
		deals = append(deals, CanonicalStageDeal{
			DealID:          dealID,
			StartDate:       start,
			EndDate:         end,
			DurationSeconds: int64(end.Sub(start) / time.Second),
		})
	}

	sort.Slice(deals, func(i, j int) bool {
		if !deals[i].StartDate.Equal(deals[j].StartDate) {
			return deals[i].StartDate.Before(deals[j].StartDate)
		}
		return deals[i].DealID < deals[j].DealID
	})

	r.metrics.RecordResolvedDeals(mapping.CanonicalStage, len(deals))
	return deals, nil
}

func (r *Resolver) earliestEntries(events []stage_event.StageEvent) map[int]time.Time {
	earliest := make(map[int]time.Time)
	for _, e := range events {
		if r.skipMalformed(e) {
			continue
		}
		if cur, ok := earliest[e.DealID]; !ok || e.EnteredAt.Before(cur) {
			earliest[e.DealID] = e.EnteredAt
		}
	}
	return earliest
}

func (r *Resolver) entriesByDeal(events []stage_event.StageEvent) map[int][]time.Time {
	byDeal := make(map[int][]time.Time)
	for _, e := range events {
		if r.skipMalformed(e) {
			continue
		}
		byDeal[e.DealID] = append(byDeal[e.DealID], e.EnteredAt)
	}
	return byDeal
}

func (r *Resolver) skipMalformed(e stage_event.StageEvent) bool {
	if !e.IsMalformed() {
		return false
	}
	r.metrics.RecordMalformedStageEvent()
	r.logger.Warn("Skipping malformed stage event",
		zap.Int("deal_id", e.DealID),
		zap.Int("stage_id", e.StageID),
		zap.Time("entered_at", e.EnteredAt),
		zap.Timep("left_at", e.LeftAt),
	)
	return true
}

// firstAtOrAfter picks the earliest entry not before start
func firstAtOrAfter(entries []time.Time, start time.Time) (time.Time, bool) {
	var best time.Time
	found := false
	for _, t := range entries {
		if t.Before(start) {
			continue
		}
		if !found || t.Before(best) {
			best = t
			found = true
		}
	}
	return best, found
}
