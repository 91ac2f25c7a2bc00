package stage_mapping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"flow-metrics/internal/cache"
	"flow-metrics/internal/config"
	"flow-metrics/internal/database"
	"flow-metrics/internal/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const (
	cacheType      = "stage_mapping"
	cacheKeyPrefix = "stage_mapping:"
)

// CachedStageMappingRepository is a Redis read-through decorator. Every write
// drops all cached entries. Cache failures fall through to the inner store.
type CachedStageMappingRepository struct {
	inner   StageMappingRepository
	cache   *cache.Client
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewCachedStageMappingRepository(inner StageMappingRepository, client *cache.Client, ttl time.Duration, m *metrics.Metrics, logger *zap.Logger) *CachedStageMappingRepository {
	return &CachedStageMappingRepository{
		inner:   inner,
		cache:   client,
		ttl:     ttl,
		metrics: m,
		logger:  logger,
	}
}

// NewStageMappingRepository wires the Mongo store, adding the cache only when
// Redis is configured.
func NewStageMappingRepository(db *database.MongodbDB, client *cache.Client, cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) StageMappingRepository {
	store := NewMongoStageMappingRepository(db)
	if client == nil {
		return store
	}
	return NewCachedStageMappingRepository(store, client, cfg.MappingCacheTTL, m, logger)
}

func (r *CachedStageMappingRepository) FindActiveByCanonicalStage(ctx context.Context, canonicalStage string) (*StageMapping, error) {
	key := cacheKeyPrefix + "canonical:" + canonicalStage

	var cached StageMapping
	if r.load(ctx, key, &cached) {
		return &cached, nil
	}

	mapping, err := r.inner.FindActiveByCanonicalStage(ctx, canonicalStage)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, mapping)
	return mapping, nil
}

func (r *CachedStageMappingRepository) List(ctx context.Context, activeOnly bool) ([]StageMapping, error) {
	key := fmt.Sprintf("%slist:%t", cacheKeyPrefix, activeOnly)

	var cached []StageMapping
	if r.load(ctx, key, &cached) {
		return cached, nil
	}

	mappings, err := r.inner.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, mappings)
	return mappings, nil
}

func (r *CachedStageMappingRepository) Get(ctx context.Context, id string) (*StageMapping, error) {
	return r.inner.Get(ctx, id)
}

func (r *CachedStageMappingRepository) Create(ctx context.Context, mapping *StageMapping) error {
	if err := r.inner.Create(ctx, mapping); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *CachedStageMappingRepository) Update(ctx context.Context, id string, updates bson.M) (*StageMapping, error) {
	mapping, err := r.inner.Update(ctx, id, updates)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx)
	return mapping, nil
}

func (r *CachedStageMappingRepository) Delete(ctx context.Context, id string) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *CachedStageMappingRepository) EnsureIndexes(ctx context.Context) error {
	return r.inner.EnsureIndexes(ctx)
}

func (r *CachedStageMappingRepository) load(ctx context.Context, key string, v interface{}) bool {
	raw, err := r.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			r.logger.Warn("stage mapping cache read failed", zap.String("key", key), zap.Error(err))
		}
		r.metrics.RecordCacheMiss(cacheType)
		return false
	}

	if err := json.Unmarshal([]byte(raw), v); err != nil {
		r.logger.Warn("stage mapping cache entry corrupt", zap.String("key", key), zap.Error(err))
		r.metrics.RecordCacheMiss(cacheType)
		return false
	}

	r.metrics.RecordCacheHit(cacheType)
	return true
}

func (r *CachedStageMappingRepository) store(ctx context.Context, key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, raw, r.ttl); err != nil {
		r.logger.Warn("stage mapping cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *CachedStageMappingRepository) invalidate(ctx context.Context) {
	if err := r.cache.DeletePattern(ctx, cacheKeyPrefix+"*"); err != nil {
		r.logger.Error("stage mapping cache invalidation failed", zap.Error(err))
	}
}
