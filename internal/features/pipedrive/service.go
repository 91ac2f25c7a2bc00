package pipedrive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"flow-metrics/internal/cache"
	"flow-metrics/internal/config"
	"flow-metrics/internal/connectors"

	"go.uber.org/zap"
)

const lookupCacheTTL = 10 * time.Minute

var ErrNotConfigured = errors.New("pipedrive api token is not configured")

// CRMClient is the part of the Pipedrive API the config screens need
type CRMClient interface {
	ListPipelines(ctx context.Context) ([]connectors.Pipeline, error)
	ListStages(ctx context.Context, pipelineID int) ([]connectors.Stage, error)
	GetDeal(ctx context.Context, dealID int) (map[string]interface{}, error)
}

type PipedriveService interface {
	ListPipelines(ctx context.Context) ([]connectors.Pipeline, error)
	ListStages(ctx context.Context, pipelineID int) ([]connectors.Stage, error)
	GetDeal(ctx context.Context, dealID int) (*connectors.DealDTO, error)
}

type PipedriveServiceImpl struct {
	client     CRMClient
	mapper     *connectors.FieldMapper
	cache      *cache.Client
	configured bool
	logger     *zap.Logger
}

// NewPipedriveService caches lookups in Redis when a cache client is given
func NewPipedriveService(client CRMClient, mapper *connectors.FieldMapper, cacheClient *cache.Client, configured bool, logger *zap.Logger) *PipedriveServiceImpl {
	return &PipedriveServiceImpl{
		client:     client,
		mapper:     mapper,
		cache:      cacheClient,
		configured: configured,
		logger:     logger,
	}
}

func (s *PipedriveServiceImpl) ListPipelines(ctx context.Context) ([]connectors.Pipeline, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	var pipelines []connectors.Pipeline
	err := s.cached(ctx, "pipedrive:pipelines", &pipelines, func() (interface{}, error) {
		return s.client.ListPipelines(ctx)
	})
	return pipelines, err
}

func (s *PipedriveServiceImpl) ListStages(ctx context.Context, pipelineID int) ([]connectors.Stage, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	var stages []connectors.Stage
	key := fmt.Sprintf("pipedrive:stages:%d", pipelineID)
	err := s.cached(ctx, key, &stages, func() (interface{}, error) {
		return s.client.ListStages(ctx, pipelineID)
	})
	return stages, err
}

// GetDeal is never cached so custom field edits show up immediately
func (s *PipedriveServiceImpl) GetDeal(ctx context.Context, dealID int) (*connectors.DealDTO, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	raw, err := s.client.GetDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	deal, err := s.mapper.Map(raw)
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

func (s *PipedriveServiceImpl) cached(ctx context.Context, key string, out interface{}, fetch func() (interface{}, error)) error {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key); err == nil {
			if err := json.Unmarshal([]byte(raw), out); err == nil {
				return nil
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Pipedrive lookup cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	value, err := fetch()
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, string(data), lookupCacheTTL); err != nil {
			s.logger.Warn("Pipedrive lookup cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

// NewService is the fx constructor
func NewService(client *connectors.PipedriveClient, mapper *connectors.FieldMapper, cacheClient *cache.Client, cfg *config.Config, logger *zap.Logger) PipedriveService {
	return NewPipedriveService(client, mapper, cacheClient, cfg.PipedriveAPIToken != "", logger)
}
