package sync

import (
	"context"
	"fmt"
	"time"

	"flow-metrics/internal/config"
	"flow-metrics/internal/connectors"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewStageEventSource picks the transition source named by SYNC_SOURCE
func NewStageEventSource(lc fx.Lifecycle, cfg *config.Config, client *connectors.PipedriveClient, mapper *connectors.FieldMapper, logger *zap.Logger) (connectors.StageEventSource, error) {
	var source connectors.StageEventSource

	switch cfg.SyncSource {
	case "pipedrive":
		source = connectors.NewPipedriveSource(client, mapper, cfg.SyncPipelineID, logger)
	case "postgres", "mysql":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		sqlSource, err := connectors.NewSQLSource(ctx, cfg.SyncSource, cfg.SyncDatabaseDSN)
		if err != nil {
			return nil, err
		}
		source = sqlSource
	default:
		return nil, fmt.Errorf("unknown sync source %q", cfg.SyncSource)
	}

	logger.Info("Stage event source configured", zap.String("source", source.Name()))
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return source.Close()
		},
	})
	return source, nil
}
