package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"flow-metrics/internal/cache"
	common_models "flow-metrics/internal/common/models"
	"flow-metrics/internal/config"
	"flow-metrics/internal/database"
	"flow-metrics/internal/features/audit"
	"flow-metrics/internal/features/stage_mapping"
	"flow-metrics/internal/logger"
	"flow-metrics/internal/metrics"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

var dataPath = flag.String("data", "cmd/seed/data/flow_metrics_config.json", "stage mapping seed file")

// noopPublisher drops events; nobody is listening during a seed run
type noopPublisher struct{}

func (noopPublisher) Publish(common_models.Event) {}

// Seed loads the stage mappings from the seed file. Mappings whose metric key
// or canonical stage is already taken are skipped.
func Seed(
	lc fx.Lifecycle,
	repo stage_mapping.StageMappingRepository,
	service stage_mapping.StageMappingService,
	logger *zap.Logger,
	shutdowner fx.Shutdowner,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer func() {
					if err := shutdowner.Shutdown(); err != nil {
						logger.Error("Failed to shutdown", zap.Error(err))
					}
				}()

				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				defer cancel()

				logger.Info("Seeding stage mappings", zap.String("path", *dataPath))

				b, err := os.ReadFile(*dataPath)
				if err != nil {
					logger.Error("Failed to read seed file", zap.Error(err))
					return
				}
				var requests []stage_mapping.CreateMappingRequest
				if err := json.Unmarshal(b, &requests); err != nil {
					logger.Error("Failed to parse seed file", zap.Error(err))
					return
				}

				if err := repo.EnsureIndexes(ctx); err != nil {
					logger.Error("Failed to ensure stage mapping indexes", zap.Error(err))
					return
				}

				created := 0
				for _, req := range requests {
					_, err := service.CreateMapping(ctx, req)
					switch {
					case errors.Is(err, stage_mapping.ErrDuplicateMapping):
						logger.Info("Mapping exists, skipping", zap.String("metricKey", req.MetricKey))
					case err != nil:
						logger.Error("Failed to create mapping", zap.String("metricKey", req.MetricKey), zap.Error(err))
					default:
						created++
					}
				}

				logger.Info("Seeding complete", zap.Int("created", created), zap.Int("total", len(requests)))
			}()
			return nil
		},
	})
}

func main() {
	flag.Parse()

	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			metrics.New,
			database.NewDatabase,
			cache.NewCache,
			audit.NewAuditRepository,
			audit.NewAuditService,
			stage_mapping.NewStageMappingRepository,
			stage_mapping.NewStageMappingService,
			func() common_models.EventPublisher { return noopPublisher{} },
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(Seed),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal(err)
	}

	<-app.Done()
}
