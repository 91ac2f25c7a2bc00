package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	common_api "flow-metrics/internal/common/api"
	common_models "flow-metrics/internal/common/models"
	"flow-metrics/internal/cache"
	"flow-metrics/internal/config"
	"flow-metrics/internal/connectors"
	"flow-metrics/internal/database"
	"flow-metrics/internal/features/audit"
	"flow-metrics/internal/features/flow_metrics"
	"flow-metrics/internal/features/pipedrive"
	"flow-metrics/internal/features/qr_id"
	"flow-metrics/internal/features/stage_event"
	"flow-metrics/internal/features/stage_mapping"
	"flow-metrics/internal/features/sync"
	"flow-metrics/internal/features/system"
	"flow-metrics/internal/logger"
	"flow-metrics/internal/metrics"
	"flow-metrics/internal/middleware"
	"flow-metrics/pkg/utils"

	_ "flow-metrics/docs" // Import swagger docs

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const tokenTTL = 24 * time.Hour

// NewFiberServer creates a new Fiber app instance
func NewFiberServer(cfg *config.Config, m *metrics.Metrics) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(common_models.Fail(err.Error()))
		},
	})

	app.Use(middleware.CORSMiddleware(cfg))
	app.Use(m.Middleware())

	return app
}

func NewTokenManager(cfg *config.Config) *utils.TokenManager {
	return utils.NewTokenManager(cfg.JWTSecret, tokenTTL)
}

func NewPipedriveClient(cfg *config.Config) *connectors.PipedriveClient {
	return connectors.NewPipedriveClient(cfg.PipedriveBaseURL, cfg.PipedriveAPIToken)
}

func NewFieldMapper(cfg *config.Config) (*connectors.FieldMapper, error) {
	return connectors.ParseFieldMap(cfg.PipedriveFieldMap)
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route, logger *zap.Logger) {
	for _, route := range routes {
		logger.Debug("Setting up route", zap.String("route", fmt.Sprintf("%T", route)))
		route.Setup(app)
	}
	logger.Info("All routes registered", zap.Int("count", len(routes)))
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`, ``),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				logger.Info("Starting HTTP server", zap.String("addr", port))
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(lc fx.Lifecycle, mappingRepo stage_mapping.StageMappingRepository, eventRepo stage_event.StageEventRepository, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := mappingRepo.EnsureIndexes(ctx); err != nil {
					logger.Error("Failed to ensure stage mapping indexes", zap.Error(err))
				}
				if err := eventRepo.EnsureIndexes(ctx); err != nil {
					logger.Error("Failed to ensure stage event indexes", zap.Error(err))
				}
			}()
			return nil
		},
	})
}

// StartScheduler runs the cron sync for the lifetime of the app
func StartScheduler(lc fx.Lifecycle, scheduler *sync.Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return scheduler.Start()
		},
		OnStop: scheduler.Stop,
	})
}

// @title           Flow Metrics API
// @version         1.0
// @description     Time-in-stage metrics over CRM deal stage history.

// @host            localhost:8080
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			metrics.New,
			NewFiberServer,
			database.NewDatabase,
			cache.NewCache,
			NewTokenManager,

			// CRM access
			NewPipedriveClient,
			NewFieldMapper,
			sync.NewStageEventSource,

			// Realtime events
			system.NewHub,
			system.AsPublisher,

			// Repositories
			audit.NewAuditRepository,
			stage_mapping.NewStageMappingRepository,
			stage_event.NewStageEventRepository,
			sync.NewSyncLogRepository,
			qr_id.NewCounterStore,

			// Services
			audit.NewAuditService,
			stage_mapping.NewStageMappingService,
			stage_event.NewStageEventService,
			flow_metrics.NewResolver,
			flow_metrics.NewFlowMetricsService,
			pipedrive.NewService,
			sync.NewSyncService,
			sync.NewScheduler,
			qr_id.NewService,

			// Controllers
			audit.NewAuditController,
			stage_mapping.NewStageMappingController,
			stage_event.NewStageEventController,
			flow_metrics.NewFlowMetricsController,
			pipedrive.NewPipedriveController,
			sync.NewSyncController,
			qr_id.NewQRIDController,
			system.NewDependencyHealthController,
			system.NewWebSocketController,
			system.NewDebugController,

			// Routes
			AsRoute(system.NewSystemApi),
			AsRoute(system.NewWebSocketApi),
			AsRoute(system.NewDebugApi),
			AsRoute(audit.NewAuditApi),
			AsRoute(stage_mapping.NewStageMappingApi),
			AsRoute(stage_event.NewStageEventApi),
			AsRoute(flow_metrics.NewFlowMetricsApi),
			AsRoute(pipedrive.NewPipedriveApi),
			AsRoute(sync.NewSyncApi),
			AsRoute(qr_id.NewQRIDApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			RegisterAllRoutesWithAnnotation,
			StartServer,
			InitializeIndexes,
			StartScheduler,
		),
	)

	app.Run()
}
