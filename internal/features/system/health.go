package system

import (
	"context"
	"time"

	"flow-metrics/internal/cache"
	"flow-metrics/internal/common/api"
	"flow-metrics/internal/config"
	"flow-metrics/internal/database"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthCheck reports nil when a dependency is reachable
type HealthCheck func(ctx context.Context) error

type HealthController struct {
	checks map[string]HealthCheck
}

func NewHealthController(checks map[string]HealthCheck) *HealthController {
	return &HealthController{checks: checks}
}

// NewDependencyHealthController checks Mongo and, when configured, Redis
func NewDependencyHealthController(db *database.MongodbDB, cacheClient *cache.Client) *HealthController {
	checks := map[string]HealthCheck{
		"mongo": func(ctx context.Context) error { return db.Client.Ping(ctx, nil) },
	}
	if cacheClient != nil {
		checks["redis"] = func(ctx context.Context) error { return cacheClient.Redis.Ping(ctx).Err() }
	}
	return NewHealthController(checks)
}

// Health godoc
// @Summary Liveness and dependency status
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthController) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := fiber.StatusOK
	deps := fiber.Map{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			deps[name] = err.Error()
			status = fiber.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	overall := "ok"
	if status != fiber.StatusOK {
		overall = "degraded"
	}
	return c.Status(status).JSON(fiber.Map{"status": overall, "dependencies": deps})
}

// SystemApi serves the unauthenticated operational routes. API docs are
// hidden in production.
type SystemApi struct {
	controller *HealthController
	config     *config.Config
}

func NewSystemApi(controller *HealthController, cfg *config.Config) api.Route {
	return &SystemApi{controller: controller, config: cfg}
}

func (h *SystemApi) Setup(app *fiber.App) {
	app.Get("/health", h.controller.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	if h.config.Environment != "production" {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}
}
