package sync

import (
	"flow-metrics/internal/common/api"
	"flow-metrics/internal/config"
	"flow-metrics/internal/middleware"
	"flow-metrics/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type SyncApi struct {
	controller *SyncController
	config     *config.Config
	tokens     *utils.TokenManager
}

func NewSyncApi(controller *SyncController, cfg *config.Config, tokens *utils.TokenManager) api.Route {
	return &SyncApi{
		controller: controller,
		config:     cfg,
		tokens:     tokens,
	}
}

// Setup registers all sync routes
func (h *SyncApi) Setup(app *fiber.App) {
	syncGroup := app.Group("/api/sync", middleware.AuthMiddleware(h.tokens, h.config.SkipAuth))

	syncGroup.Post("/run", middleware.RequireRole("admin"), h.controller.RunSync)
	syncGroup.Get("/logs", h.controller.ListSyncLogs)
}
