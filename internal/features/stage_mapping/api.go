package stage_mapping

import (
	"flow-metrics/internal/common/api"
	"flow-metrics/internal/config"
	"flow-metrics/internal/middleware"
	"flow-metrics/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type StageMappingApi struct {
	controller *StageMappingController
	config     *config.Config
	tokens     *utils.TokenManager
}

func NewStageMappingApi(controller *StageMappingController, cfg *config.Config, tokens *utils.TokenManager) api.Route {
	return &StageMappingApi{
		controller: controller,
		config:     cfg,
		tokens:     tokens,
	}
}

func (h *StageMappingApi) Setup(app *fiber.App) {
	group := app.Group("/api/flow-metrics-config", middleware.AuthMiddleware(h.tokens, h.config.SkipAuth))

	group.Get("/", h.controller.ListMappings)
	group.Get("/:id", h.controller.GetMapping)

	admin := middleware.RequireRole("admin")
	group.Post("/", admin, h.controller.CreateMapping)
	group.Patch("/:id", admin, h.controller.UpdateMapping)
	group.Delete("/:id", admin, h.controller.DeleteMapping)
}
