package pipedrive

import (
	"flow-metrics/internal/common/api"
	"flow-metrics/internal/config"
	"flow-metrics/internal/middleware"
	"flow-metrics/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type PipedriveApi struct {
	controller *PipedriveController
	config     *config.Config
	tokens     *utils.TokenManager
}

func NewPipedriveApi(controller *PipedriveController, cfg *config.Config, tokens *utils.TokenManager) api.Route {
	return &PipedriveApi{
		controller: controller,
		config:     cfg,
		tokens:     tokens,
	}
}

func (h *PipedriveApi) Setup(app *fiber.App) {
	group := app.Group("/api/pipedrive", middleware.AuthMiddleware(h.tokens, h.config.SkipAuth))

	group.Get("/pipelines", h.controller.ListPipelines)
	group.Get("/stages", h.controller.ListStages)
	group.Get("/deals/:id", h.controller.GetDeal)
}
