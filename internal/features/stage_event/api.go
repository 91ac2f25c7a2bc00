package stage_event

import (
	"flow-metrics/internal/common/api"
	"flow-metrics/internal/config"
	"flow-metrics/internal/middleware"
	"flow-metrics/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type StageEventApi struct {
	controller *StageEventController
	config     *config.Config
	tokens     *utils.TokenManager
}

func NewStageEventApi(controller *StageEventController, cfg *config.Config, tokens *utils.TokenManager) api.Route {
	return &StageEventApi{
		controller: controller,
		config:     cfg,
		tokens:     tokens,
	}
}

func (h *StageEventApi) Setup(app *fiber.App) {
	app.Get("/api/deals/:id/stage-events", middleware.AuthMiddleware(h.tokens, h.config.SkipAuth), h.controller.GetDealHistory)
}
