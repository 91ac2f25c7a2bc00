package system

import (
	"flow-metrics/internal/common/api"
	"flow-metrics/internal/config"
	"flow-metrics/internal/middleware"
	"flow-metrics/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type DebugApi struct {
	controller *DebugController
	config     *config.Config
	tokens     *utils.TokenManager
}

func NewDebugApi(controller *DebugController, cfg *config.Config, tokens *utils.TokenManager) api.Route {
	return &DebugApi{
		controller: controller,
		config:     cfg,
		tokens:     tokens,
	}
}

// Setup registers debug routes
func (h *DebugApi) Setup(app *fiber.App) {
	debug := app.Group("/api/debug", middleware.AuthMiddleware(h.tokens, h.config.SkipAuth))
	debug.Get("/me", h.controller.GetCurrentUser)
}
