package qr_id

import (
	"flow-metrics/internal/common/api"
	"flow-metrics/internal/config"
	"flow-metrics/internal/middleware"
	"flow-metrics/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type QRIDApi struct {
	controller *QRIDController
	config     *config.Config
	tokens     *utils.TokenManager
}

func NewQRIDApi(controller *QRIDController, cfg *config.Config, tokens *utils.TokenManager) api.Route {
	return &QRIDApi{controller: controller, config: cfg, tokens: tokens}
}

func (h *QRIDApi) Setup(app *fiber.App) {
	app.Post("/api/qr-ids/next", middleware.AuthMiddleware(h.tokens, h.config.SkipAuth), h.controller.Next)
}
