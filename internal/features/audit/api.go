package audit

import (
	"flow-metrics/internal/common/api"
	"flow-metrics/internal/config"
	"flow-metrics/internal/middleware"
	"flow-metrics/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type AuditApi struct {
	controller *AuditController
	config     *config.Config
	tokens     *utils.TokenManager
}

func NewAuditApi(controller *AuditController, config *config.Config, tokens *utils.TokenManager) api.Route {
	return &AuditApi{
		controller: controller,
		config:     config,
		tokens:     tokens,
	}
}

func (h *AuditApi) Setup(app *fiber.App) {
	audit := app.Group("/api/audit-logs", middleware.AuthMiddleware(h.tokens, h.config.SkipAuth))

	audit.Get("/", h.controller.ListLogs)
}
