package flow_metrics

import (
	"flow-metrics/internal/common/api"
	"flow-metrics/internal/config"
	"flow-metrics/internal/middleware"
	"flow-metrics/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type FlowMetricsApi struct {
	controller *FlowMetricsController
	config     *config.Config
	tokens     *utils.TokenManager
}

func NewFlowMetricsApi(controller *FlowMetricsController, cfg *config.Config, tokens *utils.TokenManager) api.Route {
	return &FlowMetricsApi{
		controller: controller,
		config:     cfg,
		tokens:     tokens,
	}
}

func (h *FlowMetricsApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.tokens, h.config.SkipAuth)

	deals := app.Group("/api/canonical-stage-deals", auth)
	deals.Get("/", h.controller.GetCanonicalStageDeals)
	deals.Get("/summary", h.controller.GetStageSummary)

	// No group here: a group Use on /api/flow-metrics would also match the
	// /api/flow-metrics-config routes by prefix.
	app.Get("/api/flow-metrics", auth, h.controller.GetFlowMetrics)
	app.Get("/api/flow-metrics/export", auth, h.controller.ExportFlowMetrics)
}
