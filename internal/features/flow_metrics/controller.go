package flow_metrics

import (
	"errors"
	"fmt"

	common_models "flow-metrics/internal/common/models"

	"github.com/gofiber/fiber/v2"
)

type FlowMetricsController struct {
	Service FlowMetricsService
}

func NewFlowMetricsController(service FlowMetricsService) *FlowMetricsController {
	return &FlowMetricsController{Service: service}
}

// GetCanonicalStageDeals godoc
// @Summary Deals that passed through a canonical stage
// @Tags flow-metrics
// @Produce json
// @Param canonicalStage query string true "Canonical stage name"
// @Success 200 {object} common_models.Response
// @Failure 400 {object} common_models.Response
// @Failure 503 {object} common_models.Response
// @Router /api/canonical-stage-deals [get]
func (ctrl *FlowMetricsController) GetCanonicalStageDeals(c *fiber.Ctx) error {
	stage := c.Query("canonicalStage")
	if stage == "" {
		return c.Status(fiber.StatusBadRequest).JSON(common_models.Fail("canonicalStage is required"))
	}

	res, err := ctrl.Service.GetCanonicalStageDeals(c.UserContext(), stage)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(common_models.Response{Success: true, Data: res.Deals, Reason: res.Reason})
}

// GetStageSummary godoc
// @Summary Aggregated metrics and classified rows for one canonical stage
// @Tags flow-metrics
// @Produce json
// @Param canonicalStage query string true "Canonical stage name"
// @Param period query string false "7d, 14d, 1m, 3m or all"
// @Success 200 {object} common_models.Response
// @Failure 503 {object} common_models.Response
// @Router /api/canonical-stage-deals/summary [get]
func (ctrl *FlowMetricsController) GetStageSummary(c *fiber.Ctx) error {
	stage := c.Query("canonicalStage")
	if stage == "" {
		return c.Status(fiber.StatusBadRequest).JSON(common_models.Fail("canonicalStage is required"))
	}

	summary, err := ctrl.Service.GetStageSummary(c.UserContext(), stage, c.Query("period", PeriodAll))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(common_models.Response{Success: true, Data: summary, Reason: summary.Reason})
}

// GetFlowMetrics godoc
// @Summary Flow metric cards for every active mapping
// @Tags flow-metrics
// @Produce json
// @Param period query string false "7d, 14d, 1m, 3m or all"
// @Success 200 {object} common_models.Response
// @Failure 503 {object} common_models.Response
// @Router /api/flow-metrics [get]
func (ctrl *FlowMetricsController) GetFlowMetrics(c *fiber.Ctx) error {
	cards, err := ctrl.Service.GetFlowMetrics(c.UserContext(), c.Query("period", PeriodAll))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(common_models.OK(cards))
}

// ExportFlowMetrics godoc
// @Summary Export flow metrics as an Excel workbook
// @Tags flow-metrics
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param period query string false "7d, 14d, 1m, 3m or all"
// @Success 200 {file} binary
// @Router /api/flow-metrics/export [get]
func (ctrl *FlowMetricsController) ExportFlowMetrics(c *fiber.Ctx) error {
	data, filename, err := ctrl.Service.ExportFlowMetrics(c.UserContext(), c.Query("period", PeriodAll))
	if err != nil {
		return respondError(c, err)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	return c.Send(data)
}

func respondError(c *fiber.Ctx, err error) error {
	if errors.Is(err, ErrDataUnavailable) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(common_models.Fail(err.Error()))
	}
	return c.Status(fiber.StatusInternalServerError).JSON(common_models.Fail(err.Error()))
}
