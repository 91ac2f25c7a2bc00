package pipedrive

import (
	"errors"

	common_models "flow-metrics/internal/common/models"
	"flow-metrics/internal/connectors"

	"github.com/gofiber/fiber/v2"
)

type PipedriveController struct {
	Service PipedriveService
}

func NewPipedriveController(service PipedriveService) *PipedriveController {
	return &PipedriveController{Service: service}
}

// ListPipelines godoc
// @Summary List CRM pipelines
// @Tags pipedrive
// @Produce json
// @Success 200 {object} common_models.Response
// @Failure 502 {object} common_models.Response
// @Router /api/pipedrive/pipelines [get]
func (ctrl *PipedriveController) ListPipelines(c *fiber.Ctx) error {
	pipelines, err := ctrl.Service.ListPipelines(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(common_models.OK(pipelines))
}

// ListStages godoc
// @Summary List CRM stages, optionally for one pipeline
// @Tags pipedrive
// @Produce json
// @Param pipelineId query int false "Pipeline ID"
// @Success 200 {object} common_models.Response
// @Failure 502 {object} common_models.Response
// @Router /api/pipedrive/stages [get]
func (ctrl *PipedriveController) ListStages(c *fiber.Ctx) error {
	stages, err := ctrl.Service.ListStages(c.UserContext(), c.QueryInt("pipelineId", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(common_models.OK(stages))
}

// GetDeal godoc
// @Summary Get a CRM deal with named custom fields
// @Tags pipedrive
// @Produce json
// @Param id path int true "Deal ID"
// @Success 200 {object} common_models.Response
// @Router /api/pipedrive/deals/{id} [get]
func (ctrl *PipedriveController) GetDeal(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(common_models.Fail("invalid deal id"))
	}

	deal, err := ctrl.Service.GetDeal(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(common_models.OK(deal))
}

func respondError(c *fiber.Ctx, err error) error {
	if errors.Is(err, ErrNotConfigured) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(common_models.Fail(err.Error()))
	}
	var apiErr *connectors.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == fiber.StatusNotFound {
		return c.Status(fiber.StatusNotFound).JSON(common_models.Fail(apiErr.Message))
	}
	return c.Status(fiber.StatusBadGateway).JSON(common_models.Fail(err.Error()))
}
