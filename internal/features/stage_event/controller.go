package stage_event

import (
	common_models "flow-metrics/internal/common/models"

	"github.com/gofiber/fiber/v2"
)

type StageEventController struct {
	Service StageEventService
}

func NewStageEventController(service StageEventService) *StageEventController {
	return &StageEventController{Service: service}
}

// GetDealHistory godoc
// @Summary Stored stage history of one deal
// @Tags stage-events
// @Produce json
// @Param id path int true "Deal ID"
// @Success 200 {object} common_models.Response
// @Failure 400 {object} common_models.Response
// @Failure 503 {object} common_models.Response
// @Router /api/deals/{id}/stage-events [get]
func (ctrl *StageEventController) GetDealHistory(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(common_models.Fail("invalid deal id"))
	}

	events, err := ctrl.Service.DealHistory(c.UserContext(), id)
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(common_models.Fail(err.Error()))
	}
	return c.JSON(common_models.OK(events))
}
