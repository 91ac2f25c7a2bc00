package qr_id

import (
	common_models "flow-metrics/internal/common/models"

	"github.com/gofiber/fiber/v2"
)

type QRIDController struct {
	Service CounterService
}

func NewQRIDController(service CounterService) *QRIDController {
	return &QRIDController{Service: service}
}

// Next godoc
// @Summary Allocate the next QR id
// @Tags qr-ids
// @Produce json
// @Success 201 {object} common_models.Response
// @Router /api/qr-ids/next [post]
func (ctrl *QRIDController) Next(c *fiber.Ctx) error {
	id, err := ctrl.Service.Next(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(common_models.Fail(err.Error()))
	}
	return c.Status(fiber.StatusCreated).JSON(common_models.OK(id))
}
