package stage_mapping

import (
	"errors"

	common_models "flow-metrics/internal/common/models"

	"github.com/gofiber/fiber/v2"
)

type StageMappingController struct {
	Service StageMappingService
}

func NewStageMappingController(service StageMappingService) *StageMappingController {
	return &StageMappingController{Service: service}
}

// ListMappings godoc
// @Summary List flow metric configurations
// @Tags flow-metrics-config
// @Produce json
// @Param active query bool false "Only active mappings"
// @Success 200 {object} common_models.Response
// @Router /api/flow-metrics-config [get]
func (ctrl *StageMappingController) ListMappings(c *fiber.Ctx) error {
	mappings, err := ctrl.Service.ListMappings(c.UserContext(), c.QueryBool("active", false))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(common_models.OK(mappings))
}

// GetMapping godoc
// @Summary Get a flow metric configuration
// @Tags flow-metrics-config
// @Produce json
// @Param id path string true "Mapping ID"
// @Success 200 {object} common_models.Response
// @Failure 404 {object} common_models.Response
// @Router /api/flow-metrics-config/{id} [get]
func (ctrl *StageMappingController) GetMapping(c *fiber.Ctx) error {
	mapping, err := ctrl.Service.GetMapping(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(common_models.OK(mapping))
}

// CreateMapping godoc
// @Summary Create a flow metric configuration
// @Tags flow-metrics-config
// @Accept json
// @Produce json
// @Param mapping body CreateMappingRequest true "Mapping"
// @Success 201 {object} common_models.Response
// @Failure 400 {object} common_models.Response
// @Failure 409 {object} common_models.Response
// @Router /api/flow-metrics-config [post]
func (ctrl *StageMappingController) CreateMapping(c *fiber.Ctx) error {
	var req CreateMappingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(common_models.Fail("Invalid request body"))
	}

	mapping, err := ctrl.Service.CreateMapping(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(common_models.OK(mapping))
}

// UpdateMapping godoc
// @Summary Partially update a flow metric configuration
// @Tags flow-metrics-config
// @Accept json
// @Produce json
// @Param id path string true "Mapping ID"
// @Param mapping body UpdateMappingRequest true "Fields to change"
// @Success 200 {object} common_models.Response
// @Failure 400 {object} common_models.Response
// @Failure 404 {object} common_models.Response
// @Router /api/flow-metrics-config/{id} [patch]
func (ctrl *StageMappingController) UpdateMapping(c *fiber.Ctx) error {
	var req UpdateMappingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(common_models.Fail("Invalid request body"))
	}

	mapping, err := ctrl.Service.UpdateMapping(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(common_models.OK(mapping))
}

// DeleteMapping godoc
// @Summary Delete a flow metric configuration
// @Tags flow-metrics-config
// @Param id path string true "Mapping ID"
// @Success 200 {object} common_models.Response
// @Failure 404 {object} common_models.Response
// @Router /api/flow-metrics-config/{id} [delete]
func (ctrl *StageMappingController) DeleteMapping(c *fiber.Ctx) error {
	if err := ctrl.Service.DeleteMapping(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(common_models.OK(fiber.Map{"id": c.Params("id")}))
}

func respondError(c *fiber.Ctx, err error) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(common_models.Fail(verr.Message))
	case errors.Is(err, ErrMappingNotFound):
		return c.Status(fiber.StatusNotFound).JSON(common_models.Fail(err.Error()))
	case errors.Is(err, ErrDuplicateMapping):
		return c.Status(fiber.StatusConflict).JSON(common_models.Fail(err.Error()))
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(common_models.Fail(err.Error()))
	}
}
