package sync

import (
	"errors"

	common_models "flow-metrics/internal/common/models"

	"github.com/gofiber/fiber/v2"
)

type SyncController struct {
	Service SyncService
}

func NewSyncController(service SyncService) *SyncController {
	return &SyncController{Service: service}
}

// RunSync godoc
// @Summary Import stage events from the configured source
// @Tags sync
// @Produce json
// @Param full query bool false "Ignore the last successful run and import everything"
// @Success 200 {object} common_models.Response
// @Failure 409 {object} common_models.Response
// @Failure 502 {object} common_models.Response
// @Router /api/sync/run [post]
func (ctrl *SyncController) RunSync(c *fiber.Ctx) error {
	run, err := ctrl.Service.RunSync(c.UserContext(), TriggerManual, c.QueryBool("full", false))
	if err != nil {
		if errors.Is(err, ErrSyncInProgress) {
			return c.Status(fiber.StatusConflict).JSON(common_models.Fail(err.Error()))
		}
		return c.Status(fiber.StatusBadGateway).JSON(common_models.Response{Success: false, Data: run, Error: err.Error()})
	}
	return c.JSON(common_models.OK(run))
}

// ListSyncLogs godoc
// @Summary Recent sync runs
// @Tags sync
// @Produce json
// @Param limit query int false "Max entries" default(20)
// @Success 200 {object} common_models.Response
// @Router /api/sync/logs [get]
func (ctrl *SyncController) ListSyncLogs(c *fiber.Ctx) error {
	logs, err := ctrl.Service.ListLogs(c.UserContext(), int64(c.QueryInt("limit", 20)))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(common_models.Fail(err.Error()))
	}
	return c.JSON(common_models.OK(logs))
}
