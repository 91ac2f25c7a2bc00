package audit

import (
	"strconv"

	common_models "flow-metrics/internal/common/models"

	"github.com/gofiber/fiber/v2"
)

type AuditController struct {
	Service AuditService
}

func NewAuditController(service AuditService) *AuditController {
	return &AuditController{Service: service}
}

// ListLogs godoc
// @Summary List audit logs
// @Description Change history of flow metric configuration and sync runs
// @Tags audit
// @Produce json
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Param module query string false "Collection name"
// @Param record_id query string false "Record ID"
// @Success 200 {object} common_models.Response
// @Router /api/audit-logs [get]
func (ctrl *AuditController) ListLogs(c *fiber.Ctx) error {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "20"), 10, 64)

	filter := ListFilter{
		Module:   c.Query("module"),
		RecordID: c.Query("record_id"),
		Action:   c.Query("action"),
	}

	logs, err := ctrl.Service.ListLogs(c.UserContext(), filter, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(common_models.Fail(err.Error()))
	}

	return c.JSON(common_models.OK(logs))
}
