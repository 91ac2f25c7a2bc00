package flow_metrics

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	common_models "flow-metrics/internal/common/models"
	"flow-metrics/internal/config"
	"flow-metrics/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(h *harness) *fiber.App {
	ctrl := NewFlowMetricsController(newTestService(h, now))
	app := fiber.New()
	NewFlowMetricsApi(ctrl, &config.Config{SkipAuth: true}, nil).Setup(app)
	return app
}

func decode(t *testing.T, body io.Reader) common_models.Response {
	var resp common_models.Response
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}

func TestController_CanonicalStageDeals(t *testing.T) {
	app := newTestApp(seededHarness(t))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/canonical-stage-deals?canonicalStage=Manufacturing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	out := decode(t, resp.Body)
	assert.True(t, out.Success)
	assert.Len(t, out.Data, 2)
	assert.Empty(t, out.Reason)
}

func TestController_CanonicalStageDeals_NoMapping(t *testing.T) {
	app := newTestApp(seededHarness(t))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/canonical-stage-deals?canonicalStage=Nope", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	out := decode(t, resp.Body)
	assert.True(t, out.Success)
	assert.Equal(t, ReasonNoMapping, out.Reason)
}

func TestController_CanonicalStageDeals_MissingParam(t *testing.T) {
	app := newTestApp(seededHarness(t))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/canonical-stage-deals", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestController_DataUnavailable(t *testing.T) {
	h := seededHarness(t)
	h.events.err = errStoreDown
	app := newTestApp(h)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/canonical-stage-deals?canonicalStage=Manufacturing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	out := decode(t, resp.Body)
	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "stage data unavailable")
}

func TestController_FlowMetrics(t *testing.T) {
	app := newTestApp(seededHarness(t))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/flow-metrics?period=1m", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	out := decode(t, resp.Body)
	cards, ok := out.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, cards, 2)
	assert.Equal(t, "2.91", cards[1].(map[string]interface{})["mainMetric"])
}

func TestController_Summary(t *testing.T) {
	app := newTestApp(seededHarness(t))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/canonical-stage-deals/summary?canonicalStage=Manufacturing&period=7d", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	data := decode(t, resp.Body).Data.(map[string]interface{})
	assert.Equal(t, "7d", data["period"])
	assert.Len(t, data["deals"], 1)
}

func TestController_Export(t *testing.T) {
	app := newTestApp(seededHarness(t))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/flow-metrics/export", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "flow_metrics_all_")
}

func TestApi_AuthStaysOnFlowMetricsRoutes(t *testing.T) {
	ctrl := NewFlowMetricsController(newTestService(seededHarness(t), now))
	app := fiber.New()
	NewFlowMetricsApi(ctrl, &config.Config{}, utils.NewTokenManager("secret", time.Hour)).Setup(app)
	app.Get("/api/flow-metrics-config", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/flow-metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/flow-metrics-config", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
