package stage_event

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"flow-metrics/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	byDeal map[int][]StageEvent
	err    error
}

func (r *stubRepo) FindByStageID(ctx context.Context, stageID int) ([]StageEvent, error) {
	return nil, nil
}

func (r *stubRepo) FindByDealID(ctx context.Context, dealID int) ([]StageEvent, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.byDeal[dealID], nil
}

func (r *stubRepo) Upsert(ctx context.Context, events []StageEvent) (int, error) {
	return 0, nil
}

func (r *stubRepo) LatestEnteredAt(ctx context.Context) (time.Time, error) {
	return time.Time{}, nil
}

func (r *stubRepo) EnsureIndexes(ctx context.Context) error { return nil }

func newHistoryApp(repo StageEventRepository) *fiber.App {
	app := fiber.New()
	controller := NewStageEventController(NewStageEventService(repo))
	NewStageEventApi(controller, &config.Config{SkipAuth: true}, nil).Setup(app)
	return app
}

func TestDealHistory_Empty(t *testing.T) {
	svc := NewStageEventService(&stubRepo{})

	events, err := svc.DealHistory(context.Background(), 7)
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestDealHistory_StoreError(t *testing.T) {
	svc := NewStageEventService(&stubRepo{err: errors.New("mongo down")})

	_, err := svc.DealHistory(context.Background(), 7)
	assert.ErrorIs(t, err, ErrHistoryUnavailable)
}

func TestController_GetDealHistory(t *testing.T) {
	entered := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	first := StageEvent{DealID: 7, StageID: 1, EnteredAt: entered}
	first.Close(entered.Add(time.Hour))
	repo := &stubRepo{byDeal: map[int][]StageEvent{
		7: {first, {DealID: 7, StageID: 2, EnteredAt: entered.Add(time.Hour)}},
	}}
	app := newHistoryApp(repo)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/deals/7/stage-events", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out struct {
		Success bool         `json:"success"`
		Data    []StageEvent `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Success)
	require.Len(t, out.Data, 2)
	assert.Equal(t, 1, out.Data[0].StageID)
	require.NotNil(t, out.Data[0].DurationSeconds)
	assert.EqualValues(t, 3600, *out.Data[0].DurationSeconds)
}

func TestController_GetDealHistory_Errors(t *testing.T) {
	resp, err := newHistoryApp(&stubRepo{}).Test(httptest.NewRequest("GET", "/api/deals/abc/stage-events", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = newHistoryApp(&stubRepo{err: errors.New("mongo down")}).Test(httptest.NewRequest("GET", "/api/deals/7/stage-events", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}
