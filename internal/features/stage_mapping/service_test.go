package stage_mapping

import (
	"context"
	"testing"

	common_models "flow-metrics/internal/common/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(repo StageMappingRepository) (StageMappingService, *recordingAudit, *recordingPublisher) {
	auditLog := &recordingAudit{}
	events := &recordingPublisher{}
	return NewStageMappingService(repo, auditLog, events, zap.NewNop()), auditLog, events
}

func validCreate() CreateMappingRequest {
	return CreateMappingRequest{
		MetricKey:      "manufacturing",
		DisplayTitle:   "Manufacturing",
		CanonicalStage: "Manufacturing",
		StartStageID:   10,
		EndStageID:     14,
	}
}

func ptr[T any](v T) *T { return &v }

func TestCreateMapping_Valid(t *testing.T) {
	svc, auditLog, events := newTestService(newMemoryRepo())

	mapping, err := svc.CreateMapping(context.Background(), validCreate())
	require.NoError(t, err)

	assert.True(t, mapping.IsActive, "mappings default to active")
	assert.False(t, mapping.ID.IsZero())
	assert.Equal(t, []common_models.AuditAction{common_models.AuditActionCreate}, auditLog.actions)
	require.Len(t, events.events, 1)
	assert.Equal(t, common_models.EventMetricsInvalidated, events.events[0].Type)
}

func TestCreateMapping_DerivesMetricKeyFromTitle(t *testing.T) {
	svc, _, _ := newTestService(newMemoryRepo())

	req := validCreate()
	req.MetricKey = ""
	req.DisplayTitle = "Lead Time: Proof Approval"

	mapping, err := svc.CreateMapping(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "lead-time-proof-approval", mapping.MetricKey)
}

func TestCreateMapping_Rejects(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(r *CreateMappingRequest)
		message string
	}{
		{"uppercase metric key", func(r *CreateMappingRequest) { r.MetricKey = "Manufacturing" }, "metricKey must match ^[a-z0-9-]+$"},
		{"underscore metric key", func(r *CreateMappingRequest) { r.MetricKey = "lead_time" }, "metricKey must match ^[a-z0-9-]+$"},
		{"same start and end", func(r *CreateMappingRequest) { r.EndStageID = r.StartStageID }, "endStageId must differ from startStageId"},
		{"missing canonical stage", func(r *CreateMappingRequest) { r.CanonicalStage = "  " }, "canonicalStage is required"},
		{"min above max", func(r *CreateMappingRequest) { r.AvgMinDays, r.AvgMaxDays = ptr(9.0), ptr(3.0) }, "avgMinDays must not exceed avgMaxDays"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, auditLog, _ := newTestService(newMemoryRepo())
			req := validCreate()
			tc.mutate(&req)

			_, err := svc.CreateMapping(context.Background(), req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Message, tc.message)
			assert.Empty(t, auditLog.actions)
		})
	}
}

func TestCreateMapping_Duplicate(t *testing.T) {
	svc, _, _ := newTestService(newMemoryRepo(StageMapping{MetricKey: "manufacturing", CanonicalStage: "Other", IsActive: true}))

	_, err := svc.CreateMapping(context.Background(), validCreate())
	assert.ErrorIs(t, err, ErrDuplicateMapping)
}

func TestUpdateMapping_ValidatesMergedRecord(t *testing.T) {
	existing := StageMapping{MetricKey: "qa", CanonicalStage: "QA", StartStageID: 3, EndStageID: 5, IsActive: true, AvgMaxDays: ptr(4.0)}
	repo := newMemoryRepo(existing)
	svc, _, _ := newTestService(repo)

	var id string
	for k := range repo.mappings {
		id = k
	}

	_, err := svc.UpdateMapping(context.Background(), id, UpdateMappingRequest{EndStageID: ptr(3)})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = svc.UpdateMapping(context.Background(), id, UpdateMappingRequest{AvgMinDays: ptr(5.0)})
	require.ErrorAs(t, err, &verr)

	updated, err := svc.UpdateMapping(context.Background(), id, UpdateMappingRequest{
		EndStageID: ptr(8),
		Comment:    ptr("excludes rework"),
	})
	require.NoError(t, err)
	assert.Equal(t, 8, updated.EndStageID)
	assert.Equal(t, 3, updated.StartStageID)
	require.NotNil(t, updated.Comment)
	assert.Equal(t, "excludes rework", *updated.Comment)
}

func TestUpdateMapping_RejectsBlankText(t *testing.T) {
	repo := newMemoryRepo(StageMapping{MetricKey: "qa", DisplayTitle: "QA", CanonicalStage: "QA", StartStageID: 3, EndStageID: 5})
	svc, auditLog, _ := newTestService(repo)

	var id string
	for k := range repo.mappings {
		id = k
	}

	for name, req := range map[string]UpdateMappingRequest{
		"display title":   {DisplayTitle: ptr("   ")},
		"canonical stage": {CanonicalStage: ptr("\t ")},
		"metric key":      {MetricKey: ptr(" ")},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.UpdateMapping(context.Background(), id, req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}
	assert.Empty(t, auditLog.actions)
	assert.Equal(t, "QA", repo.mappings[id].CanonicalStage)

	updated, err := svc.UpdateMapping(context.Background(), id, UpdateMappingRequest{CanonicalStage: ptr("  Final QA ")})
	require.NoError(t, err)
	assert.Equal(t, "Final QA", updated.CanonicalStage)
}

func TestUpdateMapping_EmptyPatchIsNoop(t *testing.T) {
	repo := newMemoryRepo(StageMapping{MetricKey: "qa", CanonicalStage: "QA", StartStageID: 3, EndStageID: 5})
	svc, auditLog, _ := newTestService(repo)

	var id string
	for k := range repo.mappings {
		id = k
	}

	_, err := svc.UpdateMapping(context.Background(), id, UpdateMappingRequest{})
	require.NoError(t, err)
	assert.Zero(t, repo.count("Update"))
	assert.Empty(t, auditLog.actions)
}

func TestDeleteMapping_NotFound(t *testing.T) {
	svc, _, events := newTestService(newMemoryRepo())

	err := svc.DeleteMapping(context.Background(), "64b000000000000000000000")
	assert.ErrorIs(t, err, ErrMappingNotFound)
	assert.Empty(t, events.events)
}
