package stage_mapping

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	common_models "flow-metrics/internal/common/models"
	"flow-metrics/internal/database"
	"flow-metrics/internal/features/audit"
	"flow-metrics/pkg/utils"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

var metricKeyPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// ValidationError carries a user-facing message for a rejected payload
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type StageMappingService interface {
	CreateMapping(ctx context.Context, req CreateMappingRequest) (*StageMapping, error)
	GetMapping(ctx context.Context, id string) (*StageMapping, error)
	ListMappings(ctx context.Context, activeOnly bool) ([]StageMapping, error)
	UpdateMapping(ctx context.Context, id string, req UpdateMappingRequest) (*StageMapping, error)
	DeleteMapping(ctx context.Context, id string) error
}

type StageMappingServiceImpl struct {
	Repo         StageMappingRepository
	AuditService audit.AuditService
	Events       common_models.EventPublisher
	Logger       *zap.Logger

	validate *validator.Validate
}

func NewStageMappingService(repo StageMappingRepository, auditService audit.AuditService, events common_models.EventPublisher, logger *zap.Logger) StageMappingService {
	return &StageMappingServiceImpl{
		Repo:         repo,
		AuditService: auditService,
		Events:       events,
		Logger:       logger,
		validate:     newValidator(),
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("metric_key", func(fl validator.FieldLevel) bool {
		return metricKeyPattern.MatchString(fl.Field().String())
	})
	return v
}

func (s *StageMappingServiceImpl) CreateMapping(ctx context.Context, req CreateMappingRequest) (*StageMapping, error) {
	req.DisplayTitle = strings.TrimSpace(req.DisplayTitle)
	req.CanonicalStage = strings.TrimSpace(req.CanonicalStage)
	if req.MetricKey == "" {
		req.MetricKey = utils.Slugify(req.DisplayTitle)
	}

	if err := s.validate.Struct(req); err != nil {
		return nil, toValidationError(err)
	}
	if err := checkThresholds(req.AvgMinDays, req.AvgMaxDays); err != nil {
		return nil, err
	}

	mapping := &StageMapping{
		MetricKey:      req.MetricKey,
		DisplayTitle:   req.DisplayTitle,
		CanonicalStage: req.CanonicalStage,
		StartStageID:   req.StartStageID,
		EndStageID:     req.EndStageID,
		AvgMinDays:     req.AvgMinDays,
		AvgMaxDays:     req.AvgMaxDays,
		Comment:        req.Comment,
		IsActive:       true,
		SortOrder:      req.SortOrder,
	}
	if req.IsActive != nil {
		mapping.IsActive = *req.IsActive
	}

	if err := s.Repo.Create(ctx, mapping); err != nil {
		return nil, err
	}

	s.afterWrite(ctx, common_models.AuditActionCreate, mapping.ID.Hex(), common_models.Change{New: mapping})
	return mapping, nil
}

func (s *StageMappingServiceImpl) GetMapping(ctx context.Context, id string) (*StageMapping, error) {
	return s.Repo.Get(ctx, id)
}

func (s *StageMappingServiceImpl) ListMappings(ctx context.Context, activeOnly bool) ([]StageMapping, error) {
	return s.Repo.List(ctx, activeOnly)
}

func (s *StageMappingServiceImpl) UpdateMapping(ctx context.Context, id string, req UpdateMappingRequest) (*StageMapping, error) {
	if err := normalizeUpdate(&req); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, toValidationError(err)
	}

	existing, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// Validate the merged record, not just the patch
	start, end := existing.StartStageID, existing.EndStageID
	if req.StartStageID != nil {
		start = *req.StartStageID
	}
	if req.EndStageID != nil {
		end = *req.EndStageID
	}
	if start != 0 && start == end {
		return nil, &ValidationError{Message: "startStageId and endStageId must differ"}
	}

	minDays, maxDays := existing.AvgMinDays, existing.AvgMaxDays
	if req.AvgMinDays != nil {
		minDays = req.AvgMinDays
	}
	if req.AvgMaxDays != nil {
		maxDays = req.AvgMaxDays
	}
	if err := checkThresholds(minDays, maxDays); err != nil {
		return nil, err
	}

	updates := buildUpdates(req)
	if len(updates) == 0 {
		return existing, nil
	}

	updated, err := s.Repo.Update(ctx, id, updates)
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, common_models.AuditActionUpdate, id, common_models.Change{Old: existing, New: updated})
	return updated, nil
}

func (s *StageMappingServiceImpl) DeleteMapping(ctx context.Context, id string) error {
	existing, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}

	s.afterWrite(ctx, common_models.AuditActionDelete, id, common_models.Change{Old: existing, New: "DELETED"})
	return nil
}

func (s *StageMappingServiceImpl) afterWrite(ctx context.Context, action common_models.AuditAction, id string, change common_models.Change) {
	if err := s.AuditService.LogChange(ctx, action, database.CollectionStageMappings, id, map[string]common_models.Change{
		"mapping": change,
	}); err != nil {
		s.Logger.Warn("failed to write audit log", zap.String("mapping_id", id), zap.Error(err))
	}

	s.Events.Publish(common_models.Event{
		Type:      common_models.EventMetricsInvalidated,
		Payload:   map[string]string{"source": "config", "mapping_id": id},
		Timestamp: time.Now(),
	})
}

// normalizeUpdate trims the text fields of a patch. A field that is present
// but blank is rejected; omitempty would otherwise skip its length rules.
func normalizeUpdate(req *UpdateMappingRequest) error {
	for _, f := range []struct {
		name  string
		field **string
	}{
		{"metricKey", &req.MetricKey},
		{"displayTitle", &req.DisplayTitle},
		{"canonicalStage", &req.CanonicalStage},
	} {
		if *f.field == nil {
			continue
		}
		trimmed := strings.TrimSpace(**f.field)
		if trimmed == "" {
			return &ValidationError{Message: f.name + " must not be blank"}
		}
		*f.field = &trimmed
	}
	return nil
}

func buildUpdates(req UpdateMappingRequest) bson.M {
	updates := bson.M{}
	if req.MetricKey != nil {
		updates["metric_key"] = *req.MetricKey
	}
	if req.DisplayTitle != nil {
		updates["display_title"] = *req.DisplayTitle
	}
	if req.CanonicalStage != nil {
		updates["canonical_stage"] = *req.CanonicalStage
	}
	if req.StartStageID != nil {
		updates["start_stage_id"] = *req.StartStageID
	}
	if req.EndStageID != nil {
		updates["end_stage_id"] = *req.EndStageID
	}
	if req.AvgMinDays != nil {
		updates["avg_min_days"] = *req.AvgMinDays
	}
	if req.AvgMaxDays != nil {
		updates["avg_max_days"] = *req.AvgMaxDays
	}
	if req.Comment != nil {
		updates["comment"] = *req.Comment
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}
	return updates
}

func checkThresholds(minDays, maxDays *float64) error {
	if minDays != nil && maxDays != nil && *minDays > *maxDays {
		return &ValidationError{Message: "avgMinDays must not exceed avgMaxDays"}
	}
	return nil
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Message: err.Error()}
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return &ValidationError{Message: strings.Join(msgs, "; ")}
}

func describeFieldError(fe validator.FieldError) string {
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "metric_key":
		return fmt.Sprintf("%s must match ^[a-z0-9-]+$", field)
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", field, lowerFirst(fe.Param()))
	case "gt", "gte":
		return fmt.Sprintf("%s must be %s %s", field, map[string]string{"gt": ">", "gte": ">="}[fe.Tag()], fe.Param())
	case "max", "min":
		return fmt.Sprintf("%s length must be %s %s", field, map[string]string{"max": "<=", "min": ">="}[fe.Tag()], fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	if strings.HasSuffix(s, "ID") {
		s = strings.TrimSuffix(s, "ID") + "Id"
	}
	return strings.ToLower(s[:1]) + s[1:]
}
