package stage_mapping

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StageMapping maps a canonical stage onto a pair of CRM pipeline stages
type StageMapping struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	MetricKey      string             `json:"metricKey" bson:"metric_key"`
	DisplayTitle   string             `json:"displayTitle" bson:"display_title"`
	CanonicalStage string             `json:"canonicalStage" bson:"canonical_stage"`
	StartStageID   int                `json:"startStageId" bson:"start_stage_id"`
	EndStageID     int                `json:"endStageId" bson:"end_stage_id"`
	AvgMinDays     *float64           `json:"avgMinDays,omitempty" bson:"avg_min_days,omitempty"`
	AvgMaxDays     *float64           `json:"avgMaxDays,omitempty" bson:"avg_max_days,omitempty"`
	Comment        *string            `json:"comment,omitempty" bson:"comment,omitempty"`
	IsActive       bool               `json:"isActive" bson:"is_active"`
	SortOrder      int                `json:"sortOrder" bson:"sort_order"`
	CreatedAt      time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updated_at"`
}

// CanResolve reports whether both ends of the mapping are configured
func (m *StageMapping) CanResolve() bool {
	return m.StartStageID != 0 && m.EndStageID != 0
}

// Title falls back to the canonical stage when no display title is set
func (m *StageMapping) Title() string {
	if m.DisplayTitle != "" {
		return m.DisplayTitle
	}
	return m.CanonicalStage
}

type CreateMappingRequest struct {
	MetricKey      string   `json:"metricKey" validate:"required,max=64,metric_key"`
	DisplayTitle   string   `json:"displayTitle" validate:"required,max=120"`
	CanonicalStage string   `json:"canonicalStage" validate:"required,max=120"`
	StartStageID   int      `json:"startStageId" validate:"required,gt=0"`
	EndStageID     int      `json:"endStageId" validate:"required,gt=0,nefield=StartStageID"`
	AvgMinDays     *float64 `json:"avgMinDays,omitempty" validate:"omitempty,gte=0"`
	AvgMaxDays     *float64 `json:"avgMaxDays,omitempty" validate:"omitempty,gte=0"`
	Comment        *string  `json:"comment,omitempty" validate:"omitempty,max=1000"`
	IsActive       *bool    `json:"isActive,omitempty"`
	SortOrder      int      `json:"sortOrder"`
}

// UpdateMappingRequest is a partial update; nil fields are left untouched
type UpdateMappingRequest struct {
	MetricKey      *string  `json:"metricKey,omitempty" validate:"omitempty,max=64,metric_key"`
	DisplayTitle   *string  `json:"displayTitle,omitempty" validate:"omitempty,min=1,max=120"`
	CanonicalStage *string  `json:"canonicalStage,omitempty" validate:"omitempty,min=1,max=120"`
	StartStageID   *int     `json:"startStageId,omitempty" validate:"omitempty,gt=0"`
	EndStageID     *int     `json:"endStageId,omitempty" validate:"omitempty,gt=0"`
	AvgMinDays     *float64 `json:"avgMinDays,omitempty" validate:"omitempty,gte=0"`
	AvgMaxDays     *float64 `json:"avgMaxDays,omitempty" validate:"omitempty,gte=0"`
	Comment        *string  `json:"comment,omitempty" validate:"omitempty,max=1000"`
	IsActive       *bool    `json:"isActive,omitempty"`
	SortOrder      *int     `json:"sortOrder,omitempty"`
}
