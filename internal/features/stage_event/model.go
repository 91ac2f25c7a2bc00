package stage_event

import (
	"time"
)

// StageEvent records a deal entering (and later leaving) a CRM pipeline stage
type StageEvent struct {
	DealID          int        `json:"dealId" bson:"deal_id"`
	PipelineID      int        `json:"pipelineId" bson:"pipeline_id"`
	StageID         int        `json:"stageId" bson:"stage_id"`
	StageName       string     `json:"stageName" bson:"stage_name"`
	EnteredAt       time.Time  `json:"enteredAt" bson:"entered_at"`
	LeftAt          *time.Time `json:"leftAt,omitempty" bson:"left_at,omitempty"`
	DurationSeconds *int64     `json:"durationSeconds,omitempty" bson:"duration_seconds,omitempty"`
}

// IsMalformed reports an exit recorded before the entry
func (e StageEvent) IsMalformed() bool {
	return e.LeftAt != nil && e.LeftAt.Before(e.EnteredAt)
}

// Close marks the event as left at t and derives its dwell time
func (e *StageEvent) Close(t time.Time) {
	left := t
	seconds := int64(t.Sub(e.EnteredAt) / time.Second)
	e.LeftAt = &left
	e.DurationSeconds = &seconds
}
