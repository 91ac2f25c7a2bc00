package sync

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusInProgress = "in_progress"
	StatusSuccess    = "success"
	StatusFailed     = "failed"

	TriggerManual   = "manual"
	TriggerSchedule = "schedule"
)

type SyncLog struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Source        string             `json:"source" bson:"source"`
	Trigger       string             `json:"trigger" bson:"trigger"`
	Since         *time.Time         `json:"since,omitempty" bson:"since,omitempty"`
	StartTime     time.Time          `json:"startTime" bson:"start_time"`
	EndTime       time.Time          `json:"endTime,omitempty" bson:"end_time,omitempty"`
	Status        string             `json:"status" bson:"status"`
	FetchedCount  int                `json:"fetchedCount" bson:"fetched_count"`
	UpsertedCount int                `json:"upsertedCount" bson:"upserted_count"`
	Error         string             `json:"error,omitempty" bson:"error,omitempty"`
}
