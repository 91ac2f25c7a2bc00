package connectors

import (
	"context"
	"time"
)

// StageTransition is a deal's stay in one pipeline stage as reported by a source
type StageTransition struct {
	DealID     int
	PipelineID int
	StageID    int
	StageName  string
	EnteredAt  time.Time
	LeftAt     *time.Time
}

// StageEventSource yields stage transitions for deals touched since a point in time
type StageEventSource interface {
	// Name identifies the source in logs and metrics
	Name() string

	// FetchTransitions returns transitions for deals changed at or after since.
	// A zero since means a full import.
	FetchTransitions(ctx context.Context, since time.Time) ([]StageTransition, error)

	// Close releases held connections
	Close() error
}
