package stage_event

import (
	"context"
	"errors"
	"fmt"
)

var ErrHistoryUnavailable = errors.New("stage history unavailable")

type StageEventService interface {
	// DealHistory lists a deal's stage entries, oldest first
	DealHistory(ctx context.Context, dealID int) ([]StageEvent, error)
}

type StageEventServiceImpl struct {
	Repo StageEventRepository
}

func NewStageEventService(repo StageEventRepository) StageEventService {
	return &StageEventServiceImpl{Repo: repo}
}

func (s *StageEventServiceImpl) DealHistory(ctx context.Context, dealID int) ([]StageEvent, error) {
	events, err := s.Repo.FindByDealID(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHistoryUnavailable, err)
	}
	if events == nil {
		events = []StageEvent{}
	}
	return events, nil
}
