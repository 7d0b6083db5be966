package service

import (
	"context"

	"github.com/reservize/billing/internal/api/dto"
	ierr "github.com/reservize/billing/internal/errors"
)

const (
	defaultEventLimit = 20
	maxEventLimit     = 100
)

// EventService surfaces recent provider events for diagnostics. It plays no
// part in reconciliation.
type EventService interface {
	ListEvents(ctx context.Context, limit int64) (*dto.ListEventsResponse, error)
}

type eventService struct {
	ServiceParams
}

func NewEventService(params ServiceParams) EventService {
	return &eventService{ServiceParams: params}
}

func (s *eventService) ListEvents(ctx context.Context, limit int64) (*dto.ListEventsResponse, error) {
	if limit < 0 {
		return nil, ierr.NewError("limit must be non-negative").
			Mark(ierr.ErrValidation)
	}
	if limit == 0 {
		limit = defaultEventLimit
	}
	if limit > maxEventLimit {
		limit = maxEventLimit
	}

	events, err := s.EventRepo.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	return dto.NewListEventsResponse(events), nil
}
