package testutil

import (
	"context"
	"sort"

	"github.com/reservize/billing/internal/domain/event"
	"github.com/reservize/billing/internal/types"
)

// InMemoryEventStore implements event.Repository
type InMemoryEventStore struct {
	*InMemoryStore[*event.Event]
}

func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		InMemoryStore: NewInMemoryStore[*event.Event](),
	}
}

// Add seeds an event, assigning an ID when the caller left it empty.
func (s *InMemoryEventStore) Add(ctx context.Context, e *event.Event) *event.Event {
	if e.ID == "" {
		e.ID = types.GenerateUUIDWithPrefix("evt")
	}
	_ = s.InMemoryStore.Create(ctx, e.ID, e)
	return e
}

func (s *InMemoryEventStore) List(ctx context.Context, limit int64) ([]*event.Event, error) {
	events := s.InMemoryStore.All(ctx)
	sort.Slice(events, func(i, j int) bool {
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	if limit > 0 && int64(len(events)) > limit {
		events = events[:limit]
	}
	return events, nil
}
