package stripe

import (
	"context"
	"time"

	stripe "github.com/stripe/stripe-go/v82"

	"github.com/reservize/billing/internal/domain/event"
)

type eventRepository struct {
	client *Client
}

// NewEventRepository returns the Stripe-backed event repository.
func NewEventRepository(client *Client) event.Repository {
	return &eventRepository{client: client}
}

func (r *eventRepository) List(ctx context.Context, limit int64) ([]*event.Event, error) {
	if err := r.client.wait(ctx); err != nil {
		return nil, err
	}

	params := &stripe.EventListParams{}
	params.Context = ctx
	params.Limit = stripe.Int64(limit)

	var events []*event.Event
	iter := r.client.api.Events.List(params)
	for iter.Next() {
		ev := iter.Event()
		events = append(events, &event.Event{
			ID:        ev.ID,
			Type:      string(ev.Type),
			CreatedAt: time.Unix(ev.Created, 0).UTC(),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, r.client.providerError(err, "Failed to list events")
	}
	return events, nil
}
