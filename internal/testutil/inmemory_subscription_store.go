package testutil

import (
	"context"
	"sync"

	"github.com/reservize/billing/internal/clock"
	"github.com/reservize/billing/internal/domain/subscription"
	ierr "github.com/reservize/billing/internal/errors"
	"github.com/reservize/billing/internal/types"
)

// InMemorySubscriptionStore implements subscription.Repository
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]
	clock clock.Clock

	mu      sync.Mutex
	updates []subscription.UpdateItemParams
}

func NewInMemorySubscriptionStore(clk clock.Clock) *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		InMemoryStore: NewInMemoryStore[*subscription.Subscription](),
		clock:         clk,
	}
}

func copySubscription(sub *subscription.Subscription) *subscription.Subscription {
	if sub == nil {
		return nil
	}
	copied := *sub
	copied.Items = make([]*subscription.Item, len(sub.Items))
	for i, item := range sub.Items {
		itemCopy := *item
		copied.Items[i] = &itemCopy
	}
	copied.Metadata = sub.Metadata.Copy()
	if sub.TrialEnd != nil {
		trialEnd := *sub.TrialEnd
		copied.TrialEnd = &trialEnd
	}
	return &copied
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, params subscription.CreateParams) (*subscription.Subscription, error) {
	if params.Quantity < 1 {
		return nil, ierr.NewError("subscription quantity must include the base unit").
			WithReportableDetails(map[string]interface{}{
				"quantity": params.Quantity,
			}).
			Mark(ierr.ErrValidation)
	}

	now := s.clock.Now()
	status := subscription.StatusActive
	if params.TrialEnd != nil && now.Before(*params.TrialEnd) {
		status = subscription.StatusTrialing
	}

	sub := &subscription.Subscription{
		ID:         types.GenerateUUIDWithPrefix("sub"),
		CustomerID: params.CustomerID,
		Status:     status,
		Items: []*subscription.Item{{
			ID:       types.GenerateUUIDWithPrefix("si"),
			PriceID:  params.PriceID,
			Quantity: params.Quantity,
		}},
		TrialEnd:  params.TrialEnd,
		Metadata:  params.Metadata.Copy(),
		CreatedAt: now,
	}
	if err := s.InMemoryStore.Create(ctx, sub.ID, copySubscription(sub)); err != nil {
		return nil, err
	}
	return copySubscription(sub), nil
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("subscription not found").
			WithReportableDetails(map[string]interface{}{
				"id": id,
			}).
			Mark(ierr.ErrNotFound)
	}
	return copySubscription(sub), nil
}

func (s *InMemorySubscriptionStore) UpdateItem(ctx context.Context, params subscription.UpdateItemParams) (*subscription.Subscription, error) {
	sub, err := s.InMemoryStore.Get(ctx, params.SubscriptionID)
	if err != nil {
		return nil, err
	}

	updated := copySubscription(sub)
	var item *subscription.Item
	for _, candidate := range updated.Items {
		if candidate.ID == params.ItemID {
			item = candidate
			break
		}
	}
	if item == nil {
		return nil, ierr.NewError("subscription item not found").
			WithReportableDetails(map[string]interface{}{
				"subscription_id": params.SubscriptionID,
				"item_id":         params.ItemID,
			}).
			Mark(ierr.ErrNotFound)
	}

	item.Quantity = params.Quantity
	if params.PriceID != "" {
		item.PriceID = params.PriceID
	}
	if params.Metadata != nil {
		updated.Metadata = params.Metadata.Copy()
	}

	if err := s.InMemoryStore.Update(ctx, updated.ID, copySubscription(updated)); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.updates = append(s.updates, params)
	s.mu.Unlock()

	return copySubscription(updated), nil
}

// Updates returns every UpdateItem call received, in order.
func (s *InMemorySubscriptionStore) Updates() []subscription.UpdateItemParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]subscription.UpdateItemParams(nil), s.updates...)
}
