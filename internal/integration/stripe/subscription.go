package stripe

import (
	"context"
	"time"

	"github.com/samber/lo"
	stripe "github.com/stripe/stripe-go/v82"

	"github.com/reservize/billing/internal/domain/subscription"
	ierr "github.com/reservize/billing/internal/errors"
	"github.com/reservize/billing/internal/idempotency"
	"github.com/reservize/billing/internal/types"
)

type subscriptionRepository struct {
	client *Client
}

// NewSubscriptionRepository returns the Stripe-backed subscription repository.
func NewSubscriptionRepository(client *Client) subscription.Repository {
	return &subscriptionRepository{client: client}
}

func (r *subscriptionRepository) Create(ctx context.Context, p subscription.CreateParams) (*subscription.Subscription, error) {
	if err := r.client.wait(ctx); err != nil {
		return nil, err
	}

	params := &stripe.SubscriptionParams{
		Customer: stripe.String(p.CustomerID),
		Items: []*stripe.SubscriptionItemsParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(p.Quantity),
			},
		},
	}
	params.Context = ctx
	if p.TrialEnd != nil {
		params.TrialEnd = stripe.Int64(p.TrialEnd.Unix())
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	sub, err := r.client.api.Subscriptions.New(params)
	if err != nil {
		return nil, r.client.providerError(err, "Failed to create subscription")
	}

	r.client.logger.Infow("created provider subscription",
		"subscription_id", sub.ID,
		"customer_id", p.CustomerID,
		"price_id", p.PriceID,
		"quantity", p.Quantity)
	return toSubscription(sub), nil
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	if err := r.client.wait(ctx); err != nil {
		return nil, err
	}

	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := r.client.api.Subscriptions.Get(id, params)
	if err != nil {
		return nil, r.client.providerError(err, "Failed to retrieve subscription")
	}
	return toSubscription(sub), nil
}

func (r *subscriptionRepository) UpdateItem(ctx context.Context, p subscription.UpdateItemParams) (*subscription.Subscription, error) {
	if err := r.client.wait(ctx); err != nil {
		return nil, err
	}

	behavior, err := prorationBehavior(p.Proration)
	if err != nil {
		return nil, err
	}

	params := &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{
			{
				ID:       stripe.String(p.ItemID),
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(p.Quantity),
			},
		},
		ProrationBehavior: stripe.String(behavior),
	}
	params.Context = ctx
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	params.SetIdempotencyKey(r.client.idempotency.GenerateKey(idempotency.ScopeSubscriptionUpdate, map[string]interface{}{
		"subscription_id":   p.SubscriptionID,
		"item_id":           p.ItemID,
		"quantity":          p.Quantity,
		"proration":         string(p.Proration),
		"reconciliation_id": p.ReconciliationID,
	}))

	sub, err := r.client.api.Subscriptions.Update(p.SubscriptionID, params)
	if err != nil {
		return nil, r.client.providerError(err, "Failed to update subscription item")
	}

	r.client.logger.Infow("updated provider subscription item",
		"subscription_id", p.SubscriptionID,
		"item_id", p.ItemID,
		"quantity", p.Quantity,
		"proration", string(p.Proration))
	return toSubscription(sub), nil
}

func prorationBehavior(p subscription.ProrationBehavior) (string, error) {
	switch p {
	case subscription.ProrationBehaviorNone:
		return "none", nil
	case subscription.ProrationBehaviorImmediateInvoice:
		return "always_invoice", nil
	default:
		return "", ierr.NewErrorf("unsupported proration behavior: %s", p).
			Mark(ierr.ErrValidation)
	}
}

func toSubscription(sub *stripe.Subscription) *subscription.Subscription {
	if sub == nil {
		return nil
	}

	out := &subscription.Subscription{
		ID:        sub.ID,
		Status:    subscription.Status(sub.Status),
		Metadata:  types.Metadata(sub.Metadata),
		CreatedAt: time.Unix(sub.Created, 0).UTC(),
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.TrialEnd > 0 {
		trialEnd := time.Unix(sub.TrialEnd, 0).UTC()
		out.TrialEnd = &trialEnd
	}
	if sub.Items != nil {
		out.Items = lo.Map(sub.Items.Data, func(item *stripe.SubscriptionItem, _ int) *subscription.Item {
			converted := &subscription.Item{
				ID:       item.ID,
				Quantity: item.Quantity,
			}
			if item.Price != nil {
				converted.PriceID = item.Price.ID
			}
			return converted
		})
	}
	return out
}
