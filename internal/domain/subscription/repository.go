package subscription

import (
	"context"
	"time"

	"github.com/reservize/billing/internal/types"
)

// CreateParams describes a new subscription: one line item on the given price
// with the given quantity (base unit included), optionally starting in trial.
type CreateParams struct {
	CustomerID string
	PriceID    string
	Quantity   int64
	TrialEnd   *time.Time
	Metadata   types.Metadata
}

// UpdateItemParams describes a quantity change on an existing line item.
// Metadata, when non-nil, replaces the subscription metadata in the same
// provider call so the entitlement stamp and the quantity move together.
// ReconciliationID scopes the provider idempotency key to the reconciliation
// that planned the change: transport retries deduplicate, while a later
// reconciliation issuing an identical update is a new mutation.
type UpdateItemParams struct {
	SubscriptionID   string
	ItemID           string
	PriceID          string
	Quantity         int64
	Proration        ProrationBehavior
	Metadata         types.Metadata
	ReconciliationID string
}

// Repository is the provider-adapter contract for subscription operations.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Subscription, error)
	Get(ctx context.Context, id string) (*Subscription, error)
	UpdateItem(ctx context.Context, params UpdateItemParams) (*Subscription, error)
}
