package subscription

import (
	"time"

	"github.com/reservize/billing/internal/types"
)

// ProrationBehavior controls whether a mid-cycle quantity change generates an
// immediate charge at the provider.
type ProrationBehavior string

const (
	// ProrationBehaviorNone applies the quantity change without any money
	// movement; trial updates and refund-backed decreases use this.
	ProrationBehaviorNone ProrationBehavior = "none"
	// ProrationBehaviorImmediateInvoice invoices the prorated difference right
	// away; chargeable increases use this.
	ProrationBehaviorImmediateInvoice ProrationBehavior = "immediate_invoice"
)

// Status mirrors the provider's subscription status values the engine cares
// about.
type Status string

const (
	StatusActive   Status = "active"
	StatusTrialing Status = "trialing"
	StatusCanceled Status = "canceled"
)

// Item is one line item on a subscription. Quantity includes the fixed base
// unit, so the tenant's paid secondary quantity is Quantity-1.
type Item struct {
	ID       string `json:"id"`
	PriceID  string `json:"price_id"`
	Quantity int64  `json:"quantity"`
}

// Subscription is the read model of a provider-owned billing agreement. The
// engine never persists it; every reconciliation re-reads it from the
// provider.
type Subscription struct {
	ID         string         `json:"id"`
	CustomerID string         `json:"customer_id"`
	Status     Status         `json:"status"`
	Items      []*Item        `json:"items"`
	TrialEnd   *time.Time     `json:"trial_end,omitempty"`
	Metadata   types.Metadata `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// PrimaryItem returns the main line item carrying the base unit plus
// secondary units. Subscriptions created by this system always have exactly
// one item.
func (s *Subscription) PrimaryItem() *Item {
	if len(s.Items) == 0 {
		return nil
	}
	return s.Items[0]
}

// BilledSecondaryQuantity returns the number of secondary units currently
// invoiced: the primary item quantity minus the fixed base unit.
func (s *Subscription) BilledSecondaryQuantity() int64 {
	item := s.PrimaryItem()
	if item == nil || item.Quantity <= 1 {
		return 0
	}
	return item.Quantity - 1
}

// IsTrialing reports whether the subscription is inside its trial window at
// the given instant.
func (s *Subscription) IsTrialing(now time.Time) bool {
	return s.TrialEnd != nil && now.Before(*s.TrialEnd)
}
