package refund

import (
	"context"

	"github.com/shopspring/decimal"
)

// CreateParams describes one refund against a charge. ReconciliationID scopes
// the provider idempotency key: transport retries of the same planned refund
// deduplicate, while an identical (charge, amount) pair planned by a later
// reconciliation is a new refund.
type CreateParams struct {
	ChargeRef        string
	Amount           decimal.Decimal
	ReconciliationID string
}

// Repository is the provider-adapter contract for refund creation.
type Repository interface {
	// Create refunds the amount against the referenced charge. The amount
	// must not exceed the charge's remaining headroom.
	Create(ctx context.Context, params CreateParams) (*Refund, error)
}
