package invoice

import (
	"context"
	"time"

	"github.com/reservize/billing/internal/types"
)

// ListParams filters the invoice listing. CreatedAfter is the refund grace
// cutoff; invoices created before it are never refund candidates.
type ListParams struct {
	SubscriptionID string
	CreatedAfter   time.Time
	ExpandCharges  bool
}

// Repository is the provider-adapter contract for invoice reads and metadata
// stamping.
type Repository interface {
	// List returns the subscription's invoices created within the window,
	// oldest first, with charge data populated when ExpandCharges is set.
	List(ctx context.Context, params ListParams) ([]*Invoice, error)
	// UpdateMetadata stamps bookkeeping metadata onto an invoice.
	UpdateMetadata(ctx context.Context, invoiceID string, metadata types.Metadata) error
}
