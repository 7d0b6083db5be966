package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/reservize/billing/internal/domain/invoice"
	ierr "github.com/reservize/billing/internal/errors"
	"github.com/reservize/billing/internal/types"
)

// InMemoryInvoiceStore implements invoice.Repository
type InMemoryInvoiceStore struct {
	*InMemoryStore[*invoice.Invoice]

	mu       sync.Mutex
	metadata map[string]types.Metadata
}

func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		InMemoryStore: NewInMemoryStore[*invoice.Invoice](),
		metadata:      make(map[string]types.Metadata),
	}
}

func copyInvoice(inv *invoice.Invoice) *invoice.Invoice {
	if inv == nil {
		return nil
	}
	copied := *inv
	if inv.Charge != nil {
		charge := *inv.Charge
		copied.Charge = &charge
	}
	copied.Lines = make([]*invoice.LineItem, len(inv.Lines))
	for i, line := range inv.Lines {
		lineCopy := *line
		copied.Lines[i] = &lineCopy
	}
	return &copied
}

// Add seeds an invoice, assigning IDs when the caller left them empty.
func (s *InMemoryInvoiceStore) Add(ctx context.Context, inv *invoice.Invoice) *invoice.Invoice {
	if inv.ID == "" {
		inv.ID = types.GenerateUUIDWithPrefix("in")
	}
	if inv.Charge != nil && inv.Charge.ID == "" {
		inv.Charge.ID = types.GenerateUUIDWithPrefix("ch")
	}
	_ = s.InMemoryStore.Create(ctx, inv.ID, copyInvoice(inv))
	return copyInvoice(inv)
}

func (s *InMemoryInvoiceStore) List(ctx context.Context, params invoice.ListParams) ([]*invoice.Invoice, error) {
	var matched []*invoice.Invoice
	for _, inv := range s.InMemoryStore.All(ctx) {
		if params.SubscriptionID != "" && inv.SubscriptionID != params.SubscriptionID {
			continue
		}
		if !params.CreatedAfter.IsZero() && inv.CreatedAt.Before(params.CreatedAfter) {
			continue
		}
		matched = append(matched, copyInvoice(inv))
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return matched, nil
}

func (s *InMemoryInvoiceStore) UpdateMetadata(ctx context.Context, invoiceID string, metadata types.Metadata) error {
	if _, err := s.InMemoryStore.Get(ctx, invoiceID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata[invoiceID] = s.metadata[invoiceID].Merge(metadata)
	return nil
}

// Metadata returns the metadata stamped onto an invoice.
func (s *InMemoryInvoiceStore) Metadata(invoiceID string) types.Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metadata[invoiceID].Copy()
}

// applyRefund reduces the refundable headroom on the charge backing one of
// the stored invoices.
func (s *InMemoryInvoiceStore) applyRefund(ctx context.Context, chargeRef string, amount decimal.Decimal) error {
	for _, inv := range s.InMemoryStore.All(ctx) {
		if inv.Charge == nil || inv.Charge.ID != chargeRef {
			continue
		}
		if amount.GreaterThan(inv.Charge.AmountLeft()) {
			return ierr.NewError("refund exceeds charge headroom").
				WithReportableDetails(map[string]interface{}{
					"charge_ref": chargeRef,
					"amount":     amount.String(),
					"headroom":   inv.Charge.AmountLeft().String(),
				}).
				Mark(ierr.ErrInvalidOperation)
		}
		updated := copyInvoice(inv)
		updated.Charge.AmountRefunded = updated.Charge.AmountRefunded.Add(amount)
		return s.InMemoryStore.Update(ctx, updated.ID, updated)
	}
	return ierr.NewErrorf("charge not found: %s", chargeRef).
		Mark(ierr.ErrNotFound)
}
