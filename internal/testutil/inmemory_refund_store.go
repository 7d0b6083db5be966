package testutil

import (
	"context"
	"sync"

	"github.com/reservize/billing/internal/domain/refund"
	ierr "github.com/reservize/billing/internal/errors"
	"github.com/reservize/billing/internal/types"
)

// InMemoryRefundStore implements refund.Repository. Created refunds reduce
// the headroom of the matching charge in the linked invoice store, the way a
// provider-side refund would.
type InMemoryRefundStore struct {
	*InMemoryStore[*refund.Refund]
	invoices *InMemoryInvoiceStore

	mu       sync.Mutex
	failures map[string]error
	creates  []refund.CreateParams
}

func NewInMemoryRefundStore(invoices *InMemoryInvoiceStore) *InMemoryRefundStore {
	return &InMemoryRefundStore{
		InMemoryStore: NewInMemoryStore[*refund.Refund](),
		invoices:      invoices,
		failures:      make(map[string]error),
	}
}

// FailWith makes every refund against chargeRef return err.
func (s *InMemoryRefundStore) FailWith(chargeRef string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[chargeRef] = err
}

func (s *InMemoryRefundStore) Create(ctx context.Context, params refund.CreateParams) (*refund.Refund, error) {
	if !params.Amount.IsPositive() {
		return nil, ierr.NewError("refund amount must be positive").
			WithReportableDetails(map[string]interface{}{
				"charge_ref": params.ChargeRef,
				"amount":     params.Amount.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	failure := s.failures[params.ChargeRef]
	s.mu.Unlock()
	if failure != nil {
		return nil, failure
	}

	if err := s.invoices.applyRefund(ctx, params.ChargeRef, params.Amount); err != nil {
		return nil, err
	}

	r := &refund.Refund{
		ID:        types.GenerateUUIDWithPrefix("re"),
		ChargeRef: params.ChargeRef,
		Amount:    params.Amount,
	}
	if err := s.InMemoryStore.Create(ctx, r.ID, r); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.creates = append(s.creates, params)
	s.mu.Unlock()
	return r, nil
}

// Refunds returns every refund created, in creation order.
func (s *InMemoryRefundStore) Refunds(ctx context.Context) []*refund.Refund {
	return s.InMemoryStore.All(ctx)
}

// Creates returns the parameters of every successful Create call, in order.
func (s *InMemoryRefundStore) Creates() []refund.CreateParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]refund.CreateParams(nil), s.creates...)
}
