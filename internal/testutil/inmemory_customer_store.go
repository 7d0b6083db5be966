package testutil

import (
	"context"
	"sync"

	"github.com/samber/lo"

	"github.com/reservize/billing/internal/domain/customer"
	ierr "github.com/reservize/billing/internal/errors"
	"github.com/reservize/billing/internal/types"
)

// InMemoryCustomerStore implements customer.Repository
type InMemoryCustomerStore struct {
	*InMemoryStore[*customer.Customer]

	mu       sync.Mutex
	attached map[string][]string
}

func NewInMemoryCustomerStore() *InMemoryCustomerStore {
	return &InMemoryCustomerStore{
		InMemoryStore: NewInMemoryStore[*customer.Customer](),
		attached:      make(map[string][]string),
	}
}

func copyCustomer(c *customer.Customer) *customer.Customer {
	if c == nil {
		return nil
	}
	copied := *c
	return &copied
}

func (s *InMemoryCustomerStore) Create(ctx context.Context, email string) (*customer.Customer, error) {
	if email == "" {
		return nil, ierr.NewError("email cannot be empty").
			WithHint("Email cannot be empty").
			Mark(ierr.ErrValidation)
	}

	c := &customer.Customer{
		ID:    types.GenerateUUIDWithPrefix("cus"),
		Email: email,
	}
	if err := s.InMemoryStore.Create(ctx, c.ID, copyCustomer(c)); err != nil {
		return nil, err
	}
	return copyCustomer(c), nil
}

func (s *InMemoryCustomerStore) Get(ctx context.Context, id string) (*customer.Customer, error) {
	c, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("customer not found").
			WithReportableDetails(map[string]interface{}{
				"id": id,
			}).
			Mark(ierr.ErrNotFound)
	}
	return copyCustomer(c), nil
}

func (s *InMemoryCustomerStore) Delete(ctx context.Context, id string) error {
	return s.InMemoryStore.Delete(ctx, id)
}

func (s *InMemoryCustomerStore) AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	if _, err := s.InMemoryStore.Get(ctx, customerID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !lo.Contains(s.attached[customerID], paymentMethodID) {
		s.attached[customerID] = append(s.attached[customerID], paymentMethodID)
	}
	return nil
}

func (s *InMemoryCustomerStore) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) (*customer.Customer, error) {
	c, err := s.InMemoryStore.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	attached := lo.Contains(s.attached[customerID], paymentMethodID)
	s.mu.Unlock()
	if !attached {
		return nil, ierr.NewError("payment method is not attached to customer").
			WithReportableDetails(map[string]interface{}{
				"customer_id":       customerID,
				"payment_method_id": paymentMethodID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	updated := copyCustomer(c)
	updated.DefaultPaymentMethodID = paymentMethodID
	if err := s.InMemoryStore.Update(ctx, customerID, updated); err != nil {
		return nil, err
	}
	return copyCustomer(updated), nil
}
