package service

import (
	"context"

	"github.com/reservize/billing/internal/api/dto"
	ierr "github.com/reservize/billing/internal/errors"
)

// CustomerService handles provider customer lifecycle: onboarding with an
// optional default payment method, lookup and removal.
type CustomerService interface {
	OnboardCustomer(ctx context.Context, req *dto.OnboardCustomerRequest) (*dto.CustomerResponse, error)
	GetCustomer(ctx context.Context, id string) (*dto.CustomerResponse, error)
	DeleteCustomer(ctx context.Context, id string) error
}

type customerService struct {
	ServiceParams
}

func NewCustomerService(params ServiceParams) CustomerService {
	return &customerService{ServiceParams: params}
}

// OnboardCustomer creates the provider customer and, when a payment method is
// supplied, attaches it and makes it the invoice default so chargeable
// quantity increases can settle immediately.
func (s *customerService) OnboardCustomer(ctx context.Context, req *dto.OnboardCustomerRequest) (*dto.CustomerResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cust, err := s.CustomerRepo.Create(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	if req.PaymentMethodID != "" {
		if err := s.CustomerRepo.AttachPaymentMethod(ctx, cust.ID, req.PaymentMethodID); err != nil {
			return nil, err
		}
		cust, err = s.CustomerRepo.SetDefaultPaymentMethod(ctx, cust.ID, req.PaymentMethodID)
		if err != nil {
			return nil, err
		}
	}

	s.Logger.Infow("onboarded customer",
		"customer_id", cust.ID,
		"has_payment_method", req.PaymentMethodID != "")

	return &dto.CustomerResponse{Customer: cust}, nil
}

func (s *customerService) GetCustomer(ctx context.Context, id string) (*dto.CustomerResponse, error) {
	if id == "" {
		return nil, ierr.NewError("customer id is required").
			WithHint("Please provide a valid customer ID").
			Mark(ierr.ErrValidation)
	}

	cust, err := s.CustomerRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.CustomerResponse{Customer: cust}, nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, id string) error {
	if id == "" {
		return ierr.NewError("customer id is required").
			WithHint("Please provide a valid customer ID").
			Mark(ierr.ErrValidation)
	}
	return s.CustomerRepo.Delete(ctx, id)
}
