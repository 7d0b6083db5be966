package dto

import (
	"github.com/reservize/billing/internal/domain/customer"
	ierr "github.com/reservize/billing/internal/errors"
	"github.com/reservize/billing/internal/validator"
)

// OnboardCustomerRequest creates a provider customer and optionally attaches
// a default payment method in the same flow.
type OnboardCustomerRequest struct {
	Email           string `json:"email" validate:"required,email"`
	PaymentMethodID string `json:"payment_method_id,omitempty"`
}

func (r *OnboardCustomerRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return ierr.WithError(err).
			WithHint("A valid email address is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

type CustomerResponse struct {
	*customer.Customer
}
