package customer

import "context"

// Repository is the provider-adapter contract for customer operations.
type Repository interface {
	Create(ctx context.Context, email string) (*Customer, error)
	Get(ctx context.Context, id string) (*Customer, error)
	Delete(ctx context.Context, id string) error

	// AttachPaymentMethod attaches the payment method to the customer.
	AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error
	// SetDefaultPaymentMethod makes an attached payment method the invoice
	// default so chargeable subscription updates can settle immediately.
	SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) (*Customer, error)
}
