package stripe

import (
	"context"

	stripe "github.com/stripe/stripe-go/v82"

	"github.com/reservize/billing/internal/domain/customer"
)

type customerRepository struct {
	client *Client
}

// NewCustomerRepository returns the Stripe-backed customer repository.
func NewCustomerRepository(client *Client) customer.Repository {
	return &customerRepository{client: client}
}

func (r *customerRepository) Create(ctx context.Context, email string) (*customer.Customer, error) {
	if err := r.client.wait(ctx); err != nil {
		return nil, err
	}

	params := &stripe.CustomerParams{Email: stripe.String(email)}
	params.Context = ctx

	cust, err := r.client.api.Customers.New(params)
	if err != nil {
		return nil, r.client.providerError(err, "Failed to create customer")
	}

	r.client.logger.Infow("created provider customer", "customer_id", cust.ID, "email", email)
	return toCustomer(cust), nil
}

func (r *customerRepository) Get(ctx context.Context, id string) (*customer.Customer, error) {
	if err := r.client.wait(ctx); err != nil {
		return nil, err
	}

	params := &stripe.CustomerParams{}
	params.Context = ctx

	cust, err := r.client.api.Customers.Get(id, params)
	if err != nil {
		return nil, r.client.providerError(err, "Failed to retrieve customer")
	}
	return toCustomer(cust), nil
}

func (r *customerRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.wait(ctx); err != nil {
		return err
	}

	params := &stripe.CustomerParams{}
	params.Context = ctx

	if _, err := r.client.api.Customers.Del(id, params); err != nil {
		return r.client.providerError(err, "Failed to delete customer")
	}

	r.client.logger.Infow("deleted provider customer", "customer_id", id)
	return nil
}

func (r *customerRepository) AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	if err := r.client.wait(ctx); err != nil {
		return err
	}

	params := &stripe.PaymentMethodAttachParams{Customer: stripe.String(customerID)}
	params.Context = ctx

	if _, err := r.client.api.PaymentMethods.Attach(paymentMethodID, params); err != nil {
		return r.client.providerError(err, "Failed to attach payment method")
	}
	return nil
}

func (r *customerRepository) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) (*customer.Customer, error) {
	if err := r.client.wait(ctx); err != nil {
		return nil, err
	}

	params := &stripe.CustomerParams{
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		},
	}
	params.Context = ctx

	cust, err := r.client.api.Customers.Update(customerID, params)
	if err != nil {
		return nil, r.client.providerError(err, "Failed to set default payment method")
	}

	r.client.logger.Infow("set default payment method",
		"customer_id", customerID,
		"payment_method_id", paymentMethodID)
	return toCustomer(cust), nil
}

func toCustomer(cust *stripe.Customer) *customer.Customer {
	if cust == nil {
		return nil
	}
	out := &customer.Customer{
		ID:    cust.ID,
		Email: cust.Email,
	}
	if cust.InvoiceSettings != nil && cust.InvoiceSettings.DefaultPaymentMethod != nil {
		out.DefaultPaymentMethodID = cust.InvoiceSettings.DefaultPaymentMethod.ID
	}
	return out
}
