package stripe

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	stripe "github.com/stripe/stripe-go/v82"

	"github.com/reservize/billing/internal/domain/invoice"
	"github.com/reservize/billing/internal/types"
)

type invoiceRepository struct {
	client *Client
}

// NewInvoiceRepository returns the Stripe-backed invoice repository.
func NewInvoiceRepository(client *Client) invoice.Repository {
	return &invoiceRepository{client: client}
}

// List returns the subscription's invoices created at or after the window
// cutoff, oldest first. When ExpandCharges is set, each invoice's settled
// charge is resolved through its payments so refund headroom is available.
func (r *invoiceRepository) List(ctx context.Context, p invoice.ListParams) ([]*invoice.Invoice, error) {
	if err := r.client.wait(ctx); err != nil {
		return nil, err
	}

	params := &stripe.InvoiceListParams{
		Subscription: stripe.String(p.SubscriptionID),
	}
	params.Context = ctx
	if !p.CreatedAfter.IsZero() {
		params.CreatedRange = &stripe.RangeQueryParams{
			GreaterThanOrEqual: p.CreatedAfter.Unix(),
		}
	}

	var invoices []*invoice.Invoice
	iter := r.client.api.Invoices.List(params)
	for iter.Next() {
		inv := iter.Invoice()

		converted := &invoice.Invoice{
			ID:             inv.ID,
			SubscriptionID: p.SubscriptionID,
			CreatedAt:      time.Unix(inv.Created, 0).UTC(),
		}
		if inv.Lines != nil {
			for _, line := range inv.Lines.Data {
				item := &invoice.LineItem{
					Amount:   decimal.NewFromInt(line.Amount),
					Quantity: line.Quantity,
				}
				if line.Period != nil {
					item.PeriodStart = time.Unix(line.Period.Start, 0).UTC()
				}
				converted.Lines = append(converted.Lines, item)
			}
		}

		if p.ExpandCharges {
			charge, err := r.resolveCharge(ctx, inv.ID)
			if err != nil {
				return nil, err
			}
			converted.Charge = charge
		}

		invoices = append(invoices, converted)
	}
	if err := iter.Err(); err != nil {
		return nil, r.client.providerError(err, "Failed to list invoices")
	}

	// Stripe lists newest first; callers expect chronological order.
	for i, j := 0, len(invoices)-1; i < j; i, j = i+1, j-1 {
		invoices[i], invoices[j] = invoices[j], invoices[i]
	}
	return invoices, nil
}

// resolveCharge finds the settled charge behind an invoice, or nil when the
// invoice collected no money (trial-period invoices have no payment).
func (r *invoiceRepository) resolveCharge(ctx context.Context, invoiceID string) (*invoice.Charge, error) {
	if err := r.client.wait(ctx); err != nil {
		return nil, err
	}

	listParams := &stripe.InvoicePaymentListParams{
		Invoice: stripe.String(invoiceID),
	}
	listParams.Context = ctx

	iter := r.client.api.InvoicePayments.List(listParams)
	for iter.Next() {
		payment := iter.InvoicePayment()
		if payment.Payment == nil {
			continue
		}

		switch {
		case payment.Payment.Charge != nil:
			return r.getCharge(ctx, payment.Payment.Charge.ID)
		case payment.Payment.PaymentIntent != nil:
			return r.chargeFromPaymentIntent(ctx, payment.Payment.PaymentIntent.ID)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, r.client.providerError(err, "Failed to list invoice payments")
	}
	return nil, nil
}

func (r *invoiceRepository) getCharge(ctx context.Context, chargeID string) (*invoice.Charge, error) {
	if err := r.client.wait(ctx); err != nil {
		return nil, err
	}

	params := &stripe.ChargeParams{}
	params.Context = ctx

	ch, err := r.client.api.Charges.Get(chargeID, params)
	if err != nil {
		return nil, r.client.providerError(err, "Failed to retrieve charge")
	}
	return toCharge(ch), nil
}

func (r *invoiceRepository) chargeFromPaymentIntent(ctx context.Context, paymentIntentID string) (*invoice.Charge, error) {
	if err := r.client.wait(ctx); err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	params.AddExpand("latest_charge")

	pi, err := r.client.api.PaymentIntents.Get(paymentIntentID, params)
	if err != nil {
		return nil, r.client.providerError(err, "Failed to retrieve payment intent")
	}
	if pi.LatestCharge == nil {
		return nil, nil
	}
	return toCharge(pi.LatestCharge), nil
}

func (r *invoiceRepository) UpdateMetadata(ctx context.Context, invoiceID string, metadata types.Metadata) error {
	if err := r.client.wait(ctx); err != nil {
		return err
	}

	params := &stripe.InvoiceParams{}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	if _, err := r.client.api.Invoices.Update(invoiceID, params); err != nil {
		return r.client.providerError(err, "Failed to update invoice metadata")
	}
	return nil
}

func toCharge(ch *stripe.Charge) *invoice.Charge {
	if ch == nil {
		return nil
	}
	converted := &invoice.Charge{
		ID:             ch.ID,
		Amount:         decimal.NewFromInt(ch.Amount),
		AmountRefunded: decimal.NewFromInt(ch.AmountRefunded),
	}
	if ch.PaymentIntent != nil {
		converted.PaymentRef = ch.PaymentIntent.ID
	}
	return converted
}
