package stripe

import (
	"context"

	"github.com/shopspring/decimal"
	stripe "github.com/stripe/stripe-go/v82"

	"github.com/reservize/billing/internal/domain/refund"
	ierr "github.com/reservize/billing/internal/errors"
	"github.com/reservize/billing/internal/idempotency"
)

type refundRepository struct {
	client *Client
}

// NewRefundRepository returns the Stripe-backed refund repository.
func NewRefundRepository(client *Client) refund.Repository {
	return &refundRepository{client: client}
}

func (r *refundRepository) Create(ctx context.Context, p refund.CreateParams) (*refund.Refund, error) {
	if !p.Amount.IsPositive() {
		return nil, ierr.NewError("refund amount must be positive").
			WithReportableDetails(map[string]interface{}{
				"charge_ref": p.ChargeRef,
				"amount":     p.Amount.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	if !p.Amount.Equal(p.Amount.Truncate(0)) {
		return nil, ierr.NewError("refund amount must be a whole number of minor units").
			WithReportableDetails(map[string]interface{}{
				"amount": p.Amount.String(),
			}).
			Mark(ierr.ErrConfiguration)
	}

	if err := r.client.wait(ctx); err != nil {
		return nil, err
	}

	params := &stripe.RefundParams{
		Charge: stripe.String(p.ChargeRef),
		Amount: stripe.Int64(p.Amount.IntPart()),
	}
	params.Context = ctx
	params.SetIdempotencyKey(r.client.idempotency.GenerateKey(idempotency.ScopeRefund, map[string]interface{}{
		"charge_ref":        p.ChargeRef,
		"amount":            p.Amount.String(),
		"reconciliation_id": p.ReconciliationID,
	}))

	created, err := r.client.api.Refunds.New(params)
	if err != nil {
		return nil, r.client.providerError(err, "Failed to create refund")
	}

	r.client.logger.Infow("created provider refund",
		"refund_id", created.ID,
		"charge_ref", p.ChargeRef,
		"amount", p.Amount.String())

	return &refund.Refund{
		ID:        created.ID,
		ChargeRef: p.ChargeRef,
		Amount:    decimal.NewFromInt(created.Amount),
	}, nil
}
