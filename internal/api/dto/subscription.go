package dto

import (
	"github.com/shopspring/decimal"

	"github.com/reservize/billing/internal/domain/price"
	"github.com/reservize/billing/internal/domain/refund"
	"github.com/reservize/billing/internal/domain/subscription"
	ierr "github.com/reservize/billing/internal/errors"
	"github.com/reservize/billing/internal/validator"
)

// CreateSubscriptionRequest creates the main subscription for a customer.
// Quantity is the initial number of secondary units; the base unit is always
// added on top.
type CreateSubscriptionRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
	Period     string `json:"period" validate:"required,oneof=monthly yearly"`
	Quantity   int64  `json:"quantity" validate:"gte=0"`
}

func (r *CreateSubscriptionRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return price.BillingPeriod(r.Period).Validate()
}

// UpdateQuantityRequest sets the target secondary quantity for a
// subscription. Quantity is a pointer so that an explicit zero is
// distinguishable from a missing field.
type UpdateQuantityRequest struct {
	Quantity *int64 `json:"quantity" validate:"required"`
}

func (r *UpdateQuantityRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if *r.Quantity < 0 {
		return ierr.NewError("quantity must be non-negative").
			WithHint("Requested quantity cannot be negative").
			WithReportableDetails(map[string]interface{}{
				"quantity": *r.Quantity,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// SubscriptionResponse is the API view of a subscription snapshot, augmented
// with the derived billing quantities.
type SubscriptionResponse struct {
	*subscription.Subscription
	BilledQuantity int64 `json:"billed_quantity"`
	ActiveQuantity int64 `json:"active_quantity"`
}

// RefundAllocationResponse is one executed or planned refund slice.
type RefundAllocationResponse struct {
	ChargeRef string          `json:"charge_ref"`
	Amount    decimal.Decimal `json:"amount"`
}

// RefundPlanResponse reports how a decrease's refund was distributed.
// Leftover is the uncovered portion banked back into entitlement.
type RefundPlanResponse struct {
	Requested   decimal.Decimal            `json:"requested"`
	Covered     decimal.Decimal            `json:"covered"`
	Leftover    decimal.Decimal            `json:"leftover"`
	Allocations []RefundAllocationResponse `json:"allocations,omitempty"`
}

func NewRefundPlanResponse(plan *refund.Plan) *RefundPlanResponse {
	if plan == nil {
		return nil
	}
	resp := &RefundPlanResponse{
		Requested: plan.Requested,
		Covered:   plan.Covered(),
		Leftover:  plan.Leftover,
	}
	for _, alloc := range plan.Allocations {
		resp.Allocations = append(resp.Allocations, RefundAllocationResponse{
			ChargeRef: alloc.ChargeRef,
			Amount:    alloc.Amount,
		})
	}
	return resp
}

// ReconcileQuantityResponse is the outcome of a quantity reconciliation.
type ReconcileQuantityResponse struct {
	Subscription *SubscriptionResponse `json:"subscription"`
	RefundPlan   *RefundPlanResponse   `json:"refund_plan,omitempty"`
	NoOp         bool                  `json:"no_op"`
}
