package refund

import (
	"github.com/shopspring/decimal"

	ierr "github.com/reservize/billing/internal/errors"
)

// Candidate is a charge eligible for refund allocation, in invoice creation
// order (oldest first).
type Candidate struct {
	ChargeRef  string
	AmountLeft decimal.Decimal
}

// AllocateRefund distributes targetAmount across candidate charges, walking
// them in reverse chronological order: the most recent charge is the most
// likely to still be refundable in full. Each charge contributes up to its
// remaining headroom; charges with no headroom are skipped. Whatever cannot
// be covered is reported as Leftover.
func AllocateRefund(candidates []Candidate, targetAmount decimal.Decimal) (*Plan, error) {
	if targetAmount.IsNegative() {
		return nil, ierr.NewError("refund target must be non-negative").
			WithReportableDetails(map[string]interface{}{
				"target_amount": targetAmount.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	plan := &Plan{
		Requested: targetAmount,
		Leftover:  targetAmount,
	}

	remaining := targetAmount
	for i := len(candidates) - 1; i >= 0 && remaining.IsPositive(); i-- {
		c := candidates[i]
		if !c.AmountLeft.IsPositive() {
			continue
		}
		amount := decimal.Min(c.AmountLeft, remaining)
		plan.Allocations = append(plan.Allocations, Allocation{
			ChargeRef: c.ChargeRef,
			Amount:    amount,
		})
		remaining = remaining.Sub(amount)
	}

	plan.Leftover = remaining
	return plan, nil
}
