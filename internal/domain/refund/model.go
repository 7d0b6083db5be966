package refund

import (
	"github.com/shopspring/decimal"
)

// Refund is the provider record of money returned against a charge.
type Refund struct {
	ID        string          `json:"id"`
	ChargeRef string          `json:"charge_ref"`
	Amount    decimal.Decimal `json:"amount"`
}

// Allocation is one planned refund: an amount to return against a specific
// charge. Amount never exceeds the charge's refundable headroom.
type Allocation struct {
	ChargeRef string          `json:"charge_ref"`
	Amount    decimal.Decimal `json:"amount"`
}

// Plan is the outcome of allocating a requested refund across available
// charge headroom. Invariant: sum(Allocations) + Leftover == Requested.
// Leftover is the portion that could not be covered; it is an expected
// outcome of limited grace-period history, not an error.
type Plan struct {
	Requested   decimal.Decimal `json:"requested"`
	Allocations []Allocation    `json:"allocations"`
	Leftover    decimal.Decimal `json:"leftover"`
}

// Covered returns the total amount the plan refunds.
func (p *Plan) Covered() decimal.Decimal {
	return p.Requested.Sub(p.Leftover)
}

// IsFull reports whether the plan covers the entire requested amount.
func (p *Plan) IsFull() bool {
	return p.Leftover.IsZero()
}
