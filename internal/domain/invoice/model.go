package invoice

import (
	"time"

	"github.com/shopspring/decimal"
)

// Charge is money collected against an invoice. Amounts are in the currency's
// minor units. AmountRefunded never exceeds Amount; the refundable headroom is
// the difference.
type Charge struct {
	ID             string          `json:"id"`
	Amount         decimal.Decimal `json:"amount"`
	AmountRefunded decimal.Decimal `json:"amount_refunded"`
	PaymentRef     string          `json:"payment_ref,omitempty"`
}

// AmountLeft returns the refundable headroom on the charge.
func (c *Charge) AmountLeft() decimal.Decimal {
	return c.Amount.Sub(c.AmountRefunded)
}

// LineItem is one line of an invoice.
type LineItem struct {
	Amount      decimal.Decimal `json:"amount"`
	Quantity    int64           `json:"quantity"`
	PeriodStart time.Time       `json:"period_start"`
}

// Invoice is the read model of one provider charge cycle. Charge is nil for
// invoices that collected no money, e.g. trial-period invoices.
type Invoice struct {
	ID             string      `json:"id"`
	SubscriptionID string      `json:"subscription_id"`
	CreatedAt      time.Time   `json:"created_at"`
	Lines          []*LineItem `json:"lines,omitempty"`
	Charge         *Charge     `json:"charge,omitempty"`
}
