package price

import (
	"github.com/shopspring/decimal"

	"github.com/reservize/billing/internal/config"
	ierr "github.com/reservize/billing/internal/errors"
)

// BillingPeriod selects between the monthly and yearly price of a product.
type BillingPeriod string

const (
	BillingPeriodMonthly BillingPeriod = "monthly"
	BillingPeriodYearly  BillingPeriod = "yearly"
)

func (p BillingPeriod) Validate() error {
	switch p {
	case BillingPeriodMonthly, BillingPeriodYearly:
		return nil
	default:
		return ierr.NewErrorf("invalid billing period: %s", p).
			WithHint("Billing period must be monthly or yearly").
			Mark(ierr.ErrValidation)
	}
}

// Price is one configured provider price. UnitAmount is expressed in the
// currency's minor units (cents for USD).
type Price struct {
	ID         string
	ProductID  string
	Period     BillingPeriod
	UnitAmount decimal.Decimal
	Currency   string
}

// Catalog resolves price references to configured per-unit amounts. The
// catalog is static for the lifetime of the process; prices are owned by the
// provider and referenced by ID.
type Catalog struct {
	prices map[string]*Price
	main   map[BillingPeriod]*Price
}

// NewCatalog builds the catalog from configuration.
func NewCatalog(cfg *config.Configuration) *Catalog {
	c := &Catalog{
		prices: make(map[string]*Price),
		main:   make(map[BillingPeriod]*Price),
	}
	c.addProduct(cfg.Stripe.Products.Main, true)
	c.addProduct(cfg.Stripe.Products.Location, false)
	return c
}

func (c *Catalog) addProduct(product config.ProductConfig, isMain bool) {
	for period, pc := range map[BillingPeriod]config.PriceConfig{
		BillingPeriodMonthly: product.Monthly,
		BillingPeriodYearly:  product.Yearly,
	} {
		if pc.ID == "" {
			continue
		}
		p := &Price{
			ID:         pc.ID,
			ProductID:  product.ID,
			Period:     period,
			UnitAmount: decimal.NewFromInt(pc.UnitAmount),
			Currency:   pc.Currency,
		}
		c.prices[p.ID] = p
		if isMain {
			c.main[period] = p
		}
	}
}

// UnitPrice returns the configured per-unit amount for a price reference.
func (c *Catalog) UnitPrice(priceID string) (decimal.Decimal, error) {
	p, ok := c.prices[priceID]
	if !ok {
		return decimal.Zero, ierr.NewError("unknown price reference").
			WithHint("Price is not present in the configured catalog").
			WithReportableDetails(map[string]interface{}{
				"price_id": priceID,
			}).
			Mark(ierr.ErrConfiguration)
	}
	return p.UnitAmount, nil
}

// MainPrice returns the main product price for the given billing period.
func (c *Catalog) MainPrice(period BillingPeriod) (*Price, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	p, ok := c.main[period]
	if !ok {
		return nil, ierr.NewErrorf("main product has no %s price configured", period).
			Mark(ierr.ErrConfiguration)
	}
	return p, nil
}

// ComputeRefundAmount returns quantityDelta * unitPrice. The delta must be
// strictly positive; refunds are only computed for decreases.
func ComputeRefundAmount(quantityDelta int64, unitPrice decimal.Decimal) (decimal.Decimal, error) {
	if quantityDelta <= 0 {
		return decimal.Zero, ierr.NewError("quantity delta must be positive").
			WithHint("Refund amounts are only derived from quantity decreases").
			WithReportableDetails(map[string]interface{}{
				"quantity_delta": quantityDelta,
			}).
			Mark(ierr.ErrValidation)
	}
	return unitPrice.Mul(decimal.NewFromInt(quantityDelta)), nil
}
