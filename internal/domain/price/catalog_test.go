package price

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reservize/billing/internal/config"
	ierr "github.com/reservize/billing/internal/errors"
)

func catalogFixture() *Catalog {
	cfg := config.GetDefaultConfig()
	cfg.Stripe.Products = config.ProductsConfig{
		Main: config.ProductConfig{
			ID: "prod_main",
			Monthly: config.PriceConfig{
				ID:         "price_main_monthly",
				UnitAmount: 1000,
				Currency:   "usd",
			},
			Yearly: config.PriceConfig{
				ID:         "price_main_yearly",
				UnitAmount: 10000,
				Currency:   "usd",
			},
		},
		Location: config.ProductConfig{
			ID: "prod_location",
			Monthly: config.PriceConfig{
				ID:         "price_location_monthly",
				UnitAmount: 500,
				Currency:   "usd",
			},
		},
	}
	return NewCatalog(cfg)
}

func TestCatalogUnitPrice(t *testing.T) {
	catalog := catalogFixture()

	amount, err := catalog.UnitPrice("price_main_monthly")
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromInt(1000)))

	amount, err = catalog.UnitPrice("price_location_monthly")
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromInt(500)))
}

func TestCatalogUnitPriceUnknown(t *testing.T) {
	catalog := catalogFixture()

	_, err := catalog.UnitPrice("price_unknown")
	require.Error(t, err)
	assert.True(t, ierr.IsConfiguration(err))
}

func TestCatalogMainPrice(t *testing.T) {
	catalog := catalogFixture()

	monthly, err := catalog.MainPrice(BillingPeriodMonthly)
	require.NoError(t, err)
	assert.Equal(t, "price_main_monthly", monthly.ID)

	yearly, err := catalog.MainPrice(BillingPeriodYearly)
	require.NoError(t, err)
	assert.Equal(t, "price_main_yearly", yearly.ID)
}

func TestCatalogMainPriceInvalidPeriod(t *testing.T) {
	catalog := catalogFixture()

	_, err := catalog.MainPrice(BillingPeriod("weekly"))
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}

func TestComputeRefundAmount(t *testing.T) {
	amount, err := ComputeRefundAmount(2, decimal.NewFromInt(1000))
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromInt(2000)))
}

func TestComputeRefundAmountNonPositiveDelta(t *testing.T) {
	for _, delta := range []int64{0, -3} {
		_, err := ComputeRefundAmount(delta, decimal.NewFromInt(1000))
		require.Error(t, err)
		assert.True(t, ierr.IsValidation(err))
	}
}
