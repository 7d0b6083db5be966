package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/reservize/billing/internal/cache"
	"github.com/reservize/billing/internal/clock"
	"github.com/reservize/billing/internal/config"
	"github.com/reservize/billing/internal/logger"
	"github.com/reservize/billing/internal/types"
)

// Stores bundles the in-memory repository implementations a service suite
// wires into ServiceParams.
type Stores struct {
	CustomerRepo     *InMemoryCustomerStore
	SubscriptionRepo *InMemorySubscriptionStore
	InvoiceRepo      *InMemoryInvoiceStore
	RefundRepo       *InMemoryRefundStore
	EventRepo        *InMemoryEventStore
}

// BaseServiceTestSuite provides fresh stores, a controllable clock and a test
// configuration for every test.
type BaseServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	cfg    *config.Configuration
	logger *logger.Logger
	clock  *clock.TestClock
	cache  cache.Cache
	stores Stores
}

func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = types.SetRequestID(context.Background(), types.GenerateUUIDWithPrefix(types.UUID_PREFIX_REQUEST))
	s.cfg = GetTestConfig()
	s.logger = logger.GetLogger()
	s.clock = clock.NewTestClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s.cache = cache.NewInMemoryCache()
	s.cache.Flush(s.ctx)

	invoiceStore := NewInMemoryInvoiceStore()
	s.stores = Stores{
		CustomerRepo:     NewInMemoryCustomerStore(),
		SubscriptionRepo: NewInMemorySubscriptionStore(s.clock),
		InvoiceRepo:      invoiceStore,
		RefundRepo:       NewInMemoryRefundStore(invoiceStore),
		EventRepo:        NewInMemoryEventStore(),
	}
}

func (s *BaseServiceTestSuite) GetContext() context.Context      { return s.ctx }
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration { return s.cfg }
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger        { return s.logger }
func (s *BaseServiceTestSuite) GetClock() *clock.TestClock       { return s.clock }
func (s *BaseServiceTestSuite) GetCache() cache.Cache            { return s.cache }
func (s *BaseServiceTestSuite) GetStores() Stores                { return s.stores }

// GetTestConfig returns a configuration with a populated price catalog and
// the policy windows most tests assume: a $10 main monthly unit price, a
// 3-day refund grace window and no trial.
func GetTestConfig() *config.Configuration {
	cfg := config.GetDefaultConfig()
	cfg.Stripe.APIKey = "sk_test_dummy"
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
	cfg.Stripe.Subscription = config.SubscriptionConfig{
		TrialPeriodInSeconds: 0,
		GracePeriodInSeconds: int64((72 * time.Hour).Seconds()),
	}
	return cfg
}
