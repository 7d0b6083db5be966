package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/reservize/billing/internal/api/dto"
	"github.com/reservize/billing/internal/domain/invoice"
	"github.com/reservize/billing/internal/domain/price"
	"github.com/reservize/billing/internal/domain/subscription"
	ierr "github.com/reservize/billing/internal/errors"
	"github.com/reservize/billing/internal/ledger"
	"github.com/reservize/billing/internal/testutil"
)

type SubscriptionServiceSuite struct {
	testutil.BaseServiceTestSuite
	service SubscriptionService
	params  ServiceParams
}

func TestSubscriptionService(t *testing.T) {
	suite.Run(t, new(SubscriptionServiceSuite))
}

func (s *SubscriptionServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.params = ServiceParams{
		Logger:           s.GetLogger(),
		Config:           s.GetConfig(),
		Clock:            s.GetClock(),
		Cache:            s.GetCache(),
		Catalog:          price.NewCatalog(s.GetConfig()),
		CustomerRepo:     s.GetStores().CustomerRepo,
		SubscriptionRepo: s.GetStores().SubscriptionRepo,
		InvoiceRepo:      s.GetStores().InvoiceRepo,
		RefundRepo:       s.GetStores().RefundRepo,
		EventRepo:        s.GetStores().EventRepo,
	}
	s.service = NewSubscriptionService(s.params)
}

// createActiveSubscription seeds an active subscription billing the given
// secondary quantity, with the entitlement stamp set to activeQuantity.
func (s *SubscriptionServiceSuite) createActiveSubscription(billed, active int64) *subscription.Subscription {
	sub, err := s.GetStores().SubscriptionRepo.Create(s.GetContext(), subscription.CreateParams{
		CustomerID: "cus_test",
		PriceID:    "price_main_monthly",
		Quantity:   billed + 1,
		Metadata:   ledger.Stamp(active, s.GetClock().Now()),
	})
	s.Require().NoError(err)
	return sub
}

// seedInvoice adds a paid invoice of the given age with the given charge
// amount and full refund headroom.
func (s *SubscriptionServiceSuite) seedInvoice(subscriptionID string, age time.Duration, chargeAmount int64) *invoice.Invoice {
	return s.GetStores().InvoiceRepo.Add(s.GetContext(), &invoice.Invoice{
		SubscriptionID: subscriptionID,
		CreatedAt:      s.GetClock().Now().Add(-age),
		Charge: &invoice.Charge{
			Amount:         decimal.NewFromInt(chargeAmount),
			AmountRefunded: decimal.Zero,
		},
	})
}

func (s *SubscriptionServiceSuite) TestCreateSubscription() {
	resp, err := s.service.CreateSubscription(s.GetContext(), &dto.CreateSubscriptionRequest{
		CustomerID: "cus_test",
		Period:     "monthly",
		Quantity:   3,
	})
	s.NoError(err)
	s.Require().NotNil(resp)

	s.Equal(int64(4), resp.PrimaryItem().Quantity)
	s.Equal(int64(3), resp.BilledQuantity)
	s.Equal(int64(3), resp.ActiveQuantity)
	s.Equal(subscription.StatusActive, resp.Status)
	s.Nil(resp.TrialEnd)

	entry, ok := ledger.Read(resp.Metadata)
	s.Require().True(ok)
	s.Equal(int64(3), entry.Quantity)
}

func (s *SubscriptionServiceSuite) TestCreateSubscriptionWithTrial() {
	s.GetConfig().Stripe.Subscription.TrialPeriodInSeconds = int64((7 * 24 * time.Hour).Seconds())

	resp, err := s.service.CreateSubscription(s.GetContext(), &dto.CreateSubscriptionRequest{
		CustomerID: "cus_test",
		Period:     "yearly",
		Quantity:   5,
	})
	s.NoError(err)
	s.Require().NotNil(resp)

	s.Equal(subscription.StatusTrialing, resp.Status)
	s.Require().NotNil(resp.TrialEnd)
	s.Equal(s.GetClock().Now().Add(7*24*time.Hour), *resp.TrialEnd)
	s.Equal("price_main_yearly", resp.PrimaryItem().PriceID)
}

func (s *SubscriptionServiceSuite) TestCreateSubscriptionInvalidPeriod() {
	resp, err := s.service.CreateSubscription(s.GetContext(), &dto.CreateSubscriptionRequest{
		CustomerID: "cus_test",
		Period:     "weekly",
		Quantity:   3,
	})
	s.Error(err)
	s.Nil(resp)
	s.True(ierr.IsValidation(err))
}

func (s *SubscriptionServiceSuite) TestGetSubscription() {
	sub := s.createActiveSubscription(5, 5)

	resp, err := s.service.GetSubscription(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Require().NotNil(resp)
	s.Equal(int64(5), resp.BilledQuantity)

	resp, err = s.service.GetSubscription(s.GetContext(), "sub_missing")
	s.Error(err)
	s.Nil(resp)
	s.True(ierr.IsNotFound(err))
}

func (s *SubscriptionServiceSuite) TestGetSubscriptionCacheInvalidatedByReconcile() {
	sub := s.createActiveSubscription(5, 5)

	resp, err := s.service.GetSubscription(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Equal(int64(5), resp.BilledQuantity)

	_, err = s.service.ReconcileQuantity(s.GetContext(), sub.ID, 7)
	s.NoError(err)

	resp, err = s.service.GetSubscription(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Equal(int64(7), resp.BilledQuantity)
}

func (s *SubscriptionServiceSuite) TestReconcileNegativeQuantity() {
	resp, err := s.service.ReconcileQuantity(s.GetContext(), "sub_any", -1)
	s.Error(err)
	s.Nil(resp)
	s.True(ierr.IsValidation(err))
}

func (s *SubscriptionServiceSuite) TestReconcileNoOp() {
	sub := s.createActiveSubscription(5, 5)

	resp, err := s.service.ReconcileQuantity(s.GetContext(), sub.ID, 5)
	s.NoError(err)
	s.Require().NotNil(resp)
	s.True(resp.NoOp)
	s.Nil(resp.RefundPlan)
	s.Empty(s.GetStores().SubscriptionRepo.Updates())
	s.Empty(s.GetStores().RefundRepo.Refunds(s.GetContext()))
}

func (s *SubscriptionServiceSuite) TestReconcileDecreaseFullRefund() {
	// Billed 5 units at $10, one $50 charge 2 days old, 3-day grace window.
	sub := s.createActiveSubscription(5, 5)
	inv := s.seedInvoice(sub.ID, 48*time.Hour, 5000)

	resp, err := s.service.ReconcileQuantity(s.GetContext(), sub.ID, 3)
	s.NoError(err)
	s.Require().NotNil(resp)

	s.False(resp.NoOp)
	s.Equal(int64(3), resp.Subscription.BilledQuantity)
	s.Equal(int64(3), resp.Subscription.ActiveQuantity)
	s.Equal(int64(4), resp.Subscription.PrimaryItem().Quantity)

	s.Require().NotNil(resp.RefundPlan)
	s.True(resp.RefundPlan.Requested.Equal(decimal.NewFromInt(2000)))
	s.True(resp.RefundPlan.Leftover.IsZero())
	s.Require().Len(resp.RefundPlan.Allocations, 1)
	s.Equal(inv.Charge.ID, resp.RefundPlan.Allocations[0].ChargeRef)

	refunds := s.GetStores().RefundRepo.Refunds(s.GetContext())
	s.Require().Len(refunds, 1)
	s.True(refunds[0].Amount.Equal(decimal.NewFromInt(2000)))
	s.Equal(inv.Charge.ID, refunds[0].ChargeRef)

	updates := s.GetStores().SubscriptionRepo.Updates()
	s.Require().Len(updates, 1)
	s.Equal(subscription.ProrationBehaviorNone, updates[0].Proration)

	metadata := s.GetStores().InvoiceRepo.Metadata(inv.ID)
	s.Equal("2000", metadata["refundedAmount"])
}

func (s *SubscriptionServiceSuite) TestReconcileDecreaseOutsideGraceWindow() {
	// The only charge is 5 days old; with a 3-day grace window nothing is
	// refundable and the tenant keeps the entitlement.
	sub := s.createActiveSubscription(5, 5)
	s.seedInvoice(sub.ID, 5*24*time.Hour, 5000)

	resp, err := s.service.ReconcileQuantity(s.GetContext(), sub.ID, 3)
	s.NoError(err)
	s.Require().NotNil(resp)

	s.Equal(int64(3), resp.Subscription.BilledQuantity)
	s.Equal(int64(5), resp.Subscription.ActiveQuantity)

	s.Require().NotNil(resp.RefundPlan)
	s.True(resp.RefundPlan.Leftover.Equal(decimal.NewFromInt(2000)))
	s.Empty(resp.RefundPlan.Allocations)
	s.Empty(s.GetStores().RefundRepo.Refunds(s.GetContext()))
}

func (s *SubscriptionServiceSuite) TestReconcileDecreasePartialCoverage() {
	// Only $10 of headroom is inside the window against a $20 refund; one
	// unit is refunded, one stays banked.
	sub := s.createActiveSubscription(5, 5)
	s.seedInvoice(sub.ID, 24*time.Hour, 1000)

	resp, err := s.service.ReconcileQuantity(s.GetContext(), sub.ID, 3)
	s.NoError(err)
	s.Require().NotNil(resp)

	s.Equal(int64(3), resp.Subscription.BilledQuantity)
	s.Equal(int64(4), resp.Subscription.ActiveQuantity)

	s.Require().NotNil(resp.RefundPlan)
	s.True(resp.RefundPlan.Covered.Equal(decimal.NewFromInt(1000)))
	s.True(resp.RefundPlan.Leftover.Equal(decimal.NewFromInt(1000)))

	refunds := s.GetStores().RefundRepo.Refunds(s.GetContext())
	s.Require().Len(refunds, 1)
	s.True(refunds[0].Amount.Equal(decimal.NewFromInt(1000)))
}

func (s *SubscriptionServiceSuite) TestReconcileDecreaseNewestChargeFirst() {
	sub := s.createActiveSubscription(5, 5)
	older := s.seedInvoice(sub.ID, 60*time.Hour, 3000)
	newer := s.seedInvoice(sub.ID, 12*time.Hour, 1000)

	resp, err := s.service.ReconcileQuantity(s.GetContext(), sub.ID, 2)
	s.NoError(err)
	s.Require().NotNil(resp)

	s.Require().NotNil(resp.RefundPlan)
	s.Require().Len(resp.RefundPlan.Allocations, 2)
	s.Equal(newer.Charge.ID, resp.RefundPlan.Allocations[0].ChargeRef)
	s.True(resp.RefundPlan.Allocations[0].Amount.Equal(decimal.NewFromInt(1000)))
	s.Equal(older.Charge.ID, resp.RefundPlan.Allocations[1].ChargeRef)
	s.True(resp.RefundPlan.Allocations[1].Amount.Equal(decimal.NewFromInt(2000)))
	s.True(resp.RefundPlan.Leftover.IsZero())
}

func (s *SubscriptionServiceSuite) TestReconcileDecreaseSkipsUnsettledInvoices() {
	sub := s.createActiveSubscription(5, 5)
	s.GetStores().InvoiceRepo.Add(s.GetContext(), &invoice.Invoice{
		SubscriptionID: sub.ID,
		CreatedAt:      s.GetClock().Now().Add(-24 * time.Hour),
	})
	paid := s.seedInvoice(sub.ID, 36*time.Hour, 5000)

	resp, err := s.service.ReconcileQuantity(s.GetContext(), sub.ID, 4)
	s.NoError(err)

	s.Require().NotNil(resp.RefundPlan)
	s.Require().Len(resp.RefundPlan.Allocations, 1)
	s.Equal(paid.Charge.ID, resp.RefundPlan.Allocations[0].ChargeRef)
}

func (s *SubscriptionServiceSuite) TestReconcileIncreaseStandard() {
	sub := s.createActiveSubscription(3, 3)

	resp, err := s.service.ReconcileQuantity(s.GetContext(), sub.ID, 5)
	s.NoError(err)
	s.Require().NotNil(resp)

	s.Equal(int64(5), resp.Subscription.BilledQuantity)
	s.Equal(int64(5), resp.Subscription.ActiveQuantity)
	s.Nil(resp.RefundPlan)

	updates := s.GetStores().SubscriptionRepo.Updates()
	s.Require().Len(updates, 1)
	s.Equal(int64(6), updates[0].Quantity)
	s.Equal(subscription.ProrationBehaviorImmediateInvoice, updates[0].Proration)
}

func (s *SubscriptionServiceSuite) TestReconcileIncreaseCoveredByBankedEntitlement() {
	// Two units banked from an uncovered refund: moving billed up within the
	// entitlement charges nothing.
	sub := s.createActiveSubscription(3, 5)

	resp, err := s.service.ReconcileQuantity(s.GetContext(), sub.ID, 5)
	s.NoError(err)
	s.Require().NotNil(resp)

	s.Equal(int64(5), resp.Subscription.BilledQuantity)
	s.Equal(int64(5), resp.Subscription.ActiveQuantity)

	updates := s.GetStores().SubscriptionRepo.Updates()
	s.Require().Len(updates, 1)
	s.Equal(int64(6), updates[0].Quantity)
	s.Equal(subscription.ProrationBehaviorNone, updates[0].Proration)
	s.Empty(s.GetStores().RefundRepo.Refunds(s.GetContext()))
}

func (s *SubscriptionServiceSuite) TestReconcileIncreaseBeyondBankedEntitlement() {
	// Banked 2 units; increase 3->7 charges only the 2 units beyond the bank,
	// then lands on the final quantity without a second charge.
	sub := s.createActiveSubscription(3, 5)

	resp, err := s.service.ReconcileQuantity(s.GetContext(), sub.ID, 7)
	s.NoError(err)
	s.Require().NotNil(resp)

	s.Equal(int64(7), resp.Subscription.BilledQuantity)
	s.Equal(int64(7), resp.Subscription.ActiveQuantity)

	updates := s.GetStores().SubscriptionRepo.Updates()
	s.Require().Len(updates, 2)
	s.Equal(int64(6), updates[0].Quantity)
	s.Equal(subscription.ProrationBehaviorImmediateInvoice, updates[0].Proration)
	s.Equal(int64(8), updates[1].Quantity)
	s.Equal(subscription.ProrationBehaviorNone, updates[1].Proration)

	// Both halves of the split belong to the same run, so a retry of the
	// whole reconciliation dedupes cleanly against both.
	s.NotEmpty(updates[0].ReconciliationID)
	s.Equal(updates[0].ReconciliationID, updates[1].ReconciliationID)
}

func (s *SubscriptionServiceSuite) TestReconcileTrialEntitlementIsMonotonic() {
	// Trial at 5, down to 3, back up to 4: nothing is ever charged or
	// refunded, and the entitlement high-water mark stays at 5.
	s.GetConfig().Stripe.Subscription.TrialPeriodInSeconds = int64((14 * 24 * time.Hour).Seconds())

	created, err := s.service.CreateSubscription(s.GetContext(), &dto.CreateSubscriptionRequest{
		CustomerID: "cus_test",
		Period:     "monthly",
		Quantity:   5,
	})
	s.Require().NoError(err)

	resp, err := s.service.ReconcileQuantity(s.GetContext(), created.ID, 3)
	s.NoError(err)
	s.Equal(int64(3), resp.Subscription.BilledQuantity)
	s.Equal(int64(5), resp.Subscription.ActiveQuantity)

	resp, err = s.service.ReconcileQuantity(s.GetContext(), created.ID, 4)
	s.NoError(err)
	s.Equal(int64(4), resp.Subscription.BilledQuantity)
	s.Equal(int64(5), resp.Subscription.ActiveQuantity)

	s.Empty(s.GetStores().RefundRepo.Refunds(s.GetContext()))
	for _, update := range s.GetStores().SubscriptionRepo.Updates() {
		s.Equal(subscription.ProrationBehaviorNone, update.Proration)
	}
}

func (s *SubscriptionServiceSuite) TestReconcileTrialEndsNaturally() {
	s.GetConfig().Stripe.Subscription.TrialPeriodInSeconds = int64((24 * time.Hour).Seconds())

	created, err := s.service.CreateSubscription(s.GetContext(), &dto.CreateSubscriptionRequest{
		CustomerID: "cus_test",
		Period:     "monthly",
		Quantity:   3,
	})
	s.Require().NoError(err)

	s.GetClock().Advance(48 * time.Hour)

	_, err = s.service.ReconcileQuantity(s.GetContext(), created.ID, 5)
	s.NoError(err)

	updates := s.GetStores().SubscriptionRepo.Updates()
	s.Require().Len(updates, 1)
	s.Equal(subscription.ProrationBehaviorImmediateInvoice, updates[0].Proration)
}

func (s *SubscriptionServiceSuite) TestReconcileRoundTripRestoresEntitlement() {
	// Increase then decrease back with full grace coverage: the entitlement
	// returns to its original value and nothing is left uncovered.
	sub := s.createActiveSubscription(5, 5)
	s.seedInvoice(sub.ID, 48*time.Hour, 5000)

	_, err := s.service.ReconcileQuantity(s.GetContext(), sub.ID, 7)
	s.Require().NoError(err)

	// The provider would invoice the prorated increase; mirror that here.
	increaseInvoice := s.seedInvoice(sub.ID, 0, 2000)

	resp, err := s.service.ReconcileQuantity(s.GetContext(), sub.ID, 5)
	s.NoError(err)
	s.Require().NotNil(resp)

	s.Equal(int64(5), resp.Subscription.BilledQuantity)
	s.Equal(int64(5), resp.Subscription.ActiveQuantity)
	s.Require().NotNil(resp.RefundPlan)
	s.True(resp.RefundPlan.Leftover.IsZero())
	s.Require().Len(resp.RefundPlan.Allocations, 1)
	s.Equal(increaseInvoice.Charge.ID, resp.RefundPlan.Allocations[0].ChargeRef)
	s.True(resp.RefundPlan.Allocations[0].Amount.Equal(decimal.NewFromInt(2000)))
}

func (s *SubscriptionServiceSuite) TestReconcileConvergesOnRetry() {
	sub := s.createActiveSubscription(5, 5)
	s.seedInvoice(sub.ID, 48*time.Hour, 5000)

	_, err := s.service.ReconcileQuantity(s.GetContext(), sub.ID, 3)
	s.Require().NoError(err)

	resp, err := s.service.ReconcileQuantity(s.GetContext(), sub.ID, 3)
	s.NoError(err)
	s.True(resp.NoOp)

	s.Len(s.GetStores().RefundRepo.Refunds(s.GetContext()), 1)
	s.Len(s.GetStores().SubscriptionRepo.Updates(), 1)
}

func (s *SubscriptionServiceSuite) TestReconcileTrialConvergesOnRetry() {
	// During the trial, retrying the current quantity must not touch the
	// provider: the bumped quantity already matches and the stamp is current.
	s.GetConfig().Stripe.Subscription.TrialPeriodInSeconds = int64((14 * 24 * time.Hour).Seconds())

	created, err := s.service.CreateSubscription(s.GetContext(), &dto.CreateSubscriptionRequest{
		CustomerID: "cus_test",
		Period:     "monthly",
		Quantity:   5,
	})
	s.Require().NoError(err)

	resp, err := s.service.ReconcileQuantity(s.GetContext(), created.ID, 5)
	s.NoError(err)
	s.Require().NotNil(resp)
	s.True(resp.NoOp)
	s.Empty(s.GetStores().SubscriptionRepo.Updates())

	_, err = s.service.ReconcileQuantity(s.GetContext(), created.ID, 3)
	s.Require().NoError(err)
	s.Len(s.GetStores().SubscriptionRepo.Updates(), 1)

	resp, err = s.service.ReconcileQuantity(s.GetContext(), created.ID, 3)
	s.NoError(err)
	s.True(resp.NoOp)
	s.Len(s.GetStores().SubscriptionRepo.Updates(), 1)
}

func (s *SubscriptionServiceSuite) TestReconcileScopesMutationsPerRun() {
	// Two independent decreases refund the same amount from the same charge.
	// Each run must carry its own reconciliation id so the provider does not
	// dedupe the second refund against the first.
	sub := s.createActiveSubscription(5, 5)
	s.seedInvoice(sub.ID, 48*time.Hour, 5000)

	_, err := s.service.ReconcileQuantity(s.GetContext(), sub.ID, 4)
	s.Require().NoError(err)
	_, err = s.service.ReconcileQuantity(s.GetContext(), sub.ID, 3)
	s.Require().NoError(err)

	creates := s.GetStores().RefundRepo.Creates()
	s.Require().Len(creates, 2)
	s.Equal(creates[0].ChargeRef, creates[1].ChargeRef)
	s.True(creates[0].Amount.Equal(creates[1].Amount))
	s.NotEmpty(creates[0].ReconciliationID)
	s.NotEmpty(creates[1].ReconciliationID)
	s.NotEqual(creates[0].ReconciliationID, creates[1].ReconciliationID)

	updates := s.GetStores().SubscriptionRepo.Updates()
	s.Require().Len(updates, 2)
	s.Equal(creates[0].ReconciliationID, updates[0].ReconciliationID)
	s.Equal(creates[1].ReconciliationID, updates[1].ReconciliationID)
}

func (s *SubscriptionServiceSuite) TestReconcileRefundFailureContinuesPlan() {
	// One refund in the plan fails; the quantity change stands and the
	// remaining refunds still execute.
	sub := s.createActiveSubscription(5, 5)
	older := s.seedInvoice(sub.ID, 60*time.Hour, 3000)
	newer := s.seedInvoice(sub.ID, 12*time.Hour, 3000)
	s.GetStores().RefundRepo.FailWith(newer.Charge.ID,
		ierr.NewError("charge is disputed").Mark(ierr.ErrInvalidOperation))

	resp, err := s.service.ReconcileQuantity(s.GetContext(), sub.ID, 1)
	s.NoError(err)
	s.Require().NotNil(resp)

	s.Equal(int64(1), resp.Subscription.BilledQuantity)

	refunds := s.GetStores().RefundRepo.Refunds(s.GetContext())
	s.Require().Len(refunds, 1)
	s.Equal(older.Charge.ID, refunds[0].ChargeRef)
	s.True(refunds[0].Amount.Equal(decimal.NewFromInt(1000)))
}

func (s *SubscriptionServiceSuite) TestReconcileClampsDivergedEntitlement() {
	// A stamp below the billed quantity is a data anomaly; the engine clamps
	// it to billed instead of failing.
	sub := s.createActiveSubscription(5, 2)
	s.seedInvoice(sub.ID, 24*time.Hour, 5000)

	resp, err := s.service.ReconcileQuantity(s.GetContext(), sub.ID, 4)
	s.NoError(err)
	s.Require().NotNil(resp)

	s.Equal(int64(4), resp.Subscription.BilledQuantity)
	s.Equal(int64(4), resp.Subscription.ActiveQuantity)
}

func (s *SubscriptionServiceSuite) TestReconcileBootstrapsUnstampedSubscription() {
	sub, err := s.GetStores().SubscriptionRepo.Create(s.GetContext(), subscription.CreateParams{
		CustomerID: "cus_test",
		PriceID:    "price_main_monthly",
		Quantity:   6,
	})
	s.Require().NoError(err)
	s.seedInvoice(sub.ID, 24*time.Hour, 5000)

	resp, err := s.service.ReconcileQuantity(s.GetContext(), sub.ID, 3)
	s.NoError(err)
	s.Require().NotNil(resp)

	s.Equal(int64(3), resp.Subscription.BilledQuantity)
	s.Equal(int64(3), resp.Subscription.ActiveQuantity)

	entry, ok := ledger.Read(resp.Subscription.Metadata)
	s.Require().True(ok)
	s.Equal(int64(3), entry.Quantity)
}

func (s *SubscriptionServiceSuite) TestReconcileUnknownPriceReference() {
	sub, err := s.GetStores().SubscriptionRepo.Create(s.GetContext(), subscription.CreateParams{
		CustomerID: "cus_test",
		PriceID:    "price_unconfigured",
		Quantity:   6,
	})
	s.Require().NoError(err)

	resp, err := s.service.ReconcileQuantity(s.GetContext(), sub.ID, 3)
	s.Error(err)
	s.Nil(resp)
	s.True(ierr.IsConfiguration(err))
}
