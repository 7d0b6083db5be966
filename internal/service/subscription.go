package service

import (
	"context"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"

	"github.com/reservize/billing/internal/api/dto"
	"github.com/reservize/billing/internal/cache"
	"github.com/reservize/billing/internal/domain/invoice"
	"github.com/reservize/billing/internal/domain/price"
	"github.com/reservize/billing/internal/domain/refund"
	"github.com/reservize/billing/internal/domain/subscription"
	ierr "github.com/reservize/billing/internal/errors"
	"github.com/reservize/billing/internal/ledger"
	"github.com/reservize/billing/internal/types"
)

// SubscriptionService owns the quantity reconciliation engine: it decides,
// for a requested secondary-unit quantity, whether the change is free or
// chargeable, how much must be refunded and from which charges, and what the
// tenant's active entitlement becomes.
type SubscriptionService interface {
	CreateSubscription(ctx context.Context, req *dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error)
	GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
	ReconcileQuantity(ctx context.Context, subscriptionID string, requestedQuantity int64) (*dto.ReconcileQuantityResponse, error)
}

type subscriptionService struct {
	ServiceParams
}

func NewSubscriptionService(params ServiceParams) SubscriptionService {
	return &subscriptionService{ServiceParams: params}
}

// CreateSubscription creates the customer's main subscription: one line item
// holding the base unit plus the initial secondary units. When a trial period
// is configured the subscription starts trialing and nothing is charged until
// trial end. The initial entitlement stamp equals the initial quantity.
func (s *subscriptionService) CreateSubscription(ctx context.Context, req *dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	mainPrice, err := s.Catalog.MainPrice(price.BillingPeriod(req.Period))
	if err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	params := subscription.CreateParams{
		CustomerID: req.CustomerID,
		PriceID:    mainPrice.ID,
		Quantity:   req.Quantity + 1,
		Metadata:   ledger.Stamp(req.Quantity, now),
	}
	if trialSeconds := s.Config.Stripe.Subscription.TrialPeriodInSeconds; trialSeconds > 0 {
		trialEnd := now.Add(time.Duration(trialSeconds) * time.Second)
		params.TrialEnd = &trialEnd
	}

	sub, err := s.SubscriptionRepo.Create(ctx, params)
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("created subscription",
		"subscription_id", sub.ID,
		"customer_id", req.CustomerID,
		"period", req.Period,
		"secondary_quantity", req.Quantity,
		"trialing", params.TrialEnd != nil)

	return s.toSubscriptionResponse(sub), nil
}

// GetSubscription returns a read-only snapshot, served from cache when fresh.
func (s *subscriptionService) GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	if id == "" {
		return nil, ierr.NewError("subscription id is required").
			WithHint("Please provide a valid subscription ID").
			Mark(ierr.ErrValidation)
	}

	cacheKey := cache.PrefixSubscription + id
	if cached, found := s.Cache.Get(ctx, cacheKey); found {
		if resp, ok := cache.UnmarshalCacheValue[dto.SubscriptionResponse](cached); ok {
			return resp, nil
		}
	}

	sub, err := s.SubscriptionRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := s.toSubscriptionResponse(sub)
	s.Cache.Set(ctx, cacheKey, resp, cache.DefaultExpiration)
	return resp, nil
}

// ReconcileQuantity drives a subscription to the requested secondary
// quantity. Callers serialize reconciliations per subscription; the engine
// performs a read-modify-write against provider state with no concurrency
// token, and re-running with the same target converges.
func (s *subscriptionService) ReconcileQuantity(ctx context.Context, subscriptionID string, requestedQuantity int64) (*dto.ReconcileQuantityResponse, error) {
	if requestedQuantity < 0 {
		return nil, ierr.NewError("quantity must be non-negative").
			WithHint("Requested quantity cannot be negative").
			WithReportableDetails(map[string]interface{}{
				"subscription_id": subscriptionID,
				"quantity":        requestedQuantity,
			}).
			Mark(ierr.ErrValidation)
	}

	sub, err := s.SubscriptionRepo.Get(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	item := sub.PrimaryItem()
	if item == nil {
		return nil, ierr.NewError("subscription has no line items").
			WithReportableDetails(map[string]interface{}{
				"subscription_id": subscriptionID,
			}).
			Mark(ierr.ErrDataAnomaly)
	}

	now := s.Clock.Now()
	billed := sub.BilledSecondaryQuantity()
	active := s.activeQuantity(sub, billed)

	reconciliationID := types.GenerateUUIDWithPrefix(types.UUID_PREFIX_RECONCILIATION)
	s.Logger.Infow("starting quantity reconciliation",
		"reconciliation_id", reconciliationID,
		"subscription_id", subscriptionID,
		"requested", requestedQuantity,
		"billed", billed,
		"active_quantity", active,
		"trialing", sub.IsTrialing(now))

	defer s.Cache.Delete(ctx, cache.PrefixSubscription+subscriptionID)

	switch {
	case sub.IsTrialing(now):
		return s.reconcileTrial(ctx, sub, item, requestedQuantity, billed, active, now, reconciliationID)
	case requestedQuantity > billed:
		return s.reconcileIncrease(ctx, sub, item, requestedQuantity, billed, active, now, reconciliationID)
	case requestedQuantity < billed:
		return s.reconcileDecrease(ctx, sub, item, requestedQuantity, billed, active, now, reconciliationID)
	default:
		s.Logger.Infow("quantity unchanged, nothing to reconcile",
			"subscription_id", sub.ID,
			"quantity", requestedQuantity)
		return &dto.ReconcileQuantityResponse{
			Subscription: s.toSubscriptionResponse(sub),
			NoOp:         true,
		}, nil
	}
}

// reconcileTrial applies a quantity change during trial. Trial periods are
// never charged, and entitlement only moves forward: a tenant who tried more
// units keeps that allowance until trial end even after requesting fewer.
func (s *subscriptionService) reconcileTrial(ctx context.Context, sub *subscription.Subscription, item *subscription.Item, requested, billed, active int64, now time.Time, reconciliationID string) (*dto.ReconcileQuantityResponse, error) {
	newActive := requested
	if active > newActive {
		newActive = active
	}

	if requested == billed && newActive == active {
		s.Logger.Infow("trial quantity unchanged, nothing to reconcile",
			"subscription_id", sub.ID,
			"quantity", requested)
		return &dto.ReconcileQuantityResponse{
			Subscription: s.toSubscriptionResponse(sub),
			NoOp:         true,
		}, nil
	}

	updated, err := s.SubscriptionRepo.UpdateItem(ctx, subscription.UpdateItemParams{
		SubscriptionID:   sub.ID,
		ItemID:           item.ID,
		PriceID:          item.PriceID,
		Quantity:         requested + 1,
		Proration:        subscription.ProrationBehaviorNone,
		Metadata:         sub.Metadata.Merge(ledger.Stamp(newActive, now)),
		ReconciliationID: reconciliationID,
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("reconciled trial quantity",
		"subscription_id", sub.ID,
		"requested", requested,
		"billed", billed,
		"active_quantity", newActive)

	return &dto.ReconcileQuantityResponse{
		Subscription: s.toSubscriptionResponse(updated),
	}, nil
}

// reconcileIncrease handles an active-state increase. Entitlement banked from
// an earlier uncovered refund is consumed first; only the portion beyond it
// is charged, via an immediate invoice.
func (s *subscriptionService) reconcileIncrease(ctx context.Context, sub *subscription.Subscription, item *subscription.Item, requested, billed, active int64, now time.Time, reconciliationID string) (*dto.ReconcileQuantityResponse, error) {
	excess := active - billed
	stamp := sub.Metadata.Merge(ledger.Stamp(requested, now))

	var updated *subscription.Subscription
	var err error
	switch {
	case excess == 0:
		// Standard case: the whole increase is chargeable.
		updated, err = s.SubscriptionRepo.UpdateItem(ctx, subscription.UpdateItemParams{
			SubscriptionID:   sub.ID,
			ItemID:           item.ID,
			PriceID:          item.PriceID,
			Quantity:         requested + 1,
			Proration:        subscription.ProrationBehaviorImmediateInvoice,
			Metadata:         stamp,
			ReconciliationID: reconciliationID,
		})
	case requested <= active:
		// Fully covered by banked entitlement: no money moves.
		updated, err = s.SubscriptionRepo.UpdateItem(ctx, subscription.UpdateItemParams{
			SubscriptionID:   sub.ID,
			ItemID:           item.ID,
			PriceID:          item.PriceID,
			Quantity:         requested + 1,
			Proration:        subscription.ProrationBehaviorNone,
			Metadata:         stamp,
			ReconciliationID: reconciliationID,
		})
	default:
		// Charge only the portion beyond the banked entitlement, then land on
		// the final quantity without a second charge.
		chargeableTo := requested - excess
		if _, err = s.SubscriptionRepo.UpdateItem(ctx, subscription.UpdateItemParams{
			SubscriptionID:   sub.ID,
			ItemID:           item.ID,
			PriceID:          item.PriceID,
			Quantity:         chargeableTo + 1,
			Proration:        subscription.ProrationBehaviorImmediateInvoice,
			ReconciliationID: reconciliationID,
		}); err != nil {
			return nil, err
		}
		updated, err = s.SubscriptionRepo.UpdateItem(ctx, subscription.UpdateItemParams{
			SubscriptionID:   sub.ID,
			ItemID:           item.ID,
			PriceID:          item.PriceID,
			Quantity:         requested + 1,
			Proration:        subscription.ProrationBehaviorNone,
			Metadata:         stamp,
			ReconciliationID: reconciliationID,
		})
	}
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("reconciled quantity increase",
		"subscription_id", sub.ID,
		"requested", requested,
		"billed", billed,
		"banked_excess", excess)

	return &dto.ReconcileQuantityResponse{
		Subscription: s.toSubscriptionResponse(updated),
	}, nil
}

// reconcileDecrease handles an active-state decrease: compute the refund for
// the removed units, allocate it across grace-window charges, apply the
// quantity change without provider proration, then execute the refunds. The
// refund plan, not the provider's proration engine, is the source of truth
// for money movement.
func (s *subscriptionService) reconcileDecrease(ctx context.Context, sub *subscription.Subscription, item *subscription.Item, requested, billed, active int64, now time.Time, reconciliationID string) (*dto.ReconcileQuantityResponse, error) {
	quantityDiff := billed - requested

	unitPrice, err := s.Catalog.UnitPrice(item.PriceID)
	if err != nil {
		return nil, err
	}
	refundAmount, err := price.ComputeRefundAmount(quantityDiff, unitPrice)
	if err != nil {
		return nil, err
	}

	gracePeriod := time.Duration(s.Config.Stripe.Subscription.GracePeriodInSeconds) * time.Second
	invoices, err := s.InvoiceRepo.List(ctx, invoice.ListParams{
		SubscriptionID: sub.ID,
		CreatedAfter:   now.Add(-gracePeriod),
		ExpandCharges:  true,
	})
	if err != nil {
		return nil, err
	}

	candidates, invoiceByCharge := refundCandidates(invoices)
	plan, err := refund.AllocateRefund(candidates, refundAmount)
	if err != nil {
		return nil, err
	}

	coveredQuantity := plan.Covered().Div(unitPrice)
	if !coveredQuantity.Equal(coveredQuantity.Truncate(0)) {
		return nil, ierr.NewError("refunded amount is not a whole number of units").
			WithHint("The configured unit price does not divide the refunded amount").
			WithReportableDetails(map[string]interface{}{
				"covered":    plan.Covered().String(),
				"unit_price": unitPrice.String(),
			}).
			Mark(ierr.ErrConfiguration)
	}

	// Leftover stays banked: the tenant keeps entitlement for units that
	// could not be refunded until a future decrease or natural expiry.
	newActive := active - coveredQuantity.IntPart()

	updated, err := s.SubscriptionRepo.UpdateItem(ctx, subscription.UpdateItemParams{
		SubscriptionID:   sub.ID,
		ItemID:           item.ID,
		PriceID:          item.PriceID,
		Quantity:         requested + 1,
		Proration:        subscription.ProrationBehaviorNone,
		Metadata:         sub.Metadata.Merge(ledger.Stamp(newActive, now)),
		ReconciliationID: reconciliationID,
	})
	if err != nil {
		return nil, err
	}

	s.executeRefundPlan(ctx, plan, invoiceByCharge, now, reconciliationID)

	s.Logger.Infow("reconciled quantity decrease",
		"subscription_id", sub.ID,
		"requested", requested,
		"billed", billed,
		"refund_requested", plan.Requested.String(),
		"refund_leftover", plan.Leftover.String(),
		"active_quantity", newActive)

	return &dto.ReconcileQuantityResponse{
		Subscription: s.toSubscriptionResponse(updated),
		RefundPlan:   dto.NewRefundPlanResponse(plan),
	}, nil
}

// executeRefundPlan issues one refund per allocation. Failures are per-charge:
// a failed refund is logged and the rest of the plan still runs; the caller
// recovers by re-reconciling, which re-derives the remaining headroom.
func (s *subscriptionService) executeRefundPlan(ctx context.Context, plan *refund.Plan, invoiceByCharge map[string]*invoice.Invoice, now time.Time, reconciliationID string) {
	for _, alloc := range plan.Allocations {
		operation := func() error {
			_, err := s.RefundRepo.Create(ctx, refund.CreateParams{
				ChargeRef:        alloc.ChargeRef,
				Amount:           alloc.Amount,
				ReconciliationID: reconciliationID,
			})
			if err != nil && !ierr.IsProvider(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
		if err := backoff.Retry(operation, policy); err != nil {
			s.Logger.Errorw("refund failed, continuing with remaining plan",
				"charge_ref", alloc.ChargeRef,
				"amount", alloc.Amount.String(),
				"error", err)
			continue
		}

		if inv, ok := invoiceByCharge[alloc.ChargeRef]; ok {
			s.stampRefundedInvoice(ctx, inv, alloc.Amount, now)
		}
	}
}

// stampRefundedInvoice records refund bookkeeping on the invoice. Best
// effort: a metadata failure never fails the reconciliation.
func (s *subscriptionService) stampRefundedInvoice(ctx context.Context, inv *invoice.Invoice, amount decimal.Decimal, now time.Time) {
	metadata := map[string]string{
		"refundedAmount":    amount.String(),
		"refundedTimestamp": strconv.FormatInt(now.Unix(), 10),
	}
	if err := s.InvoiceRepo.UpdateMetadata(ctx, inv.ID, metadata); err != nil {
		s.Logger.Warnw("failed to stamp refunded invoice",
			"invoice_id", inv.ID,
			"error", err)
	}
}

// activeQuantity reads the entitlement stamp, bootstrapping from billed
// quantity for subscriptions that predate the ledger. An entitlement below
// billed quantity means the stamp and billing history diverged; that is
// clamped and reported, never fatal.
func (s *subscriptionService) activeQuantity(sub *subscription.Subscription, billed int64) int64 {
	entry, ok := ledger.Read(sub.Metadata)
	if !ok {
		return billed
	}
	if entry.Quantity < billed {
		s.Logger.Warnw("active quantity below billed quantity, clamping",
			"subscription_id", sub.ID,
			"active_quantity", entry.Quantity,
			"billed_quantity", billed,
			"anomaly", ierr.ErrDataAnomaly.Error())
		return billed
	}
	return entry.Quantity
}

// refundCandidates flattens grace-window invoices into an ordered charge list
// (oldest first) and indexes invoices by charge for bookkeeping. Invoices
// without a settled charge, e.g. trial-period invoices, carry no headroom and
// are skipped.
func refundCandidates(invoices []*invoice.Invoice) ([]refund.Candidate, map[string]*invoice.Invoice) {
	var candidates []refund.Candidate
	invoiceByCharge := make(map[string]*invoice.Invoice)
	for _, inv := range invoices {
		if inv.Charge == nil {
			continue
		}
		candidates = append(candidates, refund.Candidate{
			ChargeRef:  inv.Charge.ID,
			AmountLeft: inv.Charge.AmountLeft(),
		})
		invoiceByCharge[inv.Charge.ID] = inv
	}
	return candidates, invoiceByCharge
}

func (s *subscriptionService) toSubscriptionResponse(sub *subscription.Subscription) *dto.SubscriptionResponse {
	billed := sub.BilledSecondaryQuantity()
	active := billed
	if entry, ok := ledger.Read(sub.Metadata); ok && entry.Quantity > billed {
		active = entry.Quantity
	}
	return &dto.SubscriptionResponse{
		Subscription:   sub,
		BilledQuantity: billed,
		ActiveQuantity: active,
	}
}
