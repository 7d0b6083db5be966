package service

import (
	"github.com/reservize/billing/internal/cache"
	"github.com/reservize/billing/internal/clock"
	"github.com/reservize/billing/internal/config"
	"github.com/reservize/billing/internal/domain/customer"
	"github.com/reservize/billing/internal/domain/event"
	"github.com/reservize/billing/internal/domain/invoice"
	"github.com/reservize/billing/internal/domain/price"
	"github.com/reservize/billing/internal/domain/refund"
	"github.com/reservize/billing/internal/domain/subscription"
	"github.com/reservize/billing/internal/logger"
)

// ServiceParams bundles the dependencies every service needs. Services embed
// it so wiring stays in one place.
type ServiceParams struct {
	Logger  *logger.Logger
	Config  *config.Configuration
	Clock   clock.Clock
	Cache   cache.Cache
	Catalog *price.Catalog

	CustomerRepo     customer.Repository
	SubscriptionRepo subscription.Repository
	InvoiceRepo      invoice.Repository
	RefundRepo       refund.Repository
	EventRepo        event.Repository
}
