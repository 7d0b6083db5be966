package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/reservize/billing/internal/api"
	"github.com/reservize/billing/internal/cache"
	"github.com/reservize/billing/internal/clock"
	"github.com/reservize/billing/internal/config"
	"github.com/reservize/billing/internal/domain/customer"
	"github.com/reservize/billing/internal/domain/event"
	"github.com/reservize/billing/internal/domain/invoice"
	"github.com/reservize/billing/internal/domain/price"
	"github.com/reservize/billing/internal/domain/refund"
	"github.com/reservize/billing/internal/domain/subscription"
	"github.com/reservize/billing/internal/idempotency"
	"github.com/reservize/billing/internal/integration/stripe"
	"github.com/reservize/billing/internal/logger"
	"github.com/reservize/billing/internal/sentry"
	"github.com/reservize/billing/internal/service"
)

func main() {
	fx.New(
		fx.Provide(
			config.NewConfig,
			logger.NewLogger,
			cache.NewInMemoryCache,
			price.NewCatalog,
			idempotency.NewGenerator,
			stripe.NewClient,
			stripe.NewCustomerRepository,
			stripe.NewSubscriptionRepository,
			stripe.NewInvoiceRepository,
			stripe.NewRefundRepository,
			stripe.NewEventRepository,
			newServiceParams,
			service.NewCustomerService,
			service.NewSubscriptionService,
			service.NewEventService,
			api.NewHandlers,
			api.NewRouter,
		),
		clock.Module,
		fx.Invoke(initSentry),
		fx.Invoke(startServer),
	).Run()
}

func newServiceParams(
	cfg *config.Configuration,
	log *logger.Logger,
	clk clock.Clock,
	c cache.Cache,
	catalog *price.Catalog,
	customerRepo customer.Repository,
	subscriptionRepo subscription.Repository,
	invoiceRepo invoice.Repository,
	refundRepo refund.Repository,
	eventRepo event.Repository,
) service.ServiceParams {
	return service.ServiceParams{
		Logger:           log,
		Config:           cfg,
		Clock:            clk,
		Cache:            c,
		Catalog:          catalog,
		CustomerRepo:     customerRepo,
		SubscriptionRepo: subscriptionRepo,
		InvoiceRepo:      invoiceRepo,
		RefundRepo:       refundRepo,
		EventRepo:        eventRepo,
	}
}

func initSentry(lc fx.Lifecycle, cfg *config.Configuration, log *logger.Logger) error {
	flush, err := sentry.Initialize(cfg, log)
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			flush()
			return nil
		},
	})
	return nil
}

func startServer(lc fx.Lifecycle, router *gin.Engine, cfg *config.Configuration, log *logger.Logger) {
	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Infow("starting server", "address", cfg.Server.Address)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalf("server failed: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping server")
			return server.Shutdown(ctx)
		},
	})
}
