package api

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/reservize/billing/internal/api/v1"
	"github.com/reservize/billing/internal/config"
	"github.com/reservize/billing/internal/logger"
	"github.com/reservize/billing/internal/rest/middleware"
	"github.com/reservize/billing/internal/service"
)

// Handlers groups the versioned API handlers for router construction.
type Handlers struct {
	Customer     *v1.CustomerHandler
	Subscription *v1.SubscriptionHandler
	Event        *v1.EventHandler
}

func NewHandlers(
	customerService service.CustomerService,
	subscriptionService service.SubscriptionService,
	eventService service.EventService,
	log *logger.Logger,
) Handlers {
	return Handlers{
		Customer:     v1.NewCustomerHandler(customerService, log),
		Subscription: v1.NewSubscriptionHandler(subscriptionService, log),
		Event:        v1.NewEventHandler(eventService, log),
	}
}

// NewRouter wires the gin engine: middleware chain plus the v1 route table.
func NewRouter(handlers Handlers, cfg *config.Configuration, log *logger.Logger) *gin.Engine {
	gin.DefaultWriter = log.GetGinLogger()
	router := gin.New()

	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.LoggingMiddleware(log),
		middleware.ErrorHandlerMiddleware,
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	group := router.Group("/v1")
	{
		group.POST("/customers", handlers.Customer.OnboardCustomer)
		group.GET("/customers/:id", handlers.Customer.GetCustomer)
		group.DELETE("/customers/:id", handlers.Customer.DeleteCustomer)

		group.POST("/subscriptions", handlers.Subscription.CreateSubscription)
		group.GET("/subscriptions/:id", handlers.Subscription.GetSubscription)
		group.PUT("/subscriptions/:id/quantity", handlers.Subscription.UpdateQuantity)

		group.GET("/events", handlers.Event.ListEvents)
	}

	return router
}
