package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reservize/billing/internal/api/dto"
	ierr "github.com/reservize/billing/internal/errors"
	"github.com/reservize/billing/internal/logger"
	"github.com/reservize/billing/internal/service"
)

type SubscriptionHandler struct {
	service service.SubscriptionService
	log     *logger.Logger
}

func NewSubscriptionHandler(service service.SubscriptionService, log *logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{service: service, log: log}
}

// CreateSubscription creates the customer's main subscription.
func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	var req dto.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateSubscription(c.Request.Context(), &req)
	if err != nil {
		h.log.Error("Failed to create subscription", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	resp, err := h.service.GetSubscription(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateQuantity reconciles the subscription to the requested secondary
// quantity: charging, refunding or doing nothing per the billing state.
func (h *SubscriptionHandler) UpdateQuantity(c *gin.Context) {
	var req dto.UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	resp, err := h.service.ReconcileQuantity(c.Request.Context(), c.Param("id"), *req.Quantity)
	if err != nil {
		h.log.Error("Failed to reconcile quantity", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
