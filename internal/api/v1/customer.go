package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reservize/billing/internal/api/dto"
	ierr "github.com/reservize/billing/internal/errors"
	"github.com/reservize/billing/internal/logger"
	"github.com/reservize/billing/internal/service"
)

type CustomerHandler struct {
	service service.CustomerService
	log     *logger.Logger
}

func NewCustomerHandler(service service.CustomerService, log *logger.Logger) *CustomerHandler {
	return &CustomerHandler{service: service, log: log}
}

// OnboardCustomer creates a provider customer and optionally wires its
// default payment method.
func (h *CustomerHandler) OnboardCustomer(c *gin.Context) {
	var req dto.OnboardCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.OnboardCustomer(c.Request.Context(), &req)
	if err != nil {
		h.log.Error("Failed to onboard customer", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	resp, err := h.service.GetCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	if err := h.service.DeleteCustomer(c.Request.Context(), c.Param("id")); err != nil {
		h.log.Error("Failed to delete customer", "error", err)
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
