package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	ierr "github.com/reservize/billing/internal/errors"
	"github.com/reservize/billing/internal/logger"
	"github.com/reservize/billing/internal/service"
)

type EventHandler struct {
	service service.EventService
	log     *logger.Logger
}

func NewEventHandler(service service.EventService, log *logger.Logger) *EventHandler {
	return &EventHandler{service: service, log: log}
}

// ListEvents returns recent provider events for diagnostics.
func (h *EventHandler) ListEvents(c *gin.Context) {
	var limit int64
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.Error(ierr.WithError(err).
				WithHint("limit must be an integer").
				Mark(ierr.ErrValidation))
			return
		}
		limit = parsed
	}

	resp, err := h.service.ListEvents(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("Failed to list events", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
