package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/reservize/billing/internal/types"
)

const HeaderRequestID = "X-Request-ID"

// RequestIDMiddleware propagates the caller's request ID, generating one when
// absent, and echoes it on the response.
func RequestIDMiddleware(c *gin.Context) {
	requestID := c.GetHeader(HeaderRequestID)
	if requestID == "" {
		requestID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_REQUEST)
	}

	ctx := types.SetRequestID(c.Request.Context(), requestID)
	c.Request = c.Request.WithContext(ctx)
	c.Writer.Header().Set(HeaderRequestID, requestID)
	c.Next()
}
