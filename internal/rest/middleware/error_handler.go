package middleware

import (
	"github.com/gin-gonic/gin"

	ierr "github.com/reservize/billing/internal/errors"
)

// ErrorHandlerMiddleware renders errors attached via c.Error as the standard
// error body, with the HTTP status derived from the error taxonomy.
func ErrorHandlerMiddleware(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 {
		return
	}

	err := c.Errors.Last().Err
	c.JSON(ierr.HTTPStatusFromErr(err), ierr.NewErrorResponse(err))
}
