package errors

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

// ErrorDetail is the wire shape of a single error.
type ErrorDetail struct {
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorResponse is the JSON body rendered for any failed API request.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// NewErrorResponse converts any error into the API error body. InternalError
// hints are surfaced; raw messages of unwrapped errors are passed through.
func NewErrorResponse(err error) *ErrorResponse {
	resp := &ErrorResponse{Success: false}

	var internal *InternalError
	if errors.As(err, &internal) {
		resp.Error = ErrorDetail{
			Message: internal.Hint(),
			Details: internal.Details(),
		}
		return resp
	}

	resp.Error = ErrorDetail{Message: err.Error()}
	return resp
}

// HTTPStatusFromErr maps the sentinel taxonomy onto HTTP status codes.
func HTTPStatusFromErr(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidOperation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrProvider):
		return http.StatusBadGateway
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrInternal):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
