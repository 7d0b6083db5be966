package validator

import (
	"sync"

	"github.com/go-playground/validator/v10"

	ierr "github.com/reservize/billing/internal/errors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// GetValidator returns the shared validator instance.
func GetValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateRequest validates a struct using its validate tags and converts
// failures into the standard validation error shape.
func ValidateRequest(req interface{}) error {
	if err := GetValidator().Struct(req); err != nil {
		return ierr.WithError(err).
			WithHint("Invalid request payload").
			Mark(ierr.ErrValidation)
	}
	return nil
}
