package errors

import (
	"github.com/cockroachdb/errors"
)

// Sentinel errors every failure in the system is marked with. Callers branch on
// these with errors.Is rather than string matching.
var (
	// ErrValidation marks rejected input, e.g. a negative target quantity.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks defects in wiring or the price catalog, e.g. an
	// unknown price reference or a unit price that does not divide a refund.
	ErrConfiguration = errors.New("configuration error")
	// ErrProvider marks any billing-provider call failure: network, auth, rate
	// limit, or a rejected request.
	ErrProvider = errors.New("provider error")
	// ErrDataAnomaly marks ledger/billing divergence that is clamped and logged
	// rather than treated as fatal.
	ErrDataAnomaly      = errors.New("data anomaly")
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrInternal         = errors.New("internal error")
)

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func IsProvider(err error) bool {
	return errors.Is(err, ErrProvider)
}
