package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// InternalError is the concrete error produced by the builder. It carries a
// user-presentable hint and structured details alongside the wrapped cause.
type InternalError struct {
	cause   error
	hint    string
	details map[string]interface{}
}

func (e *InternalError) Error() string {
	return e.cause.Error()
}

func (e *InternalError) Unwrap() error {
	return e.cause
}

// Hint returns the user-presentable hint, falling back to the error message.
func (e *InternalError) Hint() string {
	if e.hint != "" {
		return e.hint
	}
	return e.cause.Error()
}

func (e *InternalError) Details() map[string]interface{} {
	return e.details
}

// ErrorBuilder assembles an InternalError fluently:
//
//	ierr.NewError("quantity must be non-negative").
//		WithHint("Requested quantity cannot be negative").
//		WithReportableDetails(map[string]interface{}{"quantity": q}).
//		Mark(ierr.ErrValidation)
type ErrorBuilder struct {
	err *InternalError
}

func NewError(message string) *ErrorBuilder {
	return &ErrorBuilder{err: &InternalError{cause: errors.New(message)}}
}

func NewErrorf(format string, args ...interface{}) *ErrorBuilder {
	return &ErrorBuilder{err: &InternalError{cause: errors.Newf(format, args...)}}
}

func WithError(err error) *ErrorBuilder {
	if err == nil {
		err = errors.New("unknown error")
	}
	return &ErrorBuilder{err: &InternalError{cause: err}}
}

func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.err.hint = hint
	return b
}

func (b *ErrorBuilder) WithHintf(format string, args ...interface{}) *ErrorBuilder {
	b.err.hint = fmt.Sprintf(format, args...)
	return b
}

func (b *ErrorBuilder) WithReportableDetails(details map[string]interface{}) *ErrorBuilder {
	b.err.details = details
	return b
}

// Mark finalizes the builder, marking the error with the given sentinel so
// errors.Is(err, sentinel) holds for the returned error.
func (b *ErrorBuilder) Mark(sentinel error) error {
	b.err.cause = errors.Mark(b.err.cause, sentinel)
	return b.err
}

// Unmarked finalizes the builder without a sentinel. Prefer Mark.
func (b *ErrorBuilder) Unmarked() error {
	return b.err
}
