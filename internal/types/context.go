package types

import "context"

type ContextKey string

const (
	CtxRequestID  ContextKey = "ctx_request_id"
	CtxCustomerID ContextKey = "ctx_customer_id"
)

// GetRequestID returns the request ID from the context or an empty string.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(CtxRequestID).(string); ok {
		return requestID
	}
	return ""
}

// GetCustomerID returns the billing customer ID from the context or an empty string.
func GetCustomerID(ctx context.Context) string {
	if customerID, ok := ctx.Value(CtxCustomerID).(string); ok {
		return customerID
	}
	return ""
}

func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, CtxRequestID, requestID)
}
