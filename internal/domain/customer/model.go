package customer

// Customer is the provider-owned customer record the engine reads back after
// creation. Payment method state lives entirely on the provider side.
type Customer struct {
	ID                     string `json:"id"`
	Email                  string `json:"email"`
	DefaultPaymentMethodID string `json:"default_payment_method_id,omitempty"`
}
