package event

import "time"

// Event is a provider-side audit event, surfaced for diagnostics only.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}
