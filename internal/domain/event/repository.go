package event

import "context"

// Repository lists the most recent provider events, newest first.
type Repository interface {
	List(ctx context.Context, limit int64) ([]*Event, error)
}
