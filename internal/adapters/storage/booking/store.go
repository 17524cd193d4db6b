package booking

import (
	"context"
	"time"

	domain "fieldhouse/internal/domain/booking"
)

// Store persists Booking state. It is the only writer of the booking table.
type Store interface {
	Create(ctx context.Context, b domain.Booking) error
	GetByID(ctx context.Context, id string) (domain.Booking, error)
	// CompareAndSwapStatus moves a booking from one status to another only if
	// it is still in from. Returns domain.ErrStale when another writer got there first.
	CompareAndSwapStatus(ctx context.Context, id string, from, to domain.Status, actor string, at time.Time) (domain.Booking, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Booking, error)
}

// ListFilter carries filtering parameters for List operations.
// Empty fields match everything.
type ListFilter struct {
	CoachID string
	Status  domain.Status
	Limit   int
}
