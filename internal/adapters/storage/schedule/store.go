package schedule

import (
	"context"

	domain "fieldhouse/internal/domain/schedule"
)

// Store persists Schedule state and per-occurrence registrations.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Schedule, error)
	Save(ctx context.Context, value domain.Schedule) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Schedule, error)

	// Register inserts r only if the occurrence has a free slot. A repeat
	// registration for the same athlete reports alreadyRegistered instead.
	Register(ctx context.Context, r domain.Registration) (alreadyRegistered bool, err error)
	CountRegistrations(ctx context.Context, scheduleID, date string) (int, error)
}
