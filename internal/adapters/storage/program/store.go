package program

import (
	"context"

	domain "fieldhouse/internal/domain/program"
)

// Store persists Program state. Programs are never deleted; Save with Active=false disables one.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Program, error)
	Create(ctx context.Context, value domain.Program) error
	Save(ctx context.Context, value domain.Program) error
	List(ctx context.Context, includeInactive bool) ([]domain.Program, error)
}
