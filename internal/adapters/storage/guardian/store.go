package guardian

import (
	"context"

	domain "fieldhouse/internal/domain/guardian"
)

// Store persists guardian Links.
type Store interface {
	// Link inserts l unless the (guardian, athlete) pair exists, in which case
	// it returns the existing link with alreadyLinked set.
	Link(ctx context.Context, l domain.Link) (stored domain.Link, alreadyLinked bool, err error)
	ListByGuardian(ctx context.Context, guardianID string) ([]domain.Link, error)
	ListByAthlete(ctx context.Context, athleteID string) ([]domain.Link, error)
}
