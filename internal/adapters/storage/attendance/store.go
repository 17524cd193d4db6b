package attendance

import (
	"context"

	domain "fieldhouse/internal/domain/attendance"
)

// Store persists attendance Records.
type Store interface {
	// Mark upserts the record for (occurrence, athlete) and returns it as stored.
	Mark(ctx context.Context, r domain.Record) (domain.Record, error)
	Get(ctx context.Context, occ domain.Occurrence, athleteID string) (domain.Record, error)
	ListByAthlete(ctx context.Context, athleteID string) ([]domain.Record, error)
	ListByOccurrence(ctx context.Context, occ domain.Occurrence) ([]domain.Record, error)
}
