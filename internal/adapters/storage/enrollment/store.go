package enrollment

import (
	"context"

	domain "fieldhouse/internal/domain/enrollment"
)

// Store persists Enrollment state.
type Store interface {
	// Assign inserts e only if the program is active, has a free slot and the
	// pair is not already enrolled, all in one statement.
	Assign(ctx context.Context, e domain.Enrollment) error
	Delete(ctx context.Context, id string) error
	CountByProgram(ctx context.Context, programID string) (int, error)
	List(ctx context.Context) ([]domain.Enrollment, error)
}
