package enrollment

import (
	"context"

	"fieldhouse/internal/adapters/storage"
	domain "fieldhouse/internal/domain/enrollment"
	"fieldhouse/internal/domain/program"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new EnrollmentStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// The capacity check and the insert share one statement, so SQLite's write
// lock serialises concurrent admissions and the count cannot go stale.
const assignSQL = `
INSERT INTO enrollment (id, member_id, program_id, source, created_at)
SELECT ?, ?, p.id, ?, ?
FROM program p
WHERE p.id = ?
  AND p.active = 1
  AND (p.max_enrollees IS NULL
       OR (SELECT COUNT(*) FROM enrollment e WHERE e.program_id = p.id) < p.max_enrollees)
ON CONFLICT(member_id, program_id) DO NOTHING`

// Assign conditionally inserts an Enrollment.
// PRE: e has been validated; the member exists
// POST: Row inserted, or one of domain.ErrAlreadyEnrolled, domain.ErrProgramMissing,
// program.ErrDisabled, domain.ErrProgramFull explaining why not
func (s *SQLiteStore) Assign(ctx context.Context, e domain.Enrollment) error {
	res, err := s.db.ExecContext(ctx, assignSQL,
		e.ID, e.MemberID, string(e.Source), storage.FormatTime(e.CreatedAt), e.ProgramID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	return s.explainRejection(ctx, e.MemberID, e.ProgramID)
}

// explainRejection reports why the guarded insert affected no rows. It reads after
// the decision was made, so it only labels the outcome and never admits anyone.
func (s *SQLiteStore) explainRejection(ctx context.Context, memberID, programID string) error {
	var dup int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM enrollment WHERE member_id = ? AND program_id = ?", memberID, programID,
	).Scan(&dup); err != nil {
		return err
	}
	if dup > 0 {
		return domain.ErrAlreadyEnrolled
	}

	var active, found int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(MAX(active), 0) FROM program WHERE id = ?", programID,
	).Scan(&found, &active); err != nil {
		return err
	}
	if found == 0 {
		return domain.ErrProgramMissing
	}
	if active == 0 {
		return program.ErrDisabled
	}
	return domain.ErrProgramFull
}

// Delete removes an Enrollment. Deleting an unknown ID is a no-op.
// PRE: id is non-empty
// POST: No row with id exists
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM enrollment WHERE id = ?", id)
	return err
}

// CountByProgram returns the number of enrollments in a program.
func (s *SQLiteStore) CountByProgram(ctx context.Context, programID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM enrollment WHERE program_id = ?", programID).Scan(&n)
	return n, err
}

// List retrieves all Enrollments, oldest first.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Enrollment, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, member_id, program_id, source, created_at FROM enrollment ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Enrollment
	for rows.Next() {
		var (
			e         domain.Enrollment
			source    string
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.MemberID, &e.ProgramID, &source, &createdAt); err != nil {
			return nil, err
		}
		e.Source = domain.Source(source)
		if e.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
			return nil, err
		}
		results = append(results, e)
	}
	return results, rows.Err()
}
