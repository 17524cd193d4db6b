package guardian

import (
	"context"

	"fieldhouse/internal/adapters/storage"
	domain "fieldhouse/internal/domain/guardian"
)

const linkColumns = "id, guardian_id, athlete_id, relationship, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new GuardianLinkStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLink(row scanner) (domain.Link, error) {
	var (
		l            domain.Link
		relationship string
		createdAt    string
	)
	if err := row.Scan(&l.ID, &l.GuardianID, &l.AthleteID, &relationship, &createdAt); err != nil {
		return domain.Link{}, err
	}
	l.Relationship = domain.Relationship(relationship)
	var err error
	if l.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Link{}, err
	}
	return l, nil
}

// Link inserts a guardian link idempotently.
// PRE: l has been validated; both members exist
// POST: Exactly one row exists for (guardian, athlete); alreadyLinked reports whether it predated this call
func (s *SQLiteStore) Link(ctx context.Context, l domain.Link) (domain.Link, bool, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO guardian_link ("+linkColumns+") VALUES (?, ?, ?, ?, ?) ON CONFLICT(guardian_id, athlete_id) DO NOTHING",
		l.ID, l.GuardianID, l.AthleteID, string(l.Relationship), storage.FormatTime(l.CreatedAt),
	)
	if err != nil {
		return domain.Link{}, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Link{}, false, err
	}
	if n == 1 {
		return l, false, nil
	}
	existing, err := scanLink(s.db.QueryRowContext(ctx,
		"SELECT "+linkColumns+" FROM guardian_link WHERE guardian_id = ? AND athlete_id = ?", l.GuardianID, l.AthleteID))
	if err != nil {
		return domain.Link{}, false, err
	}
	return existing, true, nil
}

// ListByGuardian retrieves a guardian's links, oldest first.
func (s *SQLiteStore) ListByGuardian(ctx context.Context, guardianID string) ([]domain.Link, error) {
	return s.query(ctx, "SELECT "+linkColumns+" FROM guardian_link WHERE guardian_id = ? ORDER BY created_at, id", guardianID)
}

// ListByAthlete retrieves the guardians linked to an athlete.
func (s *SQLiteStore) ListByAthlete(ctx context.Context, athleteID string) ([]domain.Link, error) {
	return s.query(ctx, "SELECT "+linkColumns+" FROM guardian_link WHERE athlete_id = ? ORDER BY created_at, id", athleteID)
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.Link, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Link
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, l)
	}
	return results, rows.Err()
}
