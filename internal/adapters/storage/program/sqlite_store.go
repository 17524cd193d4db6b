package program

import (
	"context"
	"database/sql"
	"errors"

	"fieldhouse/internal/adapters/storage"
	domain "fieldhouse/internal/domain/program"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new ProgramStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProgram(row scanner) (domain.Program, error) {
	var (
		p      domain.Program
		limit  sql.NullInt64
		active int
	)
	if err := row.Scan(&p.ID, &p.Name, &limit, &active); err != nil {
		return domain.Program{}, err
	}
	if limit.Valid {
		n := int(limit.Int64)
		p.MaxEnrollees = &n
	}
	p.Active = active == 1
	return p, nil
}

func nullLimit(limit *int) sql.NullInt64 {
	if limit == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*limit), Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// GetByID retrieves a Program by its ID.
// PRE: id is non-empty
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Program, error) {
	p, err := scanProgram(s.db.QueryRowContext(ctx, "SELECT id, name, max_enrollees, active FROM program WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Program{}, domain.ErrNotFound
	}
	return p, err
}

// Create inserts a new Program.
// PRE: entity has been validated
// POST: Entity is persisted, or domain.ErrNameTaken if the name is in use
func (s *SQLiteStore) Create(ctx context.Context, p domain.Program) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO program (id, name, max_enrollees, active) VALUES (?, ?, ?, ?) ON CONFLICT(name) DO NOTHING",
		p.ID, p.Name, nullLimit(p.MaxEnrollees), boolInt(p.Active),
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return domain.ErrNameTaken
	}
	return nil
}

// Save updates a Program's name, limit and active flag.
// PRE: entity has been validated
// POST: Row is updated, or domain.ErrNotFound if no such program
func (s *SQLiteStore) Save(ctx context.Context, p domain.Program) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE program SET name = ?, max_enrollees = ?, active = ? WHERE id = ?",
		p.Name, nullLimit(p.MaxEnrollees), boolInt(p.Active), p.ID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List retrieves Programs ordered by name.
// POST: Returns active programs, plus disabled ones when includeInactive is set
func (s *SQLiteStore) List(ctx context.Context, includeInactive bool) ([]domain.Program, error) {
	query := "SELECT id, name, max_enrollees, active FROM program"
	if !includeInactive {
		query += " WHERE active = 1"
	}
	query += " ORDER BY name"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Program
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}
