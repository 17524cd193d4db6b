package member

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"fieldhouse/internal/adapters/storage"
	domain "fieldhouse/internal/domain/member"
)

const memberColumns = "id, name, email, phone, role, password_hash, created_at, failed_logins, locked_until"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new MemberStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMember(row scanner) (domain.Member, error) {
	var (
		m           domain.Member
		role        string
		createdAt   string
		lockedUntil sql.NullString
	)
	if err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &role, &m.PasswordHash, &createdAt, &m.FailedLogins, &lockedUntil); err != nil {
		return domain.Member{}, err
	}
	m.Role = domain.Role(role)
	var err error
	if m.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Member{}, err
	}
	if lockedUntil.Valid {
		if m.LockedUntil, err = storage.ParseTime(lockedUntil.String); err != nil {
			return domain.Member{}, err
		}
	}
	return m, nil
}

// GetByID retrieves a Member by its ID.
// PRE: id is non-empty
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Member, error) {
	m, err := scanMember(s.db.QueryRowContext(ctx, "SELECT "+memberColumns+" FROM member WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Member{}, domain.ErrNotFound
	}
	return m, err
}

// GetByEmail retrieves a Member by email, ignoring case.
// PRE: email is non-empty
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Member, error) {
	m, err := scanMember(s.db.QueryRowContext(ctx, "SELECT "+memberColumns+" FROM member WHERE email = ?", domain.NormalizeEmail(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Member{}, domain.ErrNotFound
	}
	return m, err
}

// Create inserts a new Member.
// PRE: entity has been validated
// POST: Entity is persisted, or domain.ErrEmailTaken if the address is in use
func (s *SQLiteStore) Create(ctx context.Context, m domain.Member) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO member ("+memberColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT(email) DO NOTHING",
		m.ID, strings.TrimSpace(m.Name), domain.NormalizeEmail(m.Email), m.Phone, string(m.Role), m.PasswordHash,
		storage.FormatTime(m.CreatedAt), m.FailedLogins, nullTime(m),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrEmailTaken
	}
	return nil
}

// Save updates an existing Member's mutable fields.
// PRE: entity has been validated
// POST: Row is updated, or domain.ErrNotFound if no such member
func (s *SQLiteStore) Save(ctx context.Context, m domain.Member) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE member SET name = ?, phone = ?, role = ?, password_hash = ?, failed_logins = ?, locked_until = ? WHERE id = ?`,
		strings.TrimSpace(m.Name), m.Phone, string(m.Role), m.PasswordHash, m.FailedLogins, nullTime(m), m.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List retrieves Members ordered by name.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Member, error) {
	query := "SELECT " + memberColumns + " FROM member"
	var args []any
	if filter.Role != "" {
		query += " WHERE role = ?"
		args = append(args, string(filter.Role))
	}
	query += " ORDER BY name, id"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

// ListAll retrieves every Member ordered by name.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]domain.Member, error) {
	return s.List(ctx, ListFilter{})
}

func nullTime(m domain.Member) sql.NullString {
	if m.LockedUntil.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: storage.FormatTime(m.LockedUntil), Valid: true}
}
