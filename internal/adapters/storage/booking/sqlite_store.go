package booking

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"fieldhouse/internal/adapters/storage"
	domain "fieldhouse/internal/domain/booking"
)

const bookingColumns = `id, customer_name, customer_email, customer_phone, coach_id,
	preferred_dates, preferred_times, notes, status, payment_session_id, created_at, updated_at, updated_by`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new BookingStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(row scanner) (domain.Booking, error) {
	var (
		b                    domain.Booking
		status               string
		createdAt, updatedAt string
	)
	err := row.Scan(&b.ID, &b.Customer.Name, &b.Customer.Email, &b.Customer.Phone, &b.CoachID,
		&b.Preferences.PreferredDates, &b.Preferences.PreferredTimes, &b.Preferences.Notes,
		&status, &b.PaymentSessionID, &createdAt, &updatedAt, &b.UpdatedBy)
	if err != nil {
		return domain.Booking{}, err
	}
	b.Status = domain.Status(status)
	if b.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Booking{}, err
	}
	if b.UpdatedAt, err = storage.ParseTime(updatedAt); err != nil {
		return domain.Booking{}, err
	}
	return b, nil
}

// Create inserts a new Booking.
// PRE: b has been sanitised and validated
// POST: Booking is persisted
func (s *SQLiteStore) Create(ctx context.Context, b domain.Booking) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO booking ("+bookingColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		b.ID, b.Customer.Name, b.Customer.Email, b.Customer.Phone, b.CoachID,
		b.Preferences.PreferredDates, b.Preferences.PreferredTimes, b.Preferences.Notes,
		string(b.Status), b.PaymentSessionID, storage.FormatTime(b.CreatedAt), storage.FormatTime(b.UpdatedAt), b.UpdatedBy,
	)
	return err
}

// GetByID retrieves a Booking by its ID.
// PRE: id is non-empty
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Booking, error) {
	b, err := scanBooking(s.db.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM booking WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, err
}

// CompareAndSwapStatus applies a status change as one conditional UPDATE.
// PRE: from -> to is an allowed edge
// POST: On success the returned booking carries to, at and actor; on domain.ErrStale
// or domain.ErrNotFound nothing was written
// INVARIANT: Two concurrent swaps from the same state never both succeed
func (s *SQLiteStore) CompareAndSwapStatus(ctx context.Context, id string, from, to domain.Status, actor string, at time.Time) (domain.Booking, error) {
	b, err := scanBooking(s.db.QueryRowContext(ctx,
		`UPDATE booking SET status = ?, updated_at = ?, updated_by = ?
		WHERE id = ? AND status = ?
		RETURNING `+bookingColumns,
		string(to), storage.FormatTime(at), actor, id, string(from),
	))
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := s.GetByID(ctx, id); getErr != nil {
			return domain.Booking{}, getErr
		}
		return domain.Booking{}, domain.ErrStale
	}
	return b, err
}

// List retrieves Bookings, newest first.
// POST: Returns bookings matching every non-empty filter field
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Booking, error) {
	var (
		where []string
		args  []any
	)
	if filter.CoachID != "" {
		where = append(where, "coach_id = ?")
		args = append(args, filter.CoachID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	query := "SELECT " + bookingColumns + " FROM booking"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, b)
	}
	return results, rows.Err()
}
