package attendance

import (
	"context"
	"database/sql"
	"errors"

	"fieldhouse/internal/adapters/storage"
	domain "fieldhouse/internal/domain/attendance"
)

const recordColumns = "id, schedule_id, occurrence_date, athlete_id, status, marked_by, marked_at"

// ErrNotFound is returned when no record exists for the pair.
var ErrNotFound = errors.New("attendance record not found")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new AttendanceStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (domain.Record, error) {
	var (
		r        domain.Record
		status   string
		markedAt string
	)
	if err := row.Scan(&r.ID, &r.Occurrence.ScheduleID, &r.Occurrence.Date, &r.AthleteID, &status, &r.MarkedBy, &markedAt); err != nil {
		return domain.Record{}, err
	}
	r.Status = domain.Status(status)
	var err error
	if r.MarkedAt, err = storage.ParseTime(markedAt); err != nil {
		return domain.Record{}, err
	}
	return r, nil
}

// Mark upserts an attendance record in a single statement.
// PRE: r has been validated
// POST: Exactly one row exists for (occurrence, athlete), carrying r's status, marker and time;
// the returned record keeps the ID of the first mark
func (s *SQLiteStore) Mark(ctx context.Context, r domain.Record) (domain.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO attendance (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(schedule_id, occurrence_date, athlete_id) DO UPDATE SET
			status = excluded.status, marked_by = excluded.marked_by, marked_at = excluded.marked_at
		RETURNING `+recordColumns,
		r.ID, r.Occurrence.ScheduleID, r.Occurrence.Date, r.AthleteID, string(r.Status), r.MarkedBy, storage.FormatTime(r.MarkedAt),
	)
	return scanRecord(row)
}

// Get retrieves the record for (occurrence, athlete).
// POST: Returns the record or ErrNotFound
func (s *SQLiteStore) Get(ctx context.Context, occ domain.Occurrence, athleteID string) (domain.Record, error) {
	r, err := scanRecord(s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM attendance WHERE schedule_id = ? AND occurrence_date = ? AND athlete_id = ?",
		occ.ScheduleID, occ.Date, athleteID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Record{}, ErrNotFound
	}
	return r, err
}

// ListByAthlete retrieves an athlete's records, most recent occurrence first.
// PRE: athleteID is non-empty
// POST: Returns records ordered by occurrence date then mark time, descending
func (s *SQLiteStore) ListByAthlete(ctx context.Context, athleteID string) ([]domain.Record, error) {
	return s.query(ctx,
		"SELECT "+recordColumns+" FROM attendance WHERE athlete_id = ? ORDER BY occurrence_date DESC, marked_at DESC, id",
		athleteID)
}

// ListByOccurrence retrieves the roster marks for one occurrence.
func (s *SQLiteStore) ListByOccurrence(ctx context.Context, occ domain.Occurrence) ([]domain.Record, error) {
	return s.query(ctx,
		"SELECT "+recordColumns+" FROM attendance WHERE schedule_id = ? AND occurrence_date = ? ORDER BY athlete_id",
		occ.ScheduleID, occ.Date)
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
