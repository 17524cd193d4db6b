package schedule

import (
	"context"
	"database/sql"
	"errors"

	"fieldhouse/internal/adapters/storage"
	domain "fieldhouse/internal/domain/schedule"
)

const scheduleColumns = "id, title, description, day, date, start_time, end_time, location, session_type, max_participants"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new ScheduleStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row scanner) (domain.Schedule, error) {
	var (
		s           domain.Schedule
		date        sql.NullString
		sessionType string
		limit       sql.NullInt64
	)
	err := row.Scan(&s.ID, &s.Title, &s.Description, &s.Day, &date, &s.StartTime, &s.EndTime, &s.Location, &sessionType, &limit)
	if err != nil {
		return domain.Schedule{}, err
	}
	s.Date = date.String
	s.SessionType = domain.SessionType(sessionType)
	if limit.Valid {
		n := int(limit.Int64)
		s.MaxParticipants = &n
	}
	return s, nil
}

// GetByID retrieves a Schedule by its ID.
// PRE: id is non-empty
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Schedule, error) {
	entity, err := scanSchedule(s.db.QueryRowContext(ctx, "SELECT "+scheduleColumns+" FROM schedule WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Schedule{}, domain.ErrNotFound
	}
	return entity, err
}

// Save persists a Schedule to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update); day holds the effective weekday
func (s *SQLiteStore) Save(ctx context.Context, e domain.Schedule) error {
	var date sql.NullString
	if e.Date != "" {
		date = sql.NullString{String: e.Date, Valid: true}
	}
	var limit sql.NullInt64
	if e.MaxParticipants != nil {
		limit = sql.NullInt64{Int64: int64(*e.MaxParticipants), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO schedule (`+scheduleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title=excluded.title, description=excluded.description, day=excluded.day,
			date=excluded.date, start_time=excluded.start_time, end_time=excluded.end_time,
			location=excluded.location, session_type=excluded.session_type, max_participants=excluded.max_participants`,
		e.ID, e.Title, e.Description, e.EffectiveDay(), date, e.StartTime, e.EndTime, e.Location, string(e.SessionType), limit,
	)
	return err
}

// Delete removes a Schedule. Attendance and registration rows keep their schedule_id.
// PRE: id is non-empty
// POST: Entity with given id is removed; rows pointing at it are untouched
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM schedule WHERE id = ?", id)
	return err
}

// List retrieves all Schedules ordered by start time.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Schedule, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+scheduleColumns+" FROM schedule ORDER BY start_time, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Schedule
	for rows.Next() {
		entity, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// Counting and inserting happen in one statement so concurrent registrations
// for the last place serialise on SQLite's write lock.
const registerSQL = `
INSERT INTO session_registration (id, schedule_id, occurrence_date, athlete_id, created_at)
SELECT ?, s.id, ?, ?, ?
FROM schedule s
WHERE s.id = ?
  AND (s.max_participants IS NULL
       OR (SELECT COUNT(*) FROM session_registration r
           WHERE r.schedule_id = s.id AND r.occurrence_date = ?) < s.max_participants)
ON CONFLICT(schedule_id, occurrence_date, athlete_id) DO NOTHING`

// Register conditionally inserts a Registration.
// PRE: r has been validated against its schedule
// POST: Row inserted; or alreadyRegistered=true; or domain.ErrSessionFull / domain.ErrNotFound
func (s *SQLiteStore) Register(ctx context.Context, r domain.Registration) (bool, error) {
	res, err := s.db.ExecContext(ctx, registerSQL,
		r.ID, r.Date, r.AthleteID, storage.FormatTime(r.CreatedAt), r.ScheduleID, r.Date,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		return false, nil
	}

	var dup int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM session_registration WHERE schedule_id = ? AND occurrence_date = ? AND athlete_id = ?",
		r.ScheduleID, r.Date, r.AthleteID,
	).Scan(&dup); err != nil {
		return false, err
	}
	if dup > 0 {
		return true, nil
	}
	if _, err := s.GetByID(ctx, r.ScheduleID); err != nil {
		return false, err
	}
	return false, domain.ErrSessionFull
}

// CountRegistrations returns the number of athletes registered for one occurrence.
func (s *SQLiteStore) CountRegistrations(ctx context.Context, scheduleID, date string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM session_registration WHERE schedule_id = ? AND occurrence_date = ?", scheduleID, date,
	).Scan(&n)
	return n, err
}
