package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	_ "modernc.org/sqlite"
)

// BusyTimeout bounds how long a writer waits on SQLite's lock before failing.
const BusyTimeout = 5 * time.Second

// Open opens the SQLite database at path with the pragmas every store relies on:
// WAL journaling, a busy timeout, foreign keys and immediate write transactions.
// PRE: path is a file path (not ":memory:"; each pooled connection would get its own database)
// POST: Returns a pooled *sql.DB; the caller runs MigrateDB before use
func Open(path string) (*sql.DB, error) {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", BusyTimeout.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "synchronous(NORMAL)")
	q.Set("_txlock", "immediate")

	db, err := sql.Open("sqlite", "file:"+path+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}
	return db, nil
}

// migration is one forward-only schema step. Steps use IF NOT EXISTS so a
// database created before version tracking can be adopted in place.
type migration struct {
	version     int
	description string
	statements  []string
}

var migrations = []migration{
	{
		version:     1,
		description: "baseline",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS member (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				email TEXT NOT NULL UNIQUE COLLATE NOCASE,
				phone TEXT NOT NULL DEFAULT '',
				role TEXT NOT NULL,
				password_hash TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL,
				failed_logins INTEGER NOT NULL DEFAULT 0,
				locked_until TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS program (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL UNIQUE,
				max_enrollees INTEGER,
				active INTEGER NOT NULL DEFAULT 1
			)`,
			`CREATE TABLE IF NOT EXISTS enrollment (
				id TEXT PRIMARY KEY,
				member_id TEXT NOT NULL,
				program_id TEXT NOT NULL,
				source TEXT NOT NULL,
				created_at TEXT NOT NULL,
				UNIQUE (member_id, program_id),
				FOREIGN KEY (member_id) REFERENCES member(id) ON DELETE CASCADE,
				FOREIGN KEY (program_id) REFERENCES program(id)
			)`,
			`CREATE TABLE IF NOT EXISTS schedule (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				day TEXT NOT NULL,
				date TEXT,
				start_time TEXT NOT NULL,
				end_time TEXT NOT NULL,
				location TEXT NOT NULL DEFAULT '',
				session_type TEXT NOT NULL,
				max_participants INTEGER
			)`,
			`CREATE TABLE IF NOT EXISTS attendance (
				id TEXT PRIMARY KEY,
				schedule_id TEXT NOT NULL,
				occurrence_date TEXT NOT NULL,
				athlete_id TEXT NOT NULL,
				status TEXT NOT NULL,
				marked_by TEXT NOT NULL,
				marked_at TEXT NOT NULL,
				UNIQUE (schedule_id, occurrence_date, athlete_id),
				FOREIGN KEY (athlete_id) REFERENCES member(id) ON DELETE CASCADE
			)`,
			`CREATE TABLE IF NOT EXISTS booking (
				id TEXT PRIMARY KEY,
				customer_name TEXT NOT NULL,
				customer_email TEXT NOT NULL,
				customer_phone TEXT NOT NULL DEFAULT '',
				coach_id TEXT NOT NULL,
				preferred_dates TEXT NOT NULL DEFAULT '',
				preferred_times TEXT NOT NULL DEFAULT '',
				notes TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL,
				payment_session_id TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				updated_by TEXT NOT NULL DEFAULT '',
				FOREIGN KEY (coach_id) REFERENCES member(id)
			)`,
			`CREATE TABLE IF NOT EXISTS guardian_link (
				id TEXT PRIMARY KEY,
				guardian_id TEXT NOT NULL,
				athlete_id TEXT NOT NULL,
				relationship TEXT NOT NULL,
				created_at TEXT NOT NULL,
				UNIQUE (guardian_id, athlete_id),
				FOREIGN KEY (guardian_id) REFERENCES member(id) ON DELETE CASCADE,
				FOREIGN KEY (athlete_id) REFERENCES member(id) ON DELETE CASCADE
			)`,
		},
	},
	{
		version:     2,
		description: "session registration and lookup indexes",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS session_registration (
				id TEXT PRIMARY KEY,
				schedule_id TEXT NOT NULL,
				occurrence_date TEXT NOT NULL,
				athlete_id TEXT NOT NULL,
				created_at TEXT NOT NULL,
				UNIQUE (schedule_id, occurrence_date, athlete_id),
				FOREIGN KEY (schedule_id) REFERENCES schedule(id) ON DELETE CASCADE,
				FOREIGN KEY (athlete_id) REFERENCES member(id) ON DELETE CASCADE
			)`,
			`CREATE INDEX IF NOT EXISTS idx_enrollment_program ON enrollment(program_id)`,
			`CREATE INDEX IF NOT EXISTS idx_attendance_athlete ON attendance(athlete_id, occurrence_date)`,
			`CREATE INDEX IF NOT EXISTS idx_booking_coach_status ON booking(coach_id, status, created_at)`,
			`CREATE INDEX IF NOT EXISTS idx_guardian_link_athlete ON guardian_link(athlete_id)`,
		},
	},
	{
		version:     3,
		description: "registrations outlive their schedule",
		statements: []string{
			`CREATE TABLE session_registration_v3 (
				id TEXT PRIMARY KEY,
				schedule_id TEXT NOT NULL,
				occurrence_date TEXT NOT NULL,
				athlete_id TEXT NOT NULL,
				created_at TEXT NOT NULL,
				UNIQUE (schedule_id, occurrence_date, athlete_id),
				FOREIGN KEY (athlete_id) REFERENCES member(id) ON DELETE CASCADE
			)`,
			`INSERT INTO session_registration_v3 (id, schedule_id, occurrence_date, athlete_id, created_at)
				SELECT id, schedule_id, occurrence_date, athlete_id, created_at FROM session_registration`,
			`DROP TABLE session_registration`,
			`ALTER TABLE session_registration_v3 RENAME TO session_registration`,
		},
	},
}

// LatestSchemaVersion returns the version MigrateDB brings a database to.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the applied schema version, or 0 for an untracked database.
func SchemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'`).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("check schema_version: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}
	var v sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema_version: %w", err)
	}
	return int(v.Int64), nil
}

// MigrateDB applies every pending migration, each in its own transaction.
// A file database that already holds data is copied to path+".bak-v<N>" first.
// PRE: db is a valid database connection
// POST: SchemaVersion(db) == LatestSchemaVersion()
// INVARIANT: Running MigrateDB on an up-to-date database changes nothing
func MigrateDB(db *sql.DB, path string) error {
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	if current >= LatestSchemaVersion() {
		return nil
	}

	if current > 0 && path != "" && path != ":memory:" {
		backup := fmt.Sprintf("%s.bak-v%d", path, current)
		if _, err := db.Exec(`VACUUM INTO ?`, backup); err != nil {
			return fmt.Errorf("backup before migration: %w", err)
		}
		slog.Info("storage_event", "event", "schema_backup", "path", backup)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := apply(db, m); err != nil {
			return err
		}
		slog.Info("storage_event", "event", "schema_migrated", "version", m.version, "description", m.description)
	}
	return nil
}

func apply(db *sql.DB, m migration) error {
	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("migration %d: begin: %w", m.version, err)
	}
	defer tx.Rollback()

	for _, stmt := range m.statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.description, err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO schema_version (version, description, applied_at) VALUES (?, ?, ?)`,
		m.version, m.description, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("migration %d: record version: %w", m.version, err)
	}
	return tx.Commit()
}

// FormatTime renders t the way every table stores timestamps.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTime reads a timestamp written by FormatTime. Empty input yields the zero time.
func ParseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
