// Package sqlitetest opens migrated SQLite databases for store tests.
package sqlitetest

import (
	"database/sql"
	"path/filepath"
	"testing"

	"fieldhouse/internal/adapters/storage"
)

// Open returns a migrated database in a temp file. A file (not ":memory:") lets
// concurrent tests share one database across pooled connections.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := storage.Open(path)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db, path); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// Exec runs setup SQL and fails the test on error.
func Exec(t testing.TB, db *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}
