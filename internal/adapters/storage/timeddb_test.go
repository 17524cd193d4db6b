package storage

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	_ "modernc.org/sqlite"

	"fieldhouse/internal/metrics"
)

func openTimedTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	db.Exec("CREATE TABLE test (id TEXT PRIMARY KEY, val TEXT)")
	return db
}

// slowCount reads the slow-query counter for op. A 1ns threshold makes every call slow,
// so the counter doubles as an observation count.
func slowCount(op string) float64 {
	return testutil.ToFloat64(metrics.SlowQueriesTotal.WithLabelValues(op))
}

// TestTimedDB_ExecContext verifies ExecContext records timing.
func TestTimedDB_ExecContext(t *testing.T) {
	db := openTimedTestDB(t)
	defer db.Close()
	tdb := NewTimedDB(db, time.Nanosecond)

	before := slowCount("exec")
	_, err := tdb.ExecContext(context.Background(), "INSERT INTO test (id, val) VALUES (?, ?)", "1", "hello")
	if err != nil {
		t.Fatalf("ExecContext: %v", err)
	}
	if got := slowCount("exec") - before; got != 1 {
		t.Errorf("recorded = %v, want 1", got)
	}
}

// TestTimedDB_QueryContext verifies QueryContext records timing and returns rows.
func TestTimedDB_QueryContext(t *testing.T) {
	db := openTimedTestDB(t)
	defer db.Close()
	tdb := NewTimedDB(db, time.Nanosecond)

	tdb.ExecContext(context.Background(), "INSERT INTO test (id, val) VALUES (?, ?)", "1", "hello")

	before := slowCount("query")
	rows, err := tdb.QueryContext(context.Background(), "SELECT id, val FROM test")
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	count := 0
	for rows.Next() {
		count++
	}
	rows.Close()
	if count != 1 {
		t.Errorf("rows = %d, want 1", count)
	}
	if got := slowCount("query") - before; got != 1 {
		t.Errorf("recorded = %v, want 1", got)
	}
}

// TestTimedDB_QueryRowContext verifies QueryRowContext records timing.
func TestTimedDB_QueryRowContext(t *testing.T) {
	db := openTimedTestDB(t)
	defer db.Close()
	tdb := NewTimedDB(db, time.Nanosecond)

	tdb.ExecContext(context.Background(), "INSERT INTO test (id, val) VALUES (?, ?)", "1", "hello")

	before := slowCount("query_row")
	var val string
	if err := tdb.QueryRowContext(context.Background(), "SELECT val FROM test WHERE id = ?", "1").Scan(&val); err != nil {
		t.Fatalf("QueryRowContext: %v", err)
	}
	if val != "hello" {
		t.Errorf("val = %q, want hello", val)
	}
	if got := slowCount("query_row") - before; got != 1 {
		t.Errorf("recorded = %v, want 1", got)
	}
}

// TestTimedDB_BeginTx verifies BeginTx records timing and the transaction works.
func TestTimedDB_BeginTx(t *testing.T) {
	db := openTimedTestDB(t)
	defer db.Close()
	tdb := NewTimedDB(db, time.Nanosecond)

	before := slowCount("begin_tx")
	tx, err := tdb.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	if _, err := tx.Exec("INSERT INTO test (id, val) VALUES (?, ?)", "1", "tx"); err != nil {
		t.Fatalf("tx exec: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if got := slowCount("begin_tx") - before; got != 1 {
		t.Errorf("recorded = %v, want 1", got)
	}
}

// TestTimedDB_DefaultThreshold verifies a non-positive threshold falls back to the default.
func TestTimedDB_DefaultThreshold(t *testing.T) {
	db := openTimedTestDB(t)
	defer db.Close()
	tdb := NewTimedDB(db, 0)
	if tdb.threshold != DefaultSlowQuery {
		t.Errorf("threshold = %v, want %v", tdb.threshold, DefaultSlowQuery)
	}
}

// TestTimedDB_ErrorPassthrough_ExecContext verifies errors are returned and timing still recorded.
func TestTimedDB_ErrorPassthrough_ExecContext(t *testing.T) {
	db := openTimedTestDB(t)
	defer db.Close()
	tdb := NewTimedDB(db, time.Nanosecond)

	before := slowCount("exec")
	_, err := tdb.ExecContext(context.Background(), "INSERT INTO nonexistent (id) VALUES (?)", "1")
	if err == nil {
		t.Fatal("expected error for nonexistent table")
	}
	if got := slowCount("exec") - before; got != 1 {
		t.Errorf("recorded = %v, want 1 (must record even on error)", got)
	}
}

// TestTimedDB_ErrorPassthrough_QueryRowContext verifies sql.ErrNoRows surfaces unchanged.
func TestTimedDB_ErrorPassthrough_QueryRowContext(t *testing.T) {
	db := openTimedTestDB(t)
	defer db.Close()
	tdb := NewTimedDB(db, DefaultSlowQuery)

	var val string
	err := tdb.QueryRowContext(context.Background(), "SELECT val FROM test WHERE id = ?", "missing").Scan(&val)
	if err != sql.ErrNoRows {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}

// TestTimedDB_CancelledContext verifies a cancelled context errors but is still timed.
func TestTimedDB_CancelledContext(t *testing.T) {
	db := openTimedTestDB(t)
	defer db.Close()
	tdb := NewTimedDB(db, time.Nanosecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	before := slowCount("exec")
	if _, err := tdb.ExecContext(ctx, "INSERT INTO test (id, val) VALUES (?, ?)", "1", "x"); err == nil {
		t.Fatal("expected error on cancelled context")
	}
	if got := slowCount("exec") - before; got != 1 {
		t.Errorf("recorded = %v, want 1 (must record on cancelled ctx)", got)
	}
}

// TestTimedDB_ResultPassthrough verifies RowsAffected comes through the wrapper.
func TestTimedDB_ResultPassthrough(t *testing.T) {
	db := openTimedTestDB(t)
	defer db.Close()
	tdb := NewTimedDB(db, DefaultSlowQuery)

	tdb.ExecContext(context.Background(), "INSERT INTO test (id, val) VALUES ('1', 'a'), ('2', 'b')")
	res, err := tdb.ExecContext(context.Background(), "UPDATE test SET val = 'z'")
	if err != nil {
		t.Fatalf("ExecContext: %v", err)
	}
	n, _ := res.RowsAffected()
	if n != 2 {
		t.Errorf("RowsAffected = %d, want 2", n)
	}
}

// TestTimedDB_RawDB verifies the underlying connection is exposed.
func TestTimedDB_RawDB(t *testing.T) {
	db := openTimedTestDB(t)
	defer db.Close()
	tdb := NewTimedDB(db, DefaultSlowQuery)
	if tdb.RawDB() != db {
		t.Error("RawDB did not return the wrapped *sql.DB")
	}
}

// TestTimedDB_ImplementsSQLDB verifies a TimedDB can stand in for SQLDB.
func TestTimedDB_ImplementsSQLDB(t *testing.T) {
	db := openTimedTestDB(t)
	defer db.Close()

	var iface SQLDB = NewTimedDB(db, DefaultSlowQuery)
	if _, err := iface.ExecContext(context.Background(), "INSERT INTO test (id, val) VALUES (?, ?)", "1", "v"); err != nil {
		t.Fatalf("ExecContext via interface: %v", err)
	}
}

// TestTimedDB_ConcurrentMixedOps verifies concurrent use is safe.
func TestTimedDB_ConcurrentMixedOps(t *testing.T) {
	db := openTimedTestDB(t)
	defer db.Close()
	tdb := NewTimedDB(db, DefaultSlowQuery)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n))
			tdb.ExecContext(ctx, "INSERT INTO test (id, val) VALUES (?, ?)", id, "x")
			var val string
			tdb.QueryRowContext(ctx, "SELECT val FROM test WHERE id = ?", id).Scan(&val)
		}(i)
	}
	wg.Wait()

	var count int
	if err := tdb.QueryRowContext(ctx, "SELECT COUNT(*) FROM test").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 20 {
		t.Errorf("count = %d, want 20", count)
	}
}

func BenchmarkTimedDB_ExecContext(b *testing.B) {
	db, _ := sql.Open("sqlite", ":memory:")
	defer db.Close()
	db.SetMaxOpenConns(1)
	db.Exec("CREATE TABLE bench (id INTEGER PRIMARY KEY, val TEXT)")
	tdb := NewTimedDB(db, DefaultSlowQuery)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tdb.ExecContext(ctx, "INSERT INTO bench (val) VALUES (?)", "v")
	}
}
