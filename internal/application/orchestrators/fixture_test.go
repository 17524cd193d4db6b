package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"fieldhouse/internal/adapters/storage/attendance"
	"fieldhouse/internal/adapters/storage/booking"
	"fieldhouse/internal/adapters/storage/enrollment"
	"fieldhouse/internal/adapters/storage/guardian"
	memberStore "fieldhouse/internal/adapters/storage/member"
	"fieldhouse/internal/adapters/storage/program"
	"fieldhouse/internal/adapters/storage/schedule"
	"fieldhouse/internal/adapters/storage/sqlitetest"
	"fieldhouse/internal/domain/apperr"
	"fieldhouse/internal/domain/member"
	programDomain "fieldhouse/internal/domain/program"
)

// fixedTime is a Monday.
var fixedTime = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

// seqIDs returns an ID source safe for concurrent use.
func seqIDs(prefix string) IDFunc {
	var n int64
	return func() string {
		return fmt.Sprintf("%s-%d", prefix, atomic.AddInt64(&n, 1))
	}
}

var (
	adminActor = Actor{MemberID: "admin-1", Role: member.RoleAdmin}
)

// fixture wires every store over one migrated SQLite file.
type fixture struct {
	db          *sql.DB
	members     *memberStore.SQLiteStore
	programs    *program.SQLiteStore
	enrollments *enrollment.SQLiteStore
	schedules   *schedule.SQLiteStore
	attendance  *attendance.SQLiteStore
	bookings    *booking.SQLiteStore
	links       *guardian.SQLiteStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := sqlitetest.Open(t)
	return &fixture{
		db:          db,
		members:     memberStore.NewSQLiteStore(db),
		programs:    program.NewSQLiteStore(db),
		enrollments: enrollment.NewSQLiteStore(db),
		schedules:   schedule.NewSQLiteStore(db),
		attendance:  attendance.NewSQLiteStore(db),
		bookings:    booking.NewSQLiteStore(db),
		links:       guardian.NewSQLiteStore(db),
	}
}

func (f *fixture) addMember(t *testing.T, id, email string, role member.Role) member.Member {
	t.Helper()
	m := member.Member{ID: id, Name: "Member " + id, Email: email, Role: role, CreatedAt: fixedTime}
	if err := f.members.Create(context.Background(), m); err != nil {
		t.Fatalf("create member %s: %v", id, err)
	}
	return m
}

func (f *fixture) addProgram(t *testing.T, id, name string, limit *int) programDomain.Program {
	t.Helper()
	p := programDomain.Program{ID: id, Name: name, MaxEnrollees: limit, Active: true}
	if err := f.programs.Create(context.Background(), p); err != nil {
		t.Fatalf("create program %s: %v", id, err)
	}
	return p
}

func (f *fixture) assignDeps() AssignProgramDeps {
	return AssignProgramDeps{
		MemberStore:     f.members,
		ProgramStore:    f.programs,
		EnrollmentStore: f.enrollments,
		GenerateID:      seqIDs("enr"),
		Now:             fixedNow,
	}
}

func intPtr(n int) *int { return &n }

func requireKind(t *testing.T, err error, want apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := apperr.KindOf(err); got != want {
		t.Fatalf("error kind = %s, want %s (err: %v)", got, want, err)
	}
}

func asTransitionError(t *testing.T, err error) *apperr.InvalidTransitionError {
	t.Helper()
	var ite *apperr.InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("expected InvalidTransitionError, got %T: %v", err, err)
	}
	return ite
}
