package orchestrators

import (
	"context"
	"sync"
	"testing"

	"fieldhouse/internal/adapters/storage/sqlitetest"
	"fieldhouse/internal/domain/apperr"
	"fieldhouse/internal/domain/booking"
	"fieldhouse/internal/domain/member"
)

func (f *fixture) bookingDeps(id string) BookingDeps {
	return BookingDeps{
		BookingStore: f.bookings,
		MemberStore:  f.members,
		GenerateID:   func() string { return id },
		Now:          fixedNow,
	}
}

func (f *fixture) newBooking(t *testing.T, id, coachID string) booking.Booking {
	t.Helper()
	b, err := ExecuteCreateBooking(context.Background(), CreateBookingInput{
		Customer: booking.Customer{Name: "Jordan Lee", Email: "Jordan@Example.com"},
		CoachID:  coachID,
		Preferences: booking.Preferences{
			PreferredDates: "weekends",
			Notes:          "<b>ankle</b> rehab",
		},
	}, f.bookingDeps(id))
	if err != nil {
		t.Fatalf("create booking %s: %v", id, err)
	}
	return b
}

// TestCreateBooking tests defaults, sanitising and coach resolution.
func TestCreateBooking(t *testing.T) {
	f := newFixture(t)
	f.addMember(t, "coach-1", "coach@example.com", member.RoleCoach)
	f.addMember(t, "athlete-1", "athlete@example.com", member.RoleMember)

	b := f.newBooking(t, "b1", "coach-1")
	if b.Status != booking.StatusPending {
		t.Errorf("Status = %s, want pending", b.Status)
	}
	if b.Preferences.Notes != "ankle rehab" || b.Customer.Email != "jordan@example.com" {
		t.Errorf("unexpected sanitised booking %+v", b)
	}

	ctx := context.Background()
	_, err := ExecuteCreateBooking(ctx, CreateBookingInput{
		Customer: booking.Customer{Name: "Jordan", Email: "jordan"},
		CoachID:  "coach-1",
	}, f.bookingDeps("b2"))
	requireKind(t, err, apperr.KindValidation)

	_, err = ExecuteCreateBooking(ctx, CreateBookingInput{
		Customer: booking.Customer{Name: "Jordan", Email: "jordan@example.com"},
		CoachID:  "athlete-1",
	}, f.bookingDeps("b3"))
	requireKind(t, err, apperr.KindNotFound)
}

// TestTransition_Booking42Race fires confirm and cancel at a pending booking together.
func TestTransition_Booking42Race(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addMember(t, "coach-1", "coach@example.com", member.RoleCoach)
	f.newBooking(t, "42", "coach-1")

	targets := []booking.Status{booking.StatusConfirmed, booking.StatusCancelled}
	results := make([]booking.Booking, len(targets))
	errs := make([]error, len(targets))
	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target booking.Status) {
			defer wg.Done()
			results[i], errs[i] = ExecuteTransition(ctx, TransitionInput{
				Actor: adminActor, BookingID: "42", Target: target, Expected: booking.StatusPending,
			}, f.bookingDeps(""))
		}(i, target)
	}
	wg.Wait()

	winner, loser := 0, 1
	if errs[0] != nil {
		winner, loser = 1, 0
	}
	if errs[winner] != nil {
		t.Fatalf("both transitions failed: %v / %v", errs[0], errs[1])
	}
	if errs[loser] == nil {
		t.Fatal("both transitions succeeded")
	}
	ite := asTransitionError(t, errs[loser])
	if ite.From != string(targets[winner]) || ite.To != string(targets[loser]) || !ite.Stale {
		t.Errorf("loser error = %+v, want From=%s To=%s Stale", ite, targets[winner], targets[loser])
	}

	stored, err := f.bookings.GetByID(ctx, "42")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != targets[winner] || stored.UpdatedBy != adminActor.MemberID {
		t.Errorf("stored booking = %s by %q, want %s by %q", stored.Status, stored.UpdatedBy, targets[winner], adminActor.MemberID)
	}
}

// TestTransition_Booking42InSequence confirms then cancels a pending booking,
// both callers having seen it pending. The second must not ride the first's edge.
func TestTransition_Booking42InSequence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addMember(t, "coach-1", "coach@example.com", member.RoleCoach)
	f.newBooking(t, "42", "coach-1")

	if _, err := ExecuteTransition(ctx, TransitionInput{
		Actor: adminActor, BookingID: "42", Target: booking.StatusConfirmed, Expected: booking.StatusPending,
	}, f.bookingDeps("")); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	_, err := ExecuteTransition(ctx, TransitionInput{
		Actor: adminActor, BookingID: "42", Target: booking.StatusCancelled, Expected: booking.StatusPending,
	}, f.bookingDeps(""))
	ite := asTransitionError(t, err)
	if ite.From != string(booking.StatusConfirmed) || ite.To != string(booking.StatusCancelled) || !ite.Stale {
		t.Errorf("cancel error = %+v, want From=confirmed To=cancelled Stale", ite)
	}

	stored, _ := f.bookings.GetByID(ctx, "42")
	if stored.Status != booking.StatusConfirmed {
		t.Errorf("stored status = %s, want confirmed", stored.Status)
	}
}

// TestTransition_DisallowedEdges checks every rejected edge leaves the stored state alone.
func TestTransition_DisallowedEdges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addMember(t, "coach-1", "coach@example.com", member.RoleCoach)
	f.newBooking(t, "b", "coach-1")

	for _, from := range booking.ValidStatuses {
		for _, to := range booking.ValidStatuses {
			if booking.CanTransition(from, to) {
				continue
			}
			sqlitetest.Exec(t, f.db, `UPDATE booking SET status = ? WHERE id = ?`, string(from), "b")
			_, err := ExecuteTransition(ctx, TransitionInput{Actor: adminActor, BookingID: "b", Target: to, Expected: from}, f.bookingDeps(""))
			ite := asTransitionError(t, err)
			if ite.From != string(from) || ite.To != string(to) || ite.Stale {
				t.Errorf("%s -> %s: error = %+v", from, to, ite)
			}
			stored, _ := f.bookings.GetByID(ctx, "b")
			if stored.Status != from {
				t.Errorf("%s -> %s: stored status changed to %s", from, to, stored.Status)
			}
		}
	}
}

// TestTransition_Permissions tests coach ownership and the admin-only reopen.
func TestTransition_Permissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addMember(t, "coach-1", "c1@example.com", member.RoleCoach)
	f.addMember(t, "coach-2", "c2@example.com", member.RoleCoach)
	f.newBooking(t, "b", "coach-1")
	owner := Actor{MemberID: "coach-1", Role: member.RoleCoach}
	other := Actor{MemberID: "coach-2", Role: member.RoleCoach}

	_, err := ExecuteTransition(ctx, TransitionInput{Actor: other, BookingID: "b", Target: booking.StatusConfirmed, Expected: booking.StatusPending}, f.bookingDeps(""))
	requireKind(t, err, apperr.KindNotFound)

	if _, err := ExecuteTransition(ctx, TransitionInput{Actor: owner, BookingID: "b", Target: booking.StatusCancelled, Expected: booking.StatusPending}, f.bookingDeps("")); err != nil {
		t.Fatalf("owner cancel: %v", err)
	}
	_, err = ExecuteTransition(ctx, TransitionInput{Actor: owner, BookingID: "b", Target: booking.StatusPending, Expected: booking.StatusCancelled}, f.bookingDeps(""))
	requireKind(t, err, apperr.KindValidation)

	b, err := ExecuteTransition(ctx, TransitionInput{Actor: adminActor, BookingID: "b", Target: booking.StatusPending, Expected: booking.StatusCancelled}, f.bookingDeps(""))
	if err != nil || b.Status != booking.StatusPending {
		t.Fatalf("admin reopen: %v, status %s", err, b.Status)
	}

	_, err = ExecuteTransition(ctx, TransitionInput{Actor: adminActor, BookingID: "missing", Target: booking.StatusConfirmed, Expected: booking.StatusPending}, f.bookingDeps(""))
	requireKind(t, err, apperr.KindNotFound)
	_, err = ExecuteTransition(ctx, TransitionInput{Actor: adminActor, BookingID: "b", Target: "lost", Expected: booking.StatusPending}, f.bookingDeps(""))
	requireKind(t, err, apperr.KindValidation)
	_, err = ExecuteTransition(ctx, TransitionInput{Actor: adminActor, BookingID: "b", Target: booking.StatusConfirmed}, f.bookingDeps(""))
	requireKind(t, err, apperr.KindValidation)
}

// TestListByCoachAndStatus tests the dashboard filter.
func TestListByCoachAndStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addMember(t, "coach-1", "c1@example.com", member.RoleCoach)
	f.addMember(t, "coach-2", "c2@example.com", member.RoleCoach)
	f.newBooking(t, "b1", "coach-1")
	f.newBooking(t, "b2", "coach-1")
	f.newBooking(t, "b3", "coach-2")
	if _, err := ExecuteTransition(ctx, TransitionInput{Actor: adminActor, BookingID: "b2", Target: booking.StatusConfirmed, Expected: booking.StatusPending}, f.bookingDeps("")); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		input ListBookingsInput
		want  int
	}{
		{"admin all coaches pending", ListBookingsInput{Actor: adminActor, Status: booking.StatusPending}, 2},
		{"admin one coach any status", ListBookingsInput{Actor: adminActor, CoachID: "coach-1"}, 2},
		{"coach sees own pending", ListBookingsInput{Actor: Actor{MemberID: "coach-1", Role: member.RoleCoach}, Status: booking.StatusPending}, 1},
		{"coach cannot read another coach", ListBookingsInput{Actor: Actor{MemberID: "coach-1", Role: member.RoleCoach}, CoachID: "coach-2"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExecuteListByCoachAndStatus(ctx, tt.input, f.bookingDeps(""))
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}
