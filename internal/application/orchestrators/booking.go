package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	bookingStore "fieldhouse/internal/adapters/storage/booking"
	"fieldhouse/internal/domain/apperr"
	"fieldhouse/internal/domain/booking"
	"fieldhouse/internal/domain/member"
	"fieldhouse/internal/metrics"
)

// BookingStore defines the store interface needed by the booking orchestrators.
type BookingStore interface {
	Create(ctx context.Context, b booking.Booking) error
	GetByID(ctx context.Context, id string) (booking.Booking, error)
	CompareAndSwapStatus(ctx context.Context, id string, from, to booking.Status, actor string, at time.Time) (booking.Booking, error)
	List(ctx context.Context, filter bookingStore.ListFilter) ([]booking.Booking, error)
}

// BookingDeps holds dependencies for the booking orchestrators.
type BookingDeps struct {
	BookingStore BookingStore
	MemberStore  MemberLookup
	GenerateID   IDFunc
	Now          NowFunc
}

// CreateBookingInput carries a private-session request from the public form.
type CreateBookingInput struct {
	Customer         booking.Customer
	CoachID          string
	Preferences      booking.Preferences
	PaymentSessionID string
}

// ExecuteCreateBooking stores a new pending booking for a coach.
// PRE: None; customers need no account
// POST: Booking persisted with status pending
func ExecuteCreateBooking(ctx context.Context, input CreateBookingInput, deps BookingDeps) (booking.Booking, error) {
	at := now(deps.Now)
	b := booking.Booking{
		ID:               newID(deps.GenerateID),
		Customer:         input.Customer,
		CoachID:          strings.TrimSpace(input.CoachID),
		Preferences:      input.Preferences,
		Status:           booking.StatusPending,
		PaymentSessionID: strings.TrimSpace(input.PaymentSessionID),
		CreatedAt:        at,
		UpdatedAt:        at,
	}
	b.Sanitize()
	b.Customer.Email = member.NormalizeEmail(b.Customer.Email)
	if err := b.Validate(); err != nil {
		return booking.Booking{}, invalid("booking", err)
	}

	coach, err := deps.MemberStore.GetByID(ctx, b.CoachID)
	if errors.Is(err, member.ErrNotFound) || (err == nil && coach.Role == member.RoleMember) {
		return booking.Booking{}, apperr.NotFound("coach", b.CoachID)
	}
	if err != nil {
		return booking.Booking{}, apperr.Internal(err)
	}

	if err := deps.BookingStore.Create(ctx, b); err != nil {
		return booking.Booking{}, apperr.Internal(err)
	}
	slog.Info("booking_event", "event", "booking_created", "booking_id", b.ID, "coach_id", b.CoachID)
	return b, nil
}

// TransitionInput carries input for Transition. Expected is the status the
// caller saw when it chose Target; the swap is conditioned on it.
type TransitionInput struct {
	Actor     Actor
	BookingID string
	Target    booking.Status
	Expected  booking.Status
}

// ExecuteTransition moves a booking along one allowed edge.
// PRE: Actor is the owning coach or an admin; reopening is admin-only
// POST: Booking carries Target, stamped with the actor and time
// INVARIANT: The write is a compare-and-swap from Expected. When the stored
// status has moved on, the caller gets an InvalidTransitionError naming the
// state that was applied; nothing is retried
func ExecuteTransition(ctx context.Context, input TransitionInput, deps BookingDeps) (booking.Booking, error) {
	if !input.Target.Valid() {
		return booking.Booking{}, apperr.Validation("status", booking.ErrInvalidStatus.Error())
	}
	if input.Expected == "" {
		return booking.Booking{}, apperr.Validation("expected", "the status the booking was in is required")
	}
	if !input.Expected.Valid() {
		return booking.Booking{}, apperr.Validation("expected", booking.ErrInvalidStatus.Error())
	}
	b, err := loadBooking(ctx, deps.BookingStore, input.BookingID)
	if err != nil {
		return booking.Booking{}, err
	}
	if !input.Actor.IsAdmin() && b.CoachID != input.Actor.MemberID {
		return booking.Booking{}, forbidden("booking", input.BookingID)
	}

	from, to := input.Expected, input.Target
	if !booking.CanTransition(from, to) {
		metrics.BookingTransitionsTotal.WithLabelValues(string(from), string(to), metrics.OutcomeRejected).Inc()
		return booking.Booking{}, &apperr.InvalidTransitionError{From: string(from), To: string(to)}
	}
	if booking.IsReopen(from, to) && !input.Actor.IsAdmin() {
		return booking.Booking{}, apperr.Validation("status", "only admins can reopen a cancelled booking")
	}
	if b.Status != from {
		metrics.BookingTransitionsTotal.WithLabelValues(string(from), string(to), "stale").Inc()
		return booking.Booking{}, &apperr.InvalidTransitionError{From: string(b.Status), To: string(to), Stale: true}
	}

	updated, err := deps.BookingStore.CompareAndSwapStatus(ctx, b.ID, from, to, input.Actor.MemberID, now(deps.Now))
	switch {
	case errors.Is(err, booking.ErrStale):
		current, getErr := loadBooking(ctx, deps.BookingStore, b.ID)
		if getErr != nil {
			return booking.Booking{}, getErr
		}
		metrics.BookingTransitionsTotal.WithLabelValues(string(from), string(to), "stale").Inc()
		slog.Info("booking_event", "event", "transition_lost_race", "booking_id", b.ID,
			"expected", from, "found", current.Status, "target", to, "actor", input.Actor.MemberID)
		return booking.Booking{}, &apperr.InvalidTransitionError{From: string(current.Status), To: string(to), Stale: true}
	case errors.Is(err, booking.ErrNotFound):
		return booking.Booking{}, apperr.NotFound("booking", b.ID)
	case err != nil:
		return booking.Booking{}, apperr.Internal(err)
	}

	metrics.BookingTransitionsTotal.WithLabelValues(string(from), string(to), metrics.OutcomeOK).Inc()
	slog.Info("booking_event", "event", "booking_transitioned", "booking_id", updated.ID,
		"from", from, "to", to, "actor", input.Actor.MemberID)
	return updated, nil
}

// ListBookingsInput carries input for ListByCoachAndStatus.
// An empty CoachID means all coaches; an empty Status means every status.
type ListBookingsInput struct {
	Actor   Actor
	CoachID string
	Status  booking.Status
}

// ExecuteListByCoachAndStatus lists bookings for the dashboard filter, newest first.
// PRE: Actor may manage the roster. Coaches only ever see their own bookings
func ExecuteListByCoachAndStatus(ctx context.Context, input ListBookingsInput, deps BookingDeps) ([]booking.Booking, error) {
	if input.Status != "" && !input.Status.Valid() {
		return nil, apperr.Validation("status", booking.ErrInvalidStatus.Error())
	}
	coachID := strings.TrimSpace(input.CoachID)
	if !input.Actor.IsAdmin() {
		if coachID != "" && coachID != input.Actor.MemberID {
			return []booking.Booking{}, nil
		}
		coachID = input.Actor.MemberID
	}
	list, err := deps.BookingStore.List(ctx, bookingStore.ListFilter{CoachID: coachID, Status: input.Status})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if list == nil {
		list = []booking.Booking{}
	}
	return list, nil
}

func loadBooking(ctx context.Context, store BookingStore, id string) (booking.Booking, error) {
	if strings.TrimSpace(id) == "" {
		return booking.Booking{}, apperr.Validation("bookingId", "is required")
	}
	b, err := store.GetByID(ctx, id)
	if errors.Is(err, booking.ErrNotFound) {
		return booking.Booking{}, apperr.NotFound("booking", id)
	}
	if err != nil {
		return booking.Booking{}, apperr.Internal(err)
	}
	return b, nil
}
