package booking

import (
	"errors"
	"time"

	"fieldhouse/internal/domain/validation"
)

// Status is a booking's position in its lifecycle.
type Status string

// Status constants
const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ValidStatuses contains all valid status values.
var ValidStatuses = []Status{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled}

// transitions is the allowed-edge table. Completed has no outgoing edge;
// cancelled -> pending is the admin "reopen".
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCancelled: {StatusPending},
}

// Domain errors
var (
	ErrNotFound      = errors.New("booking not found")
	ErrStale         = errors.New("booking status changed concurrently")
	ErrInvalidStatus = errors.New("status must be pending, confirmed, completed or cancelled")
)

// CanTransition reports whether from -> to is an allowed edge.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsReopen reports whether the edge is the admin-only reopen.
func IsReopen(from, to Status) bool {
	return from == StatusCancelled && to == StatusPending
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no edge leaves s.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// Customer is the contact who asked for the session. Customers need no account.
type Customer struct {
	Name  string `validate:"required,max=100"`
	Email string `validate:"required,contains=@,max=254"`
	Phone string `validate:"max=32"`
}

// Preferences are free-text scheduling wishes.
type Preferences struct {
	PreferredDates string `validate:"max=500"`
	PreferredTimes string `validate:"max=500"`
	Notes          string `validate:"max=2000"`
}

// Booking is a private-session request owned by exactly one coach.
type Booking struct {
	ID               string
	Customer         Customer
	CoachID          string `validate:"required"`
	Preferences      Preferences
	Status           Status
	PaymentSessionID string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	UpdatedBy        string
}

// Sanitize strips markup from the customer-supplied text.
func (b *Booking) Sanitize() {
	b.Customer.Name = validation.Clean(b.Customer.Name)
	b.Customer.Email = validation.Clean(b.Customer.Email)
	b.Customer.Phone = validation.Clean(b.Customer.Phone)
	b.Preferences.PreferredDates = validation.Clean(b.Preferences.PreferredDates)
	b.Preferences.PreferredTimes = validation.Clean(b.Preferences.PreferredTimes)
	b.Preferences.Notes = validation.Clean(b.Preferences.Notes)
}

// Validate checks if the Booking has valid data.
// PRE: Booking struct is populated
// POST: Returns *validation.FieldError or ErrInvalidStatus on failure
func (b *Booking) Validate() error {
	if err := validation.Struct(b); err != nil {
		return err
	}
	if !b.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}
