package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fieldhouse/internal/domain/capacity"
)

// Day of week constants
const (
	Monday    = "monday"
	Tuesday   = "tuesday"
	Wednesday = "wednesday"
	Thursday  = "thursday"
	Friday    = "friday"
	Saturday  = "saturday"
	Sunday    = "sunday"
)

// ValidDays contains all valid day values in calendar order.
var ValidDays = []string{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// SessionType classifies a recurring slot.
type SessionType string

// Session type constants
const (
	TypeRegular SessionType = "regular"
	TypeOpenGym SessionType = "open_gym"
	TypeSpecial SessionType = "special"
)

// DateLayout is the occurrence date format.
const DateLayout = "2006-01-02"

const clockLayout = "15:04"

// Domain errors
var (
	ErrEmptyTitle       = errors.New("title cannot be empty")
	ErrInvalidDay       = errors.New("day must be a valid day of the week")
	ErrInvalidDate      = errors.New("date must be YYYY-MM-DD")
	ErrDayDateMismatch  = errors.New("day does not match the weekday of date")
	ErrInvalidStartTime = errors.New("start time must be HH:MM")
	ErrInvalidEndTime   = errors.New("end time must be HH:MM")
	ErrStartNotBefore   = errors.New("start time must be before end time")
	ErrInvalidType      = errors.New("session type must be regular, open_gym or special")
	ErrNegativeCapacity = errors.New("max participants cannot be negative")
	ErrNotFound         = errors.New("schedule not found")
	ErrSessionFull      = errors.New("session is full")
	ErrNoOccurrence     = errors.New("session does not run on that date")
)

// Schedule is a recurring weekly session definition. Concrete occurrences
// are computed on read; a Schedule with Date set is a one-off special.
type Schedule struct {
	ID              string
	Title           string
	Description     string
	Day             string // monday, tuesday, etc.
	Date            string // optional YYYY-MM-DD
	StartTime       string // HH:MM
	EndTime         string // HH:MM
	Location        string
	SessionType     SessionType
	MaxParticipants *int
}

// Validate checks if the Schedule has valid data.
// PRE: Schedule struct is populated
// POST: Returns nil if valid, error otherwise
func (s *Schedule) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return ErrEmptyTitle
	}
	if s.Date != "" {
		d, err := time.Parse(DateLayout, s.Date)
		if err != nil {
			return ErrInvalidDate
		}
		if s.Day != "" && s.Day != DayOf(d) {
			return ErrDayDateMismatch
		}
	} else if !IsValidDay(s.Day) {
		return ErrInvalidDay
	}
	start, err := time.Parse(clockLayout, s.StartTime)
	if err != nil {
		return ErrInvalidStartTime
	}
	end, err := time.Parse(clockLayout, s.EndTime)
	if err != nil {
		return ErrInvalidEndTime
	}
	if !start.Before(end) {
		return ErrStartNotBefore
	}
	switch s.SessionType {
	case TypeRegular, TypeOpenGym, TypeSpecial:
	default:
		return ErrInvalidType
	}
	if s.MaxParticipants != nil && *s.MaxParticipants < 0 {
		return ErrNegativeCapacity
	}
	return nil
}

// EffectiveDay is the weekday from Date when set, otherwise Day.
func (s *Schedule) EffectiveDay() string {
	if s.Date != "" {
		if d, err := time.Parse(DateLayout, s.Date); err == nil {
			return DayOf(d)
		}
	}
	return s.Day
}

// OccursOn reports whether the session runs on the given calendar date.
func (s *Schedule) OccursOn(date time.Time) bool {
	if s.Date != "" {
		return date.Format(DateLayout) == s.Date
	}
	return DayOf(date) == s.Day
}

// Occurrences lists the dates in [from, to] on which the session runs.
func (s *Schedule) Occurrences(from, to time.Time) []time.Time {
	from = truncateDay(from)
	to = truncateDay(to)
	var out []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if s.OccursOn(d) {
			out = append(out, d)
		}
	}
	return out
}

// CanAdmit applies the capacity policy to the session's limit.
func (s *Schedule) CanAdmit(registered int) bool {
	return capacity.CanAdmit(registered, s.MaxParticipants)
}

// DurationHours returns the session duration in hours.
func (s *Schedule) DurationHours() (float64, error) {
	start, err := time.Parse(clockLayout, s.StartTime)
	if err != nil {
		return 0, fmt.Errorf("invalid start time %q: %w", s.StartTime, err)
	}
	end, err := time.Parse(clockLayout, s.EndTime)
	if err != nil {
		return 0, fmt.Errorf("invalid end time %q: %w", s.EndTime, err)
	}
	return end.Sub(start).Hours(), nil
}

// DayOf returns the lowercase weekday name for t.
func DayOf(t time.Time) string {
	return strings.ToLower(t.Weekday().String())
}

// WeekStart returns the Monday on or before t.
func WeekStart(t time.Time) time.Time {
	t = truncateDay(t)
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

// IsValidDay reports whether day is one of ValidDays.
func IsValidDay(day string) bool {
	for _, d := range ValidDays {
		if d == day {
			return true
		}
	}
	return false
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
