package attendance

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the outcome recorded for one athlete at one occurrence.
type Status string

// Status constants
const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusExcused Status = "excused"
)

// ValidStatuses contains all valid status values.
var ValidStatuses = []Status{StatusPresent, StatusAbsent, StatusLate, StatusExcused}

const dateLayout = "2006-01-02"

// Domain errors
var (
	ErrEmptyScheduleID = errors.New("occurrence must reference a schedule")
	ErrInvalidDate     = errors.New("occurrence date must be YYYY-MM-DD")
	ErrEmptyAthlete    = errors.New("attendance must be associated with an athlete")
	ErrEmptyMarkedBy   = errors.New("attendance must record who marked it")
	ErrInvalidStatus   = errors.New("status must be present, absent, late or excused")
	ErrBadOccurrenceID = errors.New("occurrence id must look like <schedule-id>@YYYY-MM-DD")
)

// Occurrence is one dated instance of a recurring schedule.
type Occurrence struct {
	ScheduleID string
	Date       string // YYYY-MM-DD
}

// String renders the occurrence as "<schedule-id>@<date>".
func (o Occurrence) String() string {
	return o.ScheduleID + "@" + o.Date
}

// Validate checks the occurrence key.
func (o Occurrence) Validate() error {
	if strings.TrimSpace(o.ScheduleID) == "" {
		return ErrEmptyScheduleID
	}
	if _, err := time.Parse(dateLayout, o.Date); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// Time returns the occurrence date at midnight UTC.
func (o Occurrence) Time() (time.Time, error) {
	return time.Parse(dateLayout, o.Date)
}

// ParseOccurrence parses the String form.
func ParseOccurrence(id string) (Occurrence, error) {
	i := strings.LastIndex(id, "@")
	if i <= 0 || i == len(id)-1 {
		return Occurrence{}, ErrBadOccurrenceID
	}
	o := Occurrence{ScheduleID: id[:i], Date: id[i+1:]}
	if err := o.Validate(); err != nil {
		return Occurrence{}, fmt.Errorf("%w: %v", ErrBadOccurrenceID, err)
	}
	return o, nil
}

// Record is the single attendance row for (occurrence, athlete).
// Later marks overwrite Status, MarkedBy and MarkedAt in place.
type Record struct {
	ID         string
	Occurrence Occurrence
	AthleteID  string
	Status     Status
	MarkedBy   string
	MarkedAt   time.Time
}

// Validate checks if the Record has valid data.
// PRE: Record struct is populated
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: one record per (occurrence, athlete), enforced by storage
func (r *Record) Validate() error {
	if err := r.Occurrence.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.AthleteID) == "" {
		return ErrEmptyAthlete
	}
	if strings.TrimSpace(r.MarkedBy) == "" {
		return ErrEmptyMarkedBy
	}
	if !r.Status.Valid() {
		return ErrInvalidStatus
	}
	if r.MarkedAt.IsZero() {
		return errors.New("marked-at time must be set")
	}
	return nil
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

// Attended reports whether the athlete was on the floor.
func (s Status) Attended() bool {
	return s == StatusPresent || s == StatusLate
}
