package schedule

import (
	"errors"
	"strings"
	"time"
)

// Registration reserves one athlete's place in one dated occurrence.
// Unique per (ScheduleID, Date, AthleteID).
type Registration struct {
	ID         string
	ScheduleID string
	Date       string // YYYY-MM-DD
	AthleteID  string
	CreatedAt  time.Time
}

// ErrEmptyAthlete is returned for a registration without an athlete.
var ErrEmptyAthlete = errors.New("registration must reference an athlete")

// Validate checks the registration against its session definition.
// PRE: def is the schedule named by r.ScheduleID
// POST: Returns nil if r names a date on which def runs
func (r *Registration) Validate(def Schedule) error {
	if strings.TrimSpace(r.AthleteID) == "" {
		return ErrEmptyAthlete
	}
	d, err := time.Parse(DateLayout, r.Date)
	if err != nil {
		return ErrInvalidDate
	}
	if !def.OccursOn(d) {
		return ErrNoOccurrence
	}
	return nil
}
