package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"fieldhouse/internal/domain/apperr"
	"fieldhouse/internal/domain/attendance"
	"fieldhouse/internal/domain/member"
	"fieldhouse/internal/domain/schedule"
	"fieldhouse/internal/metrics"
)

// AttendanceStore defines the store interface needed by the attendance orchestrators.
type AttendanceStore interface {
	Mark(ctx context.Context, r attendance.Record) (attendance.Record, error)
	ListByAthlete(ctx context.Context, athleteID string) ([]attendance.Record, error)
}

type scheduleGetter interface {
	GetByID(ctx context.Context, id string) (schedule.Schedule, error)
}

// MarkAttendanceInput carries input for MarkAttendance. OccurrenceID has the
// form "<schedule-id>@YYYY-MM-DD".
type MarkAttendanceInput struct {
	Actor        Actor
	OccurrenceID string
	AthleteID    string
	Status       attendance.Status
}

// AttendanceDeps holds dependencies for the attendance orchestrators.
type AttendanceDeps struct {
	AttendanceStore AttendanceStore
	ScheduleStore   scheduleGetter
	MemberStore     MemberLookup
	LinkStore       GuardianLinkReader
	GenerateID      IDFunc
	Now             NowFunc
}

// ExecuteMarkAttendance records an athlete's status for one occurrence.
// PRE: Actor may manage the roster
// POST: Exactly one record exists for (occurrence, athlete) carrying this call's status
// INVARIANT: The write is a single upsert; no read precedes it
func ExecuteMarkAttendance(ctx context.Context, input MarkAttendanceInput, deps AttendanceDeps) (attendance.Record, error) {
	if !input.Actor.Can(member.CapManageRoster) {
		return attendance.Record{}, forbidden("occurrence", input.OccurrenceID)
	}
	occ, err := attendance.ParseOccurrence(input.OccurrenceID)
	if err != nil {
		return attendance.Record{}, apperr.Validation("occurrenceId", err.Error())
	}
	def, err := deps.ScheduleStore.GetByID(ctx, occ.ScheduleID)
	if errors.Is(err, schedule.ErrNotFound) {
		return attendance.Record{}, apperr.NotFound("schedule", occ.ScheduleID)
	}
	if err != nil {
		return attendance.Record{}, apperr.Internal(err)
	}
	day, _ := occ.Time()
	if !def.OccursOn(day) {
		return attendance.Record{}, apperr.Validation("occurrenceId", schedule.ErrNoOccurrence.Error())
	}
	if _, err := deps.MemberStore.GetByID(ctx, input.AthleteID); err != nil {
		if errors.Is(err, member.ErrNotFound) {
			return attendance.Record{}, apperr.NotFound("member", input.AthleteID)
		}
		return attendance.Record{}, apperr.Internal(err)
	}

	r := attendance.Record{
		ID:         newID(deps.GenerateID),
		Occurrence: occ,
		AthleteID:  input.AthleteID,
		Status:     input.Status,
		MarkedBy:   input.Actor.MemberID,
		MarkedAt:   now(deps.Now),
	}
	if err := r.Validate(); err != nil {
		field := "attendance"
		if errors.Is(err, attendance.ErrInvalidStatus) {
			field = "status"
		}
		return attendance.Record{}, apperr.Validation(field, err.Error())
	}

	stored, err := deps.AttendanceStore.Mark(ctx, r)
	if err != nil {
		return attendance.Record{}, apperr.Internal(err)
	}
	metrics.AttendanceMarksTotal.WithLabelValues(string(stored.Status)).Inc()
	slog.Info("attendance_event", "event", "attendance_marked", "occurrence", occ.String(),
		"athlete_id", stored.AthleteID, "status", stored.Status, "marked_by", stored.MarkedBy)
	return stored, nil
}

// ExecuteGetForAthlete returns an athlete's records, most recent occurrence first.
// PRE: Actor is the athlete, a linked guardian, or may manage the roster
func ExecuteGetForAthlete(ctx context.Context, actor Actor, athleteID string, deps AttendanceDeps) ([]attendance.Record, error) {
	if err := authorizeForAthlete(ctx, actor, athleteID, deps.MemberStore, deps.LinkStore); err != nil {
		return nil, err
	}
	records, err := deps.AttendanceStore.ListByAthlete(ctx, athleteID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if records == nil {
		records = []attendance.Record{}
	}
	return records, nil
}

// ExecuteGetForGuardian returns the records of every athlete linked to the guardian,
// keyed by athlete ID. A guardian without links gets an empty map.
// PRE: Actor is the guardian or may manage the roster
func ExecuteGetForGuardian(ctx context.Context, actor Actor, guardianID string, deps AttendanceDeps) (map[string][]attendance.Record, error) {
	if guardianID == "" {
		guardianID = actor.MemberID
	}
	if guardianID != actor.MemberID && !actor.Can(member.CapManageRoster) {
		return nil, forbidden("member", guardianID)
	}
	links, err := deps.LinkStore.ListByGuardian(ctx, guardianID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	out := make(map[string][]attendance.Record, len(links))
	for _, l := range links {
		records, err := deps.AttendanceStore.ListByAthlete(ctx, l.AthleteID)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if records == nil {
			records = []attendance.Record{}
		}
		out[l.AthleteID] = records
	}
	return out, nil
}
