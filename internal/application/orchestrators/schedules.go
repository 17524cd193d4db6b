package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"fieldhouse/internal/domain/apperr"
	"fieldhouse/internal/domain/capacity"
	"fieldhouse/internal/domain/schedule"
	"fieldhouse/internal/metrics"
)

// ScheduleStore defines the store interface needed by the schedule orchestrators.
type ScheduleStore interface {
	GetByID(ctx context.Context, id string) (schedule.Schedule, error)
	Save(ctx context.Context, s schedule.Schedule) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]schedule.Schedule, error)
	Register(ctx context.Context, r schedule.Registration) (bool, error)
	CountRegistrations(ctx context.Context, scheduleID, date string) (int, error)
}

// ScheduleDeps holds dependencies for the schedule orchestrators.
type ScheduleDeps struct {
	ScheduleStore ScheduleStore
	GenerateID    IDFunc
	Now           NowFunc
}

// AddScheduleInput carries a session definition. Date is optional and makes
// the definition a one-off on that date.
type AddScheduleInput struct {
	Title           string
	Description     string
	Day             string
	Date            string
	StartTime       string
	EndTime         string
	Location        string
	SessionType     schedule.SessionType
	MaxParticipants *int
}

var scheduleFields = map[error]string{
	schedule.ErrEmptyTitle:       "title",
	schedule.ErrInvalidDay:       "day",
	schedule.ErrInvalidDate:      "date",
	schedule.ErrDayDateMismatch:  "day",
	schedule.ErrInvalidStartTime: "startTime",
	schedule.ErrInvalidEndTime:   "endTime",
	schedule.ErrStartNotBefore:   "endTime",
	schedule.ErrInvalidType:      "sessionType",
	schedule.ErrNegativeCapacity: "maxParticipants",
}

// ExecuteAddSchedule validates and stores a session definition.
// PRE: Caller may manage schedules
// POST: Returns the stored definition with its new ID
func ExecuteAddSchedule(ctx context.Context, input AddScheduleInput, deps ScheduleDeps) (schedule.Schedule, error) {
	if input.SessionType == "" {
		input.SessionType = schedule.TypeRegular
	}
	s := schedule.Schedule{
		ID:              newID(deps.GenerateID),
		Title:           strings.TrimSpace(input.Title),
		Description:     strings.TrimSpace(input.Description),
		Day:             schedule.NormalizeDay(input.Day),
		Date:            strings.TrimSpace(input.Date),
		StartTime:       strings.TrimSpace(input.StartTime),
		EndTime:         strings.TrimSpace(input.EndTime),
		Location:        strings.TrimSpace(input.Location),
		SessionType:     input.SessionType,
		MaxParticipants: input.MaxParticipants,
	}
	if err := s.Validate(); err != nil {
		return schedule.Schedule{}, apperr.Validation(scheduleFields[err], err.Error())
	}
	s.Day = s.EffectiveDay()

	if err := deps.ScheduleStore.Save(ctx, s); err != nil {
		return schedule.Schedule{}, apperr.Internal(err)
	}
	slog.Info("schedule_event", "event", "schedule_added", "schedule_id", s.ID, "day", s.Day, "date", s.Date, "start", s.StartTime)
	return s, nil
}

// ExecuteRemoveSchedule deletes a session definition. Attendance already
// recorded against it is kept. Removing an unknown ID is a no-op.
// PRE: Caller may manage schedules
func ExecuteRemoveSchedule(ctx context.Context, scheduleID string, deps ScheduleDeps) error {
	if strings.TrimSpace(scheduleID) == "" {
		return apperr.Validation("scheduleId", "is required")
	}
	if err := deps.ScheduleStore.Delete(ctx, scheduleID); err != nil {
		return apperr.Internal(err)
	}
	slog.Info("schedule_event", "event", "schedule_removed", "schedule_id", scheduleID)
	return nil
}

// ExecuteGroupByDay returns every stored definition grouped for display.
// POST: Days follow order; days without sessions are omitted
func ExecuteGroupByDay(ctx context.Context, order schedule.DayOrder, deps ScheduleDeps) ([]schedule.DayGroup, error) {
	all, err := deps.ScheduleStore.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	groups := schedule.GroupByDay(all, order)
	if groups == nil {
		groups = []schedule.DayGroup{}
	}
	return groups, nil
}

// WeekSession is one dated occurrence in the week view.
type WeekSession struct {
	Schedule   schedule.Schedule
	Date       string
	Registered int
	Remaining  int // -1 when unlimited
}

// WeekDay is one day of the week view.
type WeekDay struct {
	Day      string
	Date     string
	Sessions []WeekSession
}

// ExecuteWeekView computes the concrete sessions of the week containing weekOf.
// Occurrences are derived from the definitions on read; nothing is materialised.
// POST: Days follow order; each session carries its date and registration count
func ExecuteWeekView(ctx context.Context, weekOf time.Time, order schedule.DayOrder, deps ScheduleDeps) ([]WeekDay, error) {
	all, err := deps.ScheduleStore.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	start := schedule.WeekStart(weekOf)
	end := start.AddDate(0, 0, 6)

	dates := make(map[string]string) // schedule ID -> date this week
	var running []schedule.Schedule
	for _, s := range all {
		occ := s.Occurrences(start, end)
		if len(occ) == 0 {
			continue
		}
		dates[s.ID] = occ[0].Format(schedule.DateLayout)
		running = append(running, s)
	}

	days := []WeekDay{}
	for _, g := range schedule.GroupByDay(running, order) {
		day := WeekDay{Day: g.Day}
		for _, s := range g.Schedules {
			date := dates[s.ID]
			day.Date = date
			n, err := deps.ScheduleStore.CountRegistrations(ctx, s.ID, date)
			if err != nil {
				return nil, apperr.Internal(err)
			}
			day.Sessions = append(day.Sessions, WeekSession{
				Schedule:   s,
				Date:       date,
				Registered: n,
				Remaining:  capacity.Remaining(n, s.MaxParticipants),
			})
		}
		days = append(days, day)
	}
	return days, nil
}

// RegisterForSessionInput carries input for RegisterForSession.
type RegisterForSessionInput struct {
	Actor      Actor
	AthleteID  string
	ScheduleID string
	Date       string // YYYY-MM-DD
}

// RegisterForSessionResult reports the registration and whether it predated the call.
type RegisterForSessionResult struct {
	Registration      schedule.Registration
	AlreadyRegistered bool
}

// RegisterForSessionDeps holds dependencies for RegisterForSession.
type RegisterForSessionDeps struct {
	ScheduleStore ScheduleStore
	MemberStore   MemberLookup
	LinkStore     GuardianLinkReader
	GenerateID    IDFunc
	Now           NowFunc
}

// ExecuteRegisterForSession reserves a place for an athlete in one occurrence.
// PRE: Actor is the athlete, a linked guardian, or may manage the roster
// POST: The athlete holds exactly one registration for the occurrence
// INVARIANT: The capacity check and insert are one store call
func ExecuteRegisterForSession(ctx context.Context, input RegisterForSessionInput, deps RegisterForSessionDeps) (RegisterForSessionResult, error) {
	if err := authorizeForAthlete(ctx, input.Actor, input.AthleteID, deps.MemberStore, deps.LinkStore); err != nil {
		return RegisterForSessionResult{}, err
	}
	def, err := deps.ScheduleStore.GetByID(ctx, input.ScheduleID)
	if errors.Is(err, schedule.ErrNotFound) {
		return RegisterForSessionResult{}, apperr.NotFound("schedule", input.ScheduleID)
	}
	if err != nil {
		return RegisterForSessionResult{}, apperr.Internal(err)
	}

	at := now(deps.Now)
	r := schedule.Registration{
		ID:         newID(deps.GenerateID),
		ScheduleID: def.ID,
		Date:       strings.TrimSpace(input.Date),
		AthleteID:  input.AthleteID,
		CreatedAt:  at,
	}
	if err := r.Validate(def); err != nil {
		return RegisterForSessionResult{}, apperr.Validation("date", err.Error())
	}
	if r.Date < at.Format(schedule.DateLayout) {
		return RegisterForSessionResult{}, apperr.Validation("date", "session has already taken place")
	}

	already, err := deps.ScheduleStore.Register(ctx, r)
	switch {
	case errors.Is(err, schedule.ErrSessionFull):
		metrics.SessionRegistrationsTotal.WithLabelValues("capacity").Inc()
		limit := 0
		if def.MaxParticipants != nil {
			limit = *def.MaxParticipants
		}
		return RegisterForSessionResult{}, &apperr.CapacityExceededError{Target: "session", ID: def.ID + "@" + r.Date, Limit: limit}
	case errors.Is(err, schedule.ErrNotFound):
		return RegisterForSessionResult{}, apperr.NotFound("schedule", def.ID)
	case err != nil:
		return RegisterForSessionResult{}, apperr.Internal(err)
	}

	if already {
		metrics.SessionRegistrationsTotal.WithLabelValues("duplicate").Inc()
	} else {
		metrics.SessionRegistrationsTotal.WithLabelValues("registered").Inc()
		slog.Info("schedule_event", "event", "session_registered", "schedule_id", def.ID, "date", r.Date,
			"athlete_id", r.AthleteID, "actor", input.Actor.MemberID)
	}
	return RegisterForSessionResult{Registration: r, AlreadyRegistered: already}, nil
}
