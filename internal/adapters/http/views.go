package web

import (
	"time"

	"fieldhouse/internal/application/orchestrators"
	"fieldhouse/internal/domain/attendance"
	"fieldhouse/internal/domain/booking"
	"fieldhouse/internal/domain/enrollment"
	"fieldhouse/internal/domain/guardian"
	"fieldhouse/internal/domain/member"
	"fieldhouse/internal/domain/program"
	"fieldhouse/internal/domain/schedule"
)

// Response shapes. Domain types carry no JSON tags; these views fix the wire names.

type memberView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Role        string    `json:"role"`
	Placeholder bool      `json:"placeholder"`
	CreatedAt   time.Time `json:"createdAt"`
}

func newMemberView(m member.Member) memberView {
	return memberView{
		ID:          m.ID,
		Name:        m.Name,
		Email:       m.Email,
		Phone:       m.Phone,
		Role:        string(m.Role),
		Placeholder: m.IsPlaceholder(),
		CreatedAt:   m.CreatedAt,
	}
}

type programView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MaxEnrollees *int   `json:"maxEnrollees"`
	Active       bool   `json:"active"`
}

func newProgramView(p program.Program) programView {
	return programView{ID: p.ID, Name: p.Name, MaxEnrollees: p.MaxEnrollees, Active: p.Active}
}

func newProgramViews(ps []program.Program) []programView {
	out := make([]programView, 0, len(ps))
	for _, p := range ps {
		out = append(out, newProgramView(p))
	}
	return out
}

type enrollmentView struct {
	ID            string    `json:"id"`
	MemberID      string    `json:"memberId"`
	ProgramID     string    `json:"programId"`
	ProgramName   string    `json:"programName,omitempty"`
	ProgramActive *bool     `json:"programActive,omitempty"`
	Source        string    `json:"source"`
	CreatedAt     time.Time `json:"createdAt"`
}

func newEnrollmentView(e enrollment.Enrollment) enrollmentView {
	return enrollmentView{
		ID:        e.ID,
		MemberID:  e.MemberID,
		ProgramID: e.ProgramID,
		Source:    string(e.Source),
		CreatedAt: e.CreatedAt,
	}
}

type memberWithProgramsView struct {
	Member      memberView       `json:"member"`
	Enrollments []enrollmentView `json:"enrollments"`
}

func newRosterView(rows []orchestrators.MemberWithPrograms) []memberWithProgramsView {
	out := make([]memberWithProgramsView, 0, len(rows))
	for _, row := range rows {
		v := memberWithProgramsView{
			Member:      newMemberView(row.Member),
			Enrollments: make([]enrollmentView, 0, len(row.Enrollments)),
		}
		for _, pe := range row.Enrollments {
			ev := newEnrollmentView(pe.Enrollment)
			ev.ProgramName = pe.ProgramName
			active := pe.ProgramActive
			ev.ProgramActive = &active
			v.Enrollments = append(v.Enrollments, ev)
		}
		out = append(out, v)
	}
	return out
}

type scheduleView struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	Day             string `json:"day"`
	Date            string `json:"date,omitempty"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	Location        string `json:"location,omitempty"`
	SessionType     string `json:"sessionType"`
	MaxParticipants *int   `json:"maxParticipants"`
}

func newScheduleView(s schedule.Schedule) scheduleView {
	return scheduleView{
		ID:              s.ID,
		Title:           s.Title,
		Description:     s.Description,
		Day:             s.Day,
		Date:            s.Date,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		Location:        s.Location,
		SessionType:     string(s.SessionType),
		MaxParticipants: s.MaxParticipants,
	}
}

type dayGroupView struct {
	Day       string         `json:"day"`
	Schedules []scheduleView `json:"schedules"`
}

func newDayGroupViews(groups []schedule.DayGroup) []dayGroupView {
	out := make([]dayGroupView, 0, len(groups))
	for _, g := range groups {
		v := dayGroupView{Day: g.Day, Schedules: make([]scheduleView, 0, len(g.Schedules))}
		for _, s := range g.Schedules {
			v.Schedules = append(v.Schedules, newScheduleView(s))
		}
		out = append(out, v)
	}
	return out
}

type weekSessionView struct {
	Schedule     scheduleView `json:"schedule"`
	OccurrenceID string       `json:"occurrenceId"`
	Date         string       `json:"date"`
	Registered   int          `json:"registered"`
	Remaining    *int         `json:"remaining"` // null when unlimited
}

type weekDayView struct {
	Day      string            `json:"day"`
	Date     string            `json:"date"`
	Sessions []weekSessionView `json:"sessions"`
}

func newWeekViews(days []orchestrators.WeekDay) []weekDayView {
	out := make([]weekDayView, 0, len(days))
	for _, d := range days {
		v := weekDayView{Day: d.Day, Date: d.Date, Sessions: make([]weekSessionView, 0, len(d.Sessions))}
		for _, s := range d.Sessions {
			sv := weekSessionView{
				Schedule:     newScheduleView(s.Schedule),
				OccurrenceID: attendance.Occurrence{ScheduleID: s.Schedule.ID, Date: s.Date}.String(),
				Date:         s.Date,
				Registered:   s.Registered,
			}
			if s.Remaining >= 0 {
				remaining := s.Remaining
				sv.Remaining = &remaining
			}
			v.Sessions = append(v.Sessions, sv)
		}
		out = append(out, v)
	}
	return out
}

type registrationView struct {
	ID           string    `json:"id"`
	ScheduleID   string    `json:"scheduleId"`
	Date         string    `json:"date"`
	OccurrenceID string    `json:"occurrenceId"`
	AthleteID    string    `json:"athleteId"`
	CreatedAt    time.Time `json:"createdAt"`
}

type registerResultView struct {
	AlreadyRegistered bool             `json:"alreadyRegistered"`
	Registration      registrationView `json:"registration"`
}

func newRegisterResultView(res orchestrators.RegisterForSessionResult) registerResultView {
	r := res.Registration
	return registerResultView{
		AlreadyRegistered: res.AlreadyRegistered,
		Registration: registrationView{
			ID:           r.ID,
			ScheduleID:   r.ScheduleID,
			Date:         r.Date,
			OccurrenceID: attendance.Occurrence{ScheduleID: r.ScheduleID, Date: r.Date}.String(),
			AthleteID:    r.AthleteID,
			CreatedAt:    r.CreatedAt,
		},
	}
}

type attendanceView struct {
	ID           string    `json:"id"`
	OccurrenceID string    `json:"occurrenceId"`
	ScheduleID   string    `json:"scheduleId"`
	Date         string    `json:"date"`
	AthleteID    string    `json:"athleteId"`
	Status       string    `json:"status"`
	MarkedBy     string    `json:"markedBy"`
	MarkedAt     time.Time `json:"markedAt"`
}

func newAttendanceView(r attendance.Record) attendanceView {
	return attendanceView{
		ID:           r.ID,
		OccurrenceID: r.Occurrence.String(),
		ScheduleID:   r.Occurrence.ScheduleID,
		Date:         r.Occurrence.Date,
		AthleteID:    r.AthleteID,
		Status:       string(r.Status),
		MarkedBy:     r.MarkedBy,
		MarkedAt:     r.MarkedAt,
	}
}

func newAttendanceViews(rs []attendance.Record) []attendanceView {
	out := make([]attendanceView, 0, len(rs))
	for _, r := range rs {
		out = append(out, newAttendanceView(r))
	}
	return out
}

type customerView struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type preferencesView struct {
	PreferredDates string `json:"preferredDates,omitempty"`
	PreferredTimes string `json:"preferredTimes,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

type bookingView struct {
	ID               string          `json:"id"`
	Customer         customerView    `json:"customer"`
	CoachID          string          `json:"coachId"`
	Preferences      preferencesView `json:"preferences"`
	Status           string          `json:"status"`
	PaymentSessionID string          `json:"paymentSessionId,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
	UpdatedBy        string          `json:"updatedBy,omitempty"`
}

func newBookingView(b booking.Booking) bookingView {
	return bookingView{
		ID:       b.ID,
		Customer: customerView{Name: b.Customer.Name, Email: b.Customer.Email, Phone: b.Customer.Phone},
		CoachID:  b.CoachID,
		Preferences: preferencesView{
			PreferredDates: b.Preferences.PreferredDates,
			PreferredTimes: b.Preferences.PreferredTimes,
			Notes:          b.Preferences.Notes,
		},
		Status:           string(b.Status),
		PaymentSessionID: b.PaymentSessionID,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
		UpdatedBy:        b.UpdatedBy,
	}
}

func newBookingViews(bs []booking.Booking) []bookingView {
	out := make([]bookingView, 0, len(bs))
	for _, b := range bs {
		out = append(out, newBookingView(b))
	}
	return out
}

type linkView struct {
	ID           string    `json:"id"`
	GuardianID   string    `json:"guardianId"`
	AthleteID    string    `json:"athleteId"`
	Relationship string    `json:"relationship"`
	CreatedAt    time.Time `json:"createdAt"`
}

func newLinkView(l guardian.Link) linkView {
	return linkView{
		ID:           l.ID,
		GuardianID:   l.GuardianID,
		AthleteID:    l.AthleteID,
		Relationship: string(l.Relationship),
		CreatedAt:    l.CreatedAt,
	}
}

func newLinkViews(ls []guardian.Link) []linkView {
	out := make([]linkView, 0, len(ls))
	for _, l := range ls {
		out = append(out, newLinkView(l))
	}
	return out
}

type importRowErrorView struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type importResultView struct {
	Total    int                  `json:"total"`
	Created  int                  `json:"created"`
	Skipped  int                  `json:"skipped"`
	Enrolled int                  `json:"enrolled"`
	Errors   []importRowErrorView `json:"errors"`
	Unknown  []string             `json:"unknownColumns"`
	DryRun   bool                 `json:"dryRun"`
}

func newImportResultView(res orchestrators.ImportMembersResult) importResultView {
	v := importResultView{
		Total:    res.Total,
		Created:  res.Created,
		Skipped:  res.Skipped,
		Enrolled: res.Enrolled,
		Errors:   make([]importRowErrorView, 0, len(res.Errors)),
		Unknown:  res.Unknown,
		DryRun:   res.DryRun,
	}
	if v.Unknown == nil {
		v.Unknown = []string{}
	}
	for _, e := range res.Errors {
		v.Errors = append(v.Errors, importRowErrorView{Row: e.Row, Message: e.Message})
	}
	return v
}
