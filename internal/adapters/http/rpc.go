package web

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"fieldhouse/internal/application/orchestrators"
	"fieldhouse/internal/domain/apperr"
	"fieldhouse/internal/domain/attendance"
	"fieldhouse/internal/domain/booking"
	"fieldhouse/internal/domain/enrollment"
	"fieldhouse/internal/domain/guardian"
	"fieldhouse/internal/domain/intake"
	"fieldhouse/internal/domain/member"
	"fieldhouse/internal/domain/schedule"
)

// procedure is one typed remote call. A public procedure runs without a
// session; otherwise the caller's role must grant capability.
type procedure struct {
	public     bool
	capability member.Capability
	call       func(s *server, r *http.Request, actor orchestrators.Actor) (any, error)
}

// handleRPC handles POST /rpc/{procedure}.
func (s *server) handleRPC(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("procedure")
	proc, ok := s.procs[name]
	if !ok {
		writeError(w, r, apperr.NotFound("procedure", name))
		return
	}

	actor, signedIn, err := s.actorFrom(r)
	if err != nil {
		internalError(w, r, err)
		return
	}
	if !proc.public {
		if !signedIn {
			writeErrorKind(w, http.StatusUnauthorized, "unauthenticated", "sign in to call "+name)
			return
		}
		if !actor.Can(proc.capability) {
			slog.Warn("auth_denied", "procedure", name, "member_id", actor.MemberID, "role", actor.Role, "required", proc.capability)
			writeErrorKind(w, http.StatusForbidden, "forbidden", "your role may not call "+name)
			return
		}
	}

	out, err := proc.call(s, r, actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if out == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// decode reads the request body into a fresh In.
func decode[In any](r *http.Request) (In, error) {
	var in In
	err := strictDecode(r, &in)
	return in, err
}

func (s *server) procedures() map[string]procedure {
	return map[string]procedure{
		// Enrollment
		"AssignProgram":           {capability: member.CapManageRoster, call: rpcAssignProgram},
		"RemoveProgram":           {capability: member.CapManageRoster, call: rpcRemoveProgram},
		"ListMembersWithPrograms": {capability: member.CapManageRoster, call: rpcListMembersWithPrograms},

		// Programs
		"CreateProgram":      {capability: member.CapManageSchedules, call: rpcCreateProgram},
		"UpdateProgramLimit": {capability: member.CapManageSchedules, call: rpcUpdateProgramLimit},
		"DisableProgram":     {capability: member.CapManageSchedules, call: rpcDisableProgram},
		"ListPrograms":       {capability: member.CapViewOwnData, call: rpcListPrograms},

		// Members
		"CreateMember":   {capability: member.CapManageRoster, call: rpcCreateMember},
		"ChangeRole":     {capability: member.CapManageSchedules, call: rpcChangeRole},
		"ChangePassword": {capability: member.CapViewOwnData, call: rpcChangePassword},
		"ImportMembers":  {capability: member.CapManageRoster, call: rpcImportMembers},

		// Schedules
		"AddSchedule":        {capability: member.CapManageSchedules, call: rpcAddSchedule},
		"RemoveSchedule":     {capability: member.CapManageSchedules, call: rpcRemoveSchedule},
		"GroupByDay":         {public: true, call: rpcGroupByDay},
		"WeekView":           {public: true, call: rpcWeekView},
		"RegisterForSession": {capability: member.CapViewOwnData, call: rpcRegisterForSession},

		// Attendance
		"MarkAttendance": {capability: member.CapManageRoster, call: rpcMarkAttendance},
		"GetForAthlete":  {capability: member.CapViewOwnData, call: rpcGetForAthlete},
		"GetForGuardian": {capability: member.CapViewOwnData, call: rpcGetForGuardian},

		// Bookings
		"CreateBooking":        {public: true, call: rpcCreateBooking},
		"Transition":           {capability: member.CapManageRoster, call: rpcTransition},
		"ListByCoachAndStatus": {capability: member.CapManageRoster, call: rpcListByCoachAndStatus},

		// Guardians
		"LinkByEmail": {capability: member.CapViewOwnData, call: rpcLinkByEmail},
		"ListLinks":   {capability: member.CapViewOwnData, call: rpcListLinks},

		// Intake
		"SubmitIntake": {public: true, call: rpcSubmitIntake},
	}
}

func (s *server) assignDeps() orchestrators.AssignProgramDeps {
	return orchestrators.AssignProgramDeps{
		MemberStore:     s.stores.MemberStore,
		ProgramStore:    s.stores.ProgramStore,
		EnrollmentStore: s.stores.EnrollmentStore,
		GenerateID:      s.opts.GenerateID,
		Now:             s.opts.Now,
	}
}

func (s *server) programDeps() orchestrators.ProgramDeps {
	return orchestrators.ProgramDeps{ProgramStore: s.stores.ProgramStore, GenerateID: s.opts.GenerateID}
}

func (s *server) scheduleDeps() orchestrators.ScheduleDeps {
	return orchestrators.ScheduleDeps{ScheduleStore: s.stores.ScheduleStore, GenerateID: s.opts.GenerateID, Now: s.opts.Now}
}

func (s *server) attendanceDeps() orchestrators.AttendanceDeps {
	return orchestrators.AttendanceDeps{
		AttendanceStore: s.stores.AttendanceStore,
		ScheduleStore:   s.stores.ScheduleStore,
		MemberStore:     s.stores.MemberStore,
		LinkStore:       s.stores.GuardianStore,
		GenerateID:      s.opts.GenerateID,
		Now:             s.opts.Now,
	}
}

func (s *server) bookingDeps() orchestrators.BookingDeps {
	return orchestrators.BookingDeps{
		BookingStore: s.stores.BookingStore,
		MemberStore:  s.stores.MemberStore,
		GenerateID:   s.opts.GenerateID,
		Now:          s.opts.Now,
	}
}

// --- Enrollment ---

type assignProgramRequest struct {
	MemberID  string `json:"memberId"`
	ProgramID string `json:"programId"`
	Source    string `json:"source"`
}

func rpcAssignProgram(s *server, r *http.Request, actor orchestrators.Actor) (any, error) {
	in, err := decode[assignProgramRequest](r)
	if err != nil {
		return nil, err
	}
	e, err := orchestrators.ExecuteAssignProgram(r.Context(), orchestrators.AssignProgramInput{
		Actor:     actor,
		MemberID:  in.MemberID,
		ProgramID: in.ProgramID,
		Source:    enrollment.Source(in.Source),
	}, s.assignDeps())
	if err != nil {
		return nil, err
	}
	return newEnrollmentView(e), nil
}

type enrollmentIDRequest struct {
	EnrollmentID string `json:"enrollmentId"`
}

func rpcRemoveProgram(s *server, r *http.Request, actor orchestrators.Actor) (any, error) {
	in, err := decode[enrollmentIDRequest](r)
	if err != nil {
		return nil, err
	}
	err = orchestrators.ExecuteRemoveProgram(r.Context(), actor, in.EnrollmentID,
		orchestrators.RemoveProgramDeps{EnrollmentStore: s.stores.EnrollmentStore})
	return nil, err
}

func rpcListMembersWithPrograms(s *server, r *http.Request, _ orchestrators.Actor) (any, error) {
	rows, err := orchestrators.ExecuteListMembersWithPrograms(r.Context(), orchestrators.ListMembersWithProgramsDeps{
		MemberStore:     s.stores.MemberStore,
		ProgramStore:    s.stores.ProgramStore,
		EnrollmentStore: s.stores.EnrollmentStore,
	})
	if err != nil {
		return nil, err
	}
	return newRosterView(rows), nil
}

// --- Programs ---

type createProgramRequest struct {
	Name         string `json:"name"`
	MaxEnrollees *int   `json:"maxEnrollees"`
}

func rpcCreateProgram(s *server, r *http.Request, _ orchestrators.Actor) (any, error) {
	in, err := decode[createProgramRequest](r)
	if err != nil {
		return nil, err
	}
	p, err := orchestrators.ExecuteCreateProgram(r.Context(), orchestrators.CreateProgramInput{
		Name:         in.Name,
		MaxEnrollees: in.MaxEnrollees,
	}, s.programDeps())
	if err != nil {
		return nil, err
	}
	return newProgramView(p), nil
}

type updateProgramLimitRequest struct {
	ProgramID    string `json:"programId"`
	MaxEnrollees *int   `json:"maxEnrollees"`
}

func rpcUpdateProgramLimit(s *server, r *http.Request, _ orchestrators.Actor) (any, error) {
	in, err := decode[updateProgramLimitRequest](r)
	if err != nil {
		return nil, err
	}
	p, err := orchestrators.ExecuteUpdateProgramLimit(r.Context(), orchestrators.UpdateProgramLimitInput{
		ProgramID:    in.ProgramID,
		MaxEnrollees: in.MaxEnrollees,
	}, s.programDeps())
	if err != nil {
		return nil, err
	}
	return newProgramView(p), nil
}

type programIDRequest struct {
	ProgramID string `json:"programId"`
}

func rpcDisableProgram(s *server, r *http.Request, _ orchestrators.Actor) (any, error) {
	in, err := decode[programIDRequest](r)
	if err != nil {
		return nil, err
	}
	p, err := orchestrators.ExecuteDisableProgram(r.Context(), in.ProgramID, s.programDeps())
	if err != nil {
		return nil, err
	}
	return newProgramView(p), nil
}

type listProgramsRequest struct {
	IncludeInactive bool `json:"includeInactive"`
}

func rpcListPrograms(s *server, r *http.Request, actor orchestrators.Actor) (any, error) {
	in, err := decode[listProgramsRequest](r)
	if err != nil {
		return nil, err
	}
	// Disabled programs are an admin concern.
	includeInactive := in.IncludeInactive && actor.Can(member.CapManageSchedules)
	ps, err := orchestrators.ExecuteListPrograms(r.Context(), includeInactive, s.programDeps())
	if err != nil {
		return nil, err
	}
	return newProgramViews(ps), nil
}

// --- Members ---

type createMemberRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

func rpcCreateMember(s *server, r *http.Request, actor orchestrators.Actor) (any, error) {
	in, err := decode[createMemberRequest](r)
	if err != nil {
		return nil, err
	}
	m, err := orchestrators.ExecuteCreateMember(r.Context(), orchestrators.CreateMemberInput{
		Actor:    actor,
		Name:     in.Name,
		Email:    in.Email,
		Phone:    in.Phone,
		Role:     member.Role(in.Role),
		Password: in.Password,
	}, orchestrators.CreateMemberDeps{MemberStore: s.stores.MemberStore, GenerateID: s.opts.GenerateID, Now: s.opts.Now})
	if err != nil {
		return nil, err
	}
	return newMemberView(m), nil
}

type changeRoleRequest struct {
	MemberID string `json:"memberId"`
	Role     string `json:"role"`
}

func rpcChangeRole(s *server, r *http.Request, actor orchestrators.Actor) (any, error) {
	in, err := decode[changeRoleRequest](r)
	if err != nil {
		return nil, err
	}
	m, err := orchestrators.ExecuteChangeRole(r.Context(), orchestrators.ChangeRoleInput{
		Actor:    actor,
		MemberID: in.MemberID,
		Role:     member.Role(in.Role),
	}, orchestrators.ChangeRoleDeps{MemberStore: s.stores.MemberStore})
	if err != nil {
		return nil, err
	}
	return newMemberView(m), nil
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func rpcChangePassword(s *server, r *http.Request, actor orchestrators.Actor) (any, error) {
	in, err := decode[changePasswordRequest](r)
	if err != nil {
		return nil, err
	}
	err = orchestrators.ExecuteChangePassword(r.Context(), orchestrators.ChangePasswordInput{
		Actor:           actor,
		CurrentPassword: in.CurrentPassword,
		NewPassword:     in.NewPassword,
	}, orchestrators.ChangePasswordDeps{MemberStore: s.stores.MemberStore})
	return nil, err
}

type importMembersRequest struct {
	CSV    string `json:"csv"`
	DryRun bool   `json:"dryRun"`
}

func rpcImportMembers(s *server, r *http.Request, actor orchestrators.Actor) (any, error) {
	in, err := decode[importMembersRequest](r)
	if err != nil {
		return nil, err
	}
	res, err := orchestrators.ExecuteImportMembers(r.Context(), orchestrators.ImportMembersInput{
		Actor:  actor,
		Reader: strings.NewReader(in.CSV),
		DryRun: in.DryRun,
	}, orchestrators.ImportMembersDeps{
		MemberStore:     s.stores.MemberStore,
		ProgramStore:    s.stores.ProgramStore,
		EnrollmentStore: s.stores.EnrollmentStore,
		GenerateID:      s.opts.GenerateID,
		Now:             s.opts.Now,
	})
	if err != nil {
		return nil, err
	}
	return newImportResultView(res), nil
}

// --- Schedules ---

type addScheduleRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Day             string `json:"day"`
	Date            string `json:"date"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	Location        string `json:"location"`
	SessionType     string `json:"sessionType"`
	MaxParticipants *int   `json:"maxParticipants"`
}

func rpcAddSchedule(s *server, r *http.Request, _ orchestrators.Actor) (any, error) {
	in, err := decode[addScheduleRequest](r)
	if err != nil {
		return nil, err
	}
	def, err := orchestrators.ExecuteAddSchedule(r.Context(), orchestrators.AddScheduleInput{
		Title:           in.Title,
		Description:     in.Description,
		Day:             in.Day,
		Date:            in.Date,
		StartTime:       in.StartTime,
		EndTime:         in.EndTime,
		Location:        in.Location,
		SessionType:     schedule.SessionType(in.SessionType),
		MaxParticipants: in.MaxParticipants,
	}, s.scheduleDeps())
	if err != nil {
		return nil, err
	}
	return newScheduleView(def), nil
}

type scheduleIDRequest struct {
	ScheduleID string `json:"scheduleId"`
}

func rpcRemoveSchedule(s *server, r *http.Request, _ orchestrators.Actor) (any, error) {
	in, err := decode[scheduleIDRequest](r)
	if err != nil {
		return nil, err
	}
	return nil, orchestrators.ExecuteRemoveSchedule(r.Context(), in.ScheduleID, s.scheduleDeps())
}

func rpcGroupByDay(s *server, r *http.Request, _ orchestrators.Actor) (any, error) {
	groups, err := orchestrators.ExecuteGroupByDay(r.Context(), s.opts.DayOrder, s.scheduleDeps())
	if err != nil {
		return nil, err
	}
	return newDayGroupViews(groups), nil
}

type weekViewRequest struct {
	WeekOf string `json:"weekOf"` // YYYY-MM-DD, defaults to today
}

func rpcWeekView(s *server, r *http.Request, _ orchestrators.Actor) (any, error) {
	in, err := decode[weekViewRequest](r)
	if err != nil {
		return nil, err
	}
	weekOf := time.Now().UTC()
	if s.opts.Now != nil {
		weekOf = s.opts.Now()
	}
	if in.WeekOf != "" {
		weekOf, err = time.Parse(time.DateOnly, in.WeekOf)
		if err != nil {
			return nil, apperr.Validation("weekOf", "must be YYYY-MM-DD")
		}
	}
	days, err := orchestrators.ExecuteWeekView(r.Context(), weekOf, s.opts.DayOrder, s.scheduleDeps())
	if err != nil {
		return nil, err
	}
	return newWeekViews(days), nil
}

type registerForSessionRequest struct {
	AthleteID  string `json:"athleteId"`
	ScheduleID string `json:"scheduleId"`
	Date       string `json:"date"`
}

func rpcRegisterForSession(s *server, r *http.Request, actor orchestrators.Actor) (any, error) {
	in, err := decode[registerForSessionRequest](r)
	if err != nil {
		return nil, err
	}
	if in.AthleteID == "" {
		in.AthleteID = actor.MemberID
	}
	res, err := orchestrators.ExecuteRegisterForSession(r.Context(), orchestrators.RegisterForSessionInput{
		Actor:      actor,
		AthleteID:  in.AthleteID,
		ScheduleID: in.ScheduleID,
		Date:       in.Date,
	}, orchestrators.RegisterForSessionDeps{
		ScheduleStore: s.stores.ScheduleStore,
		MemberStore:   s.stores.MemberStore,
		LinkStore:     s.stores.GuardianStore,
		GenerateID:    s.opts.GenerateID,
		Now:           s.opts.Now,
	})
	if err != nil {
		return nil, err
	}
	return newRegisterResultView(res), nil
}

// --- Attendance ---

type markAttendanceRequest struct {
	OccurrenceID string `json:"occurrenceId"`
	AthleteID    string `json:"athleteId"`
	Status       string `json:"status"`
}

func rpcMarkAttendance(s *server, r *http.Request, actor orchestrators.Actor) (any, error) {
	in, err := decode[markAttendanceRequest](r)
	if err != nil {
		return nil, err
	}
	rec, err := orchestrators.ExecuteMarkAttendance(r.Context(), orchestrators.MarkAttendanceInput{
		Actor:        actor,
		OccurrenceID: in.OccurrenceID,
		AthleteID:    in.AthleteID,
		Status:       attendance.Status(in.Status),
	}, s.attendanceDeps())
	if err != nil {
		return nil, err
	}
	return newAttendanceView(rec), nil
}

type athleteIDRequest struct {
	AthleteID string `json:"athleteId"`
}

func rpcGetForAthlete(s *server, r *http.Request, actor orchestrators.Actor) (any, error) {
	in, err := decode[athleteIDRequest](r)
	if err != nil {
		return nil, err
	}
	if in.AthleteID == "" {
		in.AthleteID = actor.MemberID
	}
	recs, err := orchestrators.ExecuteGetForAthlete(r.Context(), actor, in.AthleteID, s.attendanceDeps())
	if err != nil {
		return nil, err
	}
	return newAttendanceViews(recs), nil
}

type guardianIDRequest struct {
	GuardianID string `json:"guardianId"`
}

func rpcGetForGuardian(s *server, r *http.Request, actor orchestrators.Actor) (any, error) {
	in, err := decode[guardianIDRequest](r)
	if err != nil {
		return nil, err
	}
	if in.GuardianID == "" {
		in.GuardianID = actor.MemberID
	}
	byAthlete, err := orchestrators.ExecuteGetForGuardian(r.Context(), actor, in.GuardianID, s.attendanceDeps())
	if err != nil {
		return nil, err
	}
	out := make(map[string][]attendanceView, len(byAthlete))
	for athleteID, recs := range byAthlete {
		out[athleteID] = newAttendanceViews(recs)
	}
	return out, nil
}

// --- Bookings ---

type createBookingRequest struct {
	Customer struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	} `json:"customer"`
	CoachID     string `json:"coachId"`
	Preferences struct {
		PreferredDates string `json:"preferredDates"`
		PreferredTimes string `json:"preferredTimes"`
		Notes          string `json:"notes"`
	} `json:"preferences"`
	PaymentSessionID string `json:"paymentSessionId"`
}

func rpcCreateBooking(s *server, r *http.Request, _ orchestrators.Actor) (any, error) {
	in, err := decode[createBookingRequest](r)
	if err != nil {
		return nil, err
	}
	b, err := orchestrators.ExecuteCreateBooking(r.Context(), orchestrators.CreateBookingInput{
		Customer: booking.Customer{Name: in.Customer.Name, Email: in.Customer.Email, Phone: in.Customer.Phone},
		CoachID:  in.CoachID,
		Preferences: booking.Preferences{
			PreferredDates: in.Preferences.PreferredDates,
			PreferredTimes: in.Preferences.PreferredTimes,
			Notes:          in.Preferences.Notes,
		},
		PaymentSessionID: in.PaymentSessionID,
	}, s.bookingDeps())
	if err != nil {
		return nil, err
	}
	return newBookingView(b), nil
}

type transitionRequest struct {
	BookingID string `json:"bookingId"`
	Target    string `json:"target"`
	Expected  string `json:"expected"` // the status the caller saw; required
}

func rpcTransition(s *server, r *http.Request, actor orchestrators.Actor) (any, error) {
	in, err := decode[transitionRequest](r)
	if err != nil {
		return nil, err
	}
	b, err := orchestrators.ExecuteTransition(r.Context(), orchestrators.TransitionInput{
		Actor:     actor,
		BookingID: in.BookingID,
		Target:    booking.Status(in.Target),
		Expected:  booking.Status(in.Expected),
	}, s.bookingDeps())
	if err != nil {
		return nil, err
	}
	return newBookingView(b), nil
}

type listBookingsRequest struct {
	CoachID string `json:"coachId"`
	Status  string `json:"status"`
}

func rpcListByCoachAndStatus(s *server, r *http.Request, actor orchestrators.Actor) (any, error) {
	in, err := decode[listBookingsRequest](r)
	if err != nil {
		return nil, err
	}
	bs, err := orchestrators.ExecuteListByCoachAndStatus(r.Context(), orchestrators.ListBookingsInput{
		Actor:   actor,
		CoachID: in.CoachID,
		Status:  booking.Status(in.Status),
	}, s.bookingDeps())
	if err != nil {
		return nil, err
	}
	return newBookingViews(bs), nil
}

// --- Guardians ---

type linkByEmailRequest struct {
	GuardianID   string `json:"guardianId"`
	AthleteEmail string `json:"athleteEmail"`
	Relationship string `json:"relationship"`
}

type linkByEmailResponse struct {
	AlreadyLinked bool     `json:"alreadyLinked"`
	Link          linkView `json:"link"`
}

func rpcLinkByEmail(s *server, r *http.Request, actor orchestrators.Actor) (any, error) {
	in, err := decode[linkByEmailRequest](r)
	if err != nil {
		return nil, err
	}
	res, err := orchestrators.ExecuteLinkByEmail(r.Context(), orchestrators.LinkByEmailInput{
		Actor:        actor,
		GuardianID:   in.GuardianID,
		AthleteEmail: in.AthleteEmail,
		Relationship: guardian.Relationship(in.Relationship),
	}, orchestrators.GuardianDeps{
		MemberStore: s.stores.MemberStore,
		LinkStore:   s.stores.GuardianStore,
		GenerateID:  s.opts.GenerateID,
		Now:         s.opts.Now,
	})
	if err != nil {
		return nil, err
	}
	return linkByEmailResponse{AlreadyLinked: res.AlreadyLinked, Link: newLinkView(res.Link)}, nil
}

func rpcListLinks(s *server, r *http.Request, actor orchestrators.Actor) (any, error) {
	in, err := decode[guardianIDRequest](r)
	if err != nil {
		return nil, err
	}
	if in.GuardianID == "" {
		in.GuardianID = actor.MemberID
	}
	links, err := orchestrators.ExecuteListLinks(r.Context(), actor, in.GuardianID, s.stores.GuardianStore)
	if err != nil {
		return nil, err
	}
	return newLinkViews(links), nil
}

// --- Intake ---

func rpcSubmitIntake(s *server, r *http.Request, _ orchestrators.Actor) (any, error) {
	lead, err := decode[intake.Lead](r)
	if err != nil {
		return nil, err
	}
	return orchestrators.ExecuteSubmitIntake(r.Context(), lead, s.intakeDeps())
}
