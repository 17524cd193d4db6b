package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"fieldhouse/internal/domain/apperr"
	"fieldhouse/internal/domain/enrollment"
	"fieldhouse/internal/domain/member"
	"fieldhouse/internal/domain/program"
	"fieldhouse/internal/metrics"
)

// MemberLookup defines the member store interface needed to resolve references.
type MemberLookup interface {
	GetByID(ctx context.Context, id string) (member.Member, error)
}

// EnrollmentStore defines the store interface needed by the enrollment orchestrators.
type EnrollmentStore interface {
	Assign(ctx context.Context, e enrollment.Enrollment) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]enrollment.Enrollment, error)
}

// AssignProgramInput carries input for AssignProgram.
type AssignProgramInput struct {
	Actor     Actor
	MemberID  string
	ProgramID string
	Source    enrollment.Source // defaults to admin
}

// AssignProgramDeps holds dependencies for AssignProgram.
type AssignProgramDeps struct {
	MemberStore     MemberLookup
	ProgramStore    programGetter
	EnrollmentStore EnrollmentStore
	GenerateID      IDFunc
	Now             NowFunc
}

// ExecuteAssignProgram enrolls a member in a program.
// PRE: Caller may manage the roster
// POST: One enrollment row for (member, program) exists
// INVARIANT: The capacity check and insert are a single store call, so two
// concurrent assignments for the last slot cannot both succeed
func ExecuteAssignProgram(ctx context.Context, input AssignProgramInput, deps AssignProgramDeps) (enrollment.Enrollment, error) {
	if strings.TrimSpace(input.MemberID) == "" {
		return enrollment.Enrollment{}, apperr.Validation("memberId", "is required")
	}
	if input.Source == "" {
		input.Source = enrollment.SourceAdmin
	}
	if _, err := deps.MemberStore.GetByID(ctx, input.MemberID); err != nil {
		if errors.Is(err, member.ErrNotFound) {
			return enrollment.Enrollment{}, apperr.NotFound("member", input.MemberID)
		}
		return enrollment.Enrollment{}, apperr.Internal(err)
	}
	p, err := loadProgram(ctx, deps.ProgramStore, input.ProgramID)
	if err != nil {
		return enrollment.Enrollment{}, err
	}

	e := enrollment.Enrollment{
		ID:        newID(deps.GenerateID),
		MemberID:  input.MemberID,
		ProgramID: p.ID,
		Source:    input.Source,
		CreatedAt: now(deps.Now),
	}
	if err := e.Validate(); err != nil {
		return enrollment.Enrollment{}, invalid("enrollment", err)
	}

	switch err := deps.EnrollmentStore.Assign(ctx, e); {
	case err == nil:
	case errors.Is(err, enrollment.ErrAlreadyEnrolled):
		metrics.EnrollmentsTotal.WithLabelValues("duplicate").Inc()
		return enrollment.Enrollment{}, &apperr.DuplicateEnrollmentError{MemberID: e.MemberID, ProgramID: e.ProgramID}
	case errors.Is(err, enrollment.ErrProgramFull):
		metrics.EnrollmentsTotal.WithLabelValues("capacity").Inc()
		slog.Info("enrollment_event", "event", "assignment_rejected", "reason", "capacity",
			"member_id", e.MemberID, "program_id", e.ProgramID, "limit", p.Limit())
		return enrollment.Enrollment{}, &apperr.CapacityExceededError{Target: "program", ID: p.ID, Limit: p.Limit()}
	case errors.Is(err, program.ErrDisabled):
		metrics.EnrollmentsTotal.WithLabelValues("disabled").Inc()
		return enrollment.Enrollment{}, apperr.Validation("programId", "program is disabled")
	case errors.Is(err, enrollment.ErrProgramMissing):
		return enrollment.Enrollment{}, apperr.NotFound("program", e.ProgramID)
	default:
		return enrollment.Enrollment{}, apperr.Internal(err)
	}

	metrics.EnrollmentsTotal.WithLabelValues("assigned").Inc()
	slog.Info("enrollment_event", "event", "program_assigned", "enrollment_id", e.ID,
		"member_id", e.MemberID, "program_id", e.ProgramID, "source", e.Source, "actor", input.Actor.MemberID)
	return e, nil
}

// RemoveProgramDeps holds dependencies for RemoveProgram.
type RemoveProgramDeps struct {
	EnrollmentStore EnrollmentStore
}

// ExecuteRemoveProgram hard-deletes an enrollment. Removing an unknown or
// already-removed enrollment succeeds.
// PRE: Caller may manage the roster
// POST: No enrollment with enrollmentID exists
func ExecuteRemoveProgram(ctx context.Context, actor Actor, enrollmentID string, deps RemoveProgramDeps) error {
	if strings.TrimSpace(enrollmentID) == "" {
		return apperr.Validation("enrollmentId", "is required")
	}
	if err := deps.EnrollmentStore.Delete(ctx, enrollmentID); err != nil {
		return apperr.Internal(err)
	}
	slog.Info("enrollment_event", "event", "program_removed", "enrollment_id", enrollmentID, "actor", actor.MemberID)
	return nil
}

// MemberLister defines the member store interface needed for roster views.
type MemberLister interface {
	ListAll(ctx context.Context) ([]member.Member, error)
}

// ProgramEnrollment is one enrollment with its program's name.
type ProgramEnrollment struct {
	enrollment.Enrollment
	ProgramName   string
	ProgramActive bool
}

// MemberWithPrograms is one roster row.
type MemberWithPrograms struct {
	Member      member.Member
	Enrollments []ProgramEnrollment
}

// ListMembersWithProgramsDeps holds dependencies for ListMembersWithPrograms.
type ListMembersWithProgramsDeps struct {
	MemberStore     MemberLister
	ProgramStore    ProgramStore
	EnrollmentStore EnrollmentStore
}

// ExecuteListMembersWithPrograms builds the roster: every member with its enrollments.
// PRE: Caller may manage the roster
// POST: Members appear in store order; each member's enrollments oldest first
func ExecuteListMembersWithPrograms(ctx context.Context, deps ListMembersWithProgramsDeps) ([]MemberWithPrograms, error) {
	members, err := deps.MemberStore.ListAll(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	programs, err := deps.ProgramStore.List(ctx, true)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	enrollments, err := deps.EnrollmentStore.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	byID := make(map[string]program.Program, len(programs))
	for _, p := range programs {
		byID[p.ID] = p
	}
	byMember := make(map[string][]ProgramEnrollment)
	for _, e := range enrollments {
		p := byID[e.ProgramID]
		byMember[e.MemberID] = append(byMember[e.MemberID], ProgramEnrollment{
			Enrollment:    e,
			ProgramName:   p.Name,
			ProgramActive: p.Active,
		})
	}

	roster := make([]MemberWithPrograms, 0, len(members))
	for _, m := range members {
		list := byMember[m.ID]
		if list == nil {
			list = []ProgramEnrollment{}
		}
		roster = append(roster, MemberWithPrograms{Member: m, Enrollments: list})
	}
	return roster, nil
}
