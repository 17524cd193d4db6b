package orchestrators

import (
	"context"
	"testing"

	"fieldhouse/internal/domain/apperr"
	"fieldhouse/internal/domain/member"
)

// TestProgramLifecycle tests create, limit changes and soft-disable.
func TestProgramLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	deps := ProgramDeps{ProgramStore: f.programs, GenerateID: seqIDs("prog")}

	p, err := ExecuteCreateProgram(ctx, CreateProgramInput{Name: " Performance Lab ", MaxEnrollees: intPtr(1)}, deps)
	if err != nil || p.Name != "Performance Lab" || !p.Active {
		t.Fatalf("create: %+v, %v", p, err)
	}
	_, err = ExecuteCreateProgram(ctx, CreateProgramInput{Name: "Performance Lab"}, deps)
	requireKind(t, err, apperr.KindValidation)
	_, err = ExecuteCreateProgram(ctx, CreateProgramInput{Name: "Negative", MaxEnrollees: intPtr(-2)}, deps)
	requireKind(t, err, apperr.KindValidation)

	// Lowering below current enrollment keeps the enrollee and blocks newcomers.
	f.addMember(t, "m1", "m1@example.com", member.RoleMember)
	f.addMember(t, "m2", "m2@example.com", member.RoleMember)
	if _, err := ExecuteAssignProgram(ctx, AssignProgramInput{Actor: adminActor, MemberID: "m1", ProgramID: p.ID}, f.assignDeps()); err != nil {
		t.Fatal(err)
	}
	if _, err := ExecuteUpdateProgramLimit(ctx, UpdateProgramLimitInput{ProgramID: p.ID, MaxEnrollees: intPtr(0)}, deps); err != nil {
		t.Fatalf("lower limit: %v", err)
	}
	if n, _ := f.enrollments.CountByProgram(ctx, p.ID); n != 1 {
		t.Errorf("count after lowering = %d, want 1", n)
	}
	_, err = ExecuteAssignProgram(ctx, AssignProgramInput{Actor: adminActor, MemberID: "m2", ProgramID: p.ID}, f.assignDeps())
	requireKind(t, err, apperr.KindCapacityExceeded)

	if _, err := ExecuteUpdateProgramLimit(ctx, UpdateProgramLimitInput{ProgramID: p.ID}, deps); err != nil {
		t.Fatalf("remove limit: %v", err)
	}
	if _, err := ExecuteAssignProgram(ctx, AssignProgramInput{Actor: adminActor, MemberID: "m2", ProgramID: p.ID}, f.assignDeps()); err != nil {
		t.Fatalf("assign after unlimiting: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := ExecuteDisableProgram(ctx, p.ID, deps); err != nil {
			t.Fatalf("disable #%d: %v", i+1, err)
		}
	}
	active, _ := ExecuteListPrograms(ctx, false, deps)
	all, _ := ExecuteListPrograms(ctx, true, deps)
	if len(active) != 0 || len(all) != 1 {
		t.Errorf("active=%d all=%d, want 0 and 1", len(active), len(all))
	}
	if n, _ := f.enrollments.CountByProgram(ctx, p.ID); n != 2 {
		t.Errorf("disable dropped enrollments: count = %d", n)
	}

	_, err = ExecuteDisableProgram(ctx, "missing", deps)
	requireKind(t, err, apperr.KindNotFound)
}
