package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"fieldhouse/internal/domain/apperr"
	"fieldhouse/internal/domain/program"
)

// ProgramStore defines the store interface needed by the program orchestrators.
type ProgramStore interface {
	GetByID(ctx context.Context, id string) (program.Program, error)
	Create(ctx context.Context, p program.Program) error
	Save(ctx context.Context, p program.Program) error
	List(ctx context.Context, includeInactive bool) ([]program.Program, error)
}

// ProgramDeps holds dependencies for the program orchestrators.
type ProgramDeps struct {
	ProgramStore ProgramStore
	GenerateID   IDFunc
}

// CreateProgramInput carries input for CreateProgram.
// A nil MaxEnrollees means unlimited.
type CreateProgramInput struct {
	Name         string
	MaxEnrollees *int
}

// ExecuteCreateProgram creates an active program.
// PRE: Caller may manage schedules
// POST: Program persisted and active
func ExecuteCreateProgram(ctx context.Context, input CreateProgramInput, deps ProgramDeps) (program.Program, error) {
	p := program.Program{
		ID:           newID(deps.GenerateID),
		Name:         strings.TrimSpace(input.Name),
		MaxEnrollees: input.MaxEnrollees,
		Active:       true,
	}
	if err := p.Validate(); err != nil {
		return program.Program{}, invalid("program", err)
	}
	if err := deps.ProgramStore.Create(ctx, p); err != nil {
		if errors.Is(err, program.ErrNameTaken) {
			return program.Program{}, apperr.Validation("name", err.Error())
		}
		return program.Program{}, apperr.Internal(err)
	}
	slog.Info("program_event", "event", "program_created", "program_id", p.ID, "name", p.Name, "limit", p.Limit())
	return p, nil
}

// UpdateProgramLimitInput carries input for UpdateProgramLimit.
type UpdateProgramLimitInput struct {
	ProgramID    string
	MaxEnrollees *int
}

// ExecuteUpdateProgramLimit changes a program's capacity. Lowering the limit
// below current enrollment keeps existing enrollees and blocks new ones.
// PRE: Caller may manage schedules
// POST: Program's MaxEnrollees is updated
func ExecuteUpdateProgramLimit(ctx context.Context, input UpdateProgramLimitInput, deps ProgramDeps) (program.Program, error) {
	p, err := loadProgram(ctx, deps.ProgramStore, input.ProgramID)
	if err != nil {
		return program.Program{}, err
	}
	p.MaxEnrollees = input.MaxEnrollees
	if err := p.Validate(); err != nil {
		return program.Program{}, invalid("maxEnrollees", err)
	}
	if err := deps.ProgramStore.Save(ctx, p); err != nil {
		return program.Program{}, apperr.Internal(err)
	}
	slog.Info("program_event", "event", "program_limit_changed", "program_id", p.ID, "limit", p.Limit())
	return p, nil
}

// ExecuteDisableProgram soft-disables a program. Existing enrollments stay;
// new assignments are rejected. Disabling twice is a no-op.
// PRE: Caller may manage schedules
// POST: Program.Active is false
func ExecuteDisableProgram(ctx context.Context, programID string, deps ProgramDeps) (program.Program, error) {
	p, err := loadProgram(ctx, deps.ProgramStore, programID)
	if err != nil {
		return program.Program{}, err
	}
	if !p.Active {
		return p, nil
	}
	p.Active = false
	if err := deps.ProgramStore.Save(ctx, p); err != nil {
		return program.Program{}, apperr.Internal(err)
	}
	slog.Info("program_event", "event", "program_disabled", "program_id", p.ID)
	return p, nil
}

// ExecuteListPrograms lists programs, optionally including disabled ones.
func ExecuteListPrograms(ctx context.Context, includeInactive bool, deps ProgramDeps) ([]program.Program, error) {
	programs, err := deps.ProgramStore.List(ctx, includeInactive)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if programs == nil {
		programs = []program.Program{}
	}
	return programs, nil
}

type programGetter interface {
	GetByID(ctx context.Context, id string) (program.Program, error)
}

func loadProgram(ctx context.Context, store programGetter, id string) (program.Program, error) {
	if strings.TrimSpace(id) == "" {
		return program.Program{}, apperr.Validation("programId", "is required")
	}
	p, err := store.GetByID(ctx, id)
	if errors.Is(err, program.ErrNotFound) {
		return program.Program{}, apperr.NotFound("program", id)
	}
	if err != nil {
		return program.Program{}, apperr.Internal(err)
	}
	return p, nil
}
