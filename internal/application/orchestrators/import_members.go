package orchestrators

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"net/mail"
	"strings"

	"fieldhouse/internal/domain/apperr"
	"fieldhouse/internal/domain/member"
	"fieldhouse/internal/domain/program"
)

// ImportMembersInput carries a roster CSV with a header row. Required columns
// are NAME and EMAIL; PHONE, ROLE and PROGRAM are optional.
type ImportMembersInput struct {
	Actor  Actor
	Reader io.Reader
	DryRun bool
}

// ImportMembersResult holds aggregate counts and per-row errors from an import run.
type ImportMembersResult struct {
	Total    int
	Created  int
	Skipped  int
	Enrolled int
	Errors   []ImportRowError
	Unknown  []string
	DryRun   bool
}

// ImportRowError describes why one CSV row was not imported.
type ImportRowError struct {
	Row     int
	Message string
}

// ImportMembersDeps holds dependencies for ImportMembers.
type ImportMembersDeps struct {
	MemberStore     MemberStoreForCreate
	ProgramStore    ProgramStore
	EnrollmentStore EnrollmentStore
	GenerateID      IDFunc
	Now             NowFunc
}

var importColumns = map[string]bool{"NAME": true, "EMAIL": true, "PHONE": true, "ROLE": true, "PROGRAM": true}

// ExecuteImportMembers creates placeholder members from a roster CSV and
// optionally enrolls each one in the program named on its row.
// PRE: Actor may manage the roster
// POST: Rows whose email already exists are skipped; nothing is written when DryRun
// INVARIANT: Enrollment goes through AssignProgram, so capacity still applies
func ExecuteImportMembers(ctx context.Context, input ImportMembersInput, deps ImportMembersDeps) (ImportMembersResult, error) {
	cr := csv.NewReader(input.Reader)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return ImportMembersResult{}, apperr.Validation("file", "roster CSV needs a header row")
	}
	col := make(map[string]int, len(header))
	result := ImportMembersResult{DryRun: input.DryRun}
	for i, h := range header {
		name := strings.ToUpper(strings.TrimSpace(h))
		col[name] = i
		if !importColumns[name] {
			result.Unknown = append(result.Unknown, h)
		}
	}
	for _, required := range []string{"NAME", "EMAIL"} {
		if _, ok := col[required]; !ok {
			return ImportMembersResult{}, apperr.Validation("file", "roster CSV is missing column "+required)
		}
	}
	get := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	programs, err := deps.ProgramStore.List(ctx, false)
	if err != nil {
		return ImportMembersResult{}, apperr.Internal(err)
	}
	programByName := make(map[string]program.Program, len(programs))
	for _, p := range programs {
		programByName[strings.ToLower(p.Name)] = p
	}

	for rowNum := 2; ; rowNum++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: "unreadable row"})
			continue
		}
		result.Total++

		addr, err := mail.ParseAddress(get(row, "EMAIL"))
		if err != nil {
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: "invalid email: " + get(row, "EMAIL")})
			continue
		}
		email := member.NormalizeEmail(addr.Address)

		var target *program.Program
		if name := get(row, "PROGRAM"); name != "" {
			p, ok := programByName[strings.ToLower(name)]
			if !ok {
				result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: "unknown or disabled program: " + name})
				continue
			}
			target = &p
		}

		if _, err := deps.MemberStore.GetByEmail(ctx, email); err == nil {
			result.Skipped++
			continue
		} else if !errors.Is(err, member.ErrNotFound) {
			return result, apperr.Internal(err)
		}

		role := member.Role(strings.ToLower(get(row, "ROLE")))
		if role == "" {
			role = member.RoleMember
		}
		if input.DryRun {
			probe := member.Member{Name: get(row, "NAME"), Email: email, Phone: get(row, "PHONE"), Role: role}
			if err := probe.Validate(); err != nil {
				result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: err.Error()})
				continue
			}
			result.Created++
			if target != nil {
				result.Enrolled++
			}
			continue
		}

		m, err := ExecuteCreateMember(ctx, CreateMemberInput{
			Actor: input.Actor,
			Name:  get(row, "NAME"),
			Email: email,
			Phone: get(row, "PHONE"),
			Role:  role,
		}, CreateMemberDeps{MemberStore: deps.MemberStore, GenerateID: deps.GenerateID, Now: deps.Now})
		if err != nil {
			if apperr.KindOf(err) == apperr.KindInternal {
				slog.Error("members_import_save_failed", "row", rowNum, "email", email, "err", err)
				result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: "save failed (see server log)"})
			} else {
				result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: err.Error()})
			}
			continue
		}
		result.Created++

		if target == nil {
			continue
		}
		_, err = ExecuteAssignProgram(ctx, AssignProgramInput{Actor: input.Actor, MemberID: m.ID, ProgramID: target.ID},
			AssignProgramDeps{
				MemberStore:     memberByID{id: m.ID, m: m},
				ProgramStore:    deps.ProgramStore,
				EnrollmentStore: deps.EnrollmentStore,
				GenerateID:      deps.GenerateID,
				Now:             deps.Now,
			})
		if err != nil {
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: "member created but not enrolled: " + apperr.PublicMessage(err)})
			continue
		}
		result.Enrolled++
	}

	slog.Info("members_import", "actor", input.Actor.MemberID, "dry_run", input.DryRun,
		"total", result.Total, "created", result.Created, "skipped", result.Skipped,
		"enrolled", result.Enrolled, "errors", len(result.Errors))
	return result, nil
}

// memberByID answers lookups for the member an import row just created.
type memberByID struct {
	id string
	m  member.Member
}

func (s memberByID) GetByID(_ context.Context, id string) (member.Member, error) {
	if id != s.id {
		return member.Member{}, member.ErrNotFound
	}
	return s.m, nil
}
