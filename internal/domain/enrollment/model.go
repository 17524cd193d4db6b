package enrollment

import (
	"errors"
	"strings"
	"time"
)

// Source records how an enrollment came to exist.
type Source string

// Source constants
const (
	SourceAdmin   Source = "admin"
	SourcePayment Source = "payment"
)

// Domain errors
var (
	ErrEmptyMember     = errors.New("enrollment must reference a member")
	ErrEmptyProgram    = errors.New("enrollment must reference a program")
	ErrInvalidSource   = errors.New("source must be admin or payment")
	ErrAlreadyEnrolled = errors.New("member already enrolled in program")
	ErrProgramFull     = errors.New("program has no free slot")
	ErrProgramMissing  = errors.New("program does not exist")
)

// Enrollment links one member to one program. At most one row exists per
// (member, program); removal is a hard delete.
type Enrollment struct {
	ID        string
	MemberID  string
	ProgramID string
	Source    Source
	CreatedAt time.Time
}

// Validate checks if the Enrollment has valid data.
// PRE: Enrollment struct is populated
// POST: Returns nil if valid, error otherwise
func (e *Enrollment) Validate() error {
	if strings.TrimSpace(e.MemberID) == "" {
		return ErrEmptyMember
	}
	if strings.TrimSpace(e.ProgramID) == "" {
		return ErrEmptyProgram
	}
	if e.Source != SourceAdmin && e.Source != SourcePayment {
		return ErrInvalidSource
	}
	if e.CreatedAt.IsZero() {
		return errors.New("created_at must be set")
	}
	return nil
}
