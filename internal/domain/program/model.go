package program

import (
	"errors"
	"strings"

	"fieldhouse/internal/domain/capacity"
)

// MaxNameLength bounds the program name.
const MaxNameLength = 100

// Domain errors
var (
	ErrEmptyName     = errors.New("program name cannot be empty")
	ErrNameTooLong   = errors.New("program name cannot exceed 100 characters")
	ErrNegativeLimit = errors.New("max enrollees cannot be negative")
	ErrDisabled      = errors.New("program is disabled")
	ErrNotFound      = errors.New("program not found")
	ErrNameTaken     = errors.New("a program with that name already exists")
)

// Program is a recurring training program athletes enroll in
// (e.g. Performance Lab, Speed & Agility). Programs are never deleted
// while enrollments reference them; Active=false soft-disables.
type Program struct {
	ID           string
	Name         string
	MaxEnrollees *int // nil means unlimited, 0 means closed
	Active       bool
}

// Validate checks if the Program has valid data.
// PRE: Program struct is populated
// POST: Returns nil if valid, error otherwise
func (p *Program) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if len(p.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if p.MaxEnrollees != nil && *p.MaxEnrollees < 0 {
		return ErrNegativeLimit
	}
	return nil
}

// CanAdmit applies the capacity policy to the program's limit.
func (p *Program) CanAdmit(enrolled int) bool {
	return capacity.CanAdmit(enrolled, p.MaxEnrollees)
}

// Limit returns the limit as an int, or -1 when unlimited.
func (p *Program) Limit() int {
	if p.MaxEnrollees == nil {
		return -1
	}
	return *p.MaxEnrollees
}
