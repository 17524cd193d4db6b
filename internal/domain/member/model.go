package member

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength  = 100
	MaxEmailLength = 254
	MaxPhoneLength = 32
)

// Role is a member's position in the club.
type Role string

// Role constants
const (
	RoleMember Role = "member"
	RoleCoach  Role = "coach"
	RoleAdmin  Role = "admin"
)

// ValidRoles contains all valid role values.
var ValidRoles = []Role{RoleMember, RoleCoach, RoleAdmin}

// Capability is one thing a role may do at the service boundary.
type Capability string

// Capability constants
const (
	CapViewOwnData     Capability = "view-own-data"
	CapManageRoster    Capability = "manage-roster"
	CapManageSchedules Capability = "manage-schedules"
)

var roleCapabilities = map[Role][]Capability{
	RoleMember: {CapViewOwnData},
	RoleCoach:  {CapViewOwnData, CapManageRoster},
	RoleAdmin:  {CapViewOwnData, CapManageRoster, CapManageSchedules},
}

// Can reports whether r grants c.
func (r Role) Can(c Capability) bool {
	for _, have := range roleCapabilities[r] {
		if have == c {
			return true
		}
	}
	return false
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// MaxFailedLogins is the lockout threshold.
const MaxFailedLogins = 5

// Domain errors
var (
	ErrEmptyName        = errors.New("member name cannot be empty")
	ErrNameTooLong      = errors.New("member name cannot exceed 100 characters")
	ErrEmptyEmail       = errors.New("email cannot be empty")
	ErrInvalidEmail     = errors.New("email must contain '@'")
	ErrEmailTooLong     = errors.New("email cannot exceed 254 characters")
	ErrPhoneTooLong     = errors.New("phone cannot exceed 32 characters")
	ErrInvalidRole      = errors.New("role must be one of: member, coach, admin")
	ErrPasswordTooShort = errors.New("password must be at least 12 characters")
	ErrWrongPassword    = errors.New("incorrect password")
	ErrNotFound         = errors.New("member not found")
	ErrEmailTaken       = errors.New("email is already registered")
)

// Member is a person with an account: athlete, guardian, coach or admin.
// Placeholder members created by an admin have no password yet.
type Member struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
	FailedLogins int
	LockedUntil  time.Time
}

// Validate checks if the Member has valid data.
// PRE: Member struct is populated
// POST: Returns nil if valid, error otherwise
func (m *Member) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	if len(m.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if strings.TrimSpace(m.Email) == "" {
		return ErrEmptyEmail
	}
	if len(m.Email) > MaxEmailLength {
		return ErrEmailTooLong
	}
	if !strings.Contains(m.Email, "@") {
		return ErrInvalidEmail
	}
	if len(m.Phone) > MaxPhoneLength {
		return ErrPhoneTooLong
	}
	if !m.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}

// NormalizeEmail lowercases and trims an address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SetPassword hashes and stores a password using bcrypt with cost 12.
// PRE: plaintext is >= 12 characters
// POST: PasswordHash is set to bcrypt hash
func (m *Member) SetPassword(plaintext string) error {
	if len(plaintext) < 12 {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), 12)
	if err != nil {
		return err
	}
	m.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
// INVARIANT: Member fields are not mutated
func (m *Member) CheckPassword(plaintext string) error {
	if m.PasswordHash == "" {
		return ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(plaintext)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// IsPlaceholder reports whether the member has never set a password.
func (m *Member) IsPlaceholder() bool {
	return m.PasswordHash == ""
}

// IsLocked returns true if the member is currently locked out.
func (m *Member) IsLocked(now time.Time) bool {
	return !m.LockedUntil.IsZero() && now.Before(m.LockedUntil)
}

// RecordFailedLogin increments the counter and locks the account after MaxFailedLogins.
func (m *Member) RecordFailedLogin(now time.Time) {
	m.FailedLogins++
	if m.FailedLogins >= MaxFailedLogins {
		m.LockedUntil = now.Add(15 * time.Minute)
	}
}

// ResetFailedLogins clears the failed login counter and lock.
func (m *Member) ResetFailedLogins() {
	m.FailedLogins = 0
	m.LockedUntil = time.Time{}
}
