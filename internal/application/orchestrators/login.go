package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"fieldhouse/internal/domain/member"
)

// MemberStoreForLogin defines the store interface needed by Login.
type MemberStoreForLogin interface {
	GetByEmail(ctx context.Context, email string) (member.Member, error)
	Save(ctx context.Context, m member.Member) error
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult carries the result of a successful login.
type LoginResult struct {
	MemberID string
	Email    string
	Role     member.Role
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	MemberStore MemberStoreForLogin
	Now         NowFunc
}

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is locked due to too many failed attempts")
)

// ExecuteLogin validates credentials and returns member info for session creation.
// PRE: Valid email and password provided
// POST: Returns member info on success, records failed login on failure
// INVARIANT: Locked and placeholder members cannot log in
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	if input.Email == "" || input.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}
	at := now(deps.Now)

	m, err := deps.MemberStore.GetByEmail(ctx, input.Email)
	if err != nil {
		slog.Info("auth_event", "event", "login_failed", "email", input.Email, "reason", "not_found")
		return LoginResult{}, ErrInvalidCredentials
	}

	if m.IsLocked(at) {
		slog.Info("auth_event", "event", "login_blocked", "email", input.Email, "reason", "locked")
		return LoginResult{}, ErrAccountLocked
	}

	if err := m.CheckPassword(input.Password); err != nil {
		if m.IsPlaceholder() {
			slog.Info("auth_event", "event", "login_failed", "email", input.Email, "reason", "placeholder")
			return LoginResult{}, ErrInvalidCredentials
		}
		m.RecordFailedLogin(at)
		if saveErr := deps.MemberStore.Save(ctx, m); saveErr != nil {
			slog.Error("auth_event", "event", "failed_login_not_recorded", "email", input.Email, "error", saveErr)
		}
		slog.Info("auth_event", "event", "login_failed", "email", input.Email, "reason", "wrong_password", "failed_logins", m.FailedLogins)
		return LoginResult{}, ErrInvalidCredentials
	}

	if m.FailedLogins > 0 || !m.LockedUntil.IsZero() {
		m.ResetFailedLogins()
		if err := deps.MemberStore.Save(ctx, m); err != nil {
			slog.Error("auth_event", "event", "failed_login_reset_failed", "email", input.Email, "error", err)
		}
	}

	slog.Info("auth_event", "event", "login_success", "email", input.Email, "role", m.Role)

	return LoginResult{MemberID: m.ID, Email: m.Email, Role: m.Role}, nil
}
