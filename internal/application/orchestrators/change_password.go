package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"fieldhouse/internal/domain/apperr"
	"fieldhouse/internal/domain/member"
)

// ChangePasswordInput carries input for the change-password orchestrator.
type ChangePasswordInput struct {
	Actor           Actor
	CurrentPassword string
	NewPassword     string
}

// ChangePasswordDeps holds dependencies for ChangePassword.
type ChangePasswordDeps struct {
	MemberStore MemberStoreForRole
}

var ErrNewPasswordSame = errors.New("new password must be different from current password")

// ExecuteChangePassword sets the actor's password.
// PRE: Actor is authenticated, so the member already has a password
// POST: PasswordHash is replaced and any lockout is cleared
func ExecuteChangePassword(ctx context.Context, input ChangePasswordInput, deps ChangePasswordDeps) error {
	m, err := deps.MemberStore.GetByID(ctx, input.Actor.MemberID)
	if errors.Is(err, member.ErrNotFound) {
		return apperr.NotFound("member", input.Actor.MemberID)
	}
	if err != nil {
		return apperr.Internal(err)
	}

	if err := m.CheckPassword(input.CurrentPassword); err != nil {
		return apperr.Validation("currentPassword", "current password is incorrect")
	}
	if input.CurrentPassword == input.NewPassword {
		return apperr.Validation("newPassword", ErrNewPasswordSame.Error())
	}
	if err := m.SetPassword(input.NewPassword); err != nil {
		if errors.Is(err, member.ErrPasswordTooShort) {
			return apperr.Validation("newPassword", err.Error())
		}
		return apperr.Internal(err)
	}
	m.ResetFailedLogins()

	if err := deps.MemberStore.Save(ctx, m); err != nil {
		return apperr.Internal(err)
	}
	slog.Info("auth_event", "event", "password_changed", "member_id", m.ID)
	return nil
}
