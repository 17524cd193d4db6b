package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"fieldhouse/internal/domain/apperr"
	"fieldhouse/internal/domain/member"
)

// MemberStoreForCreate defines the store interface needed by CreateMember.
type MemberStoreForCreate interface {
	GetByEmail(ctx context.Context, email string) (member.Member, error)
	Create(ctx context.Context, m member.Member) error
}

// CreateMemberInput carries input for the orchestrator.
// An empty Password creates a placeholder that cannot log in yet.
type CreateMemberInput struct {
	Actor    Actor
	Name     string
	Email    string
	Phone    string
	Role     member.Role
	Password string
}

// CreateMemberDeps holds dependencies for CreateMember.
type CreateMemberDeps struct {
	MemberStore MemberStoreForCreate
	GenerateID  IDFunc
	Now         NowFunc
}

// ExecuteCreateMember creates a member account.
// PRE: Actor may manage the roster; only admins may create coaches or admins
// POST: Member persisted with a hashed password or as a placeholder
// INVARIANT: Email is unique, compared case-insensitively
func ExecuteCreateMember(ctx context.Context, input CreateMemberInput, deps CreateMemberDeps) (member.Member, error) {
	if input.Role == "" {
		input.Role = member.RoleMember
	}
	if input.Role != member.RoleMember && !input.Actor.IsAdmin() {
		return member.Member{}, apperr.Validation("role", "only admins can create coach or admin accounts")
	}

	m := member.Member{
		ID:        newID(deps.GenerateID),
		Name:      strings.TrimSpace(input.Name),
		Email:     member.NormalizeEmail(input.Email),
		Phone:     strings.TrimSpace(input.Phone),
		Role:      input.Role,
		CreatedAt: now(deps.Now),
	}
	if err := m.Validate(); err != nil {
		return member.Member{}, invalid("member", err)
	}
	if input.Password != "" {
		if err := m.SetPassword(input.Password); err != nil {
			if errors.Is(err, member.ErrPasswordTooShort) {
				return member.Member{}, apperr.Validation("password", err.Error())
			}
			return member.Member{}, apperr.Internal(err)
		}
	}

	if err := deps.MemberStore.Create(ctx, m); err != nil {
		if errors.Is(err, member.ErrEmailTaken) {
			return member.Member{}, apperr.Validation("email", err.Error())
		}
		return member.Member{}, apperr.Internal(err)
	}

	slog.Info("member_event", "event", "member_created", "member_id", m.ID, "role", m.Role,
		"placeholder", m.IsPlaceholder(), "actor", input.Actor.MemberID)
	return m, nil
}

// MemberStoreForRole defines the store interface needed by ChangeRole.
type MemberStoreForRole interface {
	GetByID(ctx context.Context, id string) (member.Member, error)
	Save(ctx context.Context, m member.Member) error
}

// ChangeRoleInput carries input for the orchestrator.
type ChangeRoleInput struct {
	Actor    Actor
	MemberID string
	Role     member.Role
}

// ChangeRoleDeps holds dependencies for ChangeRole.
type ChangeRoleDeps struct {
	MemberStore MemberStoreForRole
}

// ExecuteChangeRole sets a member's role.
// PRE: Actor is an admin
// POST: Member's role is updated
func ExecuteChangeRole(ctx context.Context, input ChangeRoleInput, deps ChangeRoleDeps) (member.Member, error) {
	if !input.Actor.IsAdmin() {
		return member.Member{}, apperr.Validation("role", "only admins can change roles")
	}
	if !input.Role.Valid() {
		return member.Member{}, apperr.Validation("role", member.ErrInvalidRole.Error())
	}

	m, err := deps.MemberStore.GetByID(ctx, input.MemberID)
	if errors.Is(err, member.ErrNotFound) {
		return member.Member{}, apperr.NotFound("member", input.MemberID)
	}
	if err != nil {
		return member.Member{}, apperr.Internal(err)
	}
	if m.Role == input.Role {
		return m, nil
	}

	previous := m.Role
	m.Role = input.Role
	if err := deps.MemberStore.Save(ctx, m); err != nil {
		return member.Member{}, apperr.Internal(err)
	}

	slog.Info("member_event", "event", "role_changed", "member_id", m.ID, "from", previous, "to", m.Role, "actor", input.Actor.MemberID)
	return m, nil
}

// ExecuteSeedAdmin creates the bootstrap admin if no member holds that email.
// PRE: email and password are non-empty
// POST: An admin with email exists
func ExecuteSeedAdmin(ctx context.Context, deps CreateMemberDeps, email, password string) error {
	if _, err := deps.MemberStore.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, member.ErrNotFound) {
		return err
	}
	_, err := ExecuteCreateMember(ctx, CreateMemberInput{
		Actor:    Actor{Role: member.RoleAdmin},
		Name:     "Administrator",
		Email:    email,
		Role:     member.RoleAdmin,
		Password: password,
	}, deps)
	return err
}
