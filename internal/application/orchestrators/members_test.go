package orchestrators

import (
	"context"
	"errors"
	"testing"

	"fieldhouse/internal/domain/apperr"
	"fieldhouse/internal/domain/member"
)

func (f *fixture) createDeps() CreateMemberDeps {
	return CreateMemberDeps{MemberStore: f.members, GenerateID: seqIDs("mem"), Now: fixedNow}
}

// TestCreateMember tests role restrictions and email uniqueness.
func TestCreateMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	coach := Actor{MemberID: "coach-1", Role: member.RoleCoach}

	m, err := ExecuteCreateMember(ctx, CreateMemberInput{Actor: coach, Name: "Ava Reid", Email: " Ava@Example.com "}, f.createDeps())
	if err != nil {
		t.Fatalf("create placeholder: %v", err)
	}
	if m.Email != "ava@example.com" || m.Role != member.RoleMember || !m.IsPlaceholder() {
		t.Errorf("unexpected member %+v", m)
	}

	tests := []struct {
		name  string
		input CreateMemberInput
		field string
	}{
		{"coach creating coach", CreateMemberInput{Actor: coach, Name: "Dee", Email: "dee@example.com", Role: member.RoleCoach}, "role"},
		{"duplicate email any case", CreateMemberInput{Actor: adminActor, Name: "Ava Two", Email: "AVA@example.com"}, "email"},
		{"short password", CreateMemberInput{Actor: adminActor, Name: "Sam", Email: "sam@example.com", Password: "short"}, "password"},
		{"missing name", CreateMemberInput{Actor: adminActor, Email: "x@example.com"}, "member"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExecuteCreateMember(ctx, tt.input, f.createDeps())
			var ve *apperr.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

// TestChangeRole tests that only admins promote members.
func TestChangeRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addMember(t, "m1", "m1@example.com", member.RoleMember)
	deps := ChangeRoleDeps{MemberStore: f.members}

	_, err := ExecuteChangeRole(ctx, ChangeRoleInput{Actor: Actor{MemberID: "c", Role: member.RoleCoach}, MemberID: "m1", Role: member.RoleCoach}, deps)
	requireKind(t, err, apperr.KindValidation)

	m, err := ExecuteChangeRole(ctx, ChangeRoleInput{Actor: adminActor, MemberID: "m1", Role: member.RoleCoach}, deps)
	if err != nil || m.Role != member.RoleCoach {
		t.Fatalf("promote: %+v, %v", m, err)
	}
	stored, _ := f.members.GetByID(ctx, "m1")
	if stored.Role != member.RoleCoach {
		t.Errorf("stored role = %s", stored.Role)
	}

	_, err = ExecuteChangeRole(ctx, ChangeRoleInput{Actor: adminActor, MemberID: "ghost", Role: member.RoleCoach}, deps)
	requireKind(t, err, apperr.KindNotFound)
}

// TestLoginAndChangePassword tests credentials, lockout and password rotation.
func TestLoginAndChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := ExecuteSeedAdmin(ctx, f.createDeps(), "admin@example.com", "correct horse battery"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	if err := ExecuteSeedAdmin(ctx, f.createDeps(), "admin@example.com", "ignored on second run"); err != nil {
		t.Fatalf("seed admin again: %v", err)
	}
	loginDeps := LoginDeps{MemberStore: f.members, Now: fixedNow}

	res, err := ExecuteLogin(ctx, LoginInput{Email: "admin@example.com", Password: "correct horse battery"}, loginDeps)
	if err != nil || res.Role != member.RoleAdmin {
		t.Fatalf("login: %+v, %v", res, err)
	}

	admin := Actor{MemberID: res.MemberID, Role: res.Role}
	pwDeps := ChangePasswordDeps{MemberStore: f.members}
	err = ExecuteChangePassword(ctx, ChangePasswordInput{Actor: admin, CurrentPassword: "wrong", NewPassword: "a brand new secret"}, pwDeps)
	requireKind(t, err, apperr.KindValidation)
	if err := ExecuteChangePassword(ctx, ChangePasswordInput{Actor: admin, CurrentPassword: "correct horse battery", NewPassword: "a brand new secret"}, pwDeps); err != nil {
		t.Fatalf("change password: %v", err)
	}

	for i := 0; i < member.MaxFailedLogins; i++ {
		if _, err := ExecuteLogin(ctx, LoginInput{Email: "admin@example.com", Password: "correct horse battery"}, loginDeps); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d with old password: %v", i+1, err)
		}
	}
	if _, err := ExecuteLogin(ctx, LoginInput{Email: "admin@example.com", Password: "a brand new secret"}, loginDeps); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected lockout, got %v", err)
	}
}

// TestLogin_Placeholder tests that accounts without a password cannot log in.
func TestLogin_Placeholder(t *testing.T) {
	f := newFixture(t)
	f.addMember(t, "p", "placeholder@example.com", member.RoleMember)
	_, err := ExecuteLogin(context.Background(), LoginInput{Email: "placeholder@example.com", Password: "anything at all"}, LoginDeps{MemberStore: f.members, Now: fixedNow})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}
