package orchestrators

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"fieldhouse/internal/domain/apperr"
	"fieldhouse/internal/domain/member"
	"fieldhouse/internal/domain/validation"
)

// Actor is the authenticated member calling an operation.
type Actor struct {
	MemberID string
	Role     member.Role
}

// Can reports whether the actor's role grants c.
func (a Actor) Can(c member.Capability) bool {
	return a.Role.Can(c)
}

// IsAdmin reports whether the actor is an admin.
func (a Actor) IsAdmin() bool {
	return a.Role == member.RoleAdmin
}

// Clock and ID sources are injectable so tests can pin them.
type (
	NowFunc func() time.Time
	IDFunc  func() string
)

func now(f NowFunc) time.Time {
	if f == nil {
		return time.Now().UTC()
	}
	return f()
}

func newID(f IDFunc) string {
	if f == nil {
		return uuid.New().String()
	}
	return f()
}

// invalid converts a domain validation failure into the public taxonomy.
func invalid(field string, err error) error {
	var fe *validation.FieldError
	if errors.As(err, &fe) {
		return apperr.Validation(fe.Field, fe.Reason())
	}
	return apperr.Validation(field, err.Error())
}

// forbidden is reported as not-found so callers cannot probe for records they may not see.
func forbidden(entity, id string) error {
	return apperr.NotFound(entity, id)
}
