// Package apperr defines the error kinds every public operation may return.
// Callers match with errors.As; the HTTP layer maps kinds to status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind names an error category in responses.
type Kind string

// Error kinds.
const (
	KindValidation          Kind = "validation"
	KindNotFound            Kind = "not_found"
	KindDuplicateEnrollment Kind = "duplicate_enrollment"
	KindCapacityExceeded    Kind = "capacity_exceeded"
	KindInvalidTransition   Kind = "invalid_transition"
	KindUpstream            Kind = "upstream_unavailable"
	KindUnconfigured        Kind = "unconfigured"
	KindInternal            Kind = "internal"
)

// ValidationError reports malformed input. Not retryable.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validation builds a ValidationError.
func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// NotFound builds a NotFoundError.
func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// DuplicateEnrollmentError reports an active enrollment for the same pair.
type DuplicateEnrollmentError struct {
	MemberID  string
	ProgramID string
}

func (e *DuplicateEnrollmentError) Error() string {
	return fmt.Sprintf("member %q is already enrolled in program %q", e.MemberID, e.ProgramID)
}

// CapacityExceededError reports that the target has no free slot.
type CapacityExceededError struct {
	Target string // "program" or "session"
	ID     string
	Limit  int
}

func (e *CapacityExceededError) Error() string {
	if e.Limit == 0 {
		return fmt.Sprintf("%s %q is closed to new participants", e.Target, e.ID)
	}
	return fmt.Sprintf("%s %q is full (limit %d)", e.Target, e.ID, e.Limit)
}

// InvalidTransitionError names the rejected booking edge. Stale marks a loser
// of a concurrent update: From is the state the winner already applied.
type InvalidTransitionError struct {
	From  string
	To    string
	Stale bool
}

func (e *InvalidTransitionError) Error() string {
	if e.Stale {
		return fmt.Sprintf("booking was already moved to %s; cannot apply %s", e.From, e.To)
	}
	return fmt.Sprintf("cannot move booking from %s to %s", e.From, e.To)
}

// UpstreamUnavailableError wraps a failed collaborator call.
type UpstreamUnavailableError struct {
	Service string
	Err     error
}

func (e *UpstreamUnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *UpstreamUnavailableError) Unwrap() error { return e.Err }

// UnconfiguredError reports a collaborator the deployment does not provide.
type UnconfiguredError struct {
	Service string
}

func (e *UnconfiguredError) Error() string {
	return e.Service + " is not configured"
}

// InternalError hides an unexpected failure behind a generic message.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string { return "internal error" }

func (e *InternalError) Unwrap() error { return e.Err }

// Internal wraps err unless it already carries a taxonomy kind.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindInternal {
		return err
	}
	var ie *InternalError
	if errors.As(err, &ie) {
		return err
	}
	return &InternalError{Err: err}
}

// KindOf classifies err. Anything outside the taxonomy is internal.
func KindOf(err error) Kind {
	var (
		ve  *ValidationError
		nf  *NotFoundError
		de  *DuplicateEnrollmentError
		ce  *CapacityExceededError
		ite *InvalidTransitionError
		ue  *UpstreamUnavailableError
		uc  *UnconfiguredError
	)
	switch {
	case errors.As(err, &ve):
		return KindValidation
	case errors.As(err, &nf):
		return KindNotFound
	case errors.As(err, &de):
		return KindDuplicateEnrollment
	case errors.As(err, &ce):
		return KindCapacityExceeded
	case errors.As(err, &ite):
		return KindInvalidTransition
	case errors.As(err, &ue):
		return KindUpstream
	case errors.As(err, &uc):
		return KindUnconfigured
	default:
		return KindInternal
	}
}

// HTTPStatus maps err to a response status.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindDuplicateEnrollment, KindCapacityExceeded, KindInvalidTransition:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	case KindUnconfigured:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text safe to show a caller.
func PublicMessage(err error) string {
	if KindOf(err) == KindInternal {
		return "internal server error"
	}
	return err.Error()
}
