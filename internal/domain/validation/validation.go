// Package validation wraps struct-tag validation and free-text cleaning
// shared by the public-facing domain models.
package validation

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

var (
	validate = validator.New(validator.WithRequiredStructEnabled())
	strict   = bluemonday.StrictPolicy()
)

// FieldError describes the first failing field of a struct.
type FieldError struct {
	Field string
	Tag   string
	Param string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason())
}

// Reason is the message without the field name.
func (e *FieldError) Reason() string {
	return message(e.Tag, e.Param)
}

func message(tag, param string) string {
	switch tag {
	case "required":
		return "is required"
	case "contains":
		return fmt.Sprintf("must contain %q", param)
	case "max":
		return fmt.Sprintf("must be at most %s characters", param)
	case "oneof":
		return fmt.Sprintf("must be one of: %s", param)
	case "numeric":
		return "must be a number"
	default:
		return "is invalid"
	}
}

// Struct validates v against its `validate` tags and returns a *FieldError
// for the first failure, using the lowercased dotted field path.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return &FieldError{Field: fieldPath(fe.Namespace()), Tag: fe.Tag(), Param: fe.Param()}
}

// fieldPath drops the root struct name: "Lead.Email" -> "email".
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return strings.ToLower(ns)
}

// Clean strips markup and surrounding whitespace from user-supplied text.
// The result is plain text; escaping is left to whatever renders it.
func Clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
