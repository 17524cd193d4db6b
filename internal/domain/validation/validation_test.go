package validation_test

import (
	"errors"
	"testing"

	"fieldhouse/internal/domain/validation"
)

type contact struct {
	Name  string `validate:"required,max=5"`
	Email string `validate:"required,contains=@"`
}

// TestStruct tests first-failure reporting.
func TestStruct(t *testing.T) {
	tests := []struct {
		name      string
		in        contact
		wantField string
		wantTag   string
	}{
		{"valid", contact{Name: "Ava", Email: "a@b.com"}, "", ""},
		{"missing name", contact{Email: "a@b.com"}, "name", "required"},
		{"long name", contact{Name: "Alexandra", Email: "a@b.com"}, "name", "max"},
		{"no at sign", contact{Name: "Ava", Email: "not-an-email"}, "email", "contains"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.Struct(tt.in)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			var fe *validation.FieldError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *FieldError, got %v", err)
			}
			if fe.Field != tt.wantField || fe.Tag != tt.wantTag {
				t.Errorf("got field=%s tag=%s, want field=%s tag=%s", fe.Field, fe.Tag, tt.wantField, tt.wantTag)
			}
		})
	}
}

// TestClean tests markup stripping.
func TestClean(t *testing.T) {
	got := validation.Clean("  <b>Tuesdays</b> after <script>alert(1)</script>school ")
	if got != "Tuesdays after school" {
		t.Errorf("Clean() = %q", got)
	}
	if got := validation.Clean("Speed & Agility"); got != "Speed & Agility" {
		t.Errorf("Clean() = %q, want ampersand preserved", got)
	}
}
