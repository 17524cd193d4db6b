package enrollment_test

import (
	"testing"
	"time"

	"fieldhouse/internal/domain/enrollment"
)

// TestEnrollment_Validate tests validation of Enrollment.
func TestEnrollment_Validate(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		e       enrollment.Enrollment
		wantErr error
	}{
		{"admin assignment", enrollment.Enrollment{MemberID: "7", ProgramID: "lab", Source: enrollment.SourceAdmin, CreatedAt: now}, nil},
		{"paid enrollment", enrollment.Enrollment{MemberID: "7", ProgramID: "lab", Source: enrollment.SourcePayment, CreatedAt: now}, nil},
		{"missing member", enrollment.Enrollment{ProgramID: "lab", Source: enrollment.SourceAdmin, CreatedAt: now}, enrollment.ErrEmptyMember},
		{"missing program", enrollment.Enrollment{MemberID: "7", Source: enrollment.SourceAdmin, CreatedAt: now}, enrollment.ErrEmptyProgram},
		{"unknown source", enrollment.Enrollment{MemberID: "7", ProgramID: "lab", Source: "gift", CreatedAt: now}, enrollment.ErrInvalidSource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.e.Validate(); err != tt.wantErr {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
