// Package intake models public lead and registration submissions.
// Leads are not persisted; they are forwarded and announced.
package intake

import (
	"fmt"
	"strconv"
	"strings"

	"fieldhouse/internal/domain/validation"
)

// Missing is shown in place of an absent optional field.
const Missing = "—"

// Recommended programs.
const (
	ProgramLittleMovers     = "Little Movers"
	ProgramYouthFoundations = "Youth Foundations"
	ProgramSpeedAgility     = "Speed & Agility"
	ProgramPerformanceLab   = "Performance Lab"
	ProgramAssessment       = "Free Assessment"
)

// Lead is one public form submission.
type Lead struct {
	Name       string `json:"name" validate:"max=100"`
	Email      string `json:"email" validate:"required,contains=@,max=254"`
	Phone      string `json:"phone" validate:"max=32"`
	Source     string `json:"source" validate:"max=64"`
	AthleteAge string `json:"athleteAge" validate:"omitempty,numeric,max=3"`
	Sport      string `json:"sport" validate:"max=64"`
	Goal       string `json:"goal" validate:"max=500"`
}

// Sanitize strips markup from every field.
func (l *Lead) Sanitize() {
	l.Name = validation.Clean(l.Name)
	l.Email = validation.Clean(l.Email)
	l.Phone = validation.Clean(l.Phone)
	l.Source = validation.Clean(l.Source)
	l.AthleteAge = validation.Clean(l.AthleteAge)
	l.Sport = validation.Clean(l.Sport)
	l.Goal = validation.Clean(l.Goal)
}

// Validate requires an email containing '@'. Everything else is optional.
func (l *Lead) Validate() error {
	return validation.Struct(l)
}

// Recommend derives a starting program from age and goal.
func (l *Lead) Recommend() string {
	goal := strings.ToLower(l.Goal + " " + l.Sport)
	age, err := strconv.Atoi(l.AthleteAge)
	if err == nil && age > 0 {
		switch {
		case age <= 8:
			return ProgramLittleMovers
		case age <= 12:
			return ProgramYouthFoundations
		case strings.Contains(goal, "speed") || strings.Contains(goal, "agility"):
			return ProgramSpeedAgility
		default:
			return ProgramPerformanceLab
		}
	}
	switch {
	case strings.Contains(goal, "speed") || strings.Contains(goal, "agility"):
		return ProgramSpeedAgility
	case strings.Contains(goal, "strength") || strings.Contains(goal, "recruit"):
		return ProgramPerformanceLab
	default:
		return ProgramAssessment
	}
}

// Envelope is the JSON document posted to the primary lead system.
type Envelope struct {
	Name               string `json:"name"`
	Email              string `json:"email"`
	Phone              string `json:"phone"`
	Source             string `json:"source"`
	AthleteAge         string `json:"athleteAge"`
	Sport              string `json:"sport"`
	Goal               string `json:"goal"`
	RecommendedProgram string `json:"recommendedProgram"`
}

// Envelope builds the forwarding payload.
func (l *Lead) Envelope() Envelope {
	return Envelope{
		Name:               l.Name,
		Email:              l.Email,
		Phone:              l.Phone,
		Source:             l.Source,
		AthleteAge:         l.AthleteAge,
		Sport:              l.Sport,
		Goal:               l.Goal,
		RecommendedProgram: l.Recommend(),
	}
}

// Field is one labelled line of the operator notification.
type Field struct {
	Label string
	Value string
}

// NotificationFields lists every lead field, substituting Missing for blanks.
func (l *Lead) NotificationFields() []Field {
	return []Field{
		{"Name", orMissing(l.Name)},
		{"Email", orMissing(l.Email)},
		{"Phone", orMissing(l.Phone)},
		{"Source", orMissing(l.Source)},
		{"Athlete age", orMissing(l.AthleteAge)},
		{"Sport", orMissing(l.Sport)},
		{"Goal", orMissing(l.Goal)},
		{"Recommended program", l.Recommend()},
	}
}

// Subject is the operator notification subject line.
func (l *Lead) Subject() string {
	who := l.Name
	if who == "" {
		who = l.Email
	}
	return fmt.Sprintf("New lead: %s (%s)", who, orMissing(l.Source))
}

func orMissing(s string) string {
	if strings.TrimSpace(s) == "" {
		return Missing
	}
	return s
}
