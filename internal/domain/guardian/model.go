package guardian

import (
	"errors"
	"strings"
	"time"
)

// Relationship is how the guardian relates to the athlete.
type Relationship string

// Relationship constants
const (
	RelationshipParent   Relationship = "parent"
	RelationshipGuardian Relationship = "guardian"
)

// Domain errors
var (
	ErrEmptyGuardian       = errors.New("link must reference a guardian")
	ErrEmptyAthlete        = errors.New("link must reference an athlete")
	ErrSelfLink            = errors.New("a member cannot be linked to themselves")
	ErrInvalidRelationship = errors.New("relationship must be parent or guardian")
)

// Link authorises a guardian to view an athlete's records.
// Unique per (GuardianID, AthleteID).
type Link struct {
	ID           string
	GuardianID   string
	AthleteID    string
	Relationship Relationship
	CreatedAt    time.Time
}

// Validate checks if the Link has valid data.
func (l *Link) Validate() error {
	if strings.TrimSpace(l.GuardianID) == "" {
		return ErrEmptyGuardian
	}
	if strings.TrimSpace(l.AthleteID) == "" {
		return ErrEmptyAthlete
	}
	if l.GuardianID == l.AthleteID {
		return ErrSelfLink
	}
	if l.Relationship != RelationshipParent && l.Relationship != RelationshipGuardian {
		return ErrInvalidRelationship
	}
	return nil
}
