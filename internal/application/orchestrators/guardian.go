package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"fieldhouse/internal/domain/apperr"
	"fieldhouse/internal/domain/guardian"
	"fieldhouse/internal/domain/member"
)

// GuardianLinkReader defines the link store interface needed to resolve a guardian's athletes.
type GuardianLinkReader interface {
	ListByGuardian(ctx context.Context, guardianID string) ([]guardian.Link, error)
}

// GuardianLinkStore defines the store interface needed by LinkByEmail.
type GuardianLinkStore interface {
	GuardianLinkReader
	Link(ctx context.Context, l guardian.Link) (guardian.Link, bool, error)
}

// MemberStoreForLink defines the member store interface needed by LinkByEmail.
type MemberStoreForLink interface {
	GetByEmail(ctx context.Context, email string) (member.Member, error)
}

// LinkByEmailInput carries input for LinkByEmail.
// GuardianID defaults to the actor; only admins may link on someone else's behalf.
type LinkByEmailInput struct {
	Actor        Actor
	GuardianID   string
	AthleteEmail string
	Relationship guardian.Relationship
}

// LinkByEmailResult reports the stored link and whether it predated the call.
type LinkByEmailResult struct {
	AlreadyLinked bool
	Link          guardian.Link
}

// GuardianDeps holds dependencies for the guardian orchestrators.
type GuardianDeps struct {
	MemberStore MemberStoreForLink
	LinkStore   GuardianLinkStore
	GenerateID  IDFunc
	Now         NowFunc
}

// ExecuteLinkByEmail links a guardian to the athlete holding athleteEmail.
// PRE: Actor is the guardian or an admin
// POST: Exactly one link exists for (guardian, athlete)
// INVARIANT: A repeated call inserts nothing and reports AlreadyLinked
func ExecuteLinkByEmail(ctx context.Context, input LinkByEmailInput, deps GuardianDeps) (LinkByEmailResult, error) {
	guardianID := strings.TrimSpace(input.GuardianID)
	if guardianID == "" {
		guardianID = input.Actor.MemberID
	}
	if guardianID != input.Actor.MemberID && !input.Actor.IsAdmin() {
		return LinkByEmailResult{}, forbidden("member", guardianID)
	}
	if input.Relationship == "" {
		input.Relationship = guardian.RelationshipParent
	}
	email := member.NormalizeEmail(input.AthleteEmail)
	if email == "" {
		return LinkByEmailResult{}, apperr.Validation("athleteEmail", "is required")
	}

	athlete, err := deps.MemberStore.GetByEmail(ctx, email)
	if errors.Is(err, member.ErrNotFound) {
		return LinkByEmailResult{}, apperr.NotFound("member", email)
	}
	if err != nil {
		return LinkByEmailResult{}, apperr.Internal(err)
	}

	l := guardian.Link{
		ID:           newID(deps.GenerateID),
		GuardianID:   guardianID,
		AthleteID:    athlete.ID,
		Relationship: input.Relationship,
		CreatedAt:    now(deps.Now),
	}
	if err := l.Validate(); err != nil {
		field := "relationship"
		if errors.Is(err, guardian.ErrSelfLink) {
			field = "athleteEmail"
		}
		return LinkByEmailResult{}, apperr.Validation(field, err.Error())
	}

	stored, already, err := deps.LinkStore.Link(ctx, l)
	if err != nil {
		return LinkByEmailResult{}, apperr.Internal(err)
	}
	if !already {
		slog.Info("guardian_event", "event", "guardian_linked", "link_id", stored.ID,
			"guardian_id", stored.GuardianID, "athlete_id", stored.AthleteID, "actor", input.Actor.MemberID)
	}
	return LinkByEmailResult{AlreadyLinked: already, Link: stored}, nil
}

// ExecuteListLinks returns a guardian's links, oldest first.
// PRE: Actor is the guardian or may manage the roster
func ExecuteListLinks(ctx context.Context, actor Actor, guardianID string, links GuardianLinkReader) ([]guardian.Link, error) {
	if guardianID == "" {
		guardianID = actor.MemberID
	}
	if guardianID != actor.MemberID && !actor.Can(member.CapManageRoster) {
		return nil, forbidden("member", guardianID)
	}
	list, err := links.ListByGuardian(ctx, guardianID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if list == nil {
		list = []guardian.Link{}
	}
	return list, nil
}

// authorizeForAthlete lets through the athlete, a linked guardian, or anyone
// who may manage the roster. Everyone else sees not-found.
func authorizeForAthlete(ctx context.Context, actor Actor, athleteID string, members MemberLookup, links GuardianLinkReader) error {
	if strings.TrimSpace(athleteID) == "" {
		return apperr.Validation("athleteId", "is required")
	}
	if actor.Can(member.CapManageRoster) {
		if _, err := members.GetByID(ctx, athleteID); err != nil {
			if errors.Is(err, member.ErrNotFound) {
				return apperr.NotFound("member", athleteID)
			}
			return apperr.Internal(err)
		}
		return nil
	}
	if actor.MemberID != "" && actor.MemberID == athleteID {
		return nil
	}
	list, err := links.ListByGuardian(ctx, actor.MemberID)
	if err != nil {
		return apperr.Internal(err)
	}
	for _, l := range list {
		if l.AthleteID == athleteID {
			return nil
		}
	}
	return forbidden("member", athleteID)
}
