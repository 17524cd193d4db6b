package orchestrators

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"fieldhouse/internal/domain/apperr"
	"fieldhouse/internal/domain/intake"
	"fieldhouse/internal/domain/member"
	"fieldhouse/internal/metrics"
)

// LeadForwarder posts a lead to the primary lead system.
type LeadForwarder interface {
	Forward(ctx context.Context, env intake.Envelope) error
}

// LeadNotifier announces a lead to the operator inbox.
type LeadNotifier interface {
	NotifyLead(ctx context.Context, lead intake.Lead) error
}

// Unsubscriber marks an address as unsubscribed in the lead system.
type Unsubscriber interface {
	Unsubscribe(ctx context.Context, email string) error
}

// IntakeDeps holds dependencies for the intake orchestrators.
// A nil collaborator is unconfigured and its path is skipped.
type IntakeDeps struct {
	Forwarder    LeadForwarder
	Notifier     LeadNotifier
	Unsubscriber Unsubscriber
}

// SubmitIntakeResult reports which downstream paths succeeded.
type SubmitIntakeResult struct {
	Forwarded bool `json:"forwarded"`
	Notified  bool `json:"notified"`
}

// ExecuteSubmitIntake validates a public lead, then forwards it and notifies
// the operator concurrently.
// PRE: None; the form is public
// POST: Returns without error whenever the lead is valid
// INVARIANT: Each path runs at most once; a failure on one never stops the other
func ExecuteSubmitIntake(ctx context.Context, lead intake.Lead, deps IntakeDeps) (SubmitIntakeResult, error) {
	lead.Sanitize()
	lead.Email = member.NormalizeEmail(lead.Email)
	if err := lead.Validate(); err != nil {
		return SubmitIntakeResult{}, invalid("email", err)
	}

	var res SubmitIntakeResult
	var g errgroup.Group
	g.Go(func() error {
		res.Forwarded = runIntakePath(ctx, "forward", deps.Forwarder != nil, func(ctx context.Context) error {
			return deps.Forwarder.Forward(ctx, lead.Envelope())
		})
		return nil
	})
	g.Go(func() error {
		res.Notified = runIntakePath(ctx, "notify", deps.Notifier != nil, func(ctx context.Context) error {
			return deps.Notifier.NotifyLead(ctx, lead)
		})
		return nil
	})
	// Both paths report through res and never fail the group.
	if err := g.Wait(); err != nil {
		return SubmitIntakeResult{}, apperr.Internal(err)
	}

	slog.Info("intake_event", "event", "lead_submitted", "source", lead.Source,
		"recommended", lead.Recommend(), "forwarded", res.Forwarded, "notified", res.Notified)
	return res, nil
}

// runIntakePath calls fn once and swallows its error.
func runIntakePath(ctx context.Context, path string, configured bool, fn func(context.Context) error) bool {
	if !configured {
		metrics.IntakePathsTotal.WithLabelValues(path, metrics.OutcomeSkipped).Inc()
		return false
	}
	if err := fn(ctx); err != nil {
		metrics.IntakePathsTotal.WithLabelValues(path, metrics.OutcomeFailed).Inc()
		slog.Warn("intake_event", "event", "intake_path_failed", "path", path, "error", err)
		return false
	}
	metrics.IntakePathsTotal.WithLabelValues(path, metrics.OutcomeOK).Inc()
	return true
}

// ExecuteUnsubscribe asks the lead system to stop mailing email. Upstream
// failures are logged and reported as false; only a malformed address is an error.
// POST: Returns true when the lead system acknowledged the request
func ExecuteUnsubscribe(ctx context.Context, email string, deps IntakeDeps) (bool, error) {
	email = member.NormalizeEmail(email)
	lead := intake.Lead{Email: email}
	if err := lead.Validate(); err != nil {
		return false, apperr.Validation("email", "must be a valid email address")
	}
	return runIntakePath(ctx, "unsubscribe", deps.Unsubscriber != nil, func(ctx context.Context) error {
		return deps.Unsubscriber.Unsubscribe(ctx, email)
	}), nil
}
