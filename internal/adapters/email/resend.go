package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v2"

	"fieldhouse/internal/metrics"
)

const providerResend = "resend"

// ResendSender delivers through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender creates a sender whose messages default to the given from identity.
// PRE: apiKey is a Resend API key
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), from: from}
}

// Send makes exactly one API call.
// POST: On success the returned MessageID is Resend's id for the message
func (s *ResendSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	if err := req.validate(); err != nil {
		metrics.EmailSendsTotal.WithLabelValues(providerResend, metrics.OutcomeRejected).Inc()
		return SendResult{}, err
	}
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      req.To,
		Subject: req.Subject,
		Html:    req.HTML,
		Text:    req.Text,
		ReplyTo: req.ReplyTo,
	}
	if req.From != "" {
		params.From = req.From
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		metrics.EmailSendsTotal.WithLabelValues(providerResend, metrics.OutcomeFailed).Inc()
		slog.Error("email_event", "event", "send_failed", "provider", providerResend, "subject", req.Subject, "error", err)
		return SendResult{}, fmt.Errorf("resend: %w", err)
	}
	metrics.EmailSendsTotal.WithLabelValues(providerResend, metrics.OutcomeOK).Inc()
	slog.Info("email_event", "event", "sent", "provider", providerResend, "message_id", sent.Id, "subject", req.Subject)
	return SendResult{MessageID: sent.Id, SentAt: time.Now().UTC()}, nil
}
