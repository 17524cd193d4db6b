package email

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"fieldhouse/internal/metrics"
)

const providerNoop = "noop"

// NoopSender accepts every well-formed message and only logs it.
type NoopSender struct {
	seq atomic.Int64
}

func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

func (s *NoopSender) Send(_ context.Context, req SendRequest) (SendResult, error) {
	if err := req.validate(); err != nil {
		metrics.EmailSendsTotal.WithLabelValues(providerNoop, metrics.OutcomeRejected).Inc()
		return SendResult{}, err
	}
	id := fmt.Sprintf("noop-%d", s.seq.Add(1))
	metrics.EmailSendsTotal.WithLabelValues(providerNoop, metrics.OutcomeOK).Inc()
	slog.Info("email_event", "event", "sent", "provider", providerNoop, "message_id", id, "subject", req.Subject)
	return SendResult{MessageID: id, SentAt: time.Now().UTC()}, nil
}
