// Package email delivers operator notifications through a mail provider.
package email

import (
	"context"
	"errors"
	"time"
)

// SendRequest is one outbound message.
type SendRequest struct {
	To      []string
	From    string // empty uses the sender's default identity
	Subject string
	HTML    string
	Text    string // plain-text alternative
	ReplyTo string
}

// SendResult identifies an accepted message.
type SendResult struct {
	MessageID string
	SentAt    time.Time
}

// Sender hands a message to a provider. Implementations make a single
// attempt and never retry.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}

var (
	ErrNoRecipients = errors.New("email has no recipients")
	ErrNoSubject    = errors.New("email has no subject")
)

func (r SendRequest) validate() error {
	if len(r.To) == 0 {
		return ErrNoRecipients
	}
	if r.Subject == "" {
		return ErrNoSubject
	}
	return nil
}
