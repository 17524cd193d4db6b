package orchestrators

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fieldhouse/internal/adapters/email"
	"fieldhouse/internal/adapters/leads"
	"fieldhouse/internal/domain/apperr"
	"fieldhouse/internal/domain/intake"
)

type mockForwarder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *mockForwarder) Forward(_ context.Context, _ intake.Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.err
}

type mockNotifier struct {
	mu    sync.Mutex
	leads []intake.Lead
	err   error
}

func (m *mockNotifier) NotifyLead(_ context.Context, lead intake.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leads = append(m.leads, lead)
	return m.err
}

type mockUnsubscriber struct {
	emails []string
	err    error
}

func (m *mockUnsubscriber) Unsubscribe(_ context.Context, addr string) error {
	m.emails = append(m.emails, addr)
	return m.err
}

// TestSubmitIntake tests the path flags for each collaborator outcome.
func TestSubmitIntake(t *testing.T) {
	down := errors.New("connection refused")
	tests := []struct {
		name      string
		forwarder *mockForwarder
		notifier  *mockNotifier
		want      SubmitIntakeResult
	}{
		{"both succeed", &mockForwarder{}, &mockNotifier{}, SubmitIntakeResult{Forwarded: true, Notified: true}},
		{"forward fails", &mockForwarder{err: down}, &mockNotifier{}, SubmitIntakeResult{Forwarded: false, Notified: true}},
		{"notify fails", &mockForwarder{}, &mockNotifier{err: down}, SubmitIntakeResult{Forwarded: true, Notified: false}},
		{"both fail", &mockForwarder{err: down}, &mockNotifier{err: down}, SubmitIntakeResult{}},
		{"notification unconfigured", &mockForwarder{}, nil, SubmitIntakeResult{Forwarded: true}},
		{"nothing configured", nil, nil, SubmitIntakeResult{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := IntakeDeps{}
			if tt.forwarder != nil {
				deps.Forwarder = tt.forwarder
			}
			if tt.notifier != nil {
				deps.Notifier = tt.notifier
			}
			got, err := ExecuteSubmitIntake(context.Background(), intake.Lead{Name: "Sam", Email: "Sam@Example.com"}, deps)
			if err != nil {
				t.Fatalf("Submit returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("result = %+v, want %+v", got, tt.want)
			}
			if tt.forwarder != nil && tt.forwarder.calls != 1 {
				t.Errorf("forward attempts = %d, want 1", tt.forwarder.calls)
			}
			if tt.notifier != nil {
				if len(tt.notifier.leads) != 1 || tt.notifier.leads[0].Email != "sam@example.com" {
					t.Errorf("notified leads = %+v", tt.notifier.leads)
				}
			}
		})
	}
}

// TestSubmitIntake_InvalidEmail tests that nothing is attempted for a bad address.
func TestSubmitIntake_InvalidEmail(t *testing.T) {
	fwd, note := &mockForwarder{}, &mockNotifier{}
	_, err := ExecuteSubmitIntake(context.Background(), intake.Lead{Email: "not-an-email"}, IntakeDeps{Forwarder: fwd, Notifier: note})
	requireKind(t, err, apperr.KindValidation)
	if fwd.calls != 0 || len(note.leads) != 0 {
		t.Error("collaborators were called for an invalid lead")
	}
}

type capturingSender struct {
	mu   sync.Mutex
	reqs []email.SendRequest
}

func (c *capturingSender) Send(_ context.Context, req email.SendRequest) (email.SendResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reqs = append(c.reqs, req)
	return email.SendResult{MessageID: "m-1", SentAt: fixedTime}, nil
}

// TestSubmitIntake_LeadSystemDown runs the real adapters against a failing lead system.
func TestSubmitIntake_LeadSystemDown(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sender := &capturingSender{}
	deps := IntakeDeps{
		Forwarder: leads.NewClient(srv.URL, "token", time.Second),
		Notifier:  email.NewOperatorNotifier(sender, "Fieldhouse <noreply@fieldhouse.test>", "ops@fieldhouse.test"),
	}
	got, err := ExecuteSubmitIntake(context.Background(), intake.Lead{Email: "a@b.com"}, deps)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got != (SubmitIntakeResult{Forwarded: false, Notified: true}) {
		t.Fatalf("result = %+v", got)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("lead system hits = %d, want 1", n)
	}
	if len(sender.reqs) != 1 || sender.reqs[0].To[0] != "ops@fieldhouse.test" {
		t.Fatalf("sent = %+v", sender.reqs)
	}
	if !strings.Contains(sender.reqs[0].Text, "Phone: "+intake.Missing) {
		t.Errorf("notification text missing placeholder:\n%s", sender.reqs[0].Text)
	}
}

// TestUnsubscribe tests that upstream trouble never becomes an error.
func TestUnsubscribe(t *testing.T) {
	ctx := context.Background()
	_, err := ExecuteUnsubscribe(ctx, "nope", IntakeDeps{})
	requireKind(t, err, apperr.KindValidation)

	ok, err := ExecuteUnsubscribe(ctx, "a@b.com", IntakeDeps{})
	if err != nil || ok {
		t.Errorf("unconfigured: ok=%v err=%v", ok, err)
	}

	failing := &mockUnsubscriber{err: errors.New("timeout")}
	ok, err = ExecuteUnsubscribe(ctx, "A@B.com", IntakeDeps{Unsubscriber: failing})
	if err != nil || ok {
		t.Errorf("failing upstream: ok=%v err=%v", ok, err)
	}

	working := &mockUnsubscriber{}
	ok, err = ExecuteUnsubscribe(ctx, "a@b.com", IntakeDeps{Unsubscriber: working})
	if err != nil || !ok || working.emails[0] != "a@b.com" {
		t.Errorf("working upstream: ok=%v err=%v emails=%v", ok, err, working.emails)
	}
}
