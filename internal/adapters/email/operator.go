package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"fieldhouse/internal/domain/intake"
)

var leadTemplate = template.Must(template.New("lead").Parse(`<h2>{{.Subject}}</h2>
<table>
{{- range .Fields}}
<tr><th align="left">{{.Label}}</th><td>{{.Value}}</td></tr>
{{- end}}
</table>
`))

// OperatorNotifier announces new leads to the fixed operator inbox.
type OperatorNotifier struct {
	sender Sender
	from   string
	inbox  string
}

// NewOperatorNotifier creates a notifier with a fixed from identity and recipient.
// PRE: sender is non-nil; inbox is a valid address
func NewOperatorNotifier(sender Sender, from, inbox string) *OperatorNotifier {
	return &OperatorNotifier{sender: sender, from: from, inbox: inbox}
}

// NotifyLead sends one message listing every lead field.
// PRE: lead has been validated
// POST: Exactly one send attempt is made; the lead's email is the reply-to
func (n *OperatorNotifier) NotifyLead(ctx context.Context, lead intake.Lead) error {
	req, err := n.leadRequest(lead)
	if err != nil {
		return err
	}
	_, err = n.sender.Send(ctx, req)
	return err
}

func (n *OperatorNotifier) leadRequest(lead intake.Lead) (SendRequest, error) {
	fields := lead.NotificationFields()
	data := struct {
		Subject string
		Fields  []intake.Field
	}{lead.Subject(), fields}

	var html bytes.Buffer
	if err := leadTemplate.Execute(&html, data); err != nil {
		return SendRequest{}, fmt.Errorf("render lead notification: %w", err)
	}

	var text strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&text, "%s: %s\n", f.Label, f.Value)
	}

	return SendRequest{
		To:      []string{n.inbox},
		From:    n.from,
		Subject: data.Subject,
		HTML:    html.String(),
		Text:    text.String(),
		ReplyTo: lead.Email,
	}, nil
}
