// Package leads talks to the primary lead system that owns prospect records.
package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fieldhouse/internal/domain/apperr"
	"fieldhouse/internal/domain/intake"
)

const service = "lead system"

// Client posts JSON to the lead system. Every call is single-shot: no retries.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a lead system client.
// PRE: baseURL is an absolute URL; timeout > 0
// POST: Calls give up after timeout
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// Forward posts a lead envelope to {base}/leads.
// POST: nil on a 2xx response, *apperr.UpstreamUnavailableError otherwise
func (c *Client) Forward(ctx context.Context, env intake.Envelope) error {
	return c.post(ctx, "/leads", env)
}

// Unsubscribe asks the lead system to stop mailing email.
// POST: nil on a 2xx response, *apperr.UpstreamUnavailableError otherwise
func (c *Client) Unsubscribe(ctx context.Context, email string) error {
	return c.post(ctx, "/unsubscribe", map[string]string{"email": email})
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &apperr.UpstreamUnavailableError{Service: service, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &apperr.UpstreamUnavailableError{Service: service, Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &apperr.UpstreamUnavailableError{Service: service, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	return nil
}
