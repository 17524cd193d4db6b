// Package checkout resolves hosted payment page links for products.
package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"fieldhouse/internal/domain/apperr"
)

const service = "checkout"

// Client asks the payment provider's link service for a checkout URL.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a checkout client.
// PRE: endpoint is an absolute URL; timeout > 0
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{endpoint: endpoint, http: &http.Client{Timeout: timeout}}
}

type linkRequest struct {
	ProductID string `json:"productId"`
}

type linkResponse struct {
	URL string `json:"url"`
}

// LinkFor returns the hosted checkout URL for productID.
// PRE: productID is non-empty
// POST: Returns an absolute URL, or *apperr.UpstreamUnavailableError
func (c *Client) LinkFor(ctx context.Context, productID string) (string, error) {
	payload, err := json.Marshal(linkRequest{ProductID: productID})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &apperr.UpstreamUnavailableError{Service: service, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &apperr.UpstreamUnavailableError{Service: service, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &apperr.UpstreamUnavailableError{Service: service, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	var out linkResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &apperr.UpstreamUnavailableError{Service: service, Err: fmt.Errorf("decode response: %w", err)}
	}
	u, err := url.Parse(out.URL)
	if err != nil || !u.IsAbs() {
		return "", &apperr.UpstreamUnavailableError{Service: service, Err: errors.New("response carried no usable url")}
	}
	return out.URL, nil
}
