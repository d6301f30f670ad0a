// Package telephony implements the call-control collaborator: transfer and
// hangup commands issued to the provider's REST surface, keyed by call id.
package telephony

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client implements ports.TelephonyControl.
type Client struct {
	baseURL   string
	accountID string
	authToken string
	httpc     *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) {
		if httpc != nil {
			c.httpc = httpc
		}
	}
}

// New creates a call-control client against the provider's API base URL.
func New(baseURL, accountID, authToken string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		accountID: accountID,
		authToken: authToken,
		httpc:     &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transfer redirects the live call to another number.
func (c *Client) Transfer(ctx context.Context, callID, target string) error {
	return c.updateCall(ctx, callID, url.Values{"Transfer": {target}})
}

// Hangup asks the provider to complete (terminate) the call.
func (c *Client) Hangup(ctx context.Context, callID string) error {
	return c.updateCall(ctx, callID, url.Values{"Status": {"completed"}})
}

func (c *Client) updateCall(ctx context.Context, callID string, form url.Values) error {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Calls/%s", c.baseURL, c.accountID, callID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating call update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountID, c.authToken)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("updating call %s: %w", callID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("call update for %s returned status %d", callID, resp.StatusCode)
	}
	return nil
}
