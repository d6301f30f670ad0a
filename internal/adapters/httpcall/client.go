// Package httpcall implements the outbound HTTP collaborator used by
// api_request nodes.
package httpcall

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dialflow/dialflow/pkg/ports"
)

const defaultMaxBodyBytes = 1 << 20 // 1 MiB

// Client implements ports.HTTPCaller.
type Client struct {
	httpc        *http.Client
	maxBodyBytes int64
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

// WithMaxBodyBytes caps how much of a response body is read.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// New creates an outbound HTTP caller.
func New(opts ...Option) *Client {
	c := &Client{
		httpc:        &http.Client{Timeout: 10 * time.Second},
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request performs the call. Transport failures return an error; non-2xx
// statuses are returned as values for node execution to interpret.
func (c *Client) Request(ctx context.Context, method, url string, headers map[string]string, body []byte) (ports.HTTPResult, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return ports.HTTPResult{}, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("Content-Type") == "" && len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	// Lets the remote endpoint correlate retried node executions.
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return ports.HTTPResult{}, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes))
	if err != nil {
		return ports.HTTPResult{}, fmt.Errorf("reading response: %w", err)
	}

	return ports.HTTPResult{Status: resp.StatusCode, Body: data}, nil
}
