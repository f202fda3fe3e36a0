package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/adsift"
)

// Ensure Client implements adsift.Resolver at compile time.
var _ adsift.Resolver = (*Client)(nil)

// Client is a Resolver backed by a remote Handler.
type Client struct {
	baseURL string
	client  *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.client = c
	}
}

// NewClient creates a Client for the resolver server at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: DefaultResolveTimeout + 5*time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve posts req to the server. A response body in the resolver
// format is returned as is, whatever the status code.
func (c *Client) Resolve(ctx context.Context, req adsift.ResolveRequest) (*adsift.ResolveResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/resolve", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRequestBytes))
	if err != nil {
		return nil, err
	}

	var out adsift.ResolveResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("HTTP %d from resolver: malformed response", resp.StatusCode)
	}
	if resp.StatusCode == http.StatusBadRequest {
		return nil, adsift.Errorf(adsift.EINVALID, "%s", out.Error)
	}
	return &out, nil
}
