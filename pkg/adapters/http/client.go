package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/finjector/pkg/domain"
	"github.com/aretw0/finjector/pkg/ports"
)

const defaultTimeout = 10 * time.Second

// Client talks to a remote admin handler.
// It implements ports.Controller, so adapters can drive a remote injector.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ ports.Controller = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client for the admin API at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns the merged probe points of the remote injector.
func (c *Client) List(ctx context.Context) (domain.Snapshot, error) {
	var list ProbeList
	if err := c.do(ctx, http.MethodGet, "/v1/failure-probes", &list); err != nil {
		return nil, err
	}
	return list.Snapshot(), nil
}

// Set arms point of module with fault. FaultNone is sent as an unset.
func (c *Client) Set(ctx context.Context, module, point string, fault domain.FaultType) error {
	if fault == domain.FaultNone {
		return c.Unset(ctx, module, point)
	}
	return c.do(ctx, http.MethodPut, probePath(module, point, fault.String()), nil)
}

// Unset disarms point of module.
func (c *Client) Unset(ctx context.Context, module, point string) error {
	return c.do(ctx, http.MethodDelete, probePath(module, point), nil)
}

// SetException arms point of module with an exception fault.
func (c *Client) SetException(ctx context.Context, module, point string) error {
	return c.Set(ctx, module, point, domain.FaultException)
}

// SetDelay arms point of module with a delay fault.
func (c *Client) SetDelay(ctx context.Context, module, point string) error {
	return c.Set(ctx, module, point, domain.FaultDelay)
}

// SetTermination arms point of module with a termination fault.
func (c *Client) SetTermination(ctx context.Context, module, point string) error {
	return c.Set(ctx, module, point, domain.FaultTermination)
}

// Apply sends cmd as the matching Set or Unset call.
func (c *Client) Apply(ctx context.Context, cmd domain.Command) error {
	return c.Set(ctx, cmd.Module, cmd.Point, cmd.Fault)
}

// Points is List under the ports.Controller name.
func (c *Client) Points(ctx context.Context) (domain.Snapshot, error) {
	return c.List(ctx)
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("admin error (status %d): %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("admin error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func probePath(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return "/v1/failure-probes/" + strings.Join(escaped, "/")
}
