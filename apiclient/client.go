package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	apitypes "github.com/Alia5/vkbd/apitypes"
)

// Client provides a high-level interface to the vkbd API, handling request
// formatting, response parsing, and error handling.
type Client struct{ transport *Transport }

// New constructs a high-level API client for the server at addr (host:port).
func New(addr string) *Client { return &Client{transport: NewTransport(addr)} }

// NewWithPassword constructs a client that authenticates with the given password.
func NewWithPassword(addr, password string) *Client {
	return &Client{transport: NewTransportWithPassword(addr, password)}
}

// NewWithConfig constructs a client with custom transport timeouts.
func NewWithConfig(addr string, cfg *Config) *Client {
	return &Client{transport: NewTransportWithConfig(addr, cfg)}
}

// WithTransport constructs a Client using a custom Transport, mostly for tests.
func WithTransport(t *Transport) *Client { return &Client{transport: t} }

// Ping returns the version and identity of the server.
func (c *Client) Ping() (*apitypes.PingResponse, error) {
	return c.PingCtx(context.Background())
}

// PingCtx is the context-aware version of Ping.
func (c *Client) PingCtx(ctx context.Context) (*apitypes.PingResponse, error) {
	return call[apitypes.PingResponse](ctx, c, "ping", nil, nil)
}

// LayoutList lists every layout the server knows, sorted by name.
func (c *Client) LayoutList() (*apitypes.LayoutListResponse, error) {
	return c.LayoutListCtx(context.Background())
}

func (c *Client) LayoutListCtx(ctx context.Context) (*apitypes.LayoutListResponse, error) {
	return call[apitypes.LayoutListResponse](ctx, c, "layout/list", nil, nil)
}

// LayoutGet fetches one layout by its registry name, e.g. "Deutsch".
func (c *Client) LayoutGet(name string) (*apitypes.Layout, error) {
	return c.LayoutGetCtx(context.Background(), name)
}

func (c *Client) LayoutGetCtx(ctx context.Context, name string) (*apitypes.Layout, error) {
	return call[apitypes.Layout](ctx, c, "layout/get", name, nil)
}

// LayoutForLocale fetches the layout serving a BCP 47 tag such as "de-AT".
func (c *Client) LayoutForLocale(tag string) (*apitypes.Layout, error) {
	return c.LayoutForLocaleCtx(context.Background(), tag)
}

func (c *Client) LayoutForLocaleCtx(ctx context.Context, tag string) (*apitypes.Layout, error) {
	return call[apitypes.Layout](ctx, c, "layout/locale", tag, nil)
}

// LayoutCheck returns data-quality findings for the server's registry.
func (c *Client) LayoutCheck() (*apitypes.LayoutCheckResponse, error) {
	return c.LayoutCheckCtx(context.Background())
}

func (c *Client) LayoutCheckCtx(ctx context.Context) (*apitypes.LayoutCheckResponse, error) {
	return call[apitypes.LayoutCheckResponse](ctx, c, "layout/check", nil, nil)
}

// Resolve returns the key at a position under the given modifiers.
func (c *Client) Resolve(req apitypes.ResolveRequest) (*apitypes.ResolveResponse, error) {
	return c.ResolveCtx(context.Background(), req)
}

func (c *Client) ResolveCtx(ctx context.Context, req apitypes.ResolveRequest) (*apitypes.ResolveResponse, error) {
	return call[apitypes.ResolveResponse](ctx, c, "resolve", req, nil)
}

// Plan returns the strokes that type text on a layout.
func (c *Client) Plan(layoutName, text string, noDeadKeys bool) (*apitypes.PlanResponse, error) {
	return c.PlanCtx(context.Background(), layoutName, text, noDeadKeys)
}

func (c *Client) PlanCtx(ctx context.Context, layoutName, text string, noDeadKeys bool) (*apitypes.PlanResponse, error) {
	req := apitypes.PlanRequest{Layout: layoutName, Text: text, NoDeadKeys: noDeadKeys}
	return call[apitypes.PlanResponse](ctx, c, "plan", req, nil)
}

func call[T any](ctx context.Context, c *Client, path string, payload any, params map[string]string) (*T, error) {
	raw, err := c.transport.DoCtx(ctx, path, payload, params)
	if err != nil {
		return nil, err
	}
	return parse[T](raw)
}

func parse[T any](data string) (*T, error) {
	if data == "" {
		return nil, errors.New("empty response")
	}
	var problem apitypes.ApiError
	if err := json.Unmarshal([]byte(data), &problem); err == nil && (problem.Status != 0 || problem.Title != "") {
		return nil, &problem
	}
	var out T
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &out, nil
}
