package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultEndpoint is the RPC endpoint of a local daemon.
	DefaultEndpoint = "http://localhost:9091/transmission/rpc"
	// DefaultTimeout bounds how long one HTTP attempt may take.
	DefaultTimeout = 3 * time.Second
)

// Request is a single RPC call.
type Request struct {
	Method    string `json:"method"`
	Arguments any    `json:"arguments,omitempty"`
}

// Response is the daemon's answer to a [Request].
type Response struct {
	Result    string          `json:"result"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// OK reports whether the result is the success sentinel.
func (r *Response) OK() bool {
	return r.Result == ResultSuccess
}

// Options configures a [Client].
type Options struct {
	Endpoint   string        // RPC URL, defaults to [DefaultEndpoint]
	Username   string        // Basic auth user, empty disables auth
	Password   string        // Basic auth password
	Timeout    time.Duration // Per-attempt timeout, defaults to [DefaultTimeout]
	HTTPClient *http.Client  // Overrides the HTTP client; Timeout is ignored when set
	Token      *SessionToken // Session id cell, defaults to [DefaultSessionToken]
	Metrics    *Metrics      // Optional session refresh accounting
	Middleware []Middleware  // Applied around every Send, first is outermost
}

// Client sends RPC requests and keeps the session id current.
type Client struct {
	endpoint   string
	username   string
	password   string
	httpClient *http.Client
	token      *SessionToken
	metrics    *Metrics
	send       Handler
}

// NewClient creates a new [Client] from opts.
func NewClient(opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Token == nil {
		opts.Token = DefaultSessionToken
	}

	c := &Client{
		endpoint:   opts.Endpoint,
		username:   opts.Username,
		password:   opts.Password,
		httpClient: opts.HTTPClient,
		token:      opts.Token,
		metrics:    opts.Metrics,
	}
	c.send = Chain(opts.Middleware...)(c.exchange)
	return c
}

// Endpoint returns the RPC URL the client posts to.
func (c *Client) Endpoint() string { return c.endpoint }

// Token returns the session id cell used by the client.
func (c *Client) Token() *SessionToken { return c.token }

// Send posts req and returns the decoded response.
//
// A 409 carrying a new session id is retried once with that id. Send does not
// inspect the result sentinel; see [Client.Call].
func (c *Client) Send(ctx context.Context, req *Request) (*Response, error) {
	return c.send(ctx, req)
}

// Call sends method with args, checks the result sentinel and decodes the
// response arguments into out (which may be nil).
func (c *Client) Call(ctx context.Context, method string, args, out any) error {
	resp, err := c.Send(ctx, &Request{Method: method, Arguments: args})
	if err != nil {
		return err
	}

	if !resp.OK() {
		return &ProtocolError{Method: method, Result: resp.Result}
	}

	if out == nil || len(resp.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Arguments, out); err != nil {
		return fmt.Errorf("failed to decode %s arguments: %w", method, err)
	}
	return nil
}

func (c *Client) exchange(ctx context.Context, req *Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", req.Method, err)
	}

	res, err := c.post(ctx, req.Method, body, c.token.Get())
	if err != nil {
		return nil, err
	}

	if res.StatusCode == http.StatusConflict {
		io.Copy(io.Discard, res.Body)
		res.Body.Close()

		sessionID := res.Header.Get(SessionHeader)
		if sessionID == "" {
			return nil, &ProtocolError{Method: req.Method, StatusCode: res.StatusCode}
		}
		c.token.Set(sessionID)
		c.metrics.sessionRefreshed()

		res, err = c.post(ctx, req.Method, body, sessionID)
		if err != nil {
			return nil, err
		}
		if res.StatusCode == http.StatusConflict {
			if next := res.Header.Get(SessionHeader); next != "" {
				c.token.Set(next)
				c.metrics.sessionRefreshed()
			}
		}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		io.Copy(io.Discard, res.Body)
		return nil, &ProtocolError{Method: req.Method, StatusCode: res.StatusCode}
	}

	var out Response
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", req.Method, err)
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, method string, body []byte, sessionID string) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		httpReq.Header.Set(SessionHeader, sessionID)
	}
	if c.username != "" {
		httpReq.SetBasicAuth(c.username, c.password)
	}

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Method: method, Err: err}
	}
	return res, nil
}
