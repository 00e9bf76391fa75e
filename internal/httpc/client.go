// Package httpc is the outbound HTTP access layer for EDGAR: a rate-limited,
// retrying, redirect-following request pipeline that attaches the caller
// identity the SEC's fair access policy requires. Downstream consumers call
// Get, Post, or Stream and take ownership of the returned response.
package httpc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxRedirects caps recursive redirect following. The upstream
// behavior was unbounded; a misconfigured chain should fail instead of
// recursing forever.
const DefaultMaxRedirects = 10

// DefaultHTTPTimeout bounds a single transport call.
const DefaultHTTPTimeout = 15 * time.Second

// Response is what the pipeline hands back to callers. The pipeline does not
// retain it; status-code policy beyond 429 and redirects is the caller's
// business (see InspectResponse).
type Response struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Stats holds informational request counters.
type Stats struct {
	TotalRequests uint64 `json:"total_requests"`
	RateLimited   uint64 `json:"rate_limited"`
	Redirects     uint64 `json:"redirects"`
}

// Client composes identity resolution, rate limiting, the transport call,
// redirect following, and retry into one request pipeline. The zero value is
// usable: it applies default retry tuning, a default transport, and no rate
// limit. Safe for concurrent use from multiple goroutines; the only blocking
// point is the ticket wait.
type Client struct {
	// HTTPClient performs the actual network call. When nil a default
	// client is used. Redirects are followed by the pipeline itself, so a
	// caller-supplied client must not follow them on its own.
	HTTPClient *http.Client

	// Tickets grants one admission per outbound call, including each
	// redirect hop. Nil means unlimited.
	Tickets TicketSource

	Retry RetryPolicy

	// Identity and IdentityFunc are the default identity sources; per-call
	// options take precedence. See ResolveIdentity.
	Identity     string
	IdentityFunc func() string

	MaxRedirects int
	Logger       *zap.Logger

	totalReqs   atomic.Uint64
	rateLimited atomic.Uint64
	redirects   atomic.Uint64
}

// RequestOption adjusts a single pipeline invocation.
type RequestOption func(*requestOptions)

type requestOptions struct {
	identity     string
	identityFunc func() string
	headers      http.Header
}

// WithIdentity sets an explicit identity for this call.
func WithIdentity(identity string) RequestOption {
	return func(o *requestOptions) { o.identity = identity }
}

// WithIdentityFunc sets an identity resolver for this call.
func WithIdentityFunc(fn func() string) RequestOption {
	return func(o *requestOptions) { o.identityFunc = fn }
}

// WithHeader adds a request header. A User-Agent set here is overwritten by
// the resolved identity.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = http.Header{}
		}
		o.headers.Set(key, value)
	}
}

// Get issues a GET through the pipeline and returns the response, whatever
// its status, except 429 (retried) and 301/302 (followed).
func (c *Client) Get(ctx context.Context, rawURL string, opts ...RequestOption) (*Response, error) {
	o := c.applyOptions(opts)
	var resp *Response
	err := c.Retry.Do(ctx, func() error {
		var err error
		resp, err = c.request(ctx, http.MethodGet, rawURL, nil, "", o, 0)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Post issues a POST with the given body and content type.
func (c *Client) Post(ctx context.Context, rawURL, contentType string, body []byte, opts ...RequestOption) (*Response, error) {
	o := c.applyOptions(opts)
	var resp *Response
	err := c.Retry.Do(ctx, func() error {
		var err error
		resp, err = c.request(ctx, http.MethodPost, rawURL, body, contentType, o, 0)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// PostJSON marshals payload and POSTs it as application/json.
func (c *Client) PostJSON(ctx context.Context, rawURL string, payload any, opts ...RequestOption) (*Response, error) {
	body, err := sonic.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}
	return c.Post(ctx, rawURL, "application/json", body, opts...)
}

// Stats returns a snapshot of the request counters.
func (c *Client) Stats() Stats {
	return Stats{
		TotalRequests: c.totalReqs.Load(),
		RateLimited:   c.rateLimited.Load(),
		Redirects:     c.redirects.Load(),
	}
}

// InspectResponse raises for any non-200 response. Callers that accept other
// statuses should check Response.StatusCode themselves instead.
func InspectResponse(resp *Response) error {
	if resp == nil {
		return fmt.Errorf("no response")
	}
	if resp.StatusCode != http.StatusOK {
		return &StatusError{URL: resp.URL, StatusCode: resp.StatusCode}
	}
	return nil
}

// request performs one pipeline pass: identity, ticket, transport call,
// then 429/redirect routing. hop counts redirect depth.
func (c *Client) request(ctx context.Context, method, rawURL string, body []byte, contentType string, o requestOptions, hop int) (*Response, error) {
	if hop > c.maxRedirects() {
		return nil, &TooManyRedirectsError{URL: rawURL, Hops: hop}
	}

	resp, err := c.send(ctx, method, rawURL, body, contentType, o)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.rateLimited.Add(1)
		return nil, &TooManyRequestsError{URL: rawURL}
	case isRedirect(resp.StatusCode):
		location, err := redirectLocation(resp, rawURL)
		if err != nil {
			return nil, err
		}
		c.redirects.Add(1)
		c.log().Debug("following redirect",
			zap.String("from", rawURL),
			zap.String("to", location),
			zap.Int("hop", hop+1))
		return c.request(ctx, method, location, body, contentType, o, hop+1)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &Response{
		URL:        rawURL,
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       payload,
	}, nil
}

// send resolves identity, waits for a ticket, and performs the transport
// call. Identity resolution happens first so configuration errors surface
// before any rate-limiter or network interaction.
func (c *Client) send(ctx context.Context, method, rawURL string, body []byte, contentType string, o requestOptions) (*http.Response, error) {
	identity, err := ResolveIdentity(o.identity, o.identityFunc)
	if err != nil {
		return nil, err
	}

	if c.Tickets != nil {
		if err := c.Tickets.Acquire(ctx); err != nil {
			return nil, err
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, err
	}
	for key, values := range o.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	// Identity wins over any caller-supplied User-Agent.
	req.Header.Set("User-Agent", identity)

	c.totalReqs.Add(1)
	c.log().Debug("outbound request",
		zap.String("method", method),
		zap.String("url", rawURL),
		zap.String("request_id", requestID))

	return c.httpClient().Do(req)
}

func (c *Client) applyOptions(opts []RequestOption) requestOptions {
	o := requestOptions{identity: c.Identity, identityFunc: c.IdentityFunc}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return defaultHTTPClient
}

func (c *Client) maxRedirects() int {
	if c.MaxRedirects > 0 {
		return c.MaxRedirects
	}
	return DefaultMaxRedirects
}

func (c *Client) log() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return zap.NewNop()
}

// The pipeline follows redirects itself, one rate-limit ticket per hop.
var defaultHTTPClient = &http.Client{
	Timeout: DefaultHTTPTimeout,
	CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

func isRedirect(status int) bool {
	return status == http.StatusMovedPermanently || status == http.StatusFound
}

func redirectLocation(resp *http.Response, from string) (string, error) {
	location := resp.Header.Get("Location")
	if location == "" {
		return "", fmt.Errorf("redirect without Location header: %s", from)
	}
	base, err := url.Parse(from)
	if err != nil {
		return "", err
	}
	target, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(target).String(), nil
}
