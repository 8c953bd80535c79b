// Package httpexec sends already-translated provider requests over the
// endpoint's declared protocol. It never retries and never interprets the
// request body; its one job beyond transport is classifying failures into
// the shared taxonomy so callers can decide what to do.
package httpexec

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"specwire/internal/outcome"
)

const (
	contentTypeJSON = "application/json"
	userAgent       = "specwire/0.1"

	// DefaultTimeout applies when the caller passes timeout 0.
	DefaultTimeout = 30 * time.Second

	defaultDialTimeout     = 10 * time.Second
	defaultKeepAlive       = 30 * time.Second
	defaultIdleConnTimeout = 90 * time.Second

	maxResponseBytes = 10 << 20 // 10 MiB
	maxErrorBytes    = 64 * 1024
)

// envPrefix marks header values resolved from the environment at send time,
// so provider specs never carry credentials inline.
const envPrefix = "env:"

// Request is the executable document produced by translation: an endpoint,
// optional headers, and an opaque body forwarded verbatim.
type Request struct {
	Endpoint Endpoint          `json:"endpoint"`
	Headers  map[string]string `json:"headers,omitempty"`
	Body     json.RawMessage   `json:"body"`
}

// Endpoint pins down where and how the request is sent.
type Endpoint struct {
	Method   string `json:"method"`
	URL      string `json:"url"`
	Protocol string `json:"protocol"`
}

// Outcome is a successful execution: the raw response payload plus timing
// and addressing facts. Failures are returned as classified errors instead.
type Outcome struct {
	Success    bool            `json:"success"`
	Response   json.RawMessage `json:"response"`
	Endpoint   string          `json:"endpoint"`
	DurationMS int64           `json:"duration_ms"`
}

// Client executes provider requests. It is safe for concurrent use.
type Client struct {
	http *http.Client
}

// NewClient constructs a client with tuned transport defaults. Deadlines are
// applied per call through the context, not on the http.Client.
func NewClient() *Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAlive}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          50,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		http: &http.Client{Transport: transport},
	}
}

// Execute sends the request and returns the raw response or a classified
// failure. timeoutSeconds 0 selects DefaultTimeout; any positive value is an
// upper bound on wall-clock wait.
func (c *Client) Execute(ctx context.Context, req *Request, timeoutSeconds int) (*Outcome, error) {
	if req == nil {
		return nil, outcome.New(outcome.NullPointer, "request must not be nil")
	}
	if timeoutSeconds < 0 {
		return nil, outcome.Errorf(outcome.InvalidInput, "timeout_seconds must be non-negative, got %d", timeoutSeconds)
	}
	if req.Endpoint.URL == "" || req.Endpoint.Method == "" {
		return nil, outcome.New(outcome.InvalidInput, "request endpoint requires method and url")
	}

	timeout := DefaultTimeout
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()

	var (
		response json.RawMessage
		err      error
	)
	switch req.Endpoint.Protocol {
	case "http", "https", "":
		response, err = c.executeHTTP(ctx, req)
	case "sse":
		response, err = c.executeSSE(ctx, req)
	default:
		return nil, outcome.Errorf(outcome.NotImplemented, "protocol %q is not supported", req.Endpoint.Protocol)
	}
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Success:    true,
		Response:   response,
		Endpoint:   req.Endpoint.URL,
		DurationMS: time.Since(started).Milliseconds(),
	}, nil
}

func (c *Client) executeHTTP(ctx context.Context, req *Request) (json.RawMessage, error) {
	httpResp, err := c.do(ctx, req, contentTypeJSON)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= 400 {
		return nil, classifyStatus(httpResp)
	}

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, classifyTransport(ctx, fmt.Errorf("read response body: %w", err))
	}

	if json.Valid(body) {
		return json.RawMessage(body), nil
	}
	// Non-JSON payloads pass through as a JSON string.
	wrapped, err := json.Marshal(string(body))
	if err != nil {
		return nil, outcome.Errorf(outcome.InternalError, "wrap response body: %v", err)
	}
	return json.RawMessage(wrapped), nil
}

func (c *Client) do(ctx context.Context, req *Request, accept string) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Endpoint.Method, req.Endpoint.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, outcome.Errorf(outcome.InvalidInput, "construct request: %v", err)
	}

	httpReq.Header.Set("Content-Type", contentTypeJSON)
	httpReq.Header.Set("Accept", accept)
	httpReq.Header.Set("User-Agent", userAgent)

	for key, value := range req.Headers {
		resolved, err := resolveHeader(key, value)
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set(key, resolved)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(ctx, err)
	}
	return httpResp, nil
}

// resolveHeader expands env: indirections. A missing variable is treated as
// absent credentials rather than silently sending an empty header.
func resolveHeader(key, value string) (string, error) {
	if !strings.HasPrefix(value, envPrefix) {
		return value, nil
	}
	name := strings.TrimPrefix(value, envPrefix)
	resolved := os.Getenv(name)
	if resolved == "" {
		return "", outcome.Errorf(outcome.AuthenticationError, "header %q references unset environment variable %q", key, name)
	}
	return resolved, nil
}

// classifyTransport normalizes errors surfaced before any HTTP status was
// received. Deadline expiry is a timeout, an explicit cancel signal is
// Cancelled, everything else at this layer is a network failure.
func classifyTransport(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return outcome.Wrap(outcome.TimeoutError, "request deadline exceeded", err)
	case errors.Is(err, context.Canceled):
		return outcome.Wrap(outcome.Cancelled, "request cancelled", err)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return outcome.Wrap(outcome.TimeoutError, "request timed out", err)
	}

	// The context may have expired while the transport error was in flight.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return classifyTransport(context.Background(), fmt.Errorf("%w: %w", ctxErr, err))
	}

	return outcome.Wrap(outcome.NetworkError, "transport failure", err)
}

// classifyStatus maps provider error conventions onto the taxonomy:
// 401/403 are authentication failures, 429 is quota exhaustion, everything
// else non-success is reported as an upstream network-class failure.
func classifyStatus(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
	detail := strings.TrimSpace(string(body))
	if detail == "" {
		detail = resp.Status
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return outcome.Errorf(outcome.AuthenticationError, "provider rejected credentials (status %d): %s", resp.StatusCode, detail)
	case http.StatusTooManyRequests:
		return outcome.Errorf(outcome.RateLimitError, "provider rate limit exceeded: %s", detail)
	default:
		return outcome.Errorf(outcome.NetworkError, "upstream error status %d: %s", resp.StatusCode, detail)
	}
}
