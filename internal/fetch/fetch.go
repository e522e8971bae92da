// Package fetch wraps outbound HTTP with the guard rails every provider call
// needs: an overall timeout, bounded retries on transient status codes, a
// response size cap and optional payload validation. All failure modes come
// back as a structured Response; nothing in this package panics or returns a
// Go error to the caller.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Options configures a Client. Zero fields fall back to the defaults below.
type Options struct {
	Timeout      time.Duration // overall deadline for the call including retries
	MaxRetries   int           // extra attempts on 429/5xx or network failure
	Backoff      time.Duration // base delay, multiplied by the attempt number
	MaxBodyBytes int64         // bodies larger than this are rejected unread
	UserAgent    string
}

const (
	defaultTimeout      = 8 * time.Second
	defaultMaxRetries   = 2
	defaultBackoff      = 500 * time.Millisecond
	defaultMaxBodyBytes = 2 << 20
	defaultUserAgent    = "tokenscan/1.0"
)

// Response is the uniform outcome of a guarded fetch.
type Response struct {
	OK        bool
	Status    int
	Data      any // decoded JSON, or the raw body as string for non-JSON replies
	Err       string
	LatencyMs int64
	TimedOut  bool
}

// ValidateFunc lets a caller reject a syntactically valid payload before it
// is treated as success, e.g. an error object embedded in a 200 response.
type ValidateFunc func(data any) error

// Client is a guarded HTTP client. It is safe for concurrent use.
type Client struct {
	opts  Options
	retry *retryablehttp.Client
}

// NewClient builds a guarded client with the given options.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	} else if opts.MaxRetries == 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = opts.MaxRetries
	rc.CheckRetry = checkRetry
	rc.Backoff = func(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
		return opts.Backoff * time.Duration(attemptNum+1)
	}
	// Keep the final response on exhausted retries instead of swallowing it.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{opts: opts, retry: rc}
}

// checkRetry retries only transient failures: network timeouts, dropped
// connections and HTTP 429/5xx. Every other 4xx is terminal.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return retryableNetErr(err), nil
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return true, nil
	}
	return false, nil
}

// retryableNetErr classifies a network-level failure. Timeouts and
// refused/reset connections are transient; DNS resolution and TLS failures
// indicate misconfiguration and will not heal within a retry window.
func retryableNetErr(err error) bool {
	if isTimeout(err) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}

// Get performs a guarded GET. headers are added verbatim; validate, when
// non-nil, runs on the decoded payload of a 2xx response.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string, validate ValidateFunc) Response {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	start := time.Now()
	fail := func(err error) Response {
		return Response{
			Err:       err.Error(),
			LatencyMs: time.Since(start).Milliseconds(),
			TimedOut:  isTimeout(err) || ctx.Err() == context.DeadlineExceeded,
		}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fail(fmt.Errorf("invalid request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.opts.UserAgent)
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	resp, err := c.retry.Do(req)
	if resp == nil {
		if err == nil {
			err = errors.New("no response")
		}
		return fail(err)
	}
	defer resp.Body.Close()

	latency := time.Since(start).Milliseconds()

	if resp.ContentLength > c.opts.MaxBodyBytes {
		return Response{
			Status:    resp.StatusCode,
			Err:       fmt.Sprintf("response body %d bytes exceeds limit %d", resp.ContentLength, c.opts.MaxBodyBytes),
			LatencyMs: latency,
		}
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, c.opts.MaxBodyBytes+1))
	if readErr != nil {
		return fail(fmt.Errorf("failed to read response body: %w", readErr))
	}
	if int64(len(body)) > c.opts.MaxBodyBytes {
		return Response{
			Status:    resp.StatusCode,
			Err:       fmt.Sprintf("response body exceeds limit %d", c.opts.MaxBodyBytes),
			LatencyMs: latency,
		}
	}

	data, decodeErr := decodeBody(resp.Header.Get("Content-Type"), body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Response{
			Status:    resp.StatusCode,
			Data:      data,
			Err:       fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.Status),
			LatencyMs: latency,
		}
	}
	if decodeErr != nil {
		return Response{
			Status:    resp.StatusCode,
			Err:       decodeErr.Error(),
			LatencyMs: latency,
		}
	}

	if validate != nil {
		if err := validate(data); err != nil {
			return Response{
				Status:    resp.StatusCode,
				Err:       err.Error(),
				LatencyMs: latency,
			}
		}
	}

	return Response{
		OK:        true,
		Status:    resp.StatusCode,
		Data:      data,
		LatencyMs: latency,
	}
}

func decodeBody(contentType string, body []byte) (any, error) {
	if !strings.Contains(strings.ToLower(contentType), "json") {
		return string(body), nil
	}
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("invalid JSON payload: %w", err)
	}
	return data, nil
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
