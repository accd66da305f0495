// Package httpx implements the shared HTTP retry/backoff policy used by
// both the file source and the REST endpoints: retry on 429
// and 5xx/transport errors, a 404 surfaced as an absent-slot signal rather
// than an error, exponential backoff honoring a server-advertised
// Retry-After on rate-limit responses.
package httpx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"

	"gdelt/pkg/apperror"
	"gdelt/pkg/config"
	"gdelt/pkg/logger"
	"gdelt/pkg/ratelimit"
	"gdelt/pkg/telemetry"
)

// Client wraps a net/http.Client with the engine's retry policy. Every
// request travels through the telemetry round-tripper, and, when a limiter
// is attached, waits for a per-host egress slot before going out.
type Client struct {
	http    *http.Client
	cfg     config.RetryConfig
	limiter ratelimit.Limiter
}

// New constructs a Client from the engine's resolved retry configuration.
func New(cfg config.RetryConfig) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http: &http.Client{
			Timeout:   timeout,
			Transport: telemetry.WrapTransport(nil),
		},
		cfg: cfg,
	}
}

// WithLimiter attaches a rate limiter paced per egress host. Returns c for
// chaining at construction time; not safe to call once requests are in
// flight.
func (c *Client) WithLimiter(l ratelimit.Limiter) *Client {
	c.limiter = l
	return c
}

// Response is the bounded result of one successful GET: the response body
// and any server-advertised caching/rate metadata a caller might need.
type Response struct {
	Body        []byte
	ContentType string
}

// Get issues a GET against url, retrying on 429 and 5xx/transport errors
// per the shared backoff policy. A 404 returns apperror.ErrAbsent without
// retrying; a 4xx other than 404 returns a non-retryable BadRequest.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = orDefault(c.cfg.InitialBackoff, 2*time.Second)
	eb.MaxInterval = orDefault(c.cfg.MaxBackoff, 60*time.Second)
	if c.cfg.BackoffMultiplier > 0 {
		eb.Multiplier = c.cfg.BackoffMultiplier
	}

	maxTries := uint(c.cfg.MaxAttempts)
	if maxTries == 0 {
		maxTries = 5
	}

	op := func() (*Response, error) {
		return c.do(ctx, url)
	}

	resp, err := backoff.Retry(ctx, op, backoff.WithBackOff(eb), backoff.WithMaxTries(maxTries))
	if err != nil {
		logger.Warn("httpx: request did not succeed", "url", url, "error", err)
		return nil, err
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, backoff.Permanent(apperror.Wrap(err, apperror.CodeBadRequest, "build request"))
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, egressKey(rawURL)); err != nil {
			return nil, backoff.Permanent(apperror.Wrap(err, apperror.CodeCancelled, "egress limiter wait"))
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeUpstreamUnavailable, "request transport error")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, backoff.Permanent(apperror.ErrAbsent)

	case resp.StatusCode == http.StatusTooManyRequests:
		appErr := apperror.New(apperror.CodeRateLimited, "upstream rate limited the request")
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, err := strconv.ParseInt(ra, 10, 64); err == nil {
				appErr = appErr.WithRetryAfter(secs)
				// backoff.Retry finds the RetryAfterError through Unwrap and
				// waits that long instead of the next exponential interval.
				appErr.Cause = backoff.RetryAfter(int(secs))
			}
		}
		return nil, appErr

	case resp.StatusCode >= 500:
		return nil, apperror.New(apperror.CodeUpstreamUnavailable,
			fmt.Sprintf("upstream returned %d", resp.StatusCode))

	case resp.StatusCode >= 400:
		return nil, backoff.Permanent(apperror.New(apperror.CodeBadRequest,
			fmt.Sprintf("request rejected with %d", resp.StatusCode)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeUpstreamUnavailable, "read response body")
	}

	return &Response{Body: body, ContentType: resp.Header.Get("Content-Type")}, nil
}

// Head issues a HEAD against url without retrying, used by gdelt.Client.Ping
// for a cheap connectivity check.
func (c *Client) Head(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeBadRequest, "build HEAD request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeUpstreamUnavailable, "HEAD request failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return apperror.New(apperror.CodeUpstreamUnavailable, fmt.Sprintf("HEAD returned %d", resp.StatusCode))
	}
	return nil
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// egressKey buckets limiter waits per target host.
func egressKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "egress:unknown"
	}
	return "egress:" + u.Hostname()
}
