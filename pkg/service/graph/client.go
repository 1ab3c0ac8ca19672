package graph

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetupboard/pkg/metrics"
	"github.com/secmon-lab/meetupboard/pkg/service/credential"
	"github.com/secmon-lab/meetupboard/pkg/utils/logging"
)

const (
	DefaultBaseURL        = "https://graph.microsoft.com"
	DefaultRetryCount     = 3
	DefaultRetryBaseDelay = 500 * time.Millisecond
	DefaultTimeout        = 30 * time.Second

	// maxLoggedBody bounds the response body copied into failure logs
	maxLoggedBody = 4096
)

// Sleeper suspends the caller for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Response is a successful Graph response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Attempts   int
}

type failureKind int

const (
	failureNone failureKind = iota
	failureToken
	failureTransport
	failureStatus
)

func (k failureKind) String() string {
	switch k {
	case failureNone:
		return "none"
	case failureToken:
		return "token"
	case failureTransport:
		return "transport"
	case failureStatus:
		return "status"
	default:
		return "unknown"
	}
}

// attemptResult is the outcome of one request attempt
type attemptResult struct {
	attempt int
	ok      bool
	kind    failureKind
	status  int
	header  http.Header
	body    []byte
	err     error
}

// Client executes authenticated Graph requests with retry. The underlying
// resty client and its transport are shared by all calls.
type Client struct {
	http       *resty.Client
	provider   credential.Provider
	retryCount int
	baseDelay  time.Duration
	sleep      Sleeper
	limiter    *RateLimiter
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL sets the Graph host
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.http.SetBaseURL(strings.TrimRight(u, "/"))
		}
	}
}

// WithRetry sets the total number of attempts and the first backoff interval.
// A count below 1 is treated as 1.
func WithRetry(count int, baseDelay time.Duration) Option {
	return func(c *Client) {
		if count < 1 {
			count = 1
		}
		c.retryCount = count
		c.baseDelay = baseDelay
	}
}

// WithTimeout sets the per-attempt timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

// WithSleeper replaces the backoff sleep
func WithSleeper(s Sleeper) Option {
	return func(c *Client) {
		c.sleep = s
	}
}

// WithRateLimiter paces requests through limiter
func WithRateLimiter(limiter *RateLimiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// WithTransport replaces the HTTP transport
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.http.SetTransport(rt)
	}
}

// NewClient creates a Client that asks provider for a token before every attempt
func NewClient(provider credential.Provider, opts ...Option) (*Client, error) {
	if provider == nil {
		return nil, goerr.New("credential provider is required")
	}

	c := &Client{
		http: resty.New().
			SetBaseURL(DefaultBaseURL).
			SetTimeout(DefaultTimeout).
			SetHeader("Accept", "application/json"),
		provider:   provider,
		retryCount: DefaultRetryCount,
		baseDelay:  DefaultRetryBaseDelay,
		sleep:      sleepContext,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Invoke sends one logical request, making up to retryCount attempts. Each
// failed attempt is followed by a sleep that starts at the base delay and
// doubles. The last failure is returned when attempts run out. path may be
// absolute or relative to the base URL. A string or []byte body is sent
// verbatim; any other non-nil body is encoded as JSON.
func (c *Client) Invoke(ctx context.Context, method, path string, body any) (*Response, error) {
	logger := logging.From(ctx)
	interval := c.baseDelay

	var last attemptResult
	for attempt := 1; attempt <= c.retryCount; attempt++ {
		last = c.attempt(ctx, method, path, body, attempt)
		if last.ok {
			metrics.GraphAttemptsTotal.WithLabelValues("success").Inc()
			return &Response{
				StatusCode: last.status,
				Header:     last.header,
				Body:       last.body,
				Attempts:   attempt,
			}, nil
		}

		metrics.GraphAttemptsTotal.WithLabelValues("failure").Inc()
		logger.Warn("graph request attempt failed",
			"method", method,
			"path", path,
			"attempt", attempt,
			"max_attempts", c.retryCount,
			"kind", last.kind.String(),
			"status", last.status,
			"reason", reasonOf(last),
			"transient", last.kind != failureStatus || IsRetryable(last.status),
			"body", truncate(last.body, maxLoggedBody),
		)

		if ctx.Err() != nil || attempt == c.retryCount {
			break
		}

		metrics.GraphRetriesTotal.Inc()
		if err := c.sleep(ctx, interval); err != nil {
			return nil, goerr.Wrap(err, "graph request retry aborted",
				goerr.V("method", method),
				goerr.V("path", path),
				goerr.V("attempt", attempt))
		}
		interval *= 2
	}

	return nil, goerr.Wrap(last.err, "graph request failed",
		goerr.V("method", method),
		goerr.V("path", path),
		goerr.V("attempts", last.attempt),
		goerr.V("kind", last.kind.String()),
		goerr.V("status", last.status))
}

func (c *Client) attempt(ctx context.Context, method, path string, body any, attempt int) attemptResult {
	result := attemptResult{attempt: attempt}

	token, err := c.provider.Token(ctx)
	if err != nil {
		result.kind = failureToken
		result.err = errors.Join(ErrTokenUnavailable, err)
		return result
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			result.kind = failureTransport
			result.err = err
			return result
		}
	}

	req := c.http.R().
		SetContext(ctx).
		SetAuthToken(token.Value)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		result.kind = failureTransport
		result.err = err
		return result
	}

	result.status = resp.StatusCode()
	result.header = resp.Header()
	result.body = resp.Body()

	if statusErr := statusError(result.status); statusErr != nil {
		result.kind = failureStatus
		result.err = statusErr
		if result.status == http.StatusTooManyRequests {
			metrics.GraphThrottledTotal.Inc()
			if c.limiter != nil {
				c.limiter.RecordRetryAfter(retryAfter(result.header))
			}
		}
		return result
	}

	result.ok = true
	result.kind = failureNone
	return result
}

func reasonOf(r attemptResult) string {
	if r.kind == failureStatus {
		return http.StatusText(r.status)
	}
	if r.err != nil {
		return r.err.Error()
	}
	return ""
}

// retryAfter parses a Retry-After header given in seconds
func retryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	sec, err := strconv.Atoi(v)
	if err != nil || sec <= 0 {
		return 0
	}
	return time.Duration(sec) * time.Second
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "...(truncated)"
}
