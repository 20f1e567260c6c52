package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/leonfresh/chessleaks/internal/stats"
)

const (
	// DefaultResponseHeaderTimeout is the timeout for receiving response headers.
	DefaultResponseHeaderTimeout = 30 * time.Second

	defaultRetries        = 3
	defaultBackoff        = 500 * time.Millisecond
	defaultRequestTimeout = 30 * time.Second

	userAgent = "chessleaks/1.0"
)

// Client is an HTTP client with retries and backoff shared by the
// archive providers.
type Client struct {
	http           *http.Client
	retries        int
	backoff        time.Duration
	requestTimeout time.Duration
	logger         *zap.Logger
	collector      stats.Collector
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.http = client
	}
}

// WithRetries sets how many attempts are made per request.
func WithRetries(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.retries = n
		}
	}
}

// WithBackoff sets the initial delay between attempts. The delay doubles
// after each failure.
func WithBackoff(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// WithRequestTimeout sets the per-attempt timeout.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCollector sets the stats collector.
func WithCollector(collector stats.Collector) ClientOption {
	return func(c *Client) {
		if collector != nil {
			c.collector = collector
		}
	}
}

// NewClient creates a Client with sensible defaults.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		http: &http.Client{
			Timeout: 0, // No overall timeout - we handle it per-request.
			Transport: &http.Transport{
				ResponseHeaderTimeout: DefaultResponseHeaderTimeout,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		retries:        defaultRetries,
		backoff:        defaultBackoff,
		requestTimeout: defaultRequestTimeout,
		logger:         zap.NewNop(),
		collector:      stats.NewNoop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// statusError is a non-2xx response. Server errors and rate limits are
// retried; client errors are not.
type statusError struct {
	status     int
	retryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status: %d", e.status)
}

func (e *statusError) retryable() bool {
	return e.status == http.StatusTooManyRequests || e.status >= 500
}

// Get fetches url, retrying transient failures with exponential backoff.
// A 429 response's Retry-After header overrides the computed delay.
// After exhausting retries the last cause is wrapped in ErrUnavailable.
func (c *Client) Get(ctx context.Context, url, accept string) ([]byte, error) {
	var lastErr error
	delay := c.backoff

	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			wait := delay
			if se, ok := lastErr.(*statusError); ok && se.retryAfter > 0 {
				wait = se.retryAfter
			}
			c.collector.IncCounter(stats.MetricFetchRetries, 1)
			c.logger.Debug("retrying request",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(lastErr))
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			delay *= 2
		}

		body, err := c.attempt(ctx, url, accept)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if se, ok := err.(*statusError); ok && !se.retryable() {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func (c *Client) attempt(ctx context.Context, url, accept string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		se := &statusError{status: resp.StatusCode}
		if s := resp.Header.Get("Retry-After"); s != "" {
			if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
				se.retryAfter = time.Duration(secs) * time.Second
			}
		}
		return nil, se
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}
