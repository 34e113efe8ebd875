// Package jiraclient implements the typed remote client: issue and
// comment CRUD against one Jira-like instance, with retry/backoff and
// rich-text flattening.
package jiraclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// maxAttempts bounds the total attempts per request. Transport
	// failures, 5xx responses and 429 responses all count against it.
	maxAttempts = 3

	// defaultRetryAfter is used when a 429 response carries no Retry-After.
	defaultRetryAfter = 60 * time.Second

	// maxRateLimitWait caps cumulative time spent sleeping on 429 responses
	// for a single logical request, so a misbehaving remote can't wedge a
	// sweep indefinitely.
	maxRateLimitWait = 2 * time.Minute

	requestTimeout = 30 * time.Second
)

// Config configures a Client for one side of the pairing.
type Config struct {
	BaseURL      string
	Username     string
	APIToken     string
	ProjectKey   string
	InstanceLabel string // "left" or "right", used in sync comment markers
}

// Client is a typed HTTP client against one Jira-like REST API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// New builds a Client for the given side configuration.
func New(cfg Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// ProjectKey returns the configured project key for this side.
func (c *Client) ProjectKey() string { return c.cfg.ProjectKey }

// InstanceLabel returns the side label used when attributing sync comments.
func (c *Client) InstanceLabel() string { return c.cfg.InstanceLabel }

// BaseURL returns the configured remote base URL, used by the dispatcher to
// match an inbound webhook's Origin header to a side.
func (c *Client) BaseURL() string { return c.cfg.BaseURL }

// doJSON executes method against path, marshaling body (if non-nil) as the
// request JSON and unmarshaling a 2xx response into out (if non-nil). It
// retries transient failures.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	respBytes, err := c.doRaw(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out != nil && len(respBytes) > 0 {
		if err := json.Unmarshal(respBytes, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// doRaw executes method against path and returns the raw 2xx response body,
// retrying transient failures.
func (c *Client) doRaw(ctx context.Context, method, path string, body any) ([]byte, error) {
	var bodyBytes []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyBytes = b
	}

	url := c.cfg.BaseURL + path
	correlationID := uuid.New().String()
	logger := log.With().
		Str("method", method).
		Str("url", url).
		Str("correlationId", correlationID).
		Logger()

	var rateLimitWaited time.Duration
	var result []byte
	attempt := 0

	operation := func() error {
		attempt++

		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(bodyBytes))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		req.Header.Set("Accept", "application/json")
		if bodyBytes != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.SetBasicAuth(c.cfg.Username, c.cfg.APIToken)
		req.Header.Set("X-Correlation-ID", correlationID)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			logger.Warn().Err(err).Int("attempt", attempt).Msg("transport failure, will retry")
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			wait := parseRetryAfter(resp.Header.Get("Retry-After"))
			if rateLimitWaited+wait > maxRateLimitWait {
				wait = maxRateLimitWait - rateLimitWaited
			}
			if wait <= 0 {
				return backoff.Permanent(&APIError{StatusCode: resp.StatusCode, Method: method, URL: url, Body: "rate limit wait budget exhausted"})
			}
			logger.Warn().Dur("wait", wait).Msg("429 rate limited, sleeping")
			rateLimitWaited += wait
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("rate limited, retrying")
		}

		respBytes, _ := io.ReadAll(resp.Body)

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := &APIError{StatusCode: resp.StatusCode, Method: method, URL: url, Body: string(respBytes)}
			if !apiErr.Retryable() {
				return backoff.Permanent(apiErr)
			}
			return apiErr
		}

		result = respBytes
		return nil
	}

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxAttempts-1)
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return result, nil
}

// parseRetryAfter parses a Retry-After header value (seconds or HTTP-date),
// defaulting to defaultRetryAfter when absent or unparseable.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return defaultRetryAfter
	}
	if secs, err := strconv.Atoi(header); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		d := time.Until(t)
		if d > 0 {
			return d
		}
	}
	return defaultRetryAfter
}
