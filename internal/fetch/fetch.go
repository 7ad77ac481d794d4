// Package fetch retrieves evidence documents for claim verification. The
// hallucination checker accepts any Func; the default implementation does
// plain GETs with bounded retries and an optional client-side rate limit.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sentrykit/guardrail-mcp-server/internal/cache"
	"github.com/sentrykit/guardrail-mcp-server/internal/errors"
)

const (
	// DefaultTimeout bounds one fetch attempt.
	DefaultTimeout = 5 * time.Second
	// DefaultRetries is the number of additional attempts after the first.
	DefaultRetries = 2

	userAgent = "guardrail-mcp-server/" + Version
	// Version identifies this build in the outbound User-Agent.
	Version = "0.1.0"
)

// Func fetches the text of one evidence URL. Implementations that honor
// cancellation should return an error when ctx is done; the hallucination
// checker records it as a fetch error and the evaluation still completes.
type Func func(ctx context.Context, url string) (string, error)

// Client is the default evidence fetcher.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *cache.Cache
	retries    int
	logger     *zap.Logger
}

// Options configures the default fetcher. Zero values select the defaults;
// a negative Retries disables retries entirely.
type Options struct {
	Timeout time.Duration
	Retries int
	// Limiter throttles outbound fetches when non-nil.
	Limiter *rate.Limiter
	// Cache stores fetched documents by URL when non-nil.
	Cache *cache.Cache
}

// New creates a fetcher with the given options.
func New(opts Options, logger *zap.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	retries := opts.Retries
	if retries == 0 {
		retries = DefaultRetries
	} else if retries < 0 {
		retries = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    opts.Limiter,
		cache:      opts.Cache,
		retries:    retries,
		logger:     logger.Named("fetch"),
	}
}

// Text fetches the document at url, attempting up to 1+retries times with a
// linear backoff of 200ms per attempt already made. HTTP status >= 400 is an
// error; response bytes are decoded as UTF-8 with one replacement rune per
// invalid byte.
func (c *Client) Text(ctx context.Context, url string) (string, error) {
	if c.cache != nil {
		if body, ok := c.cache.Get(url); ok {
			c.logger.Debug("Evidence cache hit", zap.String("url", url))
			return body, nil
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			wait := 200 * time.Millisecond * time.Duration(attempt)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return "", errors.NewNetworkError(fmt.Sprintf("Failed to fetch %s: %v", url, ctx.Err()))
			}
		}

		body, err := c.attempt(ctx, url)
		if err == nil {
			if c.cache != nil {
				c.cache.Set(url, body)
			}
			return body, nil
		}
		lastErr = err
		c.logger.Warn("Evidence fetch failed",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	return "", errors.NewNetworkError(fmt.Sprintf("Failed to fetch %s: %v", url, lastErr))
}

func (c *Client) attempt(ctx context.Context, url string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait failed: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("Failed to close response body", zap.Error(closeErr))
		}
	}()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	return decodeUTF8(raw), nil
}

// decodeUTF8 substitutes U+FFFD for each invalid byte individually, so the
// decoded length tracks the raw length and extraction offsets stay stable.
// strings.ToValidUTF8 would collapse a run of invalid bytes into one rune.
func decodeUTF8(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	var b strings.Builder
	b.Grow(len(raw))
	for len(raw) > 0 {
		r, size := utf8.DecodeRune(raw)
		if r == utf8.RuneError && size == 1 {
			b.WriteRune(utf8.RuneError)
		} else {
			b.Write(raw[:size])
		}
		raw = raw[size:]
	}
	return b.String()
}
