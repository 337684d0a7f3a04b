package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"riskScope/internal/apperr"
)

const maxBodyBytes = 8 << 20

// Config holds per-provider transport settings.
type Config struct {
	Name          string
	Timeout       time.Duration
	RatePerSecond float64
	MaxRetries    int
	RetryBackoff  time.Duration
}

// Client issues bounded, rate-limited GET requests against one provider.
type Client struct {
	name       string
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	return &Client{
		name:       cfg.Name,
		http:       &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.RetryBackoff,
		logger:     logger.With(zap.String("provider", cfg.Name)),
	}
}

// Get fetches url and returns the body of a 2xx reply.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	return c.GetWithHeaders(ctx, url, nil)
}

// GetWithHeaders is Get with headers rebuilt on every attempt, so signed
// requests carry a fresh timestamp when retried.
func (c *Client) GetWithHeaders(ctx context.Context, url string, headers func() http.Header) ([]byte, error) {
	var body []byte
	err := withRetry(ctx, c.maxRetries, c.backoff, func(ctx context.Context) error {
		var err error
		body, err = c.get(ctx, url, headers)
		if err != nil {
			c.logger.Debug("provider request failed", zap.Error(err), zap.String("url", url))
		}
		return err
	})
	return body, err
}

func (c *Client) get(ctx context.Context, url string, headers func() http.Header) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperr.Transient("rate limit", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if headers != nil {
		for k, vals := range headers() {
			for _, v := range vals {
				req.Header.Add(k, v)
			}
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Transient(c.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, apperr.Transient(c.name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &apperr.StatusError{Code: resp.StatusCode, Body: truncate(string(body), 200)}
	}
	return body, nil
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *apperr.StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return errors.Is(err, apperr.ErrTransient)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
