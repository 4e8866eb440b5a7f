// Package fetch provides the outbound HTTP client shared by the source
// adapters: bounded retries at a fixed interval with a per-attempt timeout.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/davidkirwan/asset-monitoring/internal/model"
	"github.com/davidkirwan/asset-monitoring/internal/telemetry"
)

// Only this much of a failing response body is carried in the error.
const maxErrorBody = 256

// Client performs GET requests with retry. Retries cover transport errors,
// timeouts and non-2xx responses; the interval between attempts is fixed.
type Client struct {
	source   string
	http     *http.Client
	timeout  time.Duration
	retries  int
	interval time.Duration
	tel      *telemetry.Telemetry
	log      *logrus.Logger
}

// New creates a client for one upstream source. retries is the number of
// additional attempts after the first; interval is the pause between
// attempts. tel may be nil.
func New(source string, timeout time.Duration, retries int, interval time.Duration, tel *telemetry.Telemetry, log *logrus.Logger) *Client {
	if retries < 0 {
		retries = 0
	}
	return &Client{
		source:   source,
		http:     &http.Client{},
		timeout:  timeout,
		retries:  retries,
		interval: interval,
		tel:      tel,
		log:      log,
	}
}

// Get fetches url, retrying up to the configured count. It returns the
// response body of the first 2xx response, or a NetworkError describing the
// final failed attempt.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	attempts := c.retries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := c.wait(ctx); err != nil {
				return nil, lastErr
			}
		}

		body, err := c.attempt(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, lastErr
		}
		c.log.Debugf("[fetch] %s attempt %d/%d failed: %v", c.source, attempt, attempts, err)
	}
	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, url string) ([]byte, error) {
	reqCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &model.NetworkError{URL: url, Err: err}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		c.tel.ObserveUpstream(c.source, "error", elapsed)
		return nil, &model.NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.tel.ObserveUpstream(c.source, fmt.Sprintf("%d", resp.StatusCode), elapsed)
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &model.NetworkError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       string(snippet),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.tel.ObserveUpstream(c.source, "error", elapsed)
		return nil, &model.NetworkError{URL: url, Err: err}
	}
	c.tel.ObserveUpstream(c.source, fmt.Sprintf("%d", resp.StatusCode), elapsed)
	return body, nil
}

// wait sleeps for the retry interval, aborting early on context cancellation.
func (c *Client) wait(ctx context.Context) error {
	if c.interval <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
