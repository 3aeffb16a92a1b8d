package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Jaymelynng/master-events-calendar-sub000/app/metrics"
)

// DefaultTimeout bounds every fetch unless the caller configures otherwise.
const DefaultTimeout = 15 * time.Second

// Client performs bounded-timeout JSON GETs against the portal open API.
type Client struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
}

func NewClient(timeout time.Duration, userAgent string) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 5,
			},
		},
		userAgent: userAgent,
		timeout:   timeout,
	}
}

// FetchJSON GETs url and decodes the response body into out. The request is
// aborted once the timeout elapses; the timeout context is released on every
// exit path.
func (c *Client) FetchJSON(ctx context.Context, url string, out any) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			metrics.FetchErrors.WithLabelValues("timeout").Inc()
			return &TimeoutError{URL: url, Timeout: c.timeout}
		}
		metrics.FetchErrors.WithLabelValues("other").Inc()
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.FetchErrors.WithLabelValues("http").Inc()
		return &HTTPError{Status: resp.StatusCode, URL: url}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			metrics.FetchErrors.WithLabelValues("timeout").Inc()
			return &TimeoutError{URL: url, Timeout: c.timeout}
		}
		metrics.FetchErrors.WithLabelValues("other").Inc()
		return fmt.Errorf("failed to read response from %s: %w", url, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}

	return nil
}
