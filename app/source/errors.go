package source

import (
	"fmt"
	"time"
)

// HTTPError is returned when a portal endpoint answers outside the 2xx range.
type HTTPError struct {
	Status int
	URL    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.Status, e.URL)
}

// TimeoutError is returned when the per-request deadline elapses. There are
// no retries at this layer; retry policy belongs to the caller.
type TimeoutError struct {
	URL     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to %s timed out after %s", e.URL, e.Timeout)
}
