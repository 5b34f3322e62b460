package model

import (
	"fmt"
	"time"
)

// HTTPError carries the status code of a failed fetch so retry logic can
// decide whether the failure is transient.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // parsed from Retry-After, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}
