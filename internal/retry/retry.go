package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/mjdav02/shiftwatch/internal/model"
)

// Source is a decorator that retries transient fetch failures with
// exponential backoff and jitter before delegating to the wrapped
// ListingSource.
type Source struct {
	inner      model.ListingSource
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewSource wraps a ListingSource with retry logic.
// maxRetries is the number of additional attempts after the first failure.
// baseDelay is the delay before the first retry, doubled on each subsequent retry.
func NewSource(inner model.ListingSource, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *Source {
	return &Source{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

// FetchListings attempts to fetch listings for a city, retrying on transient errors.
func (s *Source) FetchListings(ctx context.Context, city string) ([]model.Listing, error) {
	listings, err := s.inner.FetchListings(ctx, city)
	if err == nil {
		return listings, nil
	}

	if !isRetryable(err) {
		return nil, err
	}

	lastErr := err
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		delay := s.backoffDelay(attempt, lastErr)

		s.logger.Warn("retrying after transient error",
			"city", city,
			"attempt", attempt,
			"max_retries", s.maxRetries,
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		listings, err = s.inner.FetchListings(ctx, city)
		if err == nil {
			return listings, nil
		}

		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

// backoffDelay returns how long to wait before the given retry attempt.
// A Retry-After carried by the error wins; otherwise the base delay
// doubles per attempt, with ±30% jitter.
func (s *Source) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	delay := s.baseDelay << (attempt - 1)
	jitter := (rand.Float64()*0.6 - 0.3) * float64(delay)
	return delay + time.Duration(jitter)
}

// isRetryable reports whether a fetch error is worth another attempt.
// Rate limiting and server-side errors are transient; other client errors
// and cancelled contexts are not. Anything non-HTTP (DNS, connection
// reset) is treated as transient.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}
	return true
}
