package ratelimit

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/mjdav02/shiftwatch/internal/model"
)

// PerMinute builds a limiter allowing reqPerMinute requests with the
// given burst size.
func PerMinute(reqPerMinute, burst int) *rate.Limiter {
	if reqPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(reqPerMinute)), burst)
}

// Source is a decorator that paces fetches against the job board so the
// poller never exceeds the configured request rate.
type Source struct {
	inner   model.ListingSource
	limiter *rate.Limiter
}

// NewSource wraps a ListingSource with a shared rate limiter.
func NewSource(inner model.ListingSource, limiter *rate.Limiter) *Source {
	return &Source{inner: inner, limiter: limiter}
}

// FetchListings blocks until the limiter grants a token, then delegates.
func (s *Source) FetchListings(ctx context.Context, city string) ([]model.Listing, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.FetchListings(ctx, city)
}

// Transport is an http.RoundTripper that waits on the same limiter before
// each request. The applicator shares it with the listing source so page
// fetches and form submissions count against one budget.
type Transport struct {
	Base    http.RoundTripper
	Limiter *rate.Limiter
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.Limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
