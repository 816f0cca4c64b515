package market

import (
	"context"
	"errors"
	"fmt"
)

// ErrMissingCredential means no provider API key is configured. Callers
// treat it as "run in demo mode", not as a transient fault.
var ErrMissingCredential = errors.New("market: provider api key not configured")

// ErrInvalidSymbol rejects tickers that fail ValidSymbol.
var ErrInvalidSymbol = errors.New("market: invalid symbol")

// RateLimitError means the provider kept answering 429 until the retry
// budget ran out.
type RateLimitError struct {
	Attempts int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("market: rate limited after %d attempts", e.Attempts)
}

// HTTPError is a non-2xx provider response other than 429. It is not
// retried: a bad status is a symbol- or permission-level problem, not a
// transient one.
type HTTPError struct {
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("market: provider returned http %d", e.Status)
}

// Forbidden reports whether err is an HTTP 403, which the controllers
// treat as a provider plan limitation rather than a real failure.
func Forbidden(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.Status == 403
}

// FetchError is a generic network or decode failure after the retry
// budget is exhausted.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("market: fetch failed: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Cancelled reports whether err comes from caller-side cancellation.
// Cancelled calls are superseded cycles, never user-visible errors.
func Cancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}
