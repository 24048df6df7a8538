package fplapi

import (
	"fmt"

	crerr "github.com/cockroachdb/errors"
)

// errUpstreamTransient marks failures the circuit breaker should count:
// transport errors and retryable upstream statuses.
var errUpstreamTransient = crerr.New("fpl upstream transient failure")

// FetchError is a transport-level failure against one endpoint: the
// upstream was unreachable, timed out, or answered with a non-success
// status. It is never retried inside this package; retry policy belongs
// to the caller.
type FetchError struct {
	Endpoint   string
	StatusCode int
	Cause      error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: upstream status=%d: %v", e.Endpoint, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("fetch %s: %v", e.Endpoint, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

func newFetchError(endpoint string, status int, cause error) *FetchError {
	return &FetchError{Endpoint: endpoint, StatusCode: status, Cause: cause}
}

// IsTransient reports whether err should trip the circuit breaker.
func IsTransient(err error) bool {
	return crerr.Is(err, errUpstreamTransient)
}
