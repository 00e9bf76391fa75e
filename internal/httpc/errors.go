package httpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// ErrIdentityNotSet indicates that no User-Agent identity could be resolved.
// It is a configuration error and is never retried.
var ErrIdentityNotSet = errors.New("user-agent identity is not set: pass one explicitly, supply an identity func, or set " + identityEnvVar)

// TooManyRequestsError is raised when the remote service answers 429.
// The retry layer treats it like a network hiccup rather than a fatal error.
type TooManyRequestsError struct {
	URL string
}

func (e *TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests: %s", e.URL)
}

// TooManyRedirectsError is returned when a redirect chain exceeds the
// configured hop limit.
type TooManyRedirectsError struct {
	URL  string
	Hops int
}

func (e *TooManyRedirectsError) Error() string {
	return fmt.Sprintf("stopped after %d redirects: %s", e.Hops, e.URL)
}

// StatusError reports a non-success status surfaced by InspectResponse.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.URL)
}

// isTransient reports whether an error is worth retrying: connection
// failures, timeouts, and explicit 429 rejections. Caller cancellation and
// configuration errors are not transient.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var tooMany *TooManyRequestsError
	if errors.As(err, &tooMany) {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, context.DeadlineExceeded)
}
