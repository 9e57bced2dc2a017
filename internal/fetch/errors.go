package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrInvalidURL marks a target that is not an absolute http(s) URL. No
// strategy is attempted for such inputs.
var ErrInvalidURL = errors.New("invalid URL: must be absolute http or https")

// ErrEmptyContent marks a response that technically arrived but carried no
// usable article text (under the minimum length, or a consent interstitial).
// The chain treats it exactly like a fetch failure and moves on.
var ErrEmptyContent = errors.New("no usable content extracted")

// HTTPError is a non-2xx status from the origin.
type HTTPError struct {
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status: %d", e.Status)
}

// RemoteServiceError is a failure of the external reader service itself,
// including a malformed JSON body. 403/429 here usually mean the reader is
// rate-limited, not that the origin blocks it.
type RemoteServiceError struct {
	Status int
	Reason string
}

func (e *RemoteServiceError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("reader service: %s (status %d)", e.Reason, e.Status)
	}
	return fmt.Sprintf("reader service status: %d", e.Status)
}

// RenderError wraps a headless-browser failure (launch, navigation, timeout).
// Only the rendering strategy produces it.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string { return fmt.Sprintf("render: %v", e.Err) }
func (e *RenderError) Unwrap() error { return e.Err }

// Class is the classifier's verdict on one failed attempt.
type Class int

const (
	// Retryable failures are plausibly transient: timeouts, 429, 5xx,
	// connection errors, and empty content.
	Retryable Class = iota
	// Terminal failures will not improve by repeating the same mechanism.
	// The chain still escalates to the next, independent strategy.
	Terminal
)

func (c Class) String() string {
	if c == Retryable {
		return "retryable"
	}
	return "terminal"
}

// Classify maps a raw transport/HTTP/render error onto the retry policy.
func Classify(err error) Class {
	if err == nil {
		return Retryable
	}
	if isTimeout(err) || errors.Is(err, ErrEmptyContent) {
		return Retryable
	}
	var he *HTTPError
	if errors.As(err, &he) {
		if he.Status == http.StatusTooManyRequests || he.Status >= 500 {
			return Retryable
		}
		return Terminal
	}
	var rse *RemoteServiceError
	if errors.As(err, &rse) {
		return Terminal
	}
	var re *RenderError
	if errors.As(err, &re) {
		return Terminal
	}
	if errors.Is(err, ErrInvalidURL) {
		return Terminal
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return Retryable
	}
	// Anything else from the transport is a generic network error.
	return Retryable
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// kind returns a short human label for the diagnostic trail.
func kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidURL):
		return "invalid url"
	case errors.Is(err, ErrEmptyContent):
		return "empty content"
	case isTimeout(err):
		return "timeout"
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return fmt.Sprintf("http %d", he.Status)
	}
	var rse *RemoteServiceError
	if errors.As(err, &rse) {
		return fmt.Sprintf("reader %d", rse.Status)
	}
	var re *RenderError
	if errors.As(err, &re) {
		return "render"
	}
	return "network"
}
