package httpretry

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const maxBodySnippet = 200

// StatusError reports a non-2xx response from a remote service.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: http %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s: http %d: %s", e.Service, e.StatusCode, e.Body)
}

// NewStatusError builds a StatusError from a response whose body was
// already read. The body is trimmed to a short snippet.
func NewStatusError(service string, resp *http.Response, body []byte) *StatusError {
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > maxBodySnippet {
		snippet = snippet[:maxBodySnippet]
	}
	statusErr := &StatusError{Service: service, StatusCode: resp.StatusCode, Body: snippet}
	if delay, ok := ParseRetryAfter(resp.Header.Get("Retry-After")); ok {
		statusErr.RetryAfter = delay
	}
	return statusErr
}

// ParseRetryAfter reads a Retry-After header given either as seconds or as
// an HTTP date.
func ParseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		if delay := time.Until(when); delay >= 0 {
			return delay, true
		}
	}
	return 0, false
}

type temporaryError struct {
	err error
}

func (e temporaryError) Error() string { return e.err.Error() }
func (e temporaryError) Unwrap() error { return e.err }

// Temporary marks err as worth another attempt.
func Temporary(err error) error {
	if err == nil {
		return nil
	}
	return temporaryError{err: err}
}

// Retryable reports whether err describes a failure that may succeed when
// repeated.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var temp temporaryError
	if errors.As(err, &temp) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		code := statusErr.StatusCode
		return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
