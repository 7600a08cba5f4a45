// Package upstream holds the pieces shared by the HTTP clients for external
// vehicle data services: typed failures, error labels and traced requests.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrMalformed     = errors.New("malformed upstream response")
	ErrNotConfigured = errors.New("upstream credentials not configured")
)

// StatusError is a non-2xx reply from an upstream service.
type StatusError struct {
	Service string
	Op      string
	Code    int
	Status  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d %s", e.Service, e.Op, e.Code, e.Status)
}

// MalformedError wraps a decode failure so it matches ErrMalformed.
func MalformedError(op string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", op, ErrMalformed)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrMalformed, err)
}

// Label classifies err for metrics and logs.
func Label(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return "timeout"
	}
	if errors.Is(err, ErrMalformed) {
		return "malformed"
	}
	if errors.Is(err, ErrNotConfigured) {
		return "not_configured"
	}
	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.Code == 429:
			return "rate_limited"
		case se.Code == 401 || se.Code == 403:
			return "unauthorized"
		case se.Code >= 500:
			return "server"
		default:
			return "status"
		}
	}
	return "transport"
}
