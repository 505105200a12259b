package resilient

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

var (
	ErrNetwork          = errors.New("network failure")
	ErrAuthFailed       = errors.New("auth failed")
	ErrNotFound         = errors.New("not found")
	ErrRateLimited      = errors.New("rate limit")
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrParse            = errors.New("parse failure")
)

// Classify maps a non-2xx status code onto the error taxonomy. 2xx yields nil.
func Classify(status int) error {
	if status/100 == 2 {
		return nil
	}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.Wrapf(ErrAuthFailed, "http %d", status)
	case http.StatusNotFound:
		return errors.Wrapf(ErrNotFound, "http %d", status)
	case http.StatusTooManyRequests:
		return errors.Wrapf(ErrRateLimited, "http %d", status)
	default:
		return errors.Wrap(ErrUnexpectedStatus, fmt.Sprintf("http %d", status))
	}
}

// Kind returns a short stable label for err, used in stats and logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthFailed):
		return "auth_failed"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrUnexpectedStatus):
		return "unexpected_status"
	case errors.Is(err, ErrParse):
		return "parse_failure"
	default:
		return "network_failure"
	}
}
