package graph

import (
	"net/http"

	"github.com/m-mizutani/goerr/v2"
)

// Errors for Microsoft Graph responses
var (
	ErrUnauthorised     = goerr.New("graph: unauthorised")
	ErrForbidden        = goerr.New("graph: forbidden")
	ErrNotFound         = goerr.New("graph: not found")
	ErrRateLimited      = goerr.New("graph: rate limited")
	ErrBadRequest       = goerr.New("graph: bad request")
	ErrServerError      = goerr.New("graph: server error")
	ErrUnexpectedStatus = goerr.New("graph: unexpected status")

	// ErrTokenUnavailable is returned when no bearer token could be acquired
	ErrTokenUnavailable = goerr.New("graph: token unavailable")

	// ErrEmptyProfile is returned when a profile request succeeds without a decodable body
	ErrEmptyProfile = goerr.New("graph: empty profile")

	// ErrEmptyPhoto is returned when the photo endpoint answers with no bytes
	ErrEmptyPhoto = goerr.New("graph: empty photo")
)

// statusError maps a non-success HTTP status to a sentinel error. It returns
// nil for 2xx.
func statusError(statusCode int) error {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusUnauthorized:
		return ErrUnauthorised
	case statusCode == http.StatusForbidden:
		return ErrForbidden
	case statusCode == http.StatusNotFound:
		return ErrNotFound
	case statusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case statusCode == http.StatusBadRequest:
		return ErrBadRequest
	case statusCode >= 500:
		return ErrServerError
	default:
		return ErrUnexpectedStatus
	}
}

// IsRetryable reports whether a status is usually transient. The client
// retries every failure regardless; attempt logs carry the result.
func IsRetryable(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests ||
		statusCode == http.StatusServiceUnavailable ||
		statusCode == http.StatusGatewayTimeout ||
		statusCode >= 500
}
