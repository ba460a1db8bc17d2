package client

import (
	"fmt"

	"github.com/cuaca/cuaca-go/pkg/request"
)

// ErrInvalidArgument is returned, before any network access, when a
// location type, forecast type or warning category is not accepted.
var ErrInvalidArgument = request.ErrInvalidArgument

// NetworkError reports a transport-level failure reaching the MET service
// (DNS, connection refused, timeout, cancelled context). It is never retried.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("MET %s %s: %v", e.Op, e.URL, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// UnexpectedResponseError is returned by the typed helpers (Locations,
// Forecast, Warning, ...) when the service answered with something other
// than the expected results. Body holds the raw response body.
type UnexpectedResponseError struct {
	StatusCode int
	Body       []byte
}

// Error implements the error interface.
func (e *UnexpectedResponseError) Error() string {
	body := string(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("MET unexpected response (status %d): %s", e.StatusCode, body)
}
