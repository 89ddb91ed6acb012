package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	// ErrNotAuthenticated is returned when an authenticated call has no token
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrTimeout is returned when the upstream did not answer in time
	ErrTimeout = errors.New("upstream timeout")
)

// APIError is a non-2xx answer from the upstream API
type APIError struct {
	Status  int
	Code    string
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("upstream returned %d", e.Status)
}

// IsUnauthorized reports whether err is an upstream 401
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsNotFound reports whether err is an upstream 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// errorPayload is the error body shape the upstream API uses
type errorPayload struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// ParseAPIError builds an APIError from a non-2xx response body.
// Bodies that are not JSON keep Message and Code empty.
func ParseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Body: body}
	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Code = payload.Code
		apiErr.Message = payload.Message
		if apiErr.Message == "" {
			apiErr.Message = payload.Error
		}
	}
	return apiErr
}

// isTimeout reports whether a transport error came from a deadline
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
