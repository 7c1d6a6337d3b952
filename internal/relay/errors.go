package relay

import (
	"errors"
	"fmt"
)

// ErrInvalidResponse means the upstream answered 2xx without a usable
// choices[0].message.
var ErrInvalidResponse = errors.New("Invalid response format from AI service")

// ValidationError rejects a request before any upstream call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

const (
	msgUpstreamFailed = "Failed to get response from AI service"
	msgUnexpected     = "An unexpected error occurred"
)

// UpstreamError carries a non-2xx upstream reply. Message is empty when the
// error body was not JSON.
type UpstreamError struct {
	StatusCode int
	StatusText string
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return msgUpstreamFailed
	}
	return fmt.Sprintf("%s: %s", msgUpstreamFailed, e.Message)
}

// UnexpectedError hides transport and decoding failures behind a fixed
// message; the cause stays reachable through errors.Unwrap.
type UnexpectedError struct {
	Err error
}

func (e *UnexpectedError) Error() string { return msgUnexpected }

func (e *UnexpectedError) Unwrap() error { return e.Err }
