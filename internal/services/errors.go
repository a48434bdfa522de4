package services

import (
	"fmt"
	"runtime/debug"
)

// ValidationError is returned when a chat request body is malformed.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// UpstreamError wraps any failure calling the completion API.
type UpstreamError struct {
	Provider   string
	StatusCode int    // 0 when the request never got an HTTP answer
	Body       string // upstream response body, for logs only
	Err        error
	Stack      string
}

func newUpstreamError(provider string, statusCode int, body string, err error) *UpstreamError {
	return &UpstreamError{
		Provider:   provider,
		StatusCode: statusCode,
		Body:       body,
		Err:        err,
		Stack:      string(debug.Stack()),
	}
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("Request failed with status code %d", e.StatusCode)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "upstream request failed"
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
