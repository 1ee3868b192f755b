package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the requester.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrClosed is returned for requests issued after Close.
	ErrClosed = errors.New("requester closed")

	// ErrCircuitOpen is returned while the circuit breaker rejects requests.
	ErrCircuitOpen = errors.New("circuit breaker open")
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors other than 429.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 Too Many Requests.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// APIError is an error response from the API.
type APIError struct {
	StatusCode int
	Class      ErrorClass
	// Code is the platform's JSON error code, 0 if the body had none.
	Code    int
	Message string
	Route   string
	Err     error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.Message
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (code %d)", e.Message, e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s error on %s (status %d): %s: %v", e.Class, e.Route, e.StatusCode, msg, e.Err)
	}
	return fmt.Sprintf("%s error on %s (status %d): %s", e.Class, e.Route, e.StatusCode, msg)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// classifyStatus categorizes an HTTP status. Success codes have no class.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(class ErrorClass) bool {
	switch class {
	case ErrorClassServer, ErrorClassRateLimit, ErrorClassNetwork:
		return true
	default:
		// 4xx fails the same way on every attempt
		return false
	}
}

// newAPIError decodes the platform's {"code": ..., "message": ...} error body.
// Bodies that are not JSON fall back to the HTTP status text.
func newAPIError(route CompiledRoute, status int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: status,
		Class:      classifyStatus(status),
		Message:    http.StatusText(status),
		Route:      route.Route().String(),
	}

	var payload struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Code = payload.Code
		if payload.Message != "" {
			apiErr.Message = payload.Message
		}
	}
	return apiErr
}
