// Package s3up orchestrates direct-to-object-storage uploads: a schema DSL
// for describing accepted files, a config builder that wires a provider to
// named routes, and a router that turns presign/complete requests into
// presigned URLs against the storage package's backends.
//
// The error taxonomy and response envelope below generalize the teacher's
// internal/pkg/response.Response / ErrorInfo pair into a library-facing
// shape: every operation that can fail returns (or renders) an *Error
// carrying one of the Code values.
package s3up

import (
	"fmt"
	"net/http"
)

// Code identifies one entry in the library's error taxonomy (spec §7).
type Code string

const (
	ErrConfigError    Code = "CONFIG_ERROR"
	ErrValidationError Code = "VALIDATION_ERROR"
	ErrAuthError      Code = "AUTH_ERROR"
	ErrNotFound       Code = "NOT_FOUND"
	ErrNetworkError   Code = "NETWORK_ERROR"
	ErrProviderError  Code = "PROVIDER_ERROR"
	ErrHookError      Code = "HOOK_ERROR"

	// ErrKeyTooLong and ErrRateLimited extend the spec's taxonomy (SPEC_FULL
	// §8) without renaming any existing code.
	ErrKeyTooLong  Code = "KEY_TOO_LONG"
	ErrRateLimited Code = "RATE_LIMITED"
)

// httpStatus maps each Code onto the HTTP status used when a fatal error
// (one that aborts the whole request, rather than failing one file) is
// rendered by the Universal Handlers.
var httpStatus = map[Code]int{
	ErrConfigError:     http.StatusInternalServerError,
	ErrValidationError: http.StatusBadRequest,
	ErrAuthError:       http.StatusUnauthorized,
	ErrNotFound:        http.StatusNotFound,
	ErrNetworkError:    http.StatusBadGateway,
	ErrProviderError:   http.StatusBadGateway,
	ErrHookError:       http.StatusInternalServerError,
	ErrKeyTooLong:      http.StatusBadRequest,
	ErrRateLimited:     http.StatusTooManyRequests,
}

// Error is the error type every s3up operation returns. It carries enough
// structure for the router to render either a fatal JSON error response or
// one entry of a per-file result array.
type Error struct {
	Code    Code
	Message string
	Details map[string]string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("s3up: %s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("s3up: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Status returns the HTTP status this error renders as when fatal.
func (e *Error) Status() int {
	if s, ok := httpStatus[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func newError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func wrapError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// withDetails attaches field-level detail strings (e.g. validation failures)
// to an existing Error and returns it for chaining.
func (e *Error) withDetails(details map[string]string) *Error {
	e.Details = details
	return e
}

// ErrorInfo is the wire shape of an Error inside a Response envelope,
// mirroring the teacher's response.ErrorInfo.
type ErrorInfo struct {
	Code    Code              `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func (e *Error) Info() ErrorInfo {
	return ErrorInfo{Code: e.Code, Message: e.Message, Details: e.Details}
}

// Response is the standard JSON envelope used by the Universal Handlers,
// generalizing the teacher's response.Response.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

func asError(err error) *Error {
	var e *Error
	if err == nil {
		return nil
	}
	if ae, ok := err.(*Error); ok {
		return ae
	}
	e = wrapError(ErrProviderError, err.Error(), err)
	return e
}
