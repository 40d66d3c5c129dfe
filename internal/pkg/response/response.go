package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
)

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	ErrorTrace string            `json:"error_trace,omitempty"` // Full error details/stack trace
}

func writeError(w http.ResponseWriter, status int, info ErrorInfo) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Success: false, Error: &info})
}

// InternalError sends a 500 Internal Server Error response
func InternalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, ErrorInfo{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"})
}

// ErrorWithDetails sends an error response with details
func ErrorWithDetails(w http.ResponseWriter, status int, code, message string, details map[string]string) {
	writeError(w, status, ErrorInfo{Code: code, Message: message, Details: details})
}

// ErrorWithError sends an error response with full error details
// Includes the actual error message and stack trace
func ErrorWithError(w http.ResponseWriter, status int, code string, message string, err error) {
	info := ErrorInfo{Code: code, Message: message}
	if err != nil {
		info.ErrorTrace = fmt.Sprintf("Error: %v\n\nStack Trace:\n%s", err.Error(), string(debug.Stack()))
	}
	writeError(w, status, info)
}
