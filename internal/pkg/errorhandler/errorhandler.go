// Package errorhandler centralizes error logging + response writing for the
// example server's own routes (the demo token-minting route) — the core
// s3up package has its own writeError/writeJSON for the upload endpoint.
package errorhandler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/s3up-go/s3up/internal/pkg/logger"
	"github.com/s3up-go/s3up/internal/pkg/response"
)

// HandleError logs an error with full context and sends a formatted
// response including the error trace.
func HandleError(ctx context.Context, w http.ResponseWriter, status int, code, message string, err error) {
	event := log.Error().
		Str("request_id", getRequestID(ctx)).
		Str("error_code", code).
		Str("error_message", message).
		Int("status_code", status)

	if err != nil {
		event.Err(err)
	}
	event.Msg("Request error")

	response.ErrorWithError(w, status, code, message, err)
}

// HandleErrorWithDetails logs and sends an error response with field-level
// details (e.g. config validation failures).
func HandleErrorWithDetails(ctx context.Context, w http.ResponseWriter, status int, code, message string, details map[string]string, err error) {
	event := log.Error().
		Str("request_id", getRequestID(ctx)).
		Str("error_code", code).
		Str("error_message", message).
		Int("status_code", status)

	if err != nil {
		event.Err(err)
	}
	if details != nil {
		event.Interface("error_details", details)
	}
	event.Msg("Request error with details")

	response.ErrorWithDetails(w, status, code, message, details)
}

// HandlePanicError logs and responds to a recovered panic with its stack
// trace.
func HandlePanicError(ctx context.Context, w http.ResponseWriter, panicErr interface{}, stackTrace string) {
	log.Error().
		Str("request_id", getRequestID(ctx)).
		Interface("panic_error", panicErr).
		Str("panic_stack", stackTrace).
		Msg("Request panic error")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)

	resp := response.Response{
		Success: false,
		Error: &response.ErrorInfo{
			Code:       "PANIC_ERROR",
			Message:    "Internal server panic",
			ErrorTrace: stackTrace,
		},
	}
	json.NewEncoder(w).Encode(resp)
}

// LogRequest logs inbound request details for the example server.
func LogRequest(ctx context.Context, r *http.Request, body string) {
	logger.LogInfo(ctx, "HTTP request",
		"method", r.Method,
		"path", r.URL.Path,
		"query", r.URL.RawQuery,
		"request_id", getRequestID(ctx),
	)

	if body != "" && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
		logger.LogDebug(ctx, "Request body", "body", truncateString(body, 1000))
	}
}

// LogValidationError logs field-level validation failures.
func LogValidationError(ctx context.Context, fieldErrors map[string]string) {
	errJSON, _ := json.Marshal(fieldErrors)
	log.Warn().
		Str("request_id", getRequestID(ctx)).
		RawJSON("validation_errors", errJSON).
		Msg("Validation error")
}

func getRequestID(ctx context.Context) string {
	if reqID := ctx.Value("request_id"); reqID != nil {
		if id, ok := reqID.(string); ok {
			return id
		}
	}
	return "unknown"
}

func truncateString(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "...<truncated>"
	}
	return s
}
