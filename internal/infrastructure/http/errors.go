package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse represents a standardized error response format.
type ErrorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

// WriteError writes a standardized JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, message string, errors []string, log *slog.Logger) {
	if errors == nil {
		errors = []string{}
	}
	WriteJSON(w, statusCode, ErrorResponse{Message: message, Errors: errors}, log)
}

// WriteJSON encodes v as the JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, statusCode int, v any, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	// The status is already written, so an encoding failure can only be logged.
	if err := json.NewEncoder(w).Encode(v); err != nil && log != nil {
		log.Error("failed to encode response", "error", err)
	}
}
