// Package http provides the REST server and handler implementations.
//
// Responses use one envelope: {"success": bool, "message"?, "data"?, ...}.
// The builder keeps handler code free of repeated header/status plumbing.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"fintrack/internal/apperr"
)

// ResponseBuilder provides a fluent API for building JSON responses.
type ResponseBuilder struct {
	statusCode int
	payload    map[string]any
}

// NewResponse creates a success response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		payload:    map[string]any{"success": true},
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Message sets the human-readable message field.
func (b *ResponseBuilder) Message(msg string) *ResponseBuilder {
	b.payload["message"] = msg
	return b
}

// Data sets the data field.
func (b *ResponseBuilder) Data(v any) *ResponseBuilder {
	b.payload["data"] = v
	return b
}

// Field adds a top-level envelope field (pagination, filters, ...).
func (b *ResponseBuilder) Field(key string, v any) *ResponseBuilder {
	b.payload[key] = v
	return b
}

// Write sends the built response.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if err := json.NewEncoder(w).Encode(b.payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// ErrorResponse creates a failure response with the given status.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: statusCode,
		payload:    map[string]any{"success": false, "message": message},
	}
}

// WriteError translates the error taxonomy into transport responses.
// Unexpected errors are logged with request context and hidden behind a
// generic 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case apperr.IsValidation(err):
		ErrorResponse(http.StatusBadRequest, err.Error()).Write(w)
	case apperr.IsUnauthorized(err):
		ErrorResponse(http.StatusUnauthorized, err.Error()).Write(w)
	case apperr.IsNotFound(err):
		ErrorResponse(http.StatusNotFound, err.Error()).Write(w)
	case apperr.IsConflict(err):
		ErrorResponse(http.StatusConflict, err.Error()).Write(w)
	default:
		slog.ErrorContext(r.Context(), "internal error",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path)
		ErrorResponse(http.StatusInternalServerError, "internal server error").Write(w)
	}
}

// writeUnauthorized renders the 401 used by the auth middleware.
func writeUnauthorized(w http.ResponseWriter, message string) {
	ErrorResponse(http.StatusUnauthorized, message).Write(w)
}
