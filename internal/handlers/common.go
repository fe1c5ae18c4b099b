package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"regulaqa/internal/contextutil"
	"regulaqa/internal/service"
)

// ErrorResponse represents an error response.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, ErrorResponse{Error: message})
}

// writeServiceError maps service errors to appropriate HTTP status codes.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)

	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		logger.WarnContext(ctx, "validation error", "field", validationErr.Field, "error", err)
		writeError(w, http.StatusBadRequest, validationErr.Message)
	case errors.Is(err, service.ErrDuplicateDocument):
		logger.WarnContext(ctx, "duplicate document", "error", err)
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNotFound):
		logger.WarnContext(ctx, "not found", "error", err)
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrStoreTransient):
		logger.ErrorContext(ctx, "vector store transient failure", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Vector store unavailable, please retry")
	case errors.Is(err, service.ErrStoreFatal):
		logger.ErrorContext(ctx, "vector store failure", "error", err)
		writeError(w, http.StatusInternalServerError, defaultMsg)
	default:
		logger.ErrorContext(ctx, "request failed", "error", err)
		writeError(w, http.StatusInternalServerError, defaultMsg)
	}
}
