// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/accountd/accountd/pkg/errutil"
)

const (
	// codeInternal is reported for every unexpected failure.
	codeInternal      = "INTERNAL_ERROR"
	validationMessage = "Validation failed"
)

var errRouteNotFound = errutil.NewFailure("ROUTE_NOT_FOUND", "Route not found", http.StatusNotFound)

// ErrorDetail is one entry of an error response.
type ErrorDetail struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	StatusCode int           `json:"statusCode"`
	Message    string        `json:"message"`
	Errors     []ErrorDetail `json:"errors"`
}

// MessageResponse is a body carrying only a message.
type MessageResponse struct {
	Message string `json:"message"`
}

// validationError carries every field problem found in one request.
type validationError struct {
	details []ErrorDetail
}

func (e *validationError) Error() string {
	return "validation failed"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("failed to write response", "error", err)
	}
}

// writeError renders err. Domain failures keep their code, message and
// status; anything else is logged and rendered as a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var verr *validationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			StatusCode: http.StatusBadRequest,
			Message:    validationMessage,
			Errors:     verr.details,
		})
		return
	}

	f, ok := errutil.AsFailure(err)
	if !ok {
		logger.ErrorContext(r.Context(), "request failed",
			append([]any{"method", r.Method, "path", r.URL.Path}, errutil.Attrs(err)...)...)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Message:    http.StatusText(http.StatusInternalServerError),
			Errors:     []ErrorDetail{{Message: http.StatusText(http.StatusInternalServerError), Code: codeInternal}},
		})
		return
	}

	message := f.Message
	if f.Code == errutil.CodeValidation {
		message = validationMessage
	}
	writeJSON(w, f.Status, ErrorResponse{
		StatusCode: f.Status,
		Message:    message,
		Errors:     []ErrorDetail{{Message: f.Message, Code: f.Code, Field: f.Field}},
	})
}
