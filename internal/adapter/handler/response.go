// Package handler binds the ticketing core to HTTP with chi.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/srgjo27/eventpass/internal/core/domain"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrExpired):
		return http.StatusGone
	case errors.Is(err, domain.ErrSelfTransfer):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrStoreConflict):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrCapacityExceeded),
		errors.Is(err, domain.ErrDuplicateRegistration),
		errors.Is(err, domain.ErrNotTransferable),
		errors.Is(err, domain.ErrAlreadyTransferring),
		errors.Is(err, domain.ErrNotPending),
		errors.Is(err, domain.ErrAlreadyCheckedIn):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError reports a typed failure. Unclassified errors are logged and
// hidden from the client.
func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal server error"
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: domain.Code(err)})
}

// decodeJSON reads and validates a request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %v: %w", err, domain.ErrInvalidInput)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%v: %w", err, domain.ErrInvalidInput)
	}
	return nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("malformed %s: %w", name, domain.ErrInvalidInput)
	}
	return id, nil
}
