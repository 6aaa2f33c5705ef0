package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/tair/fulfillment-ledger/pkg/apperr"
	"github.com/tair/fulfillment-ledger/pkg/logger"
)

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return http.StatusBadRequest
	}
	switch apperr.KindOf(err) {
	case apperr.ErrNotFound:
		return http.StatusNotFound
	case apperr.ErrInvalidTransition, apperr.ErrInsufficientStock, apperr.ErrConstraintViolation:
		return http.StatusConflict
	case apperr.ErrEmptyOrder, apperr.ErrNoWarehouse:
		return http.StatusUnprocessableEntity
	case apperr.ErrValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := Response{Success: false, Error: err.Error()}
	if kind := apperr.KindOf(err); kind != nil {
		resp.Kind = kind.Error()
	}
	if status == http.StatusInternalServerError {
		logger.Error(r.Context()).Err(err).Str("path", r.URL.Path).Msg("Request failed")
		resp.Error = "Internal server error"
	}
	respondJSON(w, status, resp)
}
