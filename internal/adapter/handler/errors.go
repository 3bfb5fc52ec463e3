package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rl1809/products-api/internal/core/domain"
	"github.com/rl1809/products-api/internal/obs"
)

const (
	errValidation = "Validation error"
	errNotFound   = "Not Found"
	errTooMany    = "Too Many Requests"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		obs.Logger.Warn().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, label, message string) {
	writeJSON(w, status, ErrorResponse{Error: label, Message: message})
}

// writeFailure maps err onto the envelope. label names the failed operation
// and is only used for store failures.
func writeFailure(w http.ResponseWriter, r *http.Request, label string, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, errValidation, verr.Message)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, errNotFound, err.Error())
	default:
		obs.Logger.Error().Err(err).
			Str("request_id", RequestIDFromContext(r.Context())).
			Msg(label)
		writeError(w, http.StatusInternalServerError, label, err.Error())
	}
}
