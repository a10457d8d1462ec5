package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/ahmedhelmy200-rgb/ahmed-helmy-legal/internal/logger"
	"github.com/ahmedhelmy200-rgb/ahmed-helmy-legal/internal/store"
	"github.com/ahmedhelmy200-rgb/ahmed-helmy-legal/internal/validate"
)

// Pagination is the metadata block of every list response.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// envelope is the uniform response wrapper of every endpoint.
type envelope struct {
	Status     string      `json:"status"`
	Data       any         `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		logger.Error("write_response_failed", map[string]any{"error": err.Error()})
	}
}

func writeData(w http.ResponseWriter, code int, data any) {
	writeJSON(w, code, envelope{Status: "success", Data: data})
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, envelope{Status: "success", Message: msg})
}

func writePage(w http.ResponseWriter, data any, pg Pagination) {
	writeJSON(w, http.StatusOK, envelope{Status: "success", Data: data, Pagination: &pg})
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, envelope{Status: "error", Message: msg})
}

// writeFailure maps the error taxonomy onto HTTP status codes:
// validation -> 400, not-found -> 404, anything else -> 500.
func writeFailure(w http.ResponseWriter, endpoint string, err error) {
	var merr *multierror.Error
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "record not found")
	case errors.Is(err, store.ErrDuplicateKey):
		writeError(w, http.StatusBadRequest, "duplicate value for a unique field")
	case errors.As(err, &merr):
		writeError(w, http.StatusBadRequest, strings.Join(validate.Messages(merr), "; "))
	default:
		logger.Error("internal_error", map[string]any{
			"endpoint": endpoint,
			"error":    err.Error(),
		})
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
