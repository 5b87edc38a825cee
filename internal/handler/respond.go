package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/roomly/roomly/internal/apperr"
)

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

func parsePathInt64(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

func parseLimitQuery(r *http.Request, def int) int {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    apperr.Code `json:"code"`
	Message string      `json:"message"`
	Balance *int        `json:"balance,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// writeError maps application errors to HTTP statuses. Unrecognized
// errors are logged and surfaced as an opaque 500.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		logger.Error("internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: errorBody{Code: apperr.CodeInternal, Message: "internal server error"},
		})
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Code {
	case apperr.CodeValidation:
		status = http.StatusBadRequest
	case apperr.CodeAccessDenied:
		status = http.StatusForbidden
	case apperr.CodeNotFound:
		status = http.StatusNotFound
	case apperr.CodeConflict, apperr.CodeInsufficientBalance:
		status = http.StatusConflict
	case apperr.CodeRateLimited:
		status = http.StatusTooManyRequests
	}

	writeJSON(w, status, errorResponse{
		Error: errorBody{Code: appErr.Code, Message: appErr.Message, Balance: appErr.Balance},
	})
}
