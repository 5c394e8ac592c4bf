package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"sales-service/internal/catalog"
	"sales-service/internal/inventory"
	"sales-service/internal/repository"
	"sales-service/internal/sales"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if v == nil {
		return
	}

	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	writeJSON(w, status, apiError{
		Error:   code,
		Message: message,
		Details: details,
	})
}

// writeServiceError maps an error returned by the services onto a status
// code. Unknown errors are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	var stockErr *inventory.InsufficientStockError

	switch {
	case errors.Is(err, sales.ErrPersistence):
		logger.Error(fallback, zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", fallback, nil)
	case errors.As(err, &stockErr):
		writeError(w, http.StatusConflict, "insufficient_stock", err.Error(), map[string]int{
			"available": stockErr.Available,
			"requested": stockErr.Requested,
		})
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, inventory.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, "invalid_quantity", err.Error(), nil)
	case errors.Is(err, repository.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
	case errors.Is(err, catalog.ErrHasSales):
		writeError(w, http.StatusConflict, "has_sales", err.Error(), nil)
	case errors.Is(err, repository.ErrDuplicate):
		writeError(w, http.StatusConflict, "duplicate", err.Error(), nil)
	case errors.Is(err, repository.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error(), nil)
	default:
		logger.Error(fallback, zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid json body", map[string]any{"error": err.Error()})
		return false
	}

	if err := dec.Decode(&struct{}{}); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid json body", map[string]any{"error": "extra data after json"})
		return false
	}

	return true
}

// idParam reads a positive integer path parameter. It writes the 400
// response itself and reports false when the value is unusable.
func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid "+name, nil)
		return 0, false
	}
	return id, true
}
