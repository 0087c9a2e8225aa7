package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"canteen/internal/core"
	"canteen/internal/ledger"
	"canteen/internal/log"
)

const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("empty request body")

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads a size-limited JSON body into v. An empty body yields
// errEmptyBody so callers can decide whether that is acceptable.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptySpender),
		errors.Is(err, core.ErrEmptyItemName),
		errors.Is(err, core.ErrInvalidQuantity),
		errors.Is(err, core.ErrDescriptionLimit):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrInvalidLedger),
		errors.Is(err, ledger.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidDay):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError logs err and writes it with the mapped status. Internal
// failures are not echoed to the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	logger := log.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Ledger operation failed",
			log.FieldOperation, op, log.FieldError, err.Error())
		writeError(w, status, "internal error")
		return
	}
	logger.DebugContext(r.Context(), "Ledger operation rejected",
		log.FieldOperation, op, log.FieldError, err.Error())
	writeError(w, status, err.Error())
}
