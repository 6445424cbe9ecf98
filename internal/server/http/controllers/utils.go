package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	tsnv1 "github.com/EvModder/438-TSN/api/tsn/v1"
	"github.com/EvModder/438-TSN/internal/delivery"
	"github.com/EvModder/438-TSN/internal/registry"
	timelinesvc "github.com/EvModder/438-TSN/internal/services/timelines"
)

// Helper functions for common HTTP responses

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeJSON writes a JSON response with the given data.
func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeBody decodes a JSON request body into dst, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// httpStatusFor maps a facade status onto an HTTP status code.
func httpStatusFor(st tsnv1.Status) int {
	switch st {
	case tsnv1.Status_SUCCESS:
		return http.StatusOK
	case tsnv1.Status_FAILURE_ALREADY_EXISTS:
		return http.StatusConflict
	case tsnv1.Status_FAILURE_NOT_EXISTS:
		return http.StatusNotFound
	case tsnv1.Status_FAILURE_INVALID_USERNAME, tsnv1.Status_FAILURE_INVALID:
		return http.StatusBadRequest
	case tsnv1.Status_FAILURE_UNKNOWN:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// httpStatusForErr maps engine errors from Post and Connect.
func httpStatusForErr(err error) int {
	switch {
	case timelinesvc.IsStorage(err):
		return http.StatusInternalServerError
	case errors.Is(err, registry.ErrUnknownUser):
		return http.StatusNotFound
	case errors.Is(err, registry.ErrInvalidName),
		errors.Is(err, timelinesvc.ErrInvalidBody),
		errors.Is(err, timelinesvc.ErrInvalidFilter):
		return http.StatusBadRequest
	case errors.Is(err, timelinesvc.ErrClosed), errors.Is(err, delivery.ErrShutdown):
		return http.StatusServiceUnavailable
	case errors.Is(err, delivery.ErrReplayOverflow):
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}

// methodAllowed writes 405 and reports false unless r uses one of methods.
func methodAllowed(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	return false
}
