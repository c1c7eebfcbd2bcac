// Package handlers implements the JSON endpoints of the dashboard API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"kestrel-idp/core/auth"
	"kestrel-idp/core/store"
)

func sessionFrom(r *http.Request) *auth.Session {
	return auth.SessionFromContext(r.Context())
}

const payloadMaxBytes = 256 * 1024

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, payloadMaxBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return false
	}
	return true
}

// storageError maps a store fault to 503 and everything else to 500. Returns
// true when it handled the error.
func storageError(w http.ResponseWriter, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, store.ErrStorageUnavailable) {
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return true
	}
	http.Error(w, "internal server error", http.StatusInternalServerError)
	return true
}

func idParam(r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	return id, err == nil && id > 0
}

// affectedResponse is the body for narrow updates and deletes. Zero affected
// rows means the target was not found; by contract this is a no-op, not an
// error, so the status stays 200.
type affectedResponse struct {
	Affected int64 `json:"affected"`
}
