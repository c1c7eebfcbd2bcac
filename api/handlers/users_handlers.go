package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"kestrel-idp/core/store"
)

// UsersHandler serves the admin-only account views. Route-level policy
// checks gate access; the handler itself trusts the session.
type UsersHandler struct {
	users    store.UsersStore
	sessions store.SessionStore
	audits   store.AuditStore
	logger   *zap.Logger
}

func NewUsersHandler(users store.UsersStore, sessions store.SessionStore, audits store.AuditStore, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{users: users, sessions: sessions, audits: audits, logger: logger}
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.logger.Error("list users", zap.Error(err))
		storageError(w, err)
		return
	}
	if users == nil {
		users = []store.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

type rolePayload struct {
	Role string `json:"role"`
}

func (h *UsersHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	var payload rolePayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	if !store.ValidEnum(store.UserRoles, payload.Role) {
		http.Error(w, "unknown role", http.StatusBadRequest)
		return
	}
	affected, err := h.users.UpdateRole(r.Context(), id, payload.Role)
	if err != nil {
		h.logger.Error("update user role", zap.Error(err))
		storageError(w, err)
		return
	}
	if sess := sessionFrom(r); sess != nil && affected > 0 {
		h.audits.Log(r.Context(), sess.Username, "users.role_change", fmt.Sprintf("id=%d role=%s", id, payload.Role))
	}
	writeJSON(w, http.StatusOK, affectedResponse{Affected: affected})
}

func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	sess := sessionFrom(r)
	if sess != nil && sess.UserID == id {
		http.Error(w, "cannot delete own account", http.StatusBadRequest)
		return
	}
	affected, err := h.users.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("delete user", zap.Error(err))
		storageError(w, err)
		return
	}
	if sess != nil && affected > 0 {
		h.audits.Log(r.Context(), sess.Username, "users.delete", fmt.Sprintf("id=%d", id))
	}
	writeJSON(w, http.StatusOK, affectedResponse{Affected: affected})
}

func (h *UsersHandler) StatsByRole(w http.ResponseWriter, r *http.Request) {
	counts, err := h.users.CountByRole(r.Context())
	if err != nil {
		storageError(w, err)
		return
	}
	if counts == nil {
		counts = []store.RoleCount{}
	}
	writeJSON(w, http.StatusOK, counts)
}

func (h *UsersHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	entries, err := h.audits.Recent(r.Context(), limit)
	if err != nil {
		storageError(w, err)
		return
	}
	if entries == nil {
		entries = []store.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
