package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"kestrel-idp/core/auth"
	"kestrel-idp/core/store"
)

const sessionCookieName = "kestrel_session"

type AuthHandler struct {
	svc    *auth.Service
	sm     *auth.SessionManager
	audits store.AuditStore
	logger *zap.Logger
}

func NewAuthHandler(svc *auth.Service, sm *auth.SessionManager, audits store.AuditStore, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, sm: sm, audits: audits, logger: logger}
}

type registerPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload registerPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	role := strings.TrimSpace(payload.Role)
	if role == "" {
		role = "user"
	}
	if !store.ValidEnum(store.UserRoles, role) {
		http.Error(w, "unknown role", http.StatusBadRequest)
		return
	}
	user, err := h.svc.Register(r.Context(), payload.Username, payload.Password, role)
	if err != nil {
		var conflict *auth.ConflictError
		switch {
		case errors.As(err, &conflict):
			h.audits.Log(r.Context(), payload.Username, "auth.register_conflict", "")
			http.Error(w, conflict.Error(), http.StatusConflict)
		case errors.Is(err, store.ErrStorageUnavailable):
			h.logger.Error("register failed", zap.Error(err))
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		default:
			// Validation failures carry their user-facing message.
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}
	h.audits.Log(r.Context(), user.Username, "auth.registered", "role="+user.Role)
	writeJSON(w, http.StatusCreated, messageResponse{Message: "User '" + user.Username + "' registered successfully."})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	user, err := h.svc.Login(r.Context(), payload.Username, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrBadCredentials):
			h.audits.Log(r.Context(), payload.Username, "auth.login_failed", err.Error())
			http.Error(w, err.Error(), http.StatusUnauthorized)
		case errors.Is(err, store.ErrStorageUnavailable):
			h.logger.Error("login failed", zap.Error(err))
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		default:
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}
	sess, err := h.sm.Create(r.Context(), user)
	if err != nil {
		h.logger.Error("session create failed", zap.Error(err))
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  sess.ExpiresAt,
	})
	h.audits.Log(r.Context(), user.Username, "auth.login", "")
	writeJSON(w, http.StatusOK, sess)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if sess != nil {
		if err := h.sm.Delete(r.Context(), sess.ID); err != nil {
			h.logger.Error("session delete failed", zap.Error(err))
		}
		h.audits.Log(r.Context(), sess.Username, "auth.logout", "")
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out."})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if sess == nil {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}
