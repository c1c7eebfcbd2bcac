package auth

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"kestrel-idp/config"
	"kestrel-idp/core/store"
)

// Session is the explicit session context handed to callers in place of the
// ambient logged_in/username/role trio the dashboard used to hold.
type Session struct {
	ID         string    `json:"id"`
	UserID     int64     `json:"user_id"`
	Username   string    `json:"username"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type SessionManager struct {
	store store.SessionStore
	cfg   *config.AppConfig
}

func NewSessionManager(store store.SessionStore, cfg *config.AppConfig) *SessionManager {
	return &SessionManager{store: store, cfg: cfg}
}

func (m *SessionManager) Create(ctx context.Context, user *store.User) (*Session, error) {
	id := uuid.Must(uuid.NewV4()).String()
	now := time.Now().UTC()
	sess := &Session{
		ID:         id,
		UserID:     user.ID,
		Username:   user.Username,
		Role:       user.Role,
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(m.cfg.EffectiveSessionTTL()),
	}
	if err := m.store.Save(ctx, &store.SessionRecord{
		ID:         sess.ID,
		UserID:     sess.UserID,
		Username:   sess.Username,
		Role:       sess.Role,
		CreatedAt:  sess.CreatedAt,
		LastSeenAt: sess.LastSeenAt,
		ExpiresAt:  sess.ExpiresAt,
	}); err != nil {
		return nil, err
	}
	return sess, nil
}

// Resolve loads a live session by id. Expired or unknown ids resolve to nil
// without error; expired records are deleted on sight.
func (m *SessionManager) Resolve(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, nil
	}
	rec, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	if time.Now().UTC().After(rec.ExpiresAt) {
		_ = m.store.Delete(ctx, id)
		return nil, nil
	}
	return &Session{
		ID:         rec.ID,
		UserID:     rec.UserID,
		Username:   rec.Username,
		Role:       rec.Role,
		CreatedAt:  rec.CreatedAt,
		LastSeenAt: rec.LastSeenAt,
		ExpiresAt:  rec.ExpiresAt,
	}, nil
}

func (m *SessionManager) Refresh(ctx context.Context, id string) error {
	return m.store.UpdateActivity(ctx, id, time.Now().UTC(), m.cfg.EffectiveSessionTTL())
}

func (m *SessionManager) Delete(ctx context.Context, id string) error {
	return m.store.Delete(ctx, id)
}

type sessionContextKey struct{}

// ContextWithSession attaches the authenticated session so handlers behind
// the session middleware can read the caller's identity.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext returns the attached session, or nil on
// unauthenticated paths.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}
