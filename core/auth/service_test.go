package auth

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kestrel-idp/config"
	"kestrel-idp/core/store"
)

func newTestService(t *testing.T) (*Service, *sqlEnv) {
	t.Helper()
	env := newSQLEnv(t)
	return NewService(store.NewUsersStore(env.db), nil), env
}

type sqlEnv struct {
	db  *sql.DB
	cfg *config.AppConfig
}

func TestServiceRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "SecurePass123!", "")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "user", user.Role, "empty role defaults to user")
	assert.NotEmpty(t, user.PasswordHash)
	assert.Greater(t, user.ID, int64(0))

	got, err := svc.Login(ctx, "alice", "SecurePass123!")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestServiceRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "SecurePass123!", "user")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "OtherPass456!", "admin")
	require.Error(t, err)
	assert.Equal(t, "Username 'alice' already exists.", err.Error())
	assert.ErrorIs(t, err, store.ErrConflict)

	var conflict *ConflictError
	assert.True(t, errors.As(err, &conflict))
}

func TestServiceRegisterRejectsInvalidCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "ab", "SecurePass123!", "")
	assert.ErrorIs(t, err, ErrUsernameTooShort)

	_, err = svc.Register(ctx, "alice", "weak", "")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestServiceRegisterTrimsUsername(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "  alice  ", "SecurePass123!", "")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestServiceLoginFailures(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "ghost", "SecurePass123!")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Equal(t, "User not found.", err.Error())

	_, err = svc.Register(ctx, "alice", "SecurePass123!", "")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice", "WrongPass123!")
	assert.ErrorIs(t, err, ErrBadCredentials)
	assert.Equal(t, "Incorrect password.", err.Error())
}

func TestSessionManagerLifecycle(t *testing.T) {
	env := newSQLEnv(t)
	ctx := context.Background()
	mgr := NewSessionManager(store.NewSessionsStore(env.db), env.cfg)

	user := &store.User{ID: 1, Username: "alice", Role: "analyst"}
	sess, err := mgr.Create(ctx, user)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "alice", sess.Username)
	assert.True(t, sess.ExpiresAt.After(time.Now()))

	got, err := mgr.Resolve(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sess.ID, got.ID)

	require.NoError(t, mgr.Delete(ctx, sess.ID))
	got, err = mgr.Resolve(ctx, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionManagerResolveEdgeCases(t *testing.T) {
	env := newSQLEnv(t)
	ctx := context.Background()
	mgr := NewSessionManager(store.NewSessionsStore(env.db), env.cfg)

	got, err := mgr.Resolve(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, got, "empty id is anonymous, not an error")

	got, err = mgr.Resolve(ctx, "unknown-id")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionManagerExpiredSessionDeletedOnResolve(t *testing.T) {
	env := newSQLEnv(t)
	ctx := context.Background()
	sessions := store.NewSessionsStore(env.db)
	mgr := NewSessionManager(sessions, env.cfg)

	past := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, sessions.Save(ctx, &store.SessionRecord{
		ID: "stale", UserID: 1, Username: "alice", Role: "user",
		CreatedAt: past, LastSeenAt: past, ExpiresAt: past.Add(time.Minute),
	}))

	got, err := mgr.Resolve(ctx, "stale")
	require.NoError(t, err)
	assert.Nil(t, got)

	rec, err := sessions.Get(ctx, "stale")
	require.NoError(t, err)
	assert.Nil(t, rec, "expired record removed on resolve")
}

func TestSessionContextRoundTrip(t *testing.T) {
	assert.Nil(t, SessionFromContext(context.Background()))

	sess := &Session{ID: "s", Username: "alice", Role: "admin"}
	ctx := ContextWithSession(context.Background(), sess)
	assert.Equal(t, sess, SessionFromContext(ctx))
}

func newSQLEnv(t *testing.T) *sqlEnv {
	t.Helper()
	cfg := &config.AppConfig{
		DBPath:     filepath.Join(t.TempDir(), "auth.db"),
		SessionTTL: time.Hour,
	}
	db, err := store.NewDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.ApplyMigrations(context.Background(), db))
	return &sqlEnv{db: db, cfg: cfg}
}
