package maintenance

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kestrel-idp/config"
	"kestrel-idp/core/store"
)

type sweeperEnv struct {
	sweeper  *Sweeper
	db       *sql.DB
	audits   store.AuditStore
	sessions store.SessionStore
}

func newSweeperEnv(t *testing.T, cfg config.MaintenanceConfig) *sweeperEnv {
	t.Helper()
	db, err := store.NewDB(&config.AppConfig{DBPath: filepath.Join(t.TempDir(), "sweep.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.ApplyMigrations(context.Background(), db))

	audits := store.NewAuditStore(db)
	sessions := store.NewSessionsStore(db)
	return &sweeperEnv{
		sweeper:  NewSweeper(cfg, db, audits, sessions, nil),
		db:       db,
		audits:   audits,
		sessions: sessions,
	}
}

func TestRunOnceWritesSnapshotAuditEntry(t *testing.T) {
	env := newSweeperEnv(t, config.MaintenanceConfig{AuditRetentionDay: 180})
	ctx := context.Background()

	users := store.NewUsersStore(env.db)
	_, err := users.Create(ctx, &store.User{Username: "alice", PasswordHash: "h", Role: "user"})
	require.NoError(t, err)

	env.sweeper.RunOnce(ctx)

	entries, err := env.audits.Recent(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	snap := entries[0]
	assert.Equal(t, "system", snap.Username)
	assert.Equal(t, "maintenance.snapshot", snap.Action)
	assert.Contains(t, snap.Details, "users=1")
	assert.Contains(t, snap.Details, "cyber_incidents=0")
	assert.Contains(t, snap.Details, "it_tickets=0")
}

func TestRunOncePrunesOldAuditEntries(t *testing.T) {
	env := newSweeperEnv(t, config.MaintenanceConfig{AuditRetentionDay: 30})
	ctx := context.Background()

	old := time.Now().UTC().AddDate(0, 0, -60)
	_, err := env.db.ExecContext(ctx, `
		INSERT INTO audit_log(username, action, details, created_at)
		VALUES(?,?,?,?)`, "alice", "user.login", "", old)
	require.NoError(t, err)

	env.sweeper.RunOnce(ctx)

	entries, err := env.audits.Recent(ctx, 100)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, "user.login", e.Action, "entry past retention removed")
	}
}

func TestRunOnceRemovesExpiredSessions(t *testing.T) {
	env := newSweeperEnv(t, config.MaintenanceConfig{})
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, env.sessions.Save(ctx, &store.SessionRecord{
		ID: "stale", UserID: 1, Username: "alice", Role: "user",
		CreatedAt: now.Add(-2 * time.Hour), LastSeenAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour),
	}))
	require.NoError(t, env.sessions.Save(ctx, &store.SessionRecord{
		ID: "live", UserID: 2, Username: "bob", Role: "user",
		CreatedAt: now, LastSeenAt: now, ExpiresAt: now.Add(time.Hour),
	}))

	env.sweeper.RunOnce(ctx)

	stale, err := env.sessions.Get(ctx, "stale")
	require.NoError(t, err)
	assert.Nil(t, stale)

	live, err := env.sessions.Get(ctx, "live")
	require.NoError(t, err)
	assert.NotNil(t, live)
}

func TestSweeperStartStopDisabled(t *testing.T) {
	env := newSweeperEnv(t, config.MaintenanceConfig{Enabled: false, SnapshotSchedule: "0 3 * * *"})
	ctx := context.Background()

	env.sweeper.StartWithContext(ctx)
	require.NoError(t, env.sweeper.StopWithContext(ctx), "stop without start is a no-op")
}

func TestSweeperStartStop(t *testing.T) {
	env := newSweeperEnv(t, config.MaintenanceConfig{Enabled: true, SnapshotSchedule: "0 3 * * *"})
	ctx := context.Background()

	env.sweeper.StartWithContext(ctx)
	env.sweeper.StartWithContext(ctx) // second start is idempotent

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, env.sweeper.StopWithContext(stopCtx))
}
