package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionSaveGetDelete(t *testing.T) {
	s := NewSessionsStore(newTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	rec := &SessionRecord{
		ID:         "sess-1",
		UserID:     7,
		Username:   "alice",
		Role:       "analyst",
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(time.Hour),
	}
	require.NoError(t, s.Save(ctx, rec))

	got, err := s.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.Username, got.Username)
	assert.Equal(t, rec.Role, got.Role)
	assert.True(t, got.ExpiresAt.Equal(rec.ExpiresAt))

	require.NoError(t, s.Delete(ctx, "sess-1"))
	got, err = s.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionGetUnknownReturnsNil(t *testing.T) {
	s := NewSessionsStore(newTestDB(t))
	got, err := s.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionUpdateActivityExtendsExpiry(t *testing.T) {
	s := NewSessionsStore(newTestDB(t))
	ctx := context.Background()
	created := time.Now().UTC().Add(-time.Hour)

	rec := &SessionRecord{ID: "sess-2", UserID: 1, Username: "bob", Role: "user", CreatedAt: created, LastSeenAt: created, ExpiresAt: created.Add(30 * time.Minute)}
	require.NoError(t, s.Save(ctx, rec))

	now := time.Now().UTC()
	require.NoError(t, s.UpdateActivity(ctx, "sess-2", now, time.Hour))

	got, err := s.Get(ctx, "sess-2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.ExpiresAt.After(now.Add(59*time.Minute)))
	assert.True(t, got.LastSeenAt.After(created))
}

func TestSessionDeleteExpired(t *testing.T) {
	s := NewSessionsStore(newTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.Save(ctx, &SessionRecord{ID: "old", UserID: 1, Username: "a", Role: "user", CreatedAt: now.Add(-2 * time.Hour), LastSeenAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}))
	require.NoError(t, s.Save(ctx, &SessionRecord{ID: "live", UserID: 2, Username: "b", Role: "user", CreatedAt: now, LastSeenAt: now, ExpiresAt: now.Add(time.Hour)}))

	affected, err := s.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	got, err := s.Get(ctx, "live")
	require.NoError(t, err)
	assert.NotNil(t, got)
}
