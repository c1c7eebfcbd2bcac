package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCreateDuplicateUsernameConflicts(t *testing.T) {
	s := NewUsersStore(newTestDB(t))
	ctx := context.Background()

	_, err := s.Create(ctx, &User{Username: "alice", PasswordHash: "h1", Role: "user"})
	require.NoError(t, err)

	_, err = s.Create(ctx, &User{Username: "alice", PasswordHash: "h2", Role: "admin"})
	require.ErrorIs(t, err, ErrConflict)

	users, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1, "failed insert leaves a single row")
	assert.Equal(t, "user", users[0].Role)
}

func TestUserCreateTrimsUsername(t *testing.T) {
	s := NewUsersStore(newTestDB(t))
	ctx := context.Background()

	_, err := s.Create(ctx, &User{Username: "  bob  ", PasswordHash: "h", Role: "user"})
	require.NoError(t, err)

	u, err := s.FindByUsername(ctx, "bob")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "bob", u.Username)
}

func TestUserFindByUsernameMissingReturnsNil(t *testing.T) {
	s := NewUsersStore(newTestDB(t))
	u, err := s.FindByUsername(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestUserUpdateRoleAndDelete(t *testing.T) {
	s := NewUsersStore(newTestDB(t))
	ctx := context.Background()

	id, err := s.Create(ctx, &User{Username: "carol", PasswordHash: "h", Role: "user"})
	require.NoError(t, err)

	affected, err := s.UpdateRole(ctx, id, "analyst")
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = s.UpdateRole(ctx, 9999, "admin")
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	affected, err = s.Delete(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = s.Delete(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected, "second delete is a no-op")
}

func TestUserCountByRole(t *testing.T) {
	s := NewUsersStore(newTestDB(t))
	ctx := context.Background()
	for _, u := range []User{
		{Username: "u1", PasswordHash: "h", Role: "user"},
		{Username: "u2", PasswordHash: "h", Role: "user"},
		{Username: "a1", PasswordHash: "h", Role: "admin"},
	} {
		u := u
		_, err := s.Create(ctx, &u)
		require.NoError(t, err)
	}

	counts, err := s.CountByRole(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, "user", counts[0].Role)
	assert.Equal(t, int64(2), counts[0].Count)
	assert.Equal(t, int64(1), counts[1].Count)
}

func TestUserListClassifiesDriverFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, username, password_hash, role, created_at").
		WillReturnError(errors.New("database is locked"))

	s := NewUsersStore(db)
	_, err = s.List(context.Background())
	require.ErrorIs(t, err, ErrStorageUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}
