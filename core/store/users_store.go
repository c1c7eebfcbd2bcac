package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type RoleCount struct {
	Role  string `json:"role"`
	Count int64  `json:"count"`
}

type UsersStore interface {
	// Create inserts the user in a single statement. A duplicate username
	// trips the UNIQUE constraint and is reported as ErrConflict; there is
	// no separate existence pre-check.
	Create(ctx context.Context, user *User) (int64, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]User, error)
	UpdateRole(ctx context.Context, id int64, role string) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
	CountByRole(ctx context.Context) ([]RoleCount, error)
}

type usersStore struct {
	db *sql.DB
}

func NewUsersStore(db *sql.DB) UsersStore {
	return &usersStore{db: db}
}

func (s *usersStore) Create(ctx context.Context, user *User) (int64, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users(username, password_hash, role, created_at)
		VALUES(?,?,?,?)`,
		strings.TrimSpace(user.Username), user.PasswordHash, user.Role, now)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrConflict
		}
		return 0, storageErr("insert user", err)
	}
	id, _ := res.LastInsertId()
	user.ID = id
	user.CreatedAt = now
	return id, nil
}

func (s *usersStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, role, created_at
		FROM users WHERE username=?`, strings.TrimSpace(username))
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storageErr("find user", err)
	}
	return &u, nil
}

func (s *usersStore) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, password_hash, role, created_at
		FROM users ORDER BY id DESC`)
	if err != nil {
		return nil, storageErr("list users", err)
	}
	defer rows.Close()
	var res []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
			return nil, storageErr("scan user", err)
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

func (s *usersStore) UpdateRole(ctx context.Context, id int64, role string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET role=? WHERE id=?`, role, id)
	if err != nil {
		return 0, storageErr("update user role", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

func (s *usersStore) Delete(ctx context.Context, id int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id)
	if err != nil {
		return 0, storageErr("delete user", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

func (s *usersStore) CountByRole(ctx context.Context) ([]RoleCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, COUNT(*) AS count
		FROM users
		GROUP BY role
		ORDER BY count DESC`)
	if err != nil {
		return nil, storageErr("count users by role", err)
	}
	defer rows.Close()
	var res []RoleCount
	for rows.Next() {
		var rc RoleCount
		if err := rows.Scan(&rc.Role, &rc.Count); err != nil {
			return nil, storageErr("scan role count", err)
		}
		res = append(res, rc)
	}
	return res, rows.Err()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
