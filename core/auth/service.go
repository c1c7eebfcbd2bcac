package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"kestrel-idp/core/store"
)

var (
	ErrUserNotFound   = errors.New("User not found.")
	ErrBadCredentials = errors.New("Incorrect password.")
)

// ConflictError reports a duplicate username at registration. It unwraps to
// store.ErrConflict so callers can class-match without string comparison.
type ConflictError struct {
	Username string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("Username '%s' already exists.", e.Username)
}

func (e *ConflictError) Unwrap() error { return store.ErrConflict }

// Service performs registration and login. It owns no session state; the
// caller decides what to do with a successful login.
type Service struct {
	users  store.UsersStore
	logger *zap.Logger
}

func NewService(users store.UsersStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, logger: logger}
}

// Register validates the credentials, hashes the password and inserts the
// user in one atomic statement. The role is stored as supplied; the API
// layer restricts the choices.
func (s *Service) Register(ctx context.Context, username, password, role string) (*store.User, error) {
	username = strings.TrimSpace(username)
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	if strings.TrimSpace(role) == "" {
		role = "user"
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &store.User{Username: username, PasswordHash: hash, Role: role}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, &ConflictError{Username: username}
		}
		return nil, err
	}
	s.logger.Info("user registered", zap.String("username", username), zap.String("role", role))
	return user, nil
}

// Login authenticates the user. ErrUserNotFound and ErrBadCredentials are
// the only business failures; anything else is a storage fault.
func (s *Service) Login(ctx context.Context, username, password string) (*store.User, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !VerifyPassword(password, user.PasswordHash) {
		return nil, ErrBadCredentials
	}
	return user, nil
}
