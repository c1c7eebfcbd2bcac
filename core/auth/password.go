// Package auth implements credential validation, password hashing and the
// registration/login service on top of the users store.
package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes the password with bcrypt at the default cost. The salt
// is generated by bcrypt and embedded in the returned hash string.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether password matches the stored bcrypt hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
