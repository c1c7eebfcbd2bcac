package auth

import (
	"errors"
	"unicode"
	"unicode/utf8"
)

// Validation failures carry the exact user-facing message; callers surface
// err.Error() directly.
var (
	ErrUsernameTooShort = errors.New("Username must be at least 3 characters long.")
	ErrPasswordTooShort = errors.New("Password must be at least 8 characters long.")
	ErrPasswordNoUpper  = errors.New("Password must contain at least one uppercase letter.")
	ErrPasswordNoLower  = errors.New("Password must contain at least one lowercase letter.")
	ErrPasswordNoDigit  = errors.New("Password must contain at least one digit.")
)

// ValidateUsername fails for empty names and names shorter than 3 characters.
func ValidateUsername(username string) error {
	if utf8.RuneCountInString(username) < 3 {
		return ErrUsernameTooShort
	}
	return nil
}

// ValidatePassword checks length, then uppercase, lowercase and digit
// presence, in that order. The first violation is returned alone; later
// violations are not reported.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < 8 {
		return ErrPasswordTooShort
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		return ErrPasswordNoUpper
	}
	if !hasLower {
		return ErrPasswordNoLower
	}
	if !hasDigit {
		return ErrPasswordNoDigit
	}
	return nil
}
