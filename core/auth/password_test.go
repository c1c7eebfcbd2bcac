package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("SecurePass123!")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2"), "bcrypt hash")
	assert.NotEqual(t, "SecurePass123!", hash)

	assert.True(t, VerifyPassword("SecurePass123!", hash))
	assert.False(t, VerifyPassword("WrongPass123!", hash))
	assert.False(t, VerifyPassword("SecurePass123!", "not-a-hash"))
}

func TestHashPasswordSalts(t *testing.T) {
	h1, err := HashPassword("SecurePass123!")
	require.NoError(t, err)
	h2, err := HashPassword("SecurePass123!")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2, "each hash carries its own salt")
}
