package util

import (
	"testing"
	"time"

	"edunexus_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret-unit-test-secret"

func TestGenerateAndParseJWT(t *testing.T) {
	user := &model.User{Email: "jwt@example.com", Role: model.Instructor}
	user.ID = 42

	token, err := GenerateJWT(user, testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, model.Instructor, claims.Role)
	assert.Equal(t, "jwt@example.com", claims.Email)
}

func TestParseJWTWrongSecret(t *testing.T) {
	user := &model.User{Email: "jwt@example.com", Role: model.Student}
	user.ID = 1

	token, err := GenerateJWT(user, testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ParseJWT(token, "a-completely-different-secret")
	assert.Error(t, err)
}

func TestParseJWTExpired(t *testing.T) {
	user := &model.User{Email: "jwt@example.com", Role: model.Student}
	user.ID = 1

	token, err := GenerateJWT(user, testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseJWT(token, testSecret)
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "exactly10!", Truncate("exactly10!", 10))
	assert.Equal(t, "toolongfor...", Truncate("toolongforthis", 10))

	// Rune-safe on multibyte input.
	assert.Equal(t, "héllo...", Truncate("héllo wörld", 5))
}
