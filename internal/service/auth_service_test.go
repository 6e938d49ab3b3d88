package service

import (
	"testing"
	"time"

	"edunexus_backend/internal/config"
	"edunexus_backend/internal/model"
	"edunexus_backend/internal/repository"
	"edunexus_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(f *fixture) *AuthService {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret-not-for-production-use"
	cfg.JWT.ExpireTime = time.Hour
	return NewAuthService(repository.NewUserRepository(f.db), cfg)
}

func TestRegisterHashesPassword(t *testing.T) {
	f := newFixture(t)
	auth := newAuthService(f)

	user := &model.User{Name: "New User", Email: "new@example.com", Password: "plaintext123", Role: model.Student}
	require.NoError(t, auth.Register(user))

	assert.NotEqual(t, "plaintext123", user.Password)

	var stored model.User
	require.NoError(t, f.db.Where("email = ?", "new@example.com").First(&stored).Error)
	assert.NotEqual(t, "plaintext123", stored.Password)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	auth := newAuthService(f)

	user := &model.User{Name: "Someone", Email: f.student.Email, Password: "whatever123", Role: model.Student}
	assert.ErrorIs(t, auth.Register(user), util.ErrEmailRegistered)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	auth := newAuthService(f)

	user := &model.User{Name: "Login User", Email: "login@example.com", Password: "correct-horse", Role: model.Student}
	require.NoError(t, auth.Register(user))

	token, logged, err := auth.Login("login@example.com", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, logged.ID)

	claims, err := util.ParseJWT(token, "test-secret-not-for-production-use")
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, model.Student, claims.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newFixture(t)
	auth := newAuthService(f)

	user := &model.User{Name: "Login User", Email: "login@example.com", Password: "correct-horse", Role: model.Student}
	require.NoError(t, auth.Register(user))

	_, _, err := auth.Login("login@example.com", "wrong-password")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)

	_, _, err = auth.Login("nobody@example.com", "correct-horse")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
}
