package service

import (
	"context"
	"testing"
	"time"

	"github.com/BloggingApp/artblog-service/internal/dto"
	"github.com/BloggingApp/artblog-service/pkg/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterLoginVerify(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	user, err := env.svc.Auth.Register(ctx, dto.RegisterRequest{Username: "admin", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", user.PasswordHash)

	stored, err := env.repo.User.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.NotContains(t, stored.PasswordHash, "correct horse")

	_, err = env.svc.Auth.Register(ctx, dto.RegisterRequest{Username: "admin", Password: "another password"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	token, err := env.svc.Auth.Login(ctx, dto.LoginRequest{Username: "admin", Password: "correct horse"})
	require.NoError(t, err)

	id, err := env.svc.Auth.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.Auth.Register(ctx, dto.RegisterRequest{Username: "admin", Password: "correct horse"})
	require.NoError(t, err)

	_, err = env.svc.Auth.Login(ctx, dto.LoginRequest{Username: "admin", Password: "wrong password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.svc.Auth.Login(ctx, dto.LoginRequest{Username: "nobody", Password: "correct horse"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyRejects(t *testing.T) {
	env := newTestEnv(t)
	secret := []byte(testConfig().Auth.JWTSecret)

	expired, err := utils.GenerateJWT(jwt.MapClaims{"id": uuid.NewString()}, secret, -time.Minute)
	require.NoError(t, err)
	noID, err := utils.GenerateJWT(jwt.MapClaims{"sub": "x"}, secret, time.Hour)
	require.NoError(t, err)
	badID, err := utils.GenerateJWT(jwt.MapClaims{"id": "not-a-uuid"}, secret, time.Hour)
	require.NoError(t, err)

	for _, token := range []string{"", "garbage", expired, noID, badID} {
		_, err := env.svc.Auth.Verify(token)
		assert.ErrorIs(t, err, ErrNotAuthorized)
	}
}
