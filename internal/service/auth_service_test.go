package service

import (
	"context"
	"testing"

	"skillswap/internal/domain/apperror"
	"skillswap/internal/domain/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_LoginAndAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.register(t, profile{name: "alice", public: true})

	res, err := env.auth.Login(ctx, &user.LoginRequest{Email: " ALICE@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, a.ID, res.User.ID)

	id, err := env.auth.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, a.ID, id)
}

func TestAuthService_LoginFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.register(t, profile{name: "alice", public: true})

	_, err := env.auth.Login(ctx, &user.LoginRequest{Email: "alice@example.com", Password: "wrong-password"})
	assert.Equal(t, apperror.KindAuthentication, apperror.KindOf(err))

	_, err = env.auth.Login(ctx, &user.LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.Equal(t, apperror.KindAuthentication, apperror.KindOf(err))

	_, err = env.auth.Login(ctx, &user.LoginRequest{Email: "", Password: "secret123"})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = env.directory.SetActive(ctx, a.ID, false)
	require.NoError(t, err)
	_, err = env.auth.Login(ctx, &user.LoginRequest{Email: "alice@example.com", Password: "secret123"})
	assert.Equal(t, apperror.KindAuthentication, apperror.KindOf(err))
}

func TestAuthService_AuthenticateRejectsBadTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, tok := range []string{"", "   ", "garbage"} {
		_, err := env.auth.Authenticate(ctx, tok)
		assert.Equal(t, apperror.KindAuthentication, apperror.KindOf(err))
	}
}

func TestAuthService_AuthenticateRejectsDeactivatedUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.register(t, profile{name: "alice", public: true})

	res, err := env.auth.Login(ctx, &user.LoginRequest{Email: "alice@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = env.directory.SetActive(ctx, a.ID, false)
	require.NoError(t, err)
	_, err = env.auth.Authenticate(ctx, res.Token)
	assert.Equal(t, apperror.KindAuthentication, apperror.KindOf(err))

	_, err = env.directory.SetActive(ctx, a.ID, true)
	require.NoError(t, err)
	id, err := env.auth.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, a.ID, id)
}

func TestAuthService_AuthenticateRejectsUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	token, _, err := env.tokens.Generate(uuid.New(), "user")
	require.NoError(t, err)

	_, err = env.auth.Authenticate(context.Background(), token)
	assert.Equal(t, apperror.KindAuthentication, apperror.KindOf(err))
}
