package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_RegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.auth.Register(ctx, "A", "a@x.com", "p")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "A", session.User.Name)
	assert.Equal(t, "a@x.com", session.User.Email)
	assert.NotEmpty(t, session.User.ID)

	stored, err := env.users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "p", stored.PasswordHash)

	_, err = env.auth.Register(ctx, "Other", "A@X.com ", "q")
	require.ErrorIs(t, err, ErrValidation)
	assert.EqualError(t, err, "User already exists")

	loggedIn, err := env.auth.Login(ctx, "a@x.com", "p")
	require.NoError(t, err)
	assert.Equal(t, session.User, loggedIn.User)

	for _, tc := range []struct{ email, password string }{
		{"a@x.com", "wrong"},
		{"nobody@x.com", "p"},
	} {
		_, err := env.auth.Login(ctx, tc.email, tc.password)
		require.ErrorIs(t, err, ErrInvalidCredentials)
		assert.EqualError(t, err, "your email or password do not match")
	}

	_, err = env.auth.Register(ctx, "", "b@x.com", "p")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAuthService_LinkTelegram(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.user(t, "u@example.com")

	require.NoError(t, env.auth.LinkTelegram(ctx, user.ID, 777))
	stored, err := env.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.TelegramChatID)
	assert.EqualValues(t, 777, *stored.TelegramChatID)

	require.NoError(t, env.auth.LinkTelegram(ctx, user.ID, 0))
	stored, err = env.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.TelegramChatID)

	assert.ErrorIs(t, env.auth.LinkTelegram(ctx, "ghost", 1), ErrNotFound)
}
