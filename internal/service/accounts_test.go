package service

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/staybook/internal/session"
	"github.com/iliyamo/staybook/internal/utils"
)

func TestRegisterThenLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.svc.Register(ctx, RegisterInput{Username: "alice", Password: "Secret1", ConfirmPassword: "Secret1"})
	require.NoError(t, err)
	assert.Empty(t, u.Password)
	assert.False(t, u.IsAdmin)

	users, err := f.stores.Users.List(ctx)
	require.NoError(t, err)
	stored := users[len(users)-1]
	assert.True(t, utils.IsBcryptHash(stored.Password))

	h := session.New(&session.MemoryStorage{}, f.svc.Users())
	require.NoError(t, h.Restore(ctx))
	_, err = f.svc.Login(ctx, h, "alice", "Secret1")
	require.NoError(t, err)
	assert.Equal(t, session.Authenticated, h.State())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Logins.WithLabelValues("success")))

	_, err = f.svc.Login(ctx, h, "alice", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, "Invalid username or password", Message(OpLogin, err))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Logins.WithLabelValues("invalid")))
}

func TestRegisterDuplicate(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Register(context.Background(), RegisterInput{Username: "guest", Password: "Secret1", ConfirmPassword: "Secret1"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
	assert.Equal(t, "Username already exists", Message(OpRegister, err))
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		in    RegisterInput
		field string
		msg   string
	}{
		{RegisterInput{Username: "al", Password: "Secret1", ConfirmPassword: "Secret1"}, "username", "Username must be at least 3 characters"},
		{RegisterInput{Username: "averyveryverylongusername", Password: "Secret1", ConfirmPassword: "Secret1"}, "username", "Username must be at most 20 characters"},
		{RegisterInput{Username: "alice", Password: "Sec1", ConfirmPassword: "Sec1"}, "password", "Password must be at least 6 characters"},
		{RegisterInput{Username: "alice", Password: "secret1", ConfirmPassword: "secret1"}, "password", "Password must contain at least one uppercase letter, one lowercase letter, and one number"},
		{RegisterInput{Username: "alice", Password: "Secret1", ConfirmPassword: "Secret2"}, "confirmPassword", "Passwords must match"},
		{RegisterInput{Username: "alice", Password: "Secret1"}, "confirmPassword", "Please confirm your password"},
	}
	for _, tc := range cases {
		_, err := f.svc.Register(context.Background(), tc.in)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, tc.msg)
		assert.Equal(t, tc.msg, verr.Fields[tc.field])
	}
}
