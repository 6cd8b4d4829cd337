package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/staybook/internal/model"
	"github.com/iliyamo/staybook/internal/store/memory"
	"github.com/iliyamo/staybook/internal/utils"
)

type failingUsers struct{}

func (failingUsers) List(context.Context) ([]model.User, error) {
	return nil, errors.New("connection refused")
}

func restored(t *testing.T, storage Storage, users UserLister) *Holder {
	t.Helper()
	h := New(storage, users)
	require.True(t, h.Loading())
	require.NoError(t, h.Restore(context.Background()))
	require.False(t, h.Loading())
	return h
}

func TestAdminLogin(t *testing.T) {
	storage := &MemoryStorage{}
	h := restored(t, storage, memory.Seed().Stores().Users)

	u, err := h.Login(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, Authenticated, h.State())
	assert.True(t, h.IsAdmin())
	assert.Empty(t, u.Password)
	require.NotNil(t, h.User())
	assert.Equal(t, "admin", h.User().Username)

	stored, err := storage.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Empty(t, stored.Password)
}

func TestWrongPasswordChangesNothing(t *testing.T) {
	storage := &MemoryStorage{}
	h := restored(t, storage, memory.Seed().Stores().Users)

	_, err := h.Login(context.Background(), "admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, Unauthenticated, h.State())
	assert.Nil(t, h.User())
	assert.False(t, h.IsAdmin())

	stored, err := storage.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestFailedLoginKeepsExistingSession(t *testing.T) {
	h := restored(t, &MemoryStorage{}, memory.Seed().Stores().Users)
	_, err := h.Login(context.Background(), "admin", "admin123")
	require.NoError(t, err)

	_, err = h.Login(context.Background(), "Admin", "admin123")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "usernames match exactly")
	assert.Equal(t, Authenticated, h.State())
	assert.Equal(t, "admin", h.User().Username)
}

func TestUserFetchFailure(t *testing.T) {
	h := restored(t, &MemoryStorage{}, failingUsers{})
	_, err := h.Login(context.Background(), "admin", "admin123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, Unauthenticated, h.State())
}

func TestBcryptPasswords(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	hash, err := utils.HashPassword("Secret1", bcrypt.MinCost)
	require.NoError(t, err)
	_, err = db.Stores().Users.Create(ctx, model.User{Username: "alice", Password: hash})
	require.NoError(t, err)

	h := restored(t, &MemoryStorage{}, db.Stores().Users)
	_, err = h.Login(ctx, "alice", hash)
	assert.ErrorIs(t, err, ErrInvalidCredentials, "the hash itself is not a password")
	_, err = h.Login(ctx, "alice", "Secret1")
	require.NoError(t, err)
	assert.False(t, h.IsAdmin())
}

func TestLogoutClearsStorage(t *testing.T) {
	ctx := context.Background()
	storage := &MemoryStorage{}
	h := restored(t, storage, memory.Seed().Stores().Users)
	_, err := h.Login(ctx, "admin", "admin123")
	require.NoError(t, err)

	require.NoError(t, h.Logout(ctx))
	assert.Equal(t, Unauthenticated, h.State())
	assert.Nil(t, h.User())

	again := restored(t, storage, memory.Seed().Stores().Users)
	assert.Equal(t, Unauthenticated, again.State())
}

func TestFileStorageRehydrates(t *testing.T) {
	ctx := context.Background()
	storage := FileStorage{Path: filepath.Join(t.TempDir(), "nested", "session.json")}

	h := restored(t, storage, memory.Seed().Stores().Users)
	assert.Equal(t, Unauthenticated, h.State())
	_, err := h.Login(ctx, "admin", "admin123")
	require.NoError(t, err)

	next := restored(t, storage, nil)
	assert.Equal(t, Authenticated, next.State())
	assert.True(t, next.IsAdmin())

	require.NoError(t, next.Logout(ctx))
	require.NoError(t, storage.Clear(ctx), "clearing twice is fine")
}

func TestRedisBackendSessions(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	backend := RedisBackend{Client: client, Prefix: "sess", TTL: time.Hour}

	h := restored(t, backend.Storage("abc"), memory.Seed().Stores().Users)
	_, err := h.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.True(t, mr.Exists("sess:abc"))
	assert.Equal(t, time.Hour, mr.TTL("sess:abc"))

	other := restored(t, backend.Storage("xyz"), nil)
	assert.Equal(t, Unauthenticated, other.State())

	same := restored(t, backend.Storage("abc"), nil)
	assert.True(t, same.IsAdmin())

	mr.FastForward(2 * time.Hour)
	expired := restored(t, backend.Storage("abc"), nil)
	assert.Equal(t, Unauthenticated, expired.State())
}

func TestMemoryBackendSharesAndDropsSessions(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()

	require.NoError(t, b.Storage("a").Save(ctx, model.User{ID: 7, Username: "guest", Password: "secret"}))
	u, err := b.Storage("a").Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, uint64(7), u.ID)
	assert.Empty(t, u.Password)

	other, err := b.Storage("b").Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, other)
	assert.Equal(t, 1, b.Len(), "loading an unknown session stores nothing")

	require.NoError(t, b.Storage("a").Clear(ctx))
	assert.Equal(t, 0, b.Len())
	gone, err := b.Storage("a").Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestMemoryBackendLogoutReleasesSession(t *testing.T) {
	ctx := context.Background()
	users := memory.Seed().Stores().Users
	b := NewMemoryBackend()

	h := restored(t, b.Storage("sid-1"), users)
	_, err := h.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Len())

	require.NoError(t, h.Logout(ctx))
	assert.Equal(t, 0, b.Len())
}
