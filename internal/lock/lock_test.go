package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exercise(t *testing.T, l Locker) {
	t.Helper()
	var (
		inside  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), ListingKey(1))
			if !assert.NoError(t, err) {
				return
			}
			n := inside.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxSeen.Load())
}

func TestLocalLockerIsExclusive(t *testing.T) {
	l := NewLocalLocker()
	exercise(t, l)
	assert.Empty(t, l.keys, "entries are dropped once released")
}

func TestLocalLockerKeysAreIndependent(t *testing.T) {
	l := NewLocalLocker()
	a, err := l.Lock(context.Background(), ListingKey(1))
	require.NoError(t, err)
	defer a()
	b, err := l.Lock(context.Background(), ListingKey(2))
	require.NoError(t, err)
	b()
}

func TestLocalLockerHonoursContext(t *testing.T) {
	l := NewLocalLocker()
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()
	again, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	again()
}

func newRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	l := NewRedisLocker(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	l.Retry = time.Millisecond
	return l, mr
}

func TestRedisLockerIsExclusive(t *testing.T) {
	l, mr := newRedisLocker(t)
	exercise(t, l)
	assert.False(t, mr.Exists("lock:listing:1"))
}

func TestRedisLockerGivesUp(t *testing.T) {
	l, _ := newRedisLocker(t)
	l.Wait = 20 * time.Millisecond
	unlock, err := l.Lock(context.Background(), ReviewKey(1, 2))
	require.NoError(t, err)
	defer unlock()

	_, err = l.Lock(context.Background(), ReviewKey(1, 2))
	assert.ErrorIs(t, err, ErrNotAcquired)
}

func TestRedisLockerDoesNotReleaseForeignToken(t *testing.T) {
	l, mr := newRedisLocker(t)
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	// Simulate expiry and another holder taking over.
	require.NoError(t, mr.Set("lock:k", "someone-else"))
	unlock()
	v, err := mr.Get("lock:k")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", v)
}
