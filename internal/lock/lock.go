// Package lock provides the serialization point for check-then-write
// sequences such as "no overlapping reservation, then insert".
package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker grants exclusive access to a key until unlock is called or ctx
// ends while waiting.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// ListingKey and friends name the keys used by the service layer.
func ListingKey(listingID uint64) string { return fmt.Sprintf("listing:%d", listingID) }

func ReviewKey(userID, listingID uint64) string {
	return fmt.Sprintf("review:%d:%d", userID, listingID)
}

func UsernameKey(name string) string { return "username:" + name }

// LocalLocker serializes within one process.
type LocalLocker struct {
	mu   sync.Mutex
	keys map[string]*entry
}

type entry struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{keys: make(map[string]*entry)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.keys[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.keys[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e, false)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() { once.Do(func() { l.release(key, e, true) }) }, nil
}

func (l *LocalLocker) release(key string, e *entry, held bool) {
	if held {
		<-e.ch
	}
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.keys, key)
	}
	l.mu.Unlock()
}

// ErrNotAcquired is returned by RedisLocker when the key stays held past
// the wait budget.
var ErrNotAcquired = errors.New("lock not acquired")

// Only the holder of the token may release the key.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// RedisLocker serializes across processes that share a Redis.  The key
// expires after TTL so a crashed holder cannot block others forever.
type RedisLocker struct {
	Client *redis.Client
	Prefix string
	TTL    time.Duration
	// Retry is the polling interval while the key is held elsewhere.
	Retry time.Duration
	// Wait bounds how long Lock polls when ctx has no deadline.
	Wait time.Duration
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{
		Client: client,
		Prefix: "lock",
		TTL:    10 * time.Second,
		Retry:  25 * time.Millisecond,
		Wait:   5 * time.Second,
	}
}

func (r *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	full := r.Prefix + ":" + key
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	if _, ok := ctx.Deadline(); !ok && r.Wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Wait)
		defer cancel()
	}

	ticker := time.NewTicker(r.Retry)
	defer ticker.Stop()
	for {
		ok, err := r.Client.SetNX(ctx, full, token, r.TTL).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %s", ErrNotAcquired, key)
			}
			return nil, fmt.Errorf("lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s", ErrNotAcquired, key)
		case <-ticker.C:
		}
	}

	var once sync.Once
	unlock := func() {
		once.Do(func() {
			// Release with a fresh context: the caller's may already be done.
			rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = releaseScript.Run(rctx, r.Client, []string{full}, token).Err()
		})
	}
	return unlock, nil
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
