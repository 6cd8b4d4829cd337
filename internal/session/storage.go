package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/staybook/internal/model"
)

// Storage is the durable copy of one session.  Load returns nil, nil when
// nothing is stored.
type Storage interface {
	Load(ctx context.Context) (*model.User, error)
	Save(ctx context.Context, u model.User) error
	Clear(ctx context.Context) error
}

// Backend hands out the Storage for a server-side session id.
type Backend interface {
	Storage(sessionID string) Storage
}

// FileStorage keeps the session in a JSON file, the way the terminal
// client persists a login between runs.
type FileStorage struct {
	Path string
}

func (f FileStorage) Load(ctx context.Context) (*model.User, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := json.Unmarshal(b, &u); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.Path, err)
	}
	return &u, nil
}

// Save writes to a temporary file and renames it into place.
func (f FileStorage) Save(ctx context.Context, u model.User) error {
	u.Password = ""
	b, err := json.MarshalIndent(u, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.Path)
}

func (f FileStorage) Clear(ctx context.Context) error {
	err := os.Remove(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// MemoryStorage keeps the session in process.
type MemoryStorage struct {
	mu   sync.Mutex
	user *model.User
}

func (m *MemoryStorage) Load(ctx context.Context) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil, nil
	}
	u := *m.user
	return &u, nil
}

func (m *MemoryStorage) Save(ctx context.Context, u model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Password = ""
	m.user = &u
	return nil
}

func (m *MemoryStorage) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = nil
	return nil
}

// MemoryBackend keeps every server session in process.  Sessions are lost
// on restart.  Only saved sessions hold an entry; Clear removes it.
type MemoryBackend struct {
	mu       sync.Mutex
	sessions map[string]model.User
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{sessions: make(map[string]model.User)}
}

// Storage returns a handle on one session.  It allocates nothing until the
// session is saved.
func (b *MemoryBackend) Storage(sessionID string) Storage {
	return memorySession{backend: b, id: sessionID}
}

// Len reports how many sessions are held.
func (b *MemoryBackend) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

type memorySession struct {
	backend *MemoryBackend
	id      string
}

func (m memorySession) Load(ctx context.Context) (*model.User, error) {
	m.backend.mu.Lock()
	defer m.backend.mu.Unlock()
	u, ok := m.backend.sessions[m.id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m memorySession) Save(ctx context.Context, u model.User) error {
	m.backend.mu.Lock()
	defer m.backend.mu.Unlock()
	u.Password = ""
	m.backend.sessions[m.id] = u
	return nil
}

func (m memorySession) Clear(ctx context.Context) error {
	m.backend.mu.Lock()
	defer m.backend.mu.Unlock()
	delete(m.backend.sessions, m.id)
	return nil
}

// RedisStorage stores one session under Key.  Every Save resets the TTL.
type RedisStorage struct {
	Client *redis.Client
	Key    string
	TTL    time.Duration
}

func (r RedisStorage) Load(ctx context.Context) (*model.User, error) {
	b, err := r.Client.Get(ctx, r.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := json.Unmarshal(b, &u); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.Key, err)
	}
	return &u, nil
}

func (r RedisStorage) Save(ctx context.Context, u model.User) error {
	u.Password = ""
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, r.Key, b, r.TTL).Err()
}

func (r RedisStorage) Clear(ctx context.Context) error {
	return r.Client.Del(ctx, r.Key).Err()
}

// RedisBackend namespaces sessions as <Prefix>:<id>.
type RedisBackend struct {
	Client *redis.Client
	Prefix string
	TTL    time.Duration
}

func (b RedisBackend) Storage(sessionID string) Storage {
	prefix := b.Prefix
	if prefix == "" {
		prefix = "session"
	}
	return RedisStorage{Client: b.Client, Key: prefix + ":" + sessionID, TTL: b.TTL}
}
