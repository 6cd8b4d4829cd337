// Package session holds the currently authenticated user.
//
// A Holder moves between three states.  Login goes from Unauthenticated
// through Authenticating to Authenticated when a user with exactly the
// given username and password exists; otherwise the holder returns to the
// state it had before.  Logout always ends in Unauthenticated and clears
// the durable copy.  The user is mirrored into a Storage so that a new
// Holder can be rehydrated with Restore.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/iliyamo/staybook/internal/model"
	"github.com/iliyamo/staybook/internal/utils"
)

type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// ErrInvalidCredentials is returned by Login when no user matches.
var ErrInvalidCredentials = errors.New("invalid username or password")

// UserLister supplies the user snapshot that credentials are checked
// against.  store.UserStore satisfies it.
type UserLister interface {
	List(ctx context.Context) ([]model.User, error)
}

// Holder is safe for concurrent use.
type Holder struct {
	storage Storage
	users   UserLister

	login sync.Mutex // serializes Login calls

	mu      sync.RWMutex
	state   State
	user    *model.User
	loading bool
}

// New returns a Holder that reports Loading until Restore has run.
func New(storage Storage, users UserLister) *Holder {
	return &Holder{storage: storage, users: users, loading: true}
}

// Restore loads the stored user, if any.  Loading is cleared even when
// the storage fails, leaving the holder unauthenticated.
func (h *Holder) Restore(ctx context.Context) error {
	u, err := h.storage.Load(ctx)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.loading = false
	if err != nil {
		h.state, h.user = Unauthenticated, nil
		return fmt.Errorf("restore session: %w", err)
	}
	if u == nil {
		h.state, h.user = Unauthenticated, nil
		return nil
	}
	pub := u.Public()
	h.state, h.user = Authenticated, &pub
	return nil
}

// Login authenticates against the current user list.  The stored password
// may be a bcrypt hash or, for older records, plaintext.
func (h *Holder) Login(ctx context.Context, username, password string) (model.User, error) {
	h.login.Lock()
	defer h.login.Unlock()

	h.mu.Lock()
	prevState, prevUser := h.state, h.user
	h.state = Authenticating
	h.mu.Unlock()

	fail := func(err error) (model.User, error) {
		h.mu.Lock()
		h.state, h.user = prevState, prevUser
		h.mu.Unlock()
		return model.User{}, err
	}

	users, err := h.users.List(ctx)
	if err != nil {
		return fail(fmt.Errorf("fetch users: %w", err))
	}
	var found *model.User
	for i := range users {
		if users[i].Username == username && utils.MatchPassword(users[i].Password, password) {
			found = &users[i]
			break
		}
	}
	if found == nil {
		return fail(ErrInvalidCredentials)
	}

	pub := found.Public()
	if err := h.storage.Save(ctx, pub); err != nil {
		return fail(fmt.Errorf("save session: %w", err))
	}

	h.mu.Lock()
	h.state, h.user = Authenticated, &pub
	h.mu.Unlock()
	return pub, nil
}

// Logout forgets the user.  The in-memory state is cleared even if the
// storage cannot be.
func (h *Holder) Logout(ctx context.Context) error {
	h.mu.Lock()
	h.state, h.user = Unauthenticated, nil
	h.mu.Unlock()
	if err := h.storage.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// User returns a copy of the authenticated user, or nil.
func (h *Holder) User() *model.User {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.state != Authenticated || h.user == nil {
		return nil
	}
	u := *h.user
	return &u
}

func (h *Holder) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

func (h *Holder) IsAdmin() bool {
	u := h.User()
	return u != nil && u.IsAdmin
}

func (h *Holder) Loading() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.loading
}
