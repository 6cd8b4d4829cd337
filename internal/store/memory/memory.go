// Package memory is an in-process implementation of the store interfaces.
// It backs STORE_BACKEND=memory and the service tests.  Writes are
// serialized by a single mutex, which lets it enforce the same uniqueness
// and no-overlap rules as the mysql backend.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/iliyamo/staybook/internal/availability"
	"github.com/iliyamo/staybook/internal/model"
	"github.com/iliyamo/staybook/internal/store"
)

// DB holds every collection.
type DB struct {
	mu           sync.Mutex
	nextID       uint64
	listings     []model.Listing
	users        []model.User
	reservations []model.Reservation
	reviews      []model.Review
}

// New returns an empty DB.
func New() *DB { return &DB{} }

// Stores exposes the DB through the store interfaces.
func (db *DB) Stores() store.Stores {
	return store.Stores{
		Listings:     &Listings{db},
		Users:        &Users{db},
		Reservations: &Reservations{db},
		Reviews:      &Reviews{db},
	}
}

func (db *DB) id() uint64 {
	db.nextID++
	return db.nextID
}

func notFound(collection string, id uint64) error {
	return fmt.Errorf("%s %d: %w", collection, id, store.ErrNotFound)
}

type Listings struct{ db *DB }

func (s *Listings) List(ctx context.Context) ([]model.Listing, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return slices.Clone(s.db.listings), nil
}

func (s *Listings) Get(ctx context.Context, id uint64) (model.Listing, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, l := range s.db.listings {
		if l.ID == id {
			return l, nil
		}
	}
	return model.Listing{}, notFound("listings", id)
}

func (s *Listings) Create(ctx context.Context, l model.Listing) (model.Listing, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	l.ID = s.db.id()
	s.db.listings = append(s.db.listings, l)
	return l, nil
}

func (s *Listings) Update(ctx context.Context, l model.Listing) (model.Listing, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for i := range s.db.listings {
		if s.db.listings[i].ID == l.ID {
			s.db.listings[i] = l
			return l, nil
		}
	}
	return model.Listing{}, notFound("listings", l.ID)
}

func (s *Listings) Delete(ctx context.Context, id uint64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	i := slices.IndexFunc(s.db.listings, func(l model.Listing) bool { return l.ID == id })
	if i < 0 {
		return notFound("listings", id)
	}
	s.db.listings = slices.Delete(s.db.listings, i, i+1)
	return nil
}

type Users struct{ db *DB }

func (s *Users) List(ctx context.Context) ([]model.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return slices.Clone(s.db.users), nil
}

// Create rejects a username that already exists, ignoring case.
func (s *Users) Create(ctx context.Context, u model.User) (model.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return model.User{}, fmt.Errorf("username %q: %w", u.Username, store.ErrConflict)
		}
	}
	u.ID = s.db.id()
	s.db.users = append(s.db.users, u)
	return u, nil
}

type Reservations struct{ db *DB }

func (s *Reservations) List(ctx context.Context) ([]model.Reservation, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return slices.Clone(s.db.reservations), nil
}

func (s *Reservations) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []model.Reservation
	for _, r := range s.db.reservations {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

// Create rejects a range that overlaps a confirmed reservation of the
// same listing.
func (s *Reservations) Create(ctx context.Context, r model.Reservation) (model.Reservation, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if r.Confirmed() {
		if c, ok := availability.FindConflict(r.ListingID, r.StartDate, r.EndDate, s.db.reservations); ok {
			return model.Reservation{}, fmt.Errorf("overlaps reservation %d: %w", c.ID, store.ErrConflict)
		}
	}
	r.ID = s.db.id()
	s.db.reservations = append(s.db.reservations, r)
	return r, nil
}

func (s *Reservations) Delete(ctx context.Context, id uint64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	i := slices.IndexFunc(s.db.reservations, func(r model.Reservation) bool { return r.ID == id })
	if i < 0 {
		return notFound("reservations", id)
	}
	s.db.reservations = slices.Delete(s.db.reservations, i, i+1)
	return nil
}

type Reviews struct{ db *DB }

func (s *Reviews) List(ctx context.Context) ([]model.Review, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return slices.Clone(s.db.reviews), nil
}

func (s *Reviews) ListByListing(ctx context.Context, listingID uint64) ([]model.Review, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []model.Review
	for _, rv := range s.db.reviews {
		if rv.ListingID == listingID {
			out = append(out, rv)
		}
	}
	return out, nil
}

// Create allows one review per user and listing.
func (s *Reviews) Create(ctx context.Context, rv model.Review) (model.Review, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.reviews {
		if existing.UserID == rv.UserID && existing.ListingID == rv.ListingID {
			return model.Review{}, fmt.Errorf("review by user %d on listing %d: %w", rv.UserID, rv.ListingID, store.ErrConflict)
		}
	}
	rv.ID = s.db.id()
	s.db.reviews = append(s.db.reviews, rv)
	return rv, nil
}

func (s *Reviews) SetOwnerResponse(ctx context.Context, id uint64, response string) (model.Review, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for i := range s.db.reviews {
		if s.db.reviews[i].ID == id {
			resp := response
			s.db.reviews[i].OwnerResponse = &resp
			return s.db.reviews[i], nil
		}
	}
	return model.Review{}, notFound("reviews", id)
}
