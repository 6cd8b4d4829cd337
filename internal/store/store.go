// Package store defines the typed persistence interfaces that the service
// layer depends on.  Implementations live in sub-packages: rest talks to
// the external JSON data store, memory keeps records in process (tests
// and local runs) and mysql provides a transactional backend.
package store

import (
	"context"

	"github.com/iliyamo/staybook/internal/model"
)

// ListingStore manages listings.  Update replaces the whole record.
type ListingStore interface {
	List(ctx context.Context) ([]model.Listing, error)
	Get(ctx context.Context, id uint64) (model.Listing, error)
	Create(ctx context.Context, l model.Listing) (model.Listing, error)
	Update(ctx context.Context, l model.Listing) (model.Listing, error)
	Delete(ctx context.Context, id uint64) error
}

// UserStore manages accounts.  Users are never deleted.
type UserStore interface {
	List(ctx context.Context) ([]model.User, error)
	Create(ctx context.Context, u model.User) (model.User, error)
}

// ReservationStore manages bookings.  Backends that can enforce the
// no-overlap rule atomically return ErrConflict from Create when the new
// range intersects a confirmed reservation of the same listing.
type ReservationStore interface {
	List(ctx context.Context) ([]model.Reservation, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error)
	Create(ctx context.Context, r model.Reservation) (model.Reservation, error)
	Delete(ctx context.Context, id uint64) error
}

// ReviewStore manages reviews.  SetOwnerResponse is a partial update of
// the ownerResponse field only.
type ReviewStore interface {
	List(ctx context.Context) ([]model.Review, error)
	ListByListing(ctx context.Context, listingID uint64) ([]model.Review, error)
	Create(ctx context.Context, r model.Review) (model.Review, error)
	SetOwnerResponse(ctx context.Context, id uint64, response string) (model.Review, error)
}

// Stores bundles one implementation of every entity store.
type Stores struct {
	Listings     ListingStore
	Users        UserStore
	Reservations ReservationStore
	Reviews      ReviewStore
}
