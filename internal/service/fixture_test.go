package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/staybook/internal/model"
	"github.com/iliyamo/staybook/internal/platform/metrics"
	"github.com/iliyamo/staybook/internal/store"
	"github.com/iliyamo/staybook/internal/store/memory"
)

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func day(s string) model.Date { return model.MustParseDate(s) }

type published struct {
	queue string
	event any
}

type recorder struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (r *recorder) Publish(_ context.Context, queue string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{queue, event})
	return r.err
}

func (r *recorder) queues() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.queue
	}
	return out
}

type fixture struct {
	svc     *Service
	stores  store.Stores
	events  *recorder
	metrics *metrics.Metrics

	guest   model.User
	other   model.User
	admin   model.User
	listing model.Listing
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWith(t, nil)
}

// newFixtureWith lets a test swap individual stores before the service is
// built.
func newFixtureWith(t *testing.T, wrap func(*store.Stores)) *fixture {
	t.Helper()
	ctx := context.Background()
	stores := memory.New().Stores()

	guest, err := stores.Users.Create(ctx, model.User{Username: "guest", Password: "Guest1"})
	require.NoError(t, err)
	other, err := stores.Users.Create(ctx, model.User{Username: "other", Password: "Other1"})
	require.NoError(t, err)
	admin, err := stores.Users.Create(ctx, model.User{Username: "admin", Password: "admin123", IsAdmin: true})
	require.NoError(t, err)
	listing, err := stores.Listings.Create(ctx, model.Listing{
		Title: "Seaside Cottage", Description: "Two bedrooms near the beach", Location: "Malibu",
		Price: 250, Bedrooms: 2, Bathrooms: 1, MaxGuests: 4, Image: "https://img.example.com/c.jpg",
	})
	require.NoError(t, err)

	if wrap != nil {
		wrap(&stores)
	}
	f := &fixture{
		stores:  stores,
		events:  &recorder{},
		metrics: metrics.New("test"),
		guest:   guest.Public(),
		other:   other.Public(),
		admin:   admin.Public(),
		listing: listing,
	}
	f.svc = New(Options{
		Stores:     stores,
		Events:     f.events,
		Metrics:    f.metrics,
		BcryptCost: bcrypt.MinCost,
		Now:        func() time.Time { return fixedNow },
	})
	return f
}

func (f *fixture) reserve(t *testing.T, userID uint64, start, end string) model.Reservation {
	t.Helper()
	r, err := f.stores.Reservations.Create(context.Background(), model.Reservation{
		ListingID: f.listing.ID, UserID: userID,
		StartDate: day(start), EndDate: day(end),
		Status: model.StatusConfirmed,
	})
	require.NoError(t, err)
	return r
}
