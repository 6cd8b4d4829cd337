package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/staybook/internal/model"
	"github.com/iliyamo/staybook/internal/store"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 2*time.Second, nil)
}

func TestListingsListDecodesStoreRecords(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/listings", r.URL.Path)
		_, _ = io.WriteString(w, `[{"id":1,"title":"Loft","description":"d","location":"Lisbon","price":120,"bedrooms":2,"bathrooms":1,"maxGuests":4,"image":"http://img"}]`)
	})

	got, err := c.Stores().Listings.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.Listing{
		ID: 1, Title: "Loft", Description: "d", Location: "Lisbon",
		Price: 120, Bedrooms: 2, Bathrooms: 1, MaxGuests: 4, Image: "http://img",
	}, got[0])
}

func TestGetMissingListingIsNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/listings/42", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{}`)
	})

	_, err := c.Stores().Listings.Get(context.Background(), 42)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestNonSuccessStatusIsStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Stores().Reservations.List(context.Background())
	var se *store.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Equal(t, "/reservations", se.Path)
}

func TestTransportFailureIsReported(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := NewClient(srv.URL, time.Second, nil)

	_, err := c.Stores().Users.List(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrNotFound)
}

func TestReservationsFilterByUserAndCreate(t *testing.T) {
	var posted map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "3", r.URL.Query().Get("userId"))
			_, _ = io.WriteString(w, `[{"id":9,"listingId":1,"userId":3,"startDate":"2024-06-10","endDate":"2024-06-12","totalPrice":240,"status":"confirmed"}]`)
		case http.MethodPost:
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"id":10,"listingId":1,"userId":3,"startDate":"2024-07-01","endDate":"2024-07-03","totalPrice":240,"status":"confirmed"}`)
		}
	})
	rs := c.Stores().Reservations

	list, err := rs.ListByUser(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.MustParseDate("2024-06-10"), list[0].StartDate)

	created, err := rs.Create(context.Background(), model.Reservation{
		ListingID: 1, UserID: 3,
		StartDate: model.MustParseDate("2024-07-01"), EndDate: model.MustParseDate("2024-07-03"),
		TotalPrice: 240, Status: model.StatusConfirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(10), created.ID)
	assert.Equal(t, "2024-07-01", posted["startDate"])
	assert.NotContains(t, posted, "id")
}

func TestSetOwnerResponsePatchesSingleField(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/reviews/5", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"ownerResponse": "Thanks for staying!"}, body)
		_, _ = io.WriteString(w, `{"id":5,"listingId":1,"userId":2,"rating":5,"ownerResponse":"Thanks for staying!"}`)
	})

	got, err := c.Stores().Reviews.SetOwnerResponse(context.Background(), 5, "Thanks for staying!")
	require.NoError(t, err)
	require.NotNil(t, got.OwnerResponse)
	assert.Equal(t, "Thanks for staying!", *got.OwnerResponse)
}

func TestRequestHonoursContextCancellation(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Stores().Reviews.ListByListing(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
