package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/staybook/internal/config"
	"github.com/iliyamo/staybook/internal/model"
	"github.com/iliyamo/staybook/internal/platform/metrics"
	"github.com/iliyamo/staybook/internal/router"
	"github.com/iliyamo/staybook/internal/service"
	"github.com/iliyamo/staybook/internal/session"
	"github.com/iliyamo/staybook/internal/store"
	"github.com/iliyamo/staybook/internal/store/memory"
)

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type api struct {
	t      *testing.T
	e      *echo.Echo
	stores store.Stores
}

func newAPI(t *testing.T) *api {
	t.Helper()
	stores := memory.Seed().Stores()
	m := metrics.New("test")
	svc := service.New(service.Options{
		Stores:     stores,
		Metrics:    m,
		BcryptCost: bcrypt.MinCost,
		Now:        func() time.Time { return fixedNow },
	})
	cfg := config.Config{JWTSecret: "test-secret", AccessTTLMin: 5}
	e := router.New(router.Deps{
		Cfg:      cfg,
		Svc:      svc,
		Sessions: session.NewMemoryBackend(),
		Metrics:  m,
		Log:      zap.NewNop(),
	})
	return &api{t: t, e: e, stores: stores}
}

// call sends body as JSON and decodes the response into out when set.
func (a *api) call(method, path, token string, body any, out any) int {
	a.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		require.NoError(a.t, err)
		rd = bytes.NewReader(bs)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	if out != nil && rec.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func (a *api) login(username, password string) string {
	a.t.Helper()
	var resp struct {
		Access struct {
			Token string `json:"token"`
		} `json:"access"`
	}
	code := a.call(http.MethodPost, "/v1/auth/login", "", map[string]string{"username": username, "password": password}, &resp)
	require.Equal(a.t, http.StatusOK, code)
	require.NotEmpty(a.t, resp.Access.Token)
	return resp.Access.Token
}

func (a *api) register(username, password string) {
	a.t.Helper()
	code := a.call(http.MethodPost, "/v1/auth/register", "", map[string]string{
		"username": username, "password": password, "confirmPassword": password,
	}, nil)
	require.Equal(a.t, http.StatusCreated, code)
}

type errResp struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func stay(start, end string) map[string]string {
	return map[string]string{"startDate": start, "endDate": end}
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	var body map[string]string
	assert.Equal(t, http.StatusOK, a.call(http.MethodGet, "/healthz", "", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestSearchListings(t *testing.T) {
	a := newAPI(t)

	var all service.SearchResult
	require.Equal(t, http.StatusOK, a.call(http.MethodGet, "/v1/listings", "", nil, &all))
	assert.Equal(t, 3, all.Count)
	assert.Equal(t, []string{"Malibu", "New York", "Aspen"}, all.Locations)

	var cheap service.SearchResult
	require.Equal(t, http.StatusOK, a.call(http.MethodGet, "/v1/listings?maxPrice=200", "", nil, &cheap))
	require.Len(t, cheap.Items, 1)
	assert.Equal(t, "Downtown Loft", cheap.Items[0].Title)

	var hits service.SearchResult
	require.Equal(t, http.StatusOK, a.call(http.MethodGet, "/v1/listings?q=FIREPLACE&location=aspen", "", nil, &hits))
	assert.Equal(t, 1, hits.Count)
	assert.Len(t, hits.Locations, 3, "locations always span the whole catalogue")

	var e errResp
	assert.Equal(t, http.StatusBadRequest, a.call(http.MethodGet, "/v1/listings?maxPrice=cheap", "", nil, &e))
}

func TestGetListing(t *testing.T) {
	a := newAPI(t)
	var l model.Listing
	require.Equal(t, http.StatusOK, a.call(http.MethodGet, "/v1/listings/2", "", nil, &l))
	assert.Equal(t, "Seaside Cottage", l.Title)

	var e errResp
	assert.Equal(t, http.StatusNotFound, a.call(http.MethodGet, "/v1/listings/999", "", nil, &e))
	assert.Equal(t, "Listing not found", e.Error)
	assert.Equal(t, http.StatusNotFound, a.call(http.MethodGet, "/v1/listings/abc", "", nil, &e))
}

func TestQuote(t *testing.T) {
	a := newAPI(t)
	var q service.Quote
	require.Equal(t, http.StatusOK, a.call(http.MethodGet, "/v1/listings/2/quote?startDate=2024-07-01&endDate=2024-07-04", "", nil, &q))
	assert.Equal(t, 3, q.Nights)
	assert.Equal(t, int64(750), q.TotalPrice)

	var e errResp
	assert.Equal(t, http.StatusBadRequest, a.call(http.MethodGet, "/v1/listings/2/quote?startDate=2024-07-04&endDate=2024-07-04", "", nil, &e))
	assert.Equal(t, "End date must be after start date", e.Error)
	assert.Equal(t, http.StatusBadRequest, a.call(http.MethodGet, "/v1/listings/2/quote?startDate=July", "", nil, &e))
}

func TestLoginAndSession(t *testing.T) {
	a := newAPI(t)

	var e errResp
	code := a.call(http.MethodPost, "/v1/auth/login", "", map[string]string{"username": "admin", "password": "nope"}, &e)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid username or password", e.Error)

	token := a.login("admin", "admin123")
	var me struct {
		User  model.User `json:"user"`
		State string     `json:"state"`
	}
	require.Equal(t, http.StatusOK, a.call(http.MethodGet, "/v1/me", token, nil, &me))
	assert.Equal(t, "admin", me.User.Username)
	assert.True(t, me.User.IsAdmin)
	assert.Empty(t, me.User.Password)
	assert.Equal(t, "authenticated", me.State)

	assert.Equal(t, http.StatusNoContent, a.call(http.MethodPost, "/v1/auth/logout", token, nil, nil))
	assert.Equal(t, http.StatusUnauthorized, a.call(http.MethodGet, "/v1/me", token, nil, nil))
}

func TestRegister(t *testing.T) {
	a := newAPI(t)
	a.register("traveler", "Passw0rd")
	a.login("traveler", "Passw0rd")

	var e errResp
	code := a.call(http.MethodPost, "/v1/auth/register", "", map[string]string{
		"username": "traveler", "password": "Passw0rd", "confirmPassword": "Passw0rd",
	}, &e)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Username already exists", e.Error)

	code = a.call(http.MethodPost, "/v1/auth/register", "", map[string]string{
		"username": "ab", "password": "weak", "confirmPassword": "other",
	}, &e)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Please correct the highlighted fields", e.Error)
	assert.Contains(t, e.Fields, "username")
	assert.Contains(t, e.Fields, "password")
	assert.Contains(t, e.Fields, "confirmPassword")
}

func TestBookingFlow(t *testing.T) {
	a := newAPI(t)
	a.register("traveler", "Passw0rd")
	token := a.login("traveler", "Passw0rd")

	assert.Equal(t, http.StatusUnauthorized, a.call(http.MethodPost, "/v1/listings/2/reservations", "", stay("2024-07-01", "2024-07-05"), nil))

	var r model.Reservation
	require.Equal(t, http.StatusCreated, a.call(http.MethodPost, "/v1/listings/2/reservations", token, stay("2024-07-01", "2024-07-05"), &r))
	assert.Equal(t, int64(1000), r.TotalPrice)
	assert.Equal(t, model.StatusConfirmed, r.Status)

	var e errResp
	for _, dates := range [][2]string{
		{"2024-07-03", "2024-07-08"}, // overlaps the tail
		{"2024-06-30", "2024-07-10"}, // contains the stay
		{"2024-07-02", "2024-07-03"}, // inside the stay
	} {
		code := a.call(http.MethodPost, "/v1/listings/2/reservations", token, stay(dates[0], dates[1]), &e)
		assert.Equal(t, http.StatusConflict, code, dates)
		assert.Equal(t, "These dates are not available", e.Error)
	}

	// Checkout day is free for the next guest.
	require.Equal(t, http.StatusCreated, a.call(http.MethodPost, "/v1/listings/2/reservations", token, stay("2024-07-05", "2024-07-07"), nil))

	assert.Equal(t, http.StatusBadRequest, a.call(http.MethodPost, "/v1/listings/2/reservations", token, stay("2024-06-01", "2024-06-03"), &e))
	assert.Equal(t, "Start date cannot be in the past", e.Error)
	assert.Equal(t, http.StatusBadRequest, a.call(http.MethodPost, "/v1/listings/2/reservations", token, stay("soon", "later"), nil))
	assert.Equal(t, http.StatusNotFound, a.call(http.MethodPost, "/v1/listings/99/reservations", token, stay("2024-08-01", "2024-08-03"), nil))

	var mine []model.ReservationDetail
	require.Equal(t, http.StatusOK, a.call(http.MethodGet, "/v1/my-reservations", token, nil, &mine))
	require.Len(t, mine, 2)
	assert.Equal(t, "Seaside Cottage", mine[0].Listing.Title)

	// Another guest cannot cancel, the owner can.
	a.register("stranger", "Passw0rd")
	other := a.login("stranger", "Passw0rd")
	path := "/v1/reservations/" + strconv.FormatUint(r.ID, 10)
	assert.Equal(t, http.StatusForbidden, a.call(http.MethodDelete, path, other, nil, nil))
	assert.Equal(t, http.StatusNoContent, a.call(http.MethodDelete, path, token, nil, nil))
	assert.Equal(t, http.StatusNotFound, a.call(http.MethodDelete, path, token, nil, nil))
}

func TestReviewFlow(t *testing.T) {
	a := newAPI(t)
	a.register("traveler", "Passw0rd")
	token := a.login("traveler", "Passw0rd")

	review := map[string]any{
		"rating":  5,
		"title":   "Lovely stay",
		"comment": "Clean, quiet and right by the water. Would return.",
		"pros":    []string{"location", " "},
		"cons":    []string{},
	}

	var e errResp
	assert.Equal(t, http.StatusConflict, a.call(http.MethodPost, "/v1/listings/2/reviews", token, review, &e))
	assert.Equal(t, "You can only review listings you have stayed at", e.Error)

	// Completed stays cannot be booked through the API, so plant one.
	users, err := a.stores.Users.List(context.Background())
	require.NoError(t, err)
	var traveler model.User
	for _, u := range users {
		if u.Username == "traveler" {
			traveler = u
		}
	}
	_, err = a.stores.Reservations.Create(context.Background(), model.Reservation{
		ListingID: 2, UserID: traveler.ID,
		StartDate: model.MustParseDate("2024-05-01"), EndDate: model.MustParseDate("2024-05-04"),
		TotalPrice: 750, Status: model.StatusConfirmed,
	})
	require.NoError(t, err)

	var rv model.Review
	require.Equal(t, http.StatusCreated, a.call(http.MethodPost, "/v1/listings/2/reviews", token, review, &rv))
	assert.True(t, rv.IsVerified)
	assert.Equal(t, []string{"location"}, rv.Pros)
	assert.Equal(t, "2024-06-15", rv.Date.String())

	assert.Equal(t, http.StatusConflict, a.call(http.MethodPost, "/v1/listings/2/reviews", token, review, &e))
	assert.Equal(t, "You have already reviewed this listing", e.Error)

	var listed []model.ReviewDetail
	require.Equal(t, http.StatusOK, a.call(http.MethodGet, "/v1/listings/2/reviews", "", nil, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "traveler", listed[0].Author)

	// Owner response.
	admin := a.login("admin", "admin123")
	path := "/v1/admin/reviews/" + strconv.FormatUint(rv.ID, 10) + "/response"
	reply := map[string]string{"response": "Thanks for staying with us!"}
	assert.Equal(t, http.StatusForbidden, a.call(http.MethodPatch, path, token, reply, nil))
	require.Equal(t, http.StatusOK, a.call(http.MethodPatch, path, admin, reply, &rv))
	require.NotNil(t, rv.OwnerResponse)
	assert.Equal(t, "Thanks for staying with us!", *rv.OwnerResponse)
	assert.Equal(t, http.StatusConflict, a.call(http.MethodPatch, path, admin, reply, nil))
}

func TestAdminListings(t *testing.T) {
	a := newAPI(t)
	admin := a.login("admin", "admin123")
	a.register("traveler", "Passw0rd")
	guest := a.login("traveler", "Passw0rd")

	in := map[string]any{
		"title": "Lake House", "description": "Dock and two kayaks", "location": "Tahoe",
		"price": 210, "bedrooms": 3, "bathrooms": 2, "maxGuests": 6,
		"image": "https://images.example.com/lake.jpg",
	}
	assert.Equal(t, http.StatusUnauthorized, a.call(http.MethodPost, "/v1/admin/listings", "", in, nil))
	assert.Equal(t, http.StatusForbidden, a.call(http.MethodPost, "/v1/admin/listings", guest, in, nil))

	var l model.Listing
	require.Equal(t, http.StatusCreated, a.call(http.MethodPost, "/v1/admin/listings", admin, in, &l))
	assert.NotZero(t, l.ID)
	path := "/v1/admin/listings/" + strconv.FormatUint(l.ID, 10)

	in["price"] = 240
	require.Equal(t, http.StatusOK, a.call(http.MethodPut, path, admin, in, &l))
	assert.Equal(t, int64(240), l.Price)

	in["image"] = "not a url"
	in["bedrooms"] = 0
	var e errResp
	assert.Equal(t, http.StatusBadRequest, a.call(http.MethodPut, path, admin, in, &e))
	assert.Equal(t, "Image must be a valid URL", e.Fields["image"])
	assert.Equal(t, "Bedrooms must be at least 1", e.Fields["bedrooms"])

	assert.Equal(t, http.StatusNoContent, a.call(http.MethodDelete, path, admin, nil, nil))
	assert.Equal(t, http.StatusNotFound, a.call(http.MethodDelete, path, admin, nil, &e))
	assert.Equal(t, "Listing not found", e.Error)
}

func TestUnknownRoute(t *testing.T) {
	a := newAPI(t)
	var e errResp
	assert.Equal(t, http.StatusNotFound, a.call(http.MethodGet, "/nowhere", "", nil, &e))
	assert.Equal(t, "Not Found", e.Error)
}
