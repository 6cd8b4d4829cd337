package cli

import (
	"bytes"
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/staybook/internal/model"
	"github.com/iliyamo/staybook/internal/service"
	"github.com/iliyamo/staybook/internal/session"
	"github.com/iliyamo/staybook/internal/store"
	"github.com/iliyamo/staybook/internal/store/memory"
)

// harness keeps the store and the session file between invocations, the
// way two shell commands share ~/.staybook/session.json.
type harness struct {
	t       *testing.T
	stores  store.Stores
	storage *session.MemoryStorage
}

func newHarness(t *testing.T) *harness {
	return &harness{t: t, stores: memory.Seed().Stores(), storage: &session.MemoryStorage{}}
}

func (h *harness) build(c *cli.Context) (*Runtime, error) {
	svc := service.New(service.Options{
		Stores:     h.stores,
		BcryptCost: bcrypt.MinCost,
		Now:        func() time.Time { return time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC) },
	})
	holder := session.New(h.storage, svc.Users())
	if err := holder.Restore(c.Context); err != nil {
		return nil, err
	}
	return &Runtime{Svc: svc, Session: holder}, nil
}

// run executes one command line and returns its output.
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	var out bytes.Buffer
	app := NewApp(h.build)
	app.Writer = &out
	app.ErrWriter = &out
	err := app.RunContext(context.Background(), append([]string{"staybook"}, args...))
	return out.String(), err
}

func (h *harness) ok(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, out)
	return out
}

func TestLoginPersistsAcrossRuns(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, "Not logged in\n", h.ok("whoami"))

	_, err := h.run("login", "-u", "admin", "-p", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid username or password", err.Error())
	assert.Equal(t, "Not logged in\n", h.ok("whoami"))

	assert.Equal(t, "Logged in as admin (admin)\n", h.ok("login", "-u", "admin", "-p", "admin123"))
	assert.Equal(t, "admin (admin)\n", h.ok("whoami"))

	h.ok("logout")
	assert.Equal(t, "Not logged in\n", h.ok("whoami"))
}

func TestRegisterValidation(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("register", "-u", "ab", "-p", "weak", "--confirm", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Please correct the highlighted fields")
	assert.Contains(t, err.Error(), "username: Username must be at least 3 characters")

	assert.Contains(t, h.ok("register", "-u", "traveler", "-p", "Passw0rd"), "Registered traveler")
	_, err = h.run("register", "-u", "traveler", "-p", "Passw0rd")
	require.Error(t, err)
	assert.Equal(t, "Username already exists", err.Error())
}

func TestListingsAndShow(t *testing.T) {
	h := newHarness(t)
	out := h.ok("listings", "--max-price", "250")
	assert.Contains(t, out, "Seaside Cottage")
	assert.Contains(t, out, "Downtown Loft")
	assert.NotContains(t, out, "Mountain Cabin")
	assert.Contains(t, out, "2 listing(s)")
	assert.Contains(t, out, "Locations: Malibu, New York, Aspen")

	assert.Contains(t, h.ok("listings", "-q", "nothing-like-this"), "No listings match your filters")

	out = h.ok("show", "4")
	assert.Contains(t, out, "Mountain Cabin (#4)")
	assert.Contains(t, out, "No reviews yet")

	_, err := h.run("show", "404")
	require.Error(t, err)
	assert.Equal(t, "Listing not found", err.Error())
}

func TestBookingCommands(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("book", "--from", "2024-07-01", "--to", "2024-07-04", "2")
	require.Error(t, err)
	assert.Equal(t, "Please log in to continue", err.Error())

	h.ok("register", "-u", "traveler", "-p", "Passw0rd")
	h.ok("login", "-u", "traveler", "-p", "Passw0rd")

	assert.Equal(t, "3 night(s) x $250 = $750\n", h.ok("quote", "--from", "2024-07-01", "--to", "2024-07-04", "2"))
	out := h.ok("book", "--from", "2024-07-01", "--to", "2024-07-04", "2")
	assert.Contains(t, out, "confirmed: 2024-07-01 to 2024-07-04, total $750")

	_, err = h.run("book", "--from", "2024-06-28", "--to", "2024-07-10", "2")
	require.Error(t, err)
	assert.Equal(t, "These dates are not available", err.Error())

	_, err = h.run("book", "--from", "tomorrow", "--to", "2024-07-10", "2")
	require.Error(t, err)
	assert.Equal(t, "Dates must be in YYYY-MM-DD format", err.Error())

	out = h.ok("reservations")
	assert.Contains(t, out, "Seaside Cottage")
	assert.Contains(t, out, "confirmed")

	rs, err := h.stores.Reservations.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Contains(t, h.ok("cancel", strconv.FormatUint(rs[0].ID, 10)), "cancelled")
	assert.Equal(t, "You have no reservations\n", h.ok("reservations"))
}

func TestReviewAndRespond(t *testing.T) {
	h := newHarness(t)
	h.ok("register", "-u", "traveler", "-p", "Passw0rd")
	h.ok("login", "-u", "traveler", "-p", "Passw0rd")

	args := []string{"review", "-r", "4", "-t", "Great loft", "-c", "Loved the light and the location downtown.", "--pro", "location", "--con", "noise", "3"}
	_, err := h.run(args...)
	require.Error(t, err)
	assert.Equal(t, "You can only review listings you have stayed at", err.Error())

	users, err := h.stores.Users.List(context.Background())
	require.NoError(t, err)
	var traveler model.User
	for _, u := range users {
		if u.Username == "traveler" {
			traveler = u
		}
	}
	_, err = h.stores.Reservations.Create(context.Background(), model.Reservation{
		ListingID: 3, UserID: traveler.ID, StartDate: model.MustParseDate("2024-06-01"), EndDate: model.MustParseDate("2024-06-05"),
		TotalPrice: 720, Status: model.StatusConfirmed,
	})
	require.NoError(t, err)

	assert.Contains(t, h.ok(args...), "submitted")
	_, err = h.run(args...)
	require.Error(t, err)
	assert.Equal(t, "You have already reviewed this listing", err.Error())

	reviews, err := h.stores.Reviews.ListByListing(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	rid := strconv.FormatUint(reviews[0].ID, 10)

	_, err = h.run("respond", "--text", "Thanks for the kind words!", rid)
	require.Error(t, err)
	assert.Equal(t, "You do not have permission to do that", err.Error())

	h.ok("login", "-u", "admin", "-p", "admin123")
	h.ok("respond", "--text", "Thanks for the kind words!", rid)

	out := h.ok("show", "3")
	assert.Contains(t, out, "Rating 4.0 (1 review(s))")
	assert.Contains(t, out, "by traveler on 2024-06-15 [verified stay]")
	assert.Contains(t, out, "+ location")
	assert.Contains(t, out, "- noise")
	assert.Contains(t, out, "Owner: Thanks for the kind words!")
}

func TestAdminCommands(t *testing.T) {
	h := newHarness(t)
	add := []string{"admin", "add", "--title", "Lake House", "--description", "Dock and kayaks", "--location", "Tahoe",
		"--price", "210", "--bedrooms", "3", "--bathrooms", "2", "--guests", "6", "--image", "https://images.example.com/lake.jpg"}

	_, err := h.run(add...)
	require.Error(t, err)
	assert.Equal(t, "Please log in to continue", err.Error())

	h.ok("login", "-u", "admin", "-p", "admin123")
	assert.Contains(t, h.ok(add...), "Created listing #5 Lake House")

	h.ok("admin", "edit", "--price", "199", "5")
	l, err := h.stores.Listings.Get(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(199), l.Price)
	assert.Equal(t, "Tahoe", l.Location, "unset flags keep their values")

	_, err = h.run("admin", "edit", "--image", "nope", "--guests", "0", "5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image: Image must be a valid URL")

	h.ok("admin", "delete", "5")
	_, err = h.run("admin", "delete", "5")
	require.Error(t, err)
	assert.Equal(t, "Listing not found", err.Error())
}
