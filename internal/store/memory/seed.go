package memory

import (
	"github.com/iliyamo/staybook/internal/model"
)

// Seed returns a DB preloaded with a small demo catalogue and the
// admin/admin123 account.  The admin password is stored in plaintext the
// way the bundled data store fixture does, so the legacy login path is
// exercised.
func Seed() *DB {
	db := New()
	db.users = []model.User{
		{ID: 1, Username: "admin", Password: "admin123", IsAdmin: true},
	}
	db.listings = []model.Listing{
		{
			ID: 2, Title: "Seaside Cottage", Location: "Malibu", Price: 250,
			Bedrooms: 2, Bathrooms: 1, MaxGuests: 4,
			Image:       "https://images.example.com/cottage.jpg",
			Description: "A quiet cottage a short walk from the beach.",
		},
		{
			ID: 3, Title: "Downtown Loft", Location: "New York", Price: 180,
			Bedrooms: 1, Bathrooms: 1, MaxGuests: 2,
			Image:       "https://images.example.com/loft.jpg",
			Description: "Open plan loft close to the subway and restaurants.",
		},
		{
			ID: 4, Title: "Mountain Cabin", Location: "Aspen", Price: 320,
			Bedrooms: 3, Bathrooms: 2, MaxGuests: 6,
			Image:       "https://images.example.com/cabin.jpg",
			Description: "Log cabin with a fireplace and views of the slopes.",
		},
	}
	db.nextID = 4
	return db
}
