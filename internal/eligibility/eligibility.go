// Package eligibility decides whether a user may review a listing.
package eligibility

import (
	"errors"

	"github.com/iliyamo/staybook/internal/model"
)

var (
	ErrNotStayed       = errors.New("you can only review listings you have stayed at")
	ErrAlreadyReviewed = errors.New("you have already reviewed this listing")
)

// HasStayed reports whether userID holds a confirmed reservation of
// listingID whose end date is strictly before today.
func HasStayed(userID, listingID uint64, reservations []model.Reservation, today model.Date) bool {
	for _, r := range reservations {
		if r.UserID == userID && r.ListingID == listingID && r.Confirmed() && r.EndDate.Before(today) {
			return true
		}
	}
	return false
}

// HasReviewed reports whether userID already left a review on listingID.
func HasReviewed(userID, listingID uint64, reviews []model.Review) bool {
	for _, rv := range reviews {
		if rv.UserID == userID && rv.ListingID == listingID {
			return true
		}
	}
	return false
}

// Check returns nil when the user has completed a stay and has not yet
// reviewed the listing.  A missing stay is reported before a duplicate.
func Check(userID, listingID uint64, reservations []model.Reservation, reviews []model.Review, today model.Date) error {
	if !HasStayed(userID, listingID, reservations, today) {
		return ErrNotStayed
	}
	if HasReviewed(userID, listingID, reviews) {
		return ErrAlreadyReviewed
	}
	return nil
}
