// Package availability decides whether a date range can be booked for a
// listing given the reservations that already exist.
//
// Ranges are half-open: a reservation [start, end) occupies the nights
// from start up to but not including end, so a stay ending on the 15th
// and another starting on the 15th do not conflict.
package availability

import (
	"errors"

	"github.com/iliyamo/staybook/internal/model"
)

// ErrUnavailable reports that the candidate range overlaps an existing
// confirmed reservation of the same listing.
var ErrUnavailable = errors.New("these dates are not available")

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) share at
// least one night.  It is symmetric and catches containment in either
// direction.
func Overlaps(aStart, aEnd, bStart, bEnd model.Date) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// FindConflict returns the first confirmed reservation of listingID that
// overlaps [start, end).
func FindConflict(listingID uint64, start, end model.Date, existing []model.Reservation) (model.Reservation, bool) {
	for _, r := range existing {
		if r.ListingID != listingID || !r.Confirmed() {
			continue
		}
		if Overlaps(start, end, r.StartDate, r.EndDate) {
			return r, true
		}
	}
	return model.Reservation{}, false
}

// Check returns ErrUnavailable when [start, end) cannot be booked.
func Check(listingID uint64, start, end model.Date, existing []model.Reservation) error {
	if _, ok := FindConflict(listingID, start, end, existing); ok {
		return ErrUnavailable
	}
	return nil
}
