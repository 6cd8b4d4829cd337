package model

// StatusConfirmed is the only persisted reservation status.  A cancelled
// reservation is deleted from the data store rather than flagged.
const StatusConfirmed = "confirmed"

// Reservation records a user's booking of a listing for the half-open
// date range [StartDate, EndDate): the guest leaves on EndDate, so that
// night is free for the next booking.
//
// Fields:
//  ID         – data store identifier.
//  ListingID  – booked listing.
//  UserID     – guest who made the booking.
//  StartDate  – check-in day (first occupied night).
//  EndDate    – check-out day (not occupied).
//  TotalPrice – nights × nightly price at booking time.
//  Status     – always StatusConfirmed for stored records.
type Reservation struct {
	ID         uint64 `json:"id,omitempty"`
	ListingID  uint64 `json:"listingId"`
	UserID     uint64 `json:"userId"`
	StartDate  Date   `json:"startDate"`
	EndDate    Date   `json:"endDate"`
	TotalPrice int64  `json:"totalPrice"`
	Status     string `json:"status"`
}

// Confirmed reports whether r takes part in availability checks.  Records
// written before status was introduced carry an empty status and are
// treated as confirmed.
func (r Reservation) Confirmed() bool {
	return r.Status == StatusConfirmed || r.Status == ""
}

// ReservationDetail pairs a reservation with the listing it belongs to,
// as shown on the "my reservations" page.
type ReservationDetail struct {
	Reservation
	Listing Listing `json:"listing"`
}
