// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

// Queue names.  The routing key on the default exchange equals the queue.
const (
    ReservationConfirmedQueue = "reservation.confirmed"
    ReservationCancelledQueue = "reservation.cancelled"
    ReviewSubmittedQueue      = "review.submitted"
)

// Queues lists every queue the consumer listens on.
var Queues = []string{ReservationConfirmedQueue, ReservationCancelledQueue, ReviewSubmittedQueue}

// ReservationConfirmedEvent is published when a reservation is persisted.
// It contains enough information for downstream consumers to log, notify,
// or trigger analytics without querying the data store.
type ReservationConfirmedEvent struct {
    ReservationID uint64 `json:"reservation_id"`
    ListingID     uint64 `json:"listing_id"`
    ListingTitle  string `json:"listing_title"`
    UserID        uint64 `json:"user_id"`
    Username      string `json:"username"`
    StartDate     string `json:"start_date"`
    EndDate       string `json:"end_date"`
    Nights        int    `json:"nights"`
    TotalPrice    int64  `json:"total_price"`
    ConfirmedAt   string `json:"confirmed_at"`
}

// ReservationCancelledEvent is published when a reservation is deleted.
type ReservationCancelledEvent struct {
    ReservationID uint64 `json:"reservation_id"`
    ListingID     uint64 `json:"listing_id"`
    UserID        uint64 `json:"user_id"`
    CancelledBy   uint64 `json:"cancelled_by"`
    CancelledAt   string `json:"cancelled_at"`
}

// ReviewSubmittedEvent is published when a review is persisted.
type ReviewSubmittedEvent struct {
    ReviewID    uint64 `json:"review_id"`
    ListingID   uint64 `json:"listing_id"`
    UserID      uint64 `json:"user_id"`
    Username    string `json:"username"`
    Rating      int    `json:"rating"`
    Title       string `json:"title"`
    SubmittedAt string `json:"submitted_at"`
}
