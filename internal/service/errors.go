package service

import (
	"errors"
	"sort"
	"strings"

	"github.com/iliyamo/staybook/internal/availability"
	"github.com/iliyamo/staybook/internal/eligibility"
	"github.com/iliyamo/staybook/internal/lock"
	"github.com/iliyamo/staybook/internal/session"
	"github.com/iliyamo/staybook/internal/store"
)

// Business-rule rejections.  errors.Is works against these values.
var (
	ErrDatesUnavailable   = availability.ErrUnavailable
	ErrNotStayed          = eligibility.ErrNotStayed
	ErrAlreadyReviewed    = eligibility.ErrAlreadyReviewed
	ErrInvalidCredentials = session.ErrInvalidCredentials
	ErrUsernameTaken      = errors.New("username already exists")
	ErrForbidden          = errors.New("forbidden")
	ErrAlreadyResponded   = errors.New("review already has an owner response")
	ErrLoginRequired      = errors.New("login required")
)

// ValidationError maps input field names to the first rule each violates.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// Op names a user action for Message.
type Op string

const (
	OpRegister        Op = "register"
	OpLogin           Op = "login"
	OpListListings    Op = "listings.list"
	OpGetListing      Op = "listings.get"
	OpSaveListing     Op = "listings.save"
	OpDeleteListing   Op = "listings.delete"
	OpQuote           Op = "bookings.quote"
	OpBook            Op = "bookings.create"
	OpListBookings    Op = "bookings.list"
	OpCancelBooking   Op = "bookings.cancel"
	OpListReviews     Op = "reviews.list"
	OpSubmitReview    Op = "reviews.submit"
	OpRespondToReview Op = "reviews.respond"
)

// Fallback text when the failure is not a recognised rejection, usually
// a data store or transport error.
var opFailure = map[Op]string{
	OpRegister:        "Failed to create user",
	OpLogin:           "Login failed. Please try again.",
	OpListListings:    "Error loading listings",
	OpGetListing:      "Error loading listing details",
	OpSaveListing:     "Failed to save listing",
	OpDeleteListing:   "Failed to delete listing",
	OpQuote:           "Error loading listing details",
	OpBook:            "Failed to create reservation",
	OpListBookings:    "Error loading reservations",
	OpCancelBooking:   "Error canceling reservation",
	OpListReviews:     "Error loading reviews",
	OpSubmitReview:    "Error submitting review. Please try again.",
	OpRespondToReview: "Failed to submit response",
}

var notFoundText = map[Op]string{
	OpGetListing:      "Listing not found",
	OpSaveListing:     "Listing not found",
	OpDeleteListing:   "Listing not found",
	OpQuote:           "Listing not found",
	OpBook:            "Listing not found",
	OpSubmitReview:    "Listing not found",
	OpListReviews:     "Listing not found",
	OpCancelBooking:   "Reservation not found",
	OpRespondToReview: "Review not found",
}

// Message converts err into the static string shown to users.  Internal
// details such as URLs or status codes never leak through it.
func Message(op Op, err error) string {
	var verr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		if len(verr.Fields) == 1 {
			for _, msg := range verr.Fields {
				return msg
			}
		}
		return "Please correct the highlighted fields"
	case errors.Is(err, ErrDatesUnavailable):
		return "These dates are not available"
	case errors.Is(err, ErrNotStayed):
		return "You can only review listings you have stayed at"
	case errors.Is(err, ErrAlreadyReviewed):
		return "You have already reviewed this listing"
	case errors.Is(err, ErrUsernameTaken):
		return "Username already exists"
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid username or password"
	case errors.Is(err, ErrLoginRequired):
		return "Please log in to continue"
	case errors.Is(err, ErrForbidden):
		return "You do not have permission to do that"
	case errors.Is(err, ErrAlreadyResponded):
		return "This review already has a response"
	case errors.Is(err, lock.ErrNotAcquired):
		return "The system is busy. Please try again."
	case errors.Is(err, store.ErrNotFound):
		if s, ok := notFoundText[op]; ok {
			return s
		}
	}
	if s, ok := opFailure[op]; ok {
		return s
	}
	return "Something went wrong. Please try again."
}

// IsRejection reports whether err is a business-rule or validation
// rejection rather than an infrastructure failure.
func IsRejection(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr) ||
		errors.Is(err, ErrDatesUnavailable) ||
		errors.Is(err, ErrNotStayed) ||
		errors.Is(err, ErrAlreadyReviewed) ||
		errors.Is(err, ErrUsernameTaken) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrAlreadyResponded) ||
		errors.Is(err, ErrLoginRequired)
}
