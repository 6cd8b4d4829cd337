package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/staybook/internal/availability"
	"github.com/iliyamo/staybook/internal/lock"
	"github.com/iliyamo/staybook/internal/model"
	"github.com/iliyamo/staybook/internal/queue"
	"github.com/iliyamo/staybook/internal/store"
)

// Quote is the price of a stay.
type Quote struct {
	Nights        int   `json:"nights"`
	PricePerNight int64 `json:"pricePerNight"`
	TotalPrice    int64 `json:"totalPrice"`
}

// QuoteStay prices [start, end) as the rounded-up number of nights times
// the nightly price.
func QuoteStay(l model.Listing, start, end model.Date) Quote {
	nights := start.DaysUntil(end)
	if nights < 0 {
		nights = 0
	}
	return Quote{Nights: nights, PricePerNight: l.Price, TotalPrice: int64(nights) * l.Price}
}

// Quote validates the dates and prices a stay at listing id.
func (s *Service) Quote(ctx context.Context, listingID uint64, start, end model.Date) (Quote, error) {
	if err := validateStay(start, end, s.today()); err != nil {
		return Quote{}, err
	}
	l, err := s.stores.Listings.Get(ctx, listingID)
	if err != nil {
		return Quote{}, err
	}
	return QuoteStay(l, start, end), nil
}

// Book reserves [StartDate, EndDate) of a listing for actor.  If the
// reservation snapshot cannot be fetched nothing is written.
func (s *Service) Book(ctx context.Context, actor *model.User, in BookingInput) (model.Reservation, error) {
	if err := requireUser(actor); err != nil {
		return model.Reservation{}, err
	}
	if err := validateStay(in.StartDate, in.EndDate, s.today()); err != nil {
		s.rejectBooking("invalid", in, actor, err)
		return model.Reservation{}, err
	}

	unlock, err := s.locker.Lock(ctx, lock.ListingKey(in.ListingID))
	if err != nil {
		return model.Reservation{}, err
	}
	unlock = releaseOnce(unlock)
	defer unlock()

	l, err := s.stores.Listings.Get(ctx, in.ListingID)
	if err != nil {
		return model.Reservation{}, err
	}
	existing, err := s.stores.Reservations.List(ctx)
	if err != nil {
		s.log.Error("fetch reservations failed", zap.Uint64("listing_id", in.ListingID), zap.Error(err))
		return model.Reservation{}, fmt.Errorf("fetch reservations: %w", err)
	}
	if err := availability.Check(in.ListingID, in.StartDate, in.EndDate, existing); err != nil {
		s.rejectBooking("unavailable", in, actor, err)
		return model.Reservation{}, ErrDatesUnavailable
	}

	q := QuoteStay(l, in.StartDate, in.EndDate)
	r, err := s.stores.Reservations.Create(ctx, model.Reservation{
		ListingID:  in.ListingID,
		UserID:     actor.ID,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		TotalPrice: q.TotalPrice,
		Status:     model.StatusConfirmed,
	})
	if errors.Is(err, store.ErrConflict) {
		s.rejectBooking("conflict", in, actor, err)
		return model.Reservation{}, ErrDatesUnavailable
	}
	if err != nil {
		s.log.Error("create reservation failed", zap.Uint64("listing_id", in.ListingID), zap.Error(err))
		return model.Reservation{}, fmt.Errorf("create reservation: %w", err)
	}

	unlock()

	s.metrics.BookingsCreated.Inc()
	s.log.Info("reservation confirmed",
		zap.Uint64("reservation_id", r.ID),
		zap.Uint64("listing_id", r.ListingID),
		zap.Uint64("user_id", r.UserID),
		zap.Stringer("start", r.StartDate),
		zap.Stringer("end", r.EndDate),
		zap.Int64("total", r.TotalPrice),
	)
	s.publish(ctx, queue.ReservationConfirmedQueue, queue.ReservationConfirmedEvent{
		ReservationID: r.ID,
		ListingID:     l.ID,
		ListingTitle:  l.Title,
		UserID:        actor.ID,
		Username:      actor.Username,
		StartDate:     r.StartDate.String(),
		EndDate:       r.EndDate.String(),
		Nights:        q.Nights,
		TotalPrice:    r.TotalPrice,
		ConfirmedAt:   s.stamp(),
	})
	return r, nil
}

func (s *Service) rejectBooking(reason string, in BookingInput, actor *model.User, err error) {
	s.metrics.BookingRejections.WithLabelValues(reason).Inc()
	s.log.Info("booking rejected",
		zap.String("reason", reason),
		zap.Uint64("listing_id", in.ListingID),
		zap.Uint64("user_id", actor.ID),
		zap.Error(err),
	)
}

// ListReservations returns actor's reservations joined with their
// listings.  Reservations whose listing no longer exists are dropped.
func (s *Service) ListReservations(ctx context.Context, actor *model.User) ([]model.ReservationDetail, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	mine, err := s.stores.Reservations.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	listings, err := s.stores.Listings.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint64]model.Listing, len(listings))
	for _, l := range listings {
		byID[l.ID] = l
	}
	out := make([]model.ReservationDetail, 0, len(mine))
	for _, r := range mine {
		if l, ok := byID[r.ListingID]; ok {
			out = append(out, model.ReservationDetail{Reservation: r, Listing: l})
		}
	}
	return out, nil
}

// Cancel deletes a reservation.  Guests may cancel their own; admins may
// cancel any.
func (s *Service) Cancel(ctx context.Context, actor *model.User, id uint64) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	all, err := s.stores.Reservations.List(ctx)
	if err != nil {
		return err
	}
	var target *model.Reservation
	for i := range all {
		if all[i].ID == id {
			target = &all[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("reservation %d: %w", id, store.ErrNotFound)
	}
	if target.UserID != actor.ID && !actor.IsAdmin {
		return ErrForbidden
	}
	if err := s.stores.Reservations.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("reservation cancelled", zap.Uint64("reservation_id", id), zap.Uint64("by", actor.ID))
	s.publish(ctx, queue.ReservationCancelledQueue, queue.ReservationCancelledEvent{
		ReservationID: id,
		ListingID:     target.ListingID,
		UserID:        target.UserID,
		CancelledBy:   actor.ID,
		CancelledAt:   s.stamp(),
	})
	return nil
}
