package rest

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/iliyamo/staybook/internal/model"
)

// Reservations is the /reservations collection.  The data store has no
// notion of overlap, so Create never returns store.ErrConflict; callers
// must check availability first.
type Reservations struct{ c *Client }

func (s *Reservations) List(ctx context.Context) ([]model.Reservation, error) {
	var out []model.Reservation
	if err := s.c.do(ctx, http.MethodGet, "/reservations", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Reservations) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	q := url.Values{"userId": {strconv.FormatUint(userID, 10)}}
	var out []model.Reservation
	if err := s.c.do(ctx, http.MethodGet, "/reservations", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Reservations) Create(ctx context.Context, r model.Reservation) (model.Reservation, error) {
	r.ID = 0
	var out model.Reservation
	err := s.c.do(ctx, http.MethodPost, "/reservations", nil, r, &out)
	return out, err
}

func (s *Reservations) Delete(ctx context.Context, id uint64) error {
	return s.c.do(ctx, http.MethodDelete, idPath("reservations", id), nil, nil, nil)
}
