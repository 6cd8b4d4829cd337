package rest

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/iliyamo/staybook/internal/model"
)

// Reviews is the /reviews collection.
type Reviews struct{ c *Client }

func (s *Reviews) List(ctx context.Context) ([]model.Review, error) {
	var out []model.Review
	if err := s.c.do(ctx, http.MethodGet, "/reviews", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Reviews) ListByListing(ctx context.Context, listingID uint64) ([]model.Review, error) {
	q := url.Values{"listingId": {strconv.FormatUint(listingID, 10)}}
	var out []model.Review
	if err := s.c.do(ctx, http.MethodGet, "/reviews", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Reviews) Create(ctx context.Context, r model.Review) (model.Review, error) {
	r.ID = 0
	var out model.Review
	err := s.c.do(ctx, http.MethodPost, "/reviews", nil, r, &out)
	return out, err
}

// SetOwnerResponse PATCHes only the ownerResponse field.
func (s *Reviews) SetOwnerResponse(ctx context.Context, id uint64, response string) (model.Review, error) {
	body := map[string]string{"ownerResponse": response}
	var out model.Review
	err := s.c.do(ctx, http.MethodPatch, idPath("reviews", id), nil, body, &out)
	return out, err
}
