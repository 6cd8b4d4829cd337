package rest

import (
	"context"
	"net/http"

	"github.com/iliyamo/staybook/internal/model"
)

// Listings is the /listings collection.
type Listings struct{ c *Client }

func (s *Listings) List(ctx context.Context) ([]model.Listing, error) {
	var out []model.Listing
	if err := s.c.do(ctx, http.MethodGet, "/listings", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Listings) Get(ctx context.Context, id uint64) (model.Listing, error) {
	var out model.Listing
	err := s.c.do(ctx, http.MethodGet, idPath("listings", id), nil, nil, &out)
	return out, err
}

func (s *Listings) Create(ctx context.Context, l model.Listing) (model.Listing, error) {
	l.ID = 0
	var out model.Listing
	err := s.c.do(ctx, http.MethodPost, "/listings", nil, l, &out)
	return out, err
}

// Update issues a PUT, so every field of l replaces the stored one.
func (s *Listings) Update(ctx context.Context, l model.Listing) (model.Listing, error) {
	var out model.Listing
	err := s.c.do(ctx, http.MethodPut, idPath("listings", l.ID), nil, l, &out)
	return out, err
}

func (s *Listings) Delete(ctx context.Context, id uint64) error {
	return s.c.do(ctx, http.MethodDelete, idPath("listings", id), nil, nil, nil)
}
