package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/staybook/internal/model"
)

// Filter narrows a listing search.  Empty fields match everything.
type Filter struct {
	Query    string
	Location string
	MaxPrice *int64
}

// SearchResult carries the matches plus the distinct locations of the
// whole catalogue, in first-seen order, for building a location picker.
type SearchResult struct {
	Items     []model.Listing `json:"items"`
	Count     int             `json:"count"`
	Locations []string        `json:"locations"`
}

func (f Filter) match(l model.Listing) bool {
	if q := strings.ToLower(f.Query); q != "" {
		if !strings.Contains(strings.ToLower(l.Title), q) && !strings.Contains(strings.ToLower(l.Description), q) {
			return false
		}
	}
	if f.Location != "" && !strings.EqualFold(l.Location, f.Location) {
		return false
	}
	if f.MaxPrice != nil && l.Price > *f.MaxPrice {
		return false
	}
	return true
}

func (s *Service) ListListings(ctx context.Context) ([]model.Listing, error) {
	return s.stores.Listings.List(ctx)
}

func (s *Service) GetListing(ctx context.Context, id uint64) (model.Listing, error) {
	return s.stores.Listings.Get(ctx, id)
}

func (s *Service) Search(ctx context.Context, f Filter) (SearchResult, error) {
	all, err := s.stores.Listings.List(ctx)
	if err != nil {
		return SearchResult{}, err
	}
	res := SearchResult{Items: []model.Listing{}, Locations: []string{}}
	seen := map[string]bool{}
	for _, l := range all {
		if !seen[l.Location] {
			seen[l.Location] = true
			res.Locations = append(res.Locations, l.Location)
		}
		if f.match(l) {
			res.Items = append(res.Items, l)
		}
	}
	res.Count = len(res.Items)
	return res, nil
}

func (s *Service) CreateListing(ctx context.Context, actor *model.User, in ListingInput) (model.Listing, error) {
	if err := requireAdmin(actor); err != nil {
		return model.Listing{}, err
	}
	in = in.normalize()
	if err := check(in); err != nil {
		return model.Listing{}, err
	}
	l, err := s.stores.Listings.Create(ctx, in.listing(0))
	if err != nil {
		return model.Listing{}, err
	}
	s.log.Info("listing created", zap.Uint64("listing_id", l.ID), zap.Uint64("by", actor.ID))
	return l, nil
}

// UpdateListing replaces every field of listing id.
func (s *Service) UpdateListing(ctx context.Context, actor *model.User, id uint64, in ListingInput) (model.Listing, error) {
	if err := requireAdmin(actor); err != nil {
		return model.Listing{}, err
	}
	in = in.normalize()
	if err := check(in); err != nil {
		return model.Listing{}, err
	}
	if _, err := s.stores.Listings.Get(ctx, id); err != nil {
		return model.Listing{}, err
	}
	l, err := s.stores.Listings.Update(ctx, in.listing(id))
	if err != nil {
		return model.Listing{}, err
	}
	s.log.Info("listing updated", zap.Uint64("listing_id", id), zap.Uint64("by", actor.ID))
	return l, nil
}

// DeleteListing removes the listing only.  Reservations and reviews that
// reference it stay in the data store and are hidden from listings views.
func (s *Service) DeleteListing(ctx context.Context, actor *model.User, id uint64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.stores.Listings.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("listing deleted", zap.Uint64("listing_id", id), zap.Uint64("by", actor.ID))
	return nil
}
