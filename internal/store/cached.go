package store

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/iliyamo/staybook/internal/model"
)

const allListings = "all"

// CachedListings wraps a ListingStore with a bounded, expiring read cache.
// Writes through the wrapper invalidate the affected entries; changes
// made directly in the data store become visible after the TTL.
type CachedListings struct {
	next ListingStore
	byID *expirable.LRU[uint64, model.Listing]
	list *expirable.LRU[string, []model.Listing]
}

// NewCachedListings returns next unchanged when size is not positive.
func NewCachedListings(next ListingStore, size int, ttl time.Duration) ListingStore {
	if size <= 0 {
		return next
	}
	return &CachedListings{
		next: next,
		byID: expirable.NewLRU[uint64, model.Listing](size, nil, ttl),
		list: expirable.NewLRU[string, []model.Listing](1, nil, ttl),
	}
}

func (c *CachedListings) List(ctx context.Context) ([]model.Listing, error) {
	if ls, ok := c.list.Get(allListings); ok {
		return append([]model.Listing(nil), ls...), nil
	}
	ls, err := c.next.List(ctx)
	if err != nil {
		return nil, err
	}
	c.list.Add(allListings, append([]model.Listing(nil), ls...))
	return ls, nil
}

func (c *CachedListings) Get(ctx context.Context, id uint64) (model.Listing, error) {
	if l, ok := c.byID.Get(id); ok {
		return l, nil
	}
	l, err := c.next.Get(ctx, id)
	if err != nil {
		return model.Listing{}, err
	}
	c.byID.Add(id, l)
	return l, nil
}

func (c *CachedListings) Create(ctx context.Context, l model.Listing) (model.Listing, error) {
	out, err := c.next.Create(ctx, l)
	if err == nil {
		c.list.Purge()
	}
	return out, err
}

func (c *CachedListings) Update(ctx context.Context, l model.Listing) (model.Listing, error) {
	out, err := c.next.Update(ctx, l)
	c.invalidate(l.ID)
	return out, err
}

func (c *CachedListings) Delete(ctx context.Context, id uint64) error {
	err := c.next.Delete(ctx, id)
	c.invalidate(id)
	return err
}

func (c *CachedListings) invalidate(id uint64) {
	c.byID.Remove(id)
	c.list.Purge()
}
