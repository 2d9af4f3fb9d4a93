// Package cache fronts the home page's "recent active listings" query with a
// short-TTL in-process cache. Concurrent misses may each recompute and
// overwrite the entry; the query is a cheap read, so there is no
// single-flight de-duplication.
package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"propertysite/internal/model"
)

const featuredKey = "featured_properties"

// DefaultTTL bounds how stale the featured set may get when a write path
// forgets to invalidate.
const DefaultTTL = 5 * time.Minute

type FetchFunc func(ctx context.Context) ([]model.Property, error)

// FeaturedCache is an injectable component, not a package singleton, so
// tests can build and reset one per case.
type FeaturedCache struct {
	store *gocache.Cache
	fetch FetchFunc
}

func NewFeatured(ttl time.Duration, fetch FetchFunc) *FeaturedCache {
	return &FeaturedCache{
		store: gocache.New(ttl, ttl),
		fetch: fetch,
	}
}

// Get returns the cached featured listings, fetching on a miss. Entries are
// stored and returned as detached copies so cached values are immune to
// mutation by reference.
func (c *FeaturedCache) Get(ctx context.Context) ([]model.Property, error) {
	if v, ok := c.store.Get(featuredKey); ok {
		return cloneProperties(v.([]model.Property)), nil
	}
	ps, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}
	c.store.Set(featuredKey, cloneProperties(ps), gocache.DefaultExpiration)
	return ps, nil
}

// Invalidate drops the cached entry. Every write path that changes which
// listings qualify as featured calls this, bounding staleness below the TTL.
func (c *FeaturedCache) Invalidate() {
	c.store.Delete(featuredKey)
}

func cloneProperties(ps []model.Property) []model.Property {
	out := make([]model.Property, len(ps))
	for i, p := range ps {
		out[i] = p
		out[i].Images = append([]string(nil), p.Images...)
		out[i].Videos = append([]model.VideoRef(nil), p.Videos...)
		out[i].Features = append([]string(nil), p.Features...)
		if p.MainVideo != nil {
			mv := *p.MainVideo
			out[i].MainVideo = &mv
		}
	}
	return out
}
